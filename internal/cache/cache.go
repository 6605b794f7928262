// Package cache stores computed summaries in BadgerDB so repeated requests
// for the same run and options skip the diagnostics pass.
//
// Keys are "summary/<run id>/<options hash>"; values are the JSON encoding
// of diagnostics.Summary. Archived runs are immutable, so entries never go
// stale until the run is deleted and Invalidate drops them.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/roach88/posterior/internal/diagnostics"
)

// ErrMiss is returned by GetSummary when nothing is cached for the key.
var ErrMiss = errors.New("cache miss")

// Config holds configuration for a cache instance.
type Config struct {
	// Dir is the directory for BadgerDB files. Ignored when InMemory is true.
	Dir string

	// InMemory keeps everything in RAM. Useful for tests and `serve` without
	// a cache directory.
	InMemory bool

	// TTL expires entries after the given duration. Zero keeps them forever.
	TTL time.Duration

	// Logger receives BadgerDB's internal logs. Nil disables them.
	Logger *slog.Logger
}

// Cache is a summary cache. Safe for concurrent use.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens the cache described by cfg.
func Open(cfg Config) (*Cache, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("cache directory is required unless in-memory")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open summary cache: %w", err)
	}
	return &Cache{db: db, ttl: cfg.TTL}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func runPrefix(runID string) []byte {
	return []byte("summary/" + runID + "/")
}

func summaryKey(runID string, opts diagnostics.Options) []byte {
	return append(runPrefix(runID), opts.Key()...)
}

// GetSummary returns the cached summary for (runID, opts) or ErrMiss.
func (c *Cache) GetSummary(runID string, opts diagnostics.Options) (*diagnostics.Summary, error) {
	var summary diagnostics.Summary
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(summaryKey(runID, opts))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &summary)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cached summary for %s: %w", runID, err)
	}
	return &summary, nil
}

// PutSummary caches summary under (runID, opts).
func (c *Cache) PutSummary(runID string, opts diagnostics.Options, summary *diagnostics.Summary) error {
	val, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary for %s: %w", runID, err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(summaryKey(runID, opts), val)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache summary for %s: %w", runID, err)
	}
	return nil
}

// Invalidate drops every cached summary of runID.
func (c *Cache) Invalidate(runID string) error {
	if err := c.db.DropPrefix(runPrefix(runID)); err != nil {
		return fmt.Errorf("invalidate summaries for %s: %w", runID, err)
	}
	return nil
}
