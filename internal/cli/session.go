package cli

import (
	"github.com/roach88/posterior/internal/cache"
	"github.com/roach88/posterior/internal/store"
)

// session holds the resources a command opens from the loaded config.
type session struct {
	runs  *store.Store
	cache *cache.Cache // nil when caching is disabled or not requested
	opts  *RootOptions
}

// openSession opens the run archive and, when withCache is set and caching
// is enabled, the summary cache. A cache that fails to open is logged and
// skipped: it only ever saves work.
func openSession(opts *RootOptions, withCache bool) (*session, error) {
	opts.Logger.Debug("opening database", "path", opts.Config.Database)
	runs, err := store.Open(opts.Config.Database)
	if err != nil {
		return nil, err
	}
	s := &session{runs: runs, opts: opts}

	cc := opts.Config.Cache
	if withCache && cc.Enabled {
		c, err := cache.Open(cache.Config{Dir: cc.Dir, InMemory: cc.InMemory, TTL: cc.TTL, Logger: opts.Logger})
		if err != nil {
			opts.Logger.Warn("summary cache unavailable", "dir", cc.Dir, "error", err)
		} else {
			s.cache = c
		}
	}
	return s, nil
}

func (s *session) Close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.opts.Logger.Error("error closing cache", "error", err)
		}
	}
	if err := s.runs.Close(); err != nil {
		s.opts.Logger.Error("error closing database", "error", err)
	}
}
