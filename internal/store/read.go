package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// RunInfo describes an archived run.
type RunInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	Chains      int       `json:"chains"`
	Draws       int       `json:"draws"`
	Adapt       int       `json:"num_adaptive"`
	SourceChain int       `json:"source_chain"` // -1 unless saved from a chain view
	Variables   int       `json:"variables"`
}

const runColumns = `
	r.id, r.name, r.created_at, r.num_chains, r.num_draws, r.num_adaptive, r.source_chain,
	(SELECT COUNT(*) FROM variables v WHERE v.run_id = r.id)
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunInfo, error) {
	var info RunInfo
	var created int64
	err := row.Scan(
		&info.ID,
		&info.Name,
		&created,
		&info.Chains,
		&info.Draws,
		&info.Adapt,
		&info.SourceChain,
		&info.Variables,
	)
	if err != nil {
		return RunInfo{}, err
	}
	info.CreatedAt = time.Unix(0, created).UTC()
	return info, nil
}

// GetRun returns the metadata of one run.
func (s *Store) GetRun(ctx context.Context, id string) (RunInfo, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs r WHERE r.id = ?", id)
	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return RunInfo{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return info, nil
}

// ListRuns returns all runs ordered by creation time, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+`
		FROM runs r
		ORDER BY r.created_at ASC, r.id ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

type storedVariable struct {
	id    string
	ref   ir.VariableRef
	shape []int
}

// LoadRun rebuilds the sample store saved under id.
// The result is always a full store, even for runs saved from a chain view.
func (s *Store) LoadRun(ctx context.Context, id string) (*samples.Store, RunInfo, error) {
	info, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, RunInfo{}, fmt.Errorf("load run: %w", err)
	}

	vars, err := s.readVariables(ctx, id)
	if err != nil {
		return nil, RunInfo{}, fmt.Errorf("load run %s: %w", id, err)
	}

	blocks, err := s.readDraws(ctx, id)
	if err != nil {
		return nil, RunInfo{}, fmt.Errorf("load run %s: %w", id, err)
	}

	b := samples.NewBuilder(info.Chains, info.Draws, info.Adapt)
	for _, v := range vars {
		chains := blocks[v.id]
		if len(chains) != info.Chains {
			return nil, RunInfo{}, fmt.Errorf("load run %s: %s has %d chains stored, expected %d",
				id, v.ref, len(chains), info.Chains)
		}
		var data []float64
		for _, c := range chains {
			data = append(data, c...)
		}
		if err := b.Add(v.ref, v.shape, data); err != nil {
			return nil, RunInfo{}, fmt.Errorf("load run %s: %w", id, err)
		}
	}

	st, err := b.Build()
	if err != nil {
		return nil, RunInfo{}, fmt.Errorf("load run %s: %w", id, err)
	}
	return st, info, nil
}

func (s *Store) readVariables(ctx context.Context, runID string) ([]storedVariable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT variable_id, name, args, event_shape
		FROM variables
		WHERE run_id = ?
		ORDER BY variable_id ASC COLLATE BINARY
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read variables: %w", err)
	}
	defer rows.Close()

	var vars []storedVariable
	for rows.Next() {
		var v storedVariable
		var name, argsJSON, shapeJSON string
		if err := rows.Scan(&v.id, &name, &argsJSON, &shapeJSON); err != nil {
			return nil, fmt.Errorf("read variables: %w", err)
		}
		args, err := unmarshalArgs(argsJSON)
		if err != nil {
			return nil, fmt.Errorf("read variable %s: %w", name, err)
		}
		v.ref = ir.Var(name, args...)
		if v.ref.ID() != v.id {
			return nil, fmt.Errorf("read variable %s: stored id %s does not match content", v.ref, v.id)
		}
		if v.shape, err = unmarshalShape(shapeJSON); err != nil {
			return nil, fmt.Errorf("read variable %s: %w", v.ref, err)
		}
		vars = append(vars, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read variables: %w", err)
	}
	return vars, nil
}

// readDraws returns per-variable chain blocks in chain order.
func (s *Store) readDraws(ctx context.Context, runID string) (map[string][][]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT variable_id, chain, data
		FROM draws
		WHERE run_id = ?
		ORDER BY variable_id ASC COLLATE BINARY, chain ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read draws: %w", err)
	}
	defer rows.Close()

	out := make(map[string][][]float64)
	for rows.Next() {
		var varID string
		var chain int
		var blob []byte
		if err := rows.Scan(&varID, &chain, &blob); err != nil {
			return nil, fmt.Errorf("read draws: %w", err)
		}
		if chain != len(out[varID]) {
			return nil, fmt.Errorf("read draws: variable %s is missing chain %d", varID, len(out[varID]))
		}
		values, err := decodeFloats(blob)
		if err != nil {
			return nil, err
		}
		out[varID] = append(out[varID], values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read draws: %w", err)
	}
	return out, nil
}
