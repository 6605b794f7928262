package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/posterior/internal/samples"
)

// SaveRun archives a sample store under a new run id.
//
// Everything is written in one transaction; a failure leaves no partial run.
// Adaptation draws are kept so LoadRun reproduces the store exactly. A chain
// view is saved as a single-chain run that remembers its source chain.
func (s *Store) SaveRun(ctx context.Context, name string, st *samples.Store) (RunInfo, error) {
	if st == nil {
		return RunInfo{}, errors.New("save run: nil sample store")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return RunInfo{}, errors.New("save run: name is required")
	}

	info := RunInfo{
		ID:          s.ids.Generate(),
		Name:        name,
		CreatedAt:   s.clock.Now().UTC(),
		Chains:      st.NumChains(),
		Draws:       st.NumDraws(false),
		Adapt:       st.NumAdaptive(),
		SourceChain: st.ChainIndex(),
		Variables:   st.Len(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RunInfo{}, fmt.Errorf("save run: begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, name, created_at, num_chains, num_draws, num_adaptive, source_chain)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		info.ID,
		info.Name,
		info.CreatedAt.UnixNano(),
		info.Chains,
		info.Draws,
		info.Adapt,
		info.SourceChain,
	)
	if err != nil {
		return RunInfo{}, fmt.Errorf("save run: insert run: %w", err)
	}

	varStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO variables (run_id, variable_id, name, args, event_shape)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return RunInfo{}, fmt.Errorf("save run: prepare variables: %w", err)
	}
	defer varStmt.Close()

	drawStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO draws (run_id, variable_id, chain, data)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return RunInfo{}, fmt.Errorf("save run: prepare draws: %w", err)
	}
	defer drawStmt.Close()

	for _, ref := range st.Keys() {
		shape, err := st.EventShape(ref)
		if err != nil {
			return RunInfo{}, fmt.Errorf("save run: %w", err)
		}
		shapeJSON, err := marshalShape(shape)
		if err != nil {
			return RunInfo{}, fmt.Errorf("save run: %s: %w", ref, err)
		}
		if _, err := varStmt.ExecContext(ctx, info.ID, ref.ID(), ref.Name, marshalArgs(ref.Args), shapeJSON); err != nil {
			return RunInfo{}, fmt.Errorf("save run: insert variable %s: %w", ref, err)
		}

		tensor, err := st.GetVariable(ref, true)
		if err != nil {
			return RunInfo{}, fmt.Errorf("save run: %w", err)
		}
		values := tensor.Values()
		block := len(values) / info.Chains
		for c := 0; c < info.Chains; c++ {
			blob := encodeFloats(values[c*block : (c+1)*block])
			if _, err := drawStmt.ExecContext(ctx, info.ID, ref.ID(), c, blob); err != nil {
				return RunInfo{}, fmt.Errorf("save run: insert draws %s chain %d: %w", ref, c, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return RunInfo{}, fmt.Errorf("save run: commit: %w", err)
	}
	return info, nil
}

// DeleteRun removes a run and all of its draws.
// Returns ErrRunNotFound if no run has the given id.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete run: begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Children first so deletion does not depend on foreign_keys being on
	// for the current connection.
	for _, q := range []string{
		"DELETE FROM draws WHERE run_id = ?",
		"DELETE FROM variables WHERE run_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete run %s: %w", id, err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrRunNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete run %s: commit: %w", id, err)
	}
	return nil
}
