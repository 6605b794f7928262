package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
)

// noChain is the --chain default: use every chain.
const noChain = -1

// addChainFlag registers --chain on cmd.
func addChainFlag(cmd *cobra.Command, chain *int) {
	cmd.Flags().IntVar(chain, "chain", noChain, "restrict to one chain (0-based)")
}

// loadStore loads run id and restricts it to chain unless chain is noChain.
func (s *session) loadStore(ctx context.Context, id string, chain int) (*samples.Store, error) {
	st, info, err := s.runs.LoadRun(ctx, id)
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Debug("run loaded", "run", info.ID, "variables", st.Len(), "chains", st.NumChains())
	if chain == noChain {
		return st, nil
	}
	return st.GetChain(chain)
}

// parseVariables parses display-form variable names such as theta(3).
func parseVariables(names []string) ([]ir.VariableRef, error) {
	refs := make([]ir.VariableRef, 0, len(names))
	for _, name := range names {
		ref, err := ir.ParseRef(name)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
