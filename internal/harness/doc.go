// Package harness runs YAML conformance scenarios against sample stores.
//
// A scenario builds a store from one source, archives it in an in-memory
// run archive, loads it back, and evaluates assertions against the loaded
// copy. Passing scenarios therefore also prove that archiving is lossless.
//
// # Scenario Format
//
//	name: reproduction_rate
//	description: "4 chains x 7000 draws; chain views slice the full tensor"
//	source:
//	  synthetic:              # or literal: / file:
//	    chains: 4
//	    draws: 7000
//	    seed: 1
//	    variables:
//	      - {name: reproduction_rate, mu: 1.5, phi: 0.3, sigma: 0.2}
//	assertions:
//	  - type: shape
//	    variable: reproduction_rate
//	    chain: 0
//	    shape: [7000]
//	  - type: chain_error
//	    chain: 4
//	    code: INDEX_OUT_OF_RANGE
//	golden: false
//
// Exactly one source is allowed:
//
//   - synthetic: seeded AR(1) chains (see package synth)
//   - literal: scalar variables given as [chain][draw] lists
//   - file: a CUE or JSON draw file (see package ingest), relative to the
//     scenario file
//
// # Assertion Types
//
//   - key_present: variable is among the store's keys
//   - key_count: the store has exactly count keys
//   - shape: the variable's tensor (of chain, if set) has the given shape
//   - value_at: the tensor value at index equals value
//   - get_error: reading variable (from chain, if set) fails with code
//   - chain_error: restricting to chain fails with code
//   - chain_slices: every chain view equals the matching slice of the full tensor
//   - rhat_below / rhat_above: R-hat of variable[element] against value
//   - ess_above: bulk ESS of variable[element] above value
//
// Runs are archived with sequential ids and a deterministic clock, so
// results are reproducible. With golden set, RunWithGolden compares the
// long-form CSV export (adaptation draws included) against
// testdata/golden/<name>.golden.
package harness
