// Package samples holds posterior draws from a completed inference run.
//
// A Store maps each modeled variable (ir.VariableRef) to a Tensor of shape
// [chain, draw, event...]. Stores are built once through a Builder and are
// read-only afterwards, which makes them safe for concurrent readers.
//
// # Chain Views
//
// GetChain returns a new Store restricted to a single chain. Tensors returned
// from a chain view have the chain axis removed ([draw, event...]) and never
// alias the parent's memory.
//
// # Adaptation Draws
//
// A run may retain warm-up draws at the head of each chain. They are hidden
// from Get, NumDraws(false) and exports unless explicitly requested with
// GetVariable(ref, true) or NumDraws(true).
//
// # Errors
//
// Lookups fail with *Error values carrying a code:
//   - KEY_NOT_FOUND: the variable was never recorded
//   - INDEX_OUT_OF_RANGE: chain (or tensor) index outside [0, n)
//   - SHAPE_MISMATCH: builder input is not rectangular
//   - ALREADY_SINGLE_CHAIN: GetChain called on a chain view
//
// Use errors.Is with ErrKeyNotFound / ErrIndexOutOfRange, or the Is* helpers.
package samples
