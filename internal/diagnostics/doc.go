// Package diagnostics computes posterior summary statistics and MCMC
// convergence diagnostics from a samples.Store.
//
// Per variable element the summary reports mean, standard deviation, the
// highest-density interval, Monte Carlo standard errors, bulk and tail
// effective sample sizes and R-hat. The convergence diagnostics follow the
// rank-normalized split-chain definitions of Vehtari, Gelman, Simpson,
// Carpenter and Bürkner (2021), as popularized by ArviZ:
//
//   - Split chains: each chain is cut into its first and last floor(n/2) draws.
//   - Rank normalization: pooled average ranks r map to Phi^-1((r-3/8)/(S+1/4)).
//   - ESS: Geyer's initial monotone sequence over FFT autocovariances.
//   - R-hat: max of bulk and folded (tail) rank-normalized split R-hat.
//
// Degenerate input (fewer than 4 draws, non-finite values, or a single chain
// for R-hat) yields NaN for the affected statistic instead of an error.
package diagnostics
