package harness

import (
	"github.com/roach88/posterior/internal/diagnostics"
	"github.com/roach88/posterior/internal/samples"
	"github.com/roach88/posterior/internal/store"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: true if every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Run describes the archived run.
	Run store.RunInfo `json:"run"`

	// Store is the store loaded back from the archive.
	Store *samples.Store `json:"-"`

	// Summary is computed only when an assertion needs diagnostics.
	Summary *diagnostics.Summary `json:"summary,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
