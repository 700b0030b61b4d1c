package harness

import (
	"github.com/roach88/cqrsgen/internal/engine"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation holds.
	Pass bool `json:"pass"`

	// Code is the generated file; nil when generation failed.
	Code []byte `json:"-"`

	// Generated is the engine result; nil when generation failed.
	Generated *engine.Result `json:"-"`

	// Err is the generation error, if any.
	Err error `json:"-"`

	// Errors contains the unmet expectations.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Log holds the engine's log output.
	Log string `json:"log,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
