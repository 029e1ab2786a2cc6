package harness

import "fmt"

// StepResult records one executed request.
type StepResult struct {
	Status int            `json:"status"`
	Body   map[string]any `json:"body,omitempty"`
	Raw    string         `json:"raw,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Steps holds one entry per executed flow step.
	Steps []StepResult `json:"steps"`

	// Errors lists expectation mismatches. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Vars holds the captured variables after the run.
	Vars map[string]string `json:"vars,omitempty"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
		Vars:   make(map[string]string),
	}
}

// AddError records an expectation mismatch and fails the result.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
