package verify

import (
	"encoding/json"
	"fmt"

	"brio/devkit/internal/errors"
)

// Step names, in the order Run executes them.
const (
	StepHealth = "health"
	StepTask   = "task"
	StepQuery  = "query"
)

// StepResult is the outcome of one check.
type StepResult struct {
	Name   string      `json:"name"`
	Passed bool        `json:"passed"`
	Kind   errors.Kind `json:"kind,omitempty"`
	// Detail explains a failure in one line.
	Detail string `json:"detail,omitempty"`
	// Response is the raw frame the step judged, if one arrived.
	Response json.RawMessage `json:"response,omitempty"`
}

// Report accumulates step results in execution order.
type Report struct {
	Steps []StepResult `json:"steps"`
}

func (r *Report) add(s StepResult) { r.Steps = append(r.Steps, s) }

// Passed reports whether at least one step ran and every step passed.
func (r Report) Passed() bool {
	if len(r.Steps) == 0 {
		return false
	}
	for _, s := range r.Steps {
		if !s.Passed {
			return false
		}
	}
	return true
}

// Count returns the number of passed steps and the total.
func (r Report) Count() (passed, total int) {
	for _, s := range r.Steps {
		if s.Passed {
			passed++
		}
	}
	return passed, len(r.Steps)
}

// Step returns the result named name.
func (r Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// Banner is the closing line of a run.
func (r Report) Banner() string {
	if r.Passed() {
		return "🎉 Protocol Verification Complete: 100% Functional."
	}
	passed, total := r.Count()
	return fmt.Sprintf("⚠️  Protocol Verification Complete: %d/%d checks passed.", passed, total)
}

// FailedError is returned by Run when the report has failing steps.
type FailedError struct {
	Passed, Total int
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("protocol verification failed: %d/%d checks passed", e.Passed, e.Total)
}
