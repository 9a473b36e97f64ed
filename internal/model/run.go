package model

import "time"

// Status is the outcome of a single check.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Exit codes follow the conventions CI systems already understand from pytest.
const (
	ExitOK          = 0
	ExitFailed      = 1
	ExitInterrupted = 2
	ExitInternal    = 3
	ExitUsage       = 4
	ExitNoChecks    = 5
)

// Result records what happened when one check ran.
type Result struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
	Tags     []string      `json:"tags,omitempty"`
}

// Run is one execution of a suite against a target.
type Run struct {
	ID          string    `json:"id"`
	Suite       string    `json:"suite"`
	Target      string    `json:"target"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
	Interrupted bool      `json:"interrupted,omitempty"`
	Results     []Result  `json:"results"`
}

// Summary holds per-status counts for a run.
type Summary struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errors  int `json:"errors"`
	Skipped int `json:"skipped"`
}

// Total returns the number of results counted in the summary.
func (s Summary) Total() int {
	return s.Passed + s.Failed + s.Errors + s.Skipped
}

// Summary counts results by status.
func (r *Run) Summary() Summary {
	var s Summary
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusError:
			s.Errors++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// Duration is the wall-clock time between start and finish.
func (r *Run) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// ExitCode maps the run outcome to a process exit status.
func (r *Run) ExitCode() int {
	s := r.Summary()
	switch {
	case r.Interrupted:
		return ExitInterrupted
	case s.Failed > 0 || s.Errors > 0:
		return ExitFailed
	case s.Passed == 0:
		return ExitNoChecks
	default:
		return ExitOK
	}
}
