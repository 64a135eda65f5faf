package models

import "time"

// InstallAction is the outcome of a single component install step.
type InstallAction string

const (
	// ActionInstalled means the component was acquired and the installed
	// predicate holds afterwards
	ActionInstalled InstallAction = "installed"

	// ActionSkipped means the installed predicate already held, so nothing
	// was downloaded or created
	ActionSkipped InstallAction = "skipped"

	// ActionFailed means provisioning was attempted but the component is
	// not installed; Detail carries the diagnostic
	ActionFailed InstallAction = "failed"
)

// InstallResult records the outcome of provisioning one component.
type InstallResult struct {
	Component string        `json:"component" yaml:"component"`
	Action    InstallAction `json:"action" yaml:"action"`
	Detail    string        `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// InstallSummary aggregates the results of one install run. Results are
// ordered by registry order, not completion order.
type InstallSummary struct {
	RunID       string          `json:"runId" yaml:"run_id"`
	Profile     HostProfile     `json:"profile" yaml:"profile"`
	Plan        Plan            `json:"plan" yaml:"plan"`
	Results     []InstallResult `json:"results" yaml:"results"`
	StartedAt   time.Time       `json:"startedAt" yaml:"started_at"`
	CompletedAt time.Time       `json:"completedAt" yaml:"completed_at"`
}

// Failed returns the number of components that ended in ActionFailed.
func (s InstallSummary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Action == ActionFailed {
			n++
		}
	}
	return n
}

// VerificationCheck is one probe outcome in a verification report.
type VerificationCheck struct {
	Name   string `json:"name" yaml:"name"`
	Passed bool   `json:"passed" yaml:"passed"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// VerificationReport is the aggregate of all verification checks for one
// run. The engine always returns a complete report, even if every check
// failed or timed out.
type VerificationReport struct {
	RunID  string              `json:"runId" yaml:"run_id"`
	Checks []VerificationCheck `json:"checks" yaml:"checks"`
}

// OK reports whether every check passed.
func (r VerificationReport) OK() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Failed returns the number of checks that did not pass.
func (r VerificationReport) Failed() int {
	n := 0
	for _, c := range r.Checks {
		if !c.Passed {
			n++
		}
	}
	return n
}
