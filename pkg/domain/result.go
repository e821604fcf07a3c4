package domain

import "time"

type Outcome string

const (
	OutcomeSkipped     Outcome = "SKIPPED"
	OutcomePassed      Outcome = "PASSED"
	OutcomeCheckFailed Outcome = "CHECK_FAILED"
	OutcomeErrored     Outcome = "ERRORED"
)

func (o Outcome) MarshalText() ([]byte, error) { return []byte(string(o)), nil }

// Result is what a worker reports for one task. Code is only meaningful for
// PASSED and CHECK_FAILED; Error is only set for ERRORED.
type Result struct {
	TaskID      string    `json:"taskId"`
	RunID       string    `json:"runId,omitempty"`
	Input       string    `json:"input"`
	Outcome     Outcome   `json:"outcome"`
	Code        *int      `json:"code,omitempty"`
	Error       string    `json:"error,omitempty"`
	Results     string    `json:"results"`
	Report      string    `json:"report"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Duration is the wall time spent on the task.
func (r Result) Duration() time.Duration {
	if r.CompletedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Skipped builds the result of a task whose artifacts already exist.
func Skipped(t Task, at time.Time) Result {
	return Result{
		TaskID:      t.ID,
		Input:       t.Input,
		Outcome:     OutcomeSkipped,
		Results:     t.Results(),
		Report:      t.Report(),
		StartedAt:   at,
		CompletedAt: at,
	}
}

// Checked builds the result of a task whose checker returned a status code.
func Checked(t Task, code int, started, completed time.Time) Result {
	outcome := OutcomePassed
	if code != 0 {
		outcome = OutcomeCheckFailed
	}
	c := code
	return Result{
		TaskID:      t.ID,
		Input:       t.Input,
		Outcome:     outcome,
		Code:        &c,
		Results:     t.Results(),
		Report:      t.Report(),
		StartedAt:   started,
		CompletedAt: completed,
	}
}

// Errored builds the result of a task that failed before producing a status code.
func Errored(t Task, err error, started, completed time.Time) Result {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result{
		TaskID:      t.ID,
		Input:       t.Input,
		Outcome:     OutcomeErrored,
		Error:       msg,
		Results:     t.Results(),
		Report:      t.Report(),
		StartedAt:   started,
		CompletedAt: completed,
	}
}
