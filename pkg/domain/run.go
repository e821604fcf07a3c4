package domain

import "time"

type RunStatus string

const (
	RunRunning RunStatus = "RUNNING"
	RunDone    RunStatus = "DONE"
	RunFailed  RunStatus = "FAILED"
)

// Run is one batch invocation over a model directory.
type Run struct {
	ID          string    `json:"id"`
	ModelDir    string    `json:"modelDir"`
	OutputDir   string    `json:"outputDir"`
	Format      Format    `json:"format"`
	NumProc     int       `json:"numProc"`
	Status      RunStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	Total       int       `json:"total"`
	Done        int       `json:"done"`
	Skipped     int       `json:"skipped"`
	Passed      int       `json:"passed"`
	CheckFailed int       `json:"checkFailed"`
	Errored     int       `json:"errored"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt,omitempty"`
}

// Record folds one task result into the run counters.
func (r *Run) Record(res Result) {
	r.Done++
	switch res.Outcome {
	case OutcomeSkipped:
		r.Skipped++
	case OutcomePassed:
		r.Passed++
	case OutcomeCheckFailed:
		r.CheckFailed++
	case OutcomeErrored:
		r.Errored++
	}
}

// Failed counts tasks that ended with a failing check or a hard error.
func (r Run) Failed() int { return r.CheckFailed + r.Errored }

// Pending is the number of tasks still in flight or queued.
func (r Run) Pending() int {
	if r.Total < r.Done {
		return 0
	}
	return r.Total - r.Done
}
