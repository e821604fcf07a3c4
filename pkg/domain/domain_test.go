package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Format
		wantErr bool
	}{
		{"empty uses default", "", FormatSBMLGzip, false},
		{"gzip sbml", ".xml.gz", FormatSBMLGzip, false},
		{"no leading dot", "xml", FormatSBML, false},
		{"upper case", ".JSON", FormatJSON, false},
		{"matlab", " .mat ", FormatMAT, false},
		{"unsupported", ".sbml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTaskArtifactPaths(t *testing.T) {
	task := Task{Input: "/models/iJO1366.xml.gz", OutputBase: "/out/iJO1366", Format: FormatSBMLGzip}
	if got := task.Results(); got != "/out/iJO1366.json" {
		t.Errorf("Results() = %q", got)
	}
	if got := task.Report(); got != "/out/iJO1366.html" {
		t.Errorf("Report() = %q", got)
	}
}

func TestCheckedOutcome(t *testing.T) {
	task := Task{ID: "t1", Input: "a.xml", OutputBase: "/out/a"}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Second)

	passed := Checked(task, 0, start, end)
	if passed.Outcome != OutcomePassed || passed.Code == nil || *passed.Code != 0 {
		t.Errorf("status 0: got %+v", passed)
	}
	if passed.Duration() != 3*time.Second {
		t.Errorf("Duration() = %v", passed.Duration())
	}

	failed := Checked(task, 2, start, end)
	if failed.Outcome != OutcomeCheckFailed || *failed.Code != 2 {
		t.Errorf("status 2: got %+v", failed)
	}
}

func TestErroredAndSkipped(t *testing.T) {
	task := Task{ID: "t1", Input: "a.xml", OutputBase: "/out/a"}
	now := time.Now()

	e := Errored(task, errors.New("bad sbml"), now, now)
	if e.Outcome != OutcomeErrored || e.Error != "bad sbml" || e.Code != nil {
		t.Errorf("Errored: got %+v", e)
	}
	if Errored(task, nil, now, now).Error == "" {
		t.Error("Errored with nil error should still carry a message")
	}

	s := Skipped(task, now)
	if s.Outcome != OutcomeSkipped || s.Code != nil || s.Duration() != 0 {
		t.Errorf("Skipped: got %+v", s)
	}
}

func TestRunRecord(t *testing.T) {
	run := Run{Total: 5}
	zero, one := 0, 1
	for _, res := range []Result{
		{Outcome: OutcomeSkipped},
		{Outcome: OutcomePassed, Code: &zero},
		{Outcome: OutcomeCheckFailed, Code: &one},
		{Outcome: OutcomeErrored, Error: "boom"},
	} {
		run.Record(res)
	}

	if run.Done != 4 || run.Skipped != 1 || run.Passed != 1 || run.CheckFailed != 1 || run.Errored != 1 {
		t.Fatalf("unexpected counters: %+v", run)
	}
	if run.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", run.Failed())
	}
	if run.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", run.Pending())
	}
}

func TestOutcomeMarshalText(t *testing.T) {
	got, err := OutcomeCheckFailed.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "CHECK_FAILED" {
		t.Errorf("MarshalText() = %s", got)
	}
}
