package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"
)

func TestDiscover_FiltersBySuffix(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "iJO1366.xml.gz")
	touch(t, dir, "e_coli_core.xml.gz")
	touch(t, dir, "RECON1.xml")
	touch(t, dir, "iMM904.json")
	touch(t, dir, "readme.txt")

	tasks, err := Discover(dir, "/out", domain.FormatSBMLGzip)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	got := inputs(tasks)
	want := []string{"e_coli_core.xml.gz", "iJO1366.xml.gz"}
	if !equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDiscover_XMLDoesNotMatchGzip(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.xml")
	touch(t, dir, "b.xml.gz")

	tasks, err := Discover(dir, "/out", domain.FormatSBML)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got := inputs(tasks); !equal(got, []string{"a.xml"}) {
		t.Errorf("got %v, want [a.xml]", got)
	}
}

func TestDiscover_OutputNaming(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "foo.xml.gz")

	tasks, err := Discover(dir, "/reports", domain.FormatSBMLGzip)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	task := tasks[0]
	if task.Input != filepath.Join(dir, "foo.xml.gz") {
		t.Errorf("Input = %q", task.Input)
	}
	if task.Results() != filepath.Join("/reports", "foo.json") {
		t.Errorf("Results() = %q", task.Results())
	}
	if task.Report() != filepath.Join("/reports", "foo.html") {
		t.Errorf("Report() = %q", task.Report())
	}
	if task.ID == "" || task.Format != domain.FormatSBMLGzip {
		t.Errorf("unexpected task %+v", task)
	}
}

func TestDiscover_SkipsHiddenDirsAndSubdirs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, ".hidden.json")
	touch(t, dir, "visible.json")
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "sub"), "deep.json")

	tasks, err := Discover(dir, "/out", domain.FormatJSON)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got := inputs(tasks); !equal(got, []string{"visible.json"}) {
		t.Errorf("got %v, want [visible.json]", got)
	}
}

func TestDiscover_EmptyDir(t *testing.T) {
	tasks, err := Discover(t.TempDir(), "/out", domain.FormatMAT)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("got %d tasks, want 0", len(tasks))
	}
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), "/out", domain.FormatMAT)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		format domain.Format
		want   string
	}{
		{"gzip sbml", "iJO1366.xml.gz", domain.FormatSBMLGzip, "/o/iJO1366"},
		{"json with dots", "e.coli.core.json", domain.FormatJSON, "/o/e.coli.core"},
		{"matlab path", "/models/Recon3D.mat", domain.FormatMAT, "/o/Recon3D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputBase("/o", tt.file, tt.format); got != filepath.FromSlash(tt.want) {
				t.Errorf("OutputBase(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

// --- Helpers ---

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte{}, 0o644); err != nil {
		t.Fatalf("touch %s: %v", name, err)
	}
}

func inputs(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = filepath.Base(task.Input)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
