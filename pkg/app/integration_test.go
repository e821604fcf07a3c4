package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/osvaldoandrade/modelcheck/internal/checker"
	"github.com/osvaldoandrade/modelcheck/internal/services"
	"github.com/osvaldoandrade/modelcheck/pkg/config"
	"github.com/osvaldoandrade/modelcheck/pkg/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		ModelDir:   t.TempDir(),
		OutputDir:  filepath.Join(t.TempDir(), "out"),
		FileFormat: ".json",
		NumProc:    2,
		LogLevel:   "error",
		LogFormat:  "json",
		Checker:    config.CheckerConfig{Command: config.DefaultCheckerCommand},
		Ledger:     "memory",
	}
	if err := cfg.ValidateRun(); err != nil {
		t.Fatalf("config validate: %v", err)
	}
	return cfg
}

// artifactChecker writes both artifacts and fails models whose id starts with "bad".
func artifactChecker() checker.Checker {
	return checker.Func(func(ctx context.Context, model *domain.Model, resultsPath, reportPath string) (int, error) {
		if err := os.WriteFile(resultsPath, []byte(`{"tests":{}}`), 0o644); err != nil {
			return 0, err
		}
		if err := os.WriteFile(reportPath, []byte("<html></html>"), 0o644); err != nil {
			return 0, err
		}
		if strings.HasPrefix(model.ID, "bad") {
			return 1, nil
		}
		return 0, nil
	})
}

func writeJSONModel(t *testing.T, dir, id string) {
	t.Helper()
	body := `{"id":"` + id + `","metabolites":[],"reactions":[{"id":"R1"}]}`
	if err := os.WriteFile(filepath.Join(dir, id+".json"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a, err := NewApplication(cfg, WithChecker(artifactChecker()), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("NewApplication: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	SetupMappings(a)
	return a
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		b, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(b, out); err != nil {
			t.Fatalf("decode %s: %v (body=%s)", url, err, string(b))
		}
	}
	return resp.StatusCode
}

func TestHTTPIntegrationFlow(t *testing.T) {
	cfg := testConfig(t)
	writeJSONModel(t, cfg.ModelDir, "e_coli_core")
	writeJSONModel(t, cfg.ModelDir, "bad_model")

	a := newTestApp(t, cfg)
	server := httptest.NewServer(a.Engine)
	t.Cleanup(server.Close)

	if code := getJSON(t, server.URL+"/v1/runs/latest", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 before first run, got %d", code)
	}

	format, _ := cfg.Format()
	run, err := a.Batch.Run(context.Background(), services.RunRequest{
		ModelDir:  cfg.ModelDir,
		OutputDir: cfg.OutputDir,
		Format:    format,
		NumProc:   cfg.NumProc,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Passed != 1 || run.CheckFailed != 1 {
		t.Fatalf("unexpected counts: %+v", run)
	}
	for _, name := range []string{"e_coli_core.json", "e_coli_core.html", "bad_model.json", "bad_model.html"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, name)); err != nil {
			t.Errorf("expected artifact %s: %v", name, err)
		}
	}

	var health map[string]string
	if code := getJSON(t, server.URL+"/healthz", &health); code != http.StatusOK || health["status"] != "ok" {
		t.Fatalf("healthz: %d %v", code, health)
	}

	var latest domain.Run
	if code := getJSON(t, server.URL+"/v1/runs/latest", &latest); code != http.StatusOK {
		t.Fatalf("latest: %d", code)
	}
	if latest.ID != run.ID || latest.Status != domain.RunDone || latest.Done != 2 {
		t.Fatalf("unexpected latest run: %+v", latest)
	}

	var body struct {
		Run     domain.Run      `json:"run"`
		Results []domain.Result `json:"results"`
	}
	if code := getJSON(t, server.URL+"/v1/runs/"+run.ID+"/results", &body); code != http.StatusOK {
		t.Fatalf("results: %d", code)
	}
	if len(body.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(body.Results))
	}

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	text, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(text), "modelcheck_tasks_completed_total") {
		t.Fatalf("metrics output missing task counter")
	}

	again, err := a.Batch.Run(context.Background(), services.RunRequest{
		ModelDir:  cfg.ModelDir,
		OutputDir: cfg.OutputDir,
		Format:    format,
		NumProc:   cfg.NumProc,
	})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Skipped != 2 {
		t.Fatalf("expected both models skipped, got %+v", again)
	}
}

func TestRedisLedger(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := testConfig(t)
	cfg.Ledger = "redis"
	cfg.RedisAddr = mr.Addr()
	writeJSONModel(t, cfg.ModelDir, "iML1515")

	a := newTestApp(t, cfg)
	run, err := a.Batch.Run(context.Background(), services.RunRequest{
		ModelDir:  cfg.ModelDir,
		OutputDir: cfg.OutputDir,
		Format:    domain.FormatJSON,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	stored, results, err := a.Runs.Results(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if stored.Status != domain.RunDone || len(results) != 1 || results[0].Outcome != domain.OutcomePassed {
		t.Fatalf("unexpected ledger state: %+v %+v", stored, results)
	}
	if !mr.Exists("modelcheck:results:" + run.ID) {
		t.Fatal("expected results hash in redis")
	}
}

func TestRedisLedgerUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger = "redis"
	cfg.RedisAddr = "127.0.0.1:1"

	if _, err := NewApplication(cfg, WithChecker(artifactChecker()), WithLogOutput(io.Discard)); err == nil {
		t.Fatal("expected error when redis is unreachable")
	}
}

func TestStatusServer(t *testing.T) {
	cfg := testConfig(t)
	cfg.StatusAddr = "127.0.0.1:0"
	a := newTestApp(t, cfg)

	if err := a.StartStatusServer(); err != nil {
		t.Fatalf("StartStatusServer: %v", err)
	}
	addr := a.StatusAddr()
	if addr == "" {
		t.Fatal("expected bound address")
	}
	if code := getJSON(t, "http://"+addr+"/healthz", nil); code != http.StatusOK {
		t.Fatalf("healthz: %d", code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestStatusServerDisabled(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	if err := a.StartStatusServer(); err != nil {
		t.Fatalf("StartStatusServer: %v", err)
	}
	if a.StatusAddr() != "" {
		t.Fatal("expected no status server")
	}
}
