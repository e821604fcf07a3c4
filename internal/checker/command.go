package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"text/template"

	"github.com/osvaldoandrade/modelcheck/pkg/config"
	"github.com/osvaldoandrade/modelcheck/pkg/domain"
)

const maxOutputTail = 2048

// CommandChecker runs an external program twice per model: a run step that
// writes the results file and whose exit code is the status, then a report
// step that renders the HTML report.
type CommandChecker struct {
	command    string
	runArgs    []*template.Template
	reportArgs []*template.Template
	env        []string
	logger     *slog.Logger
}

func NewCommandChecker(cfg config.CheckerConfig, logger *slog.Logger) (*CommandChecker, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("checker command is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	runArgs, err := parseArgs("run", cfg.RunArgs)
	if err != nil {
		return nil, err
	}
	reportArgs, err := parseArgs("report", cfg.ReportArgs)
	if err != nil {
		return nil, err
	}
	return &CommandChecker{
		command:    cfg.Command,
		runArgs:    runArgs,
		reportArgs: reportArgs,
		env:        cfg.Env,
		logger:     logger,
	}, nil
}

// LookPath reports whether the configured program can be found.
func (c *CommandChecker) LookPath() (string, error) {
	return exec.LookPath(c.command)
}

func (c *CommandChecker) Check(ctx context.Context, model *domain.Model, resultsPath, reportPath string) (int, error) {
	vars := map[string]string{
		"Model":   model.Path,
		"ModelID": model.ID,
		"Results": resultsPath,
		"Report":  reportPath,
	}

	code, err := c.exec(ctx, "run", c.runArgs, vars)
	if err != nil {
		return 0, err
	}
	if len(c.reportArgs) == 0 {
		return code, nil
	}
	reportCode, err := c.exec(ctx, "report", c.reportArgs, vars)
	if err != nil {
		return 0, err
	}
	if reportCode != 0 {
		return 0, fmt.Errorf("report step for %s exited with status %d", model.ID, reportCode)
	}
	return code, nil
}

// exec returns the exit status of the step. Only a process that ran to
// completion yields a status; start failures and cancellation are errors.
func (c *CommandChecker) exec(ctx context.Context, step string, tpls []*template.Template, vars map[string]string) (int, error) {
	args, err := renderArgs(tpls, vars)
	if err != nil {
		return 0, fmt.Errorf("%s step: %w", step, err)
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err = cmd.Run()
	c.logger.Debug("checker step finished",
		"step", step,
		"model", vars["ModelID"],
		"args", strings.Join(args, " "),
		"output", tail(out.String()),
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, fmt.Errorf("%s step: %w", step, ctxErr)
	}
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("%s step: %w", step, err)
}

func parseArgs(step string, raw []string) ([]*template.Template, error) {
	out := make([]*template.Template, 0, len(raw))
	for i, a := range raw {
		t, err := template.New(fmt.Sprintf("%s-%d", step, i)).Option("missingkey=error").Parse(a)
		if err != nil {
			return nil, fmt.Errorf("checker %s arg %d %q: %w", step, i, a, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func renderArgs(tpls []*template.Template, vars map[string]string) ([]string, error) {
	args := make([]string, 0, len(tpls))
	for _, t := range tpls {
		var buf bytes.Buffer
		if err := t.Execute(&buf, vars); err != nil {
			return nil, err
		}
		args = append(args, buf.String())
	}
	return args, nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxOutputTail {
		return s
	}
	return "…" + s[len(s)-maxOutputTail:]
}
