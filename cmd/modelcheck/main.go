package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/osvaldoandrade/modelcheck/internal/progress"
	"github.com/osvaldoandrade/modelcheck/internal/services"
	"github.com/osvaldoandrade/modelcheck/pkg/app"
	"github.com/osvaldoandrade/modelcheck/pkg/config"
	"github.com/osvaldoandrade/modelcheck/pkg/domain"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var version = "dev"

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

func newUI() *ui {
	if !progress.IsTerminal(os.Stdout) {
		color.NoColor = true
	}
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

// exitError carries a process exit code without an extra error line.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	ui := newUI()

	root := &cobra.Command{
		Use:   "modelcheck",
		Short: "Batch quality checks for metabolic models",
		Long:  "modelcheck runs a model quality checker over every model file in a directory and keeps one results file and one report per model.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.AddCommand(runCmd(ui))
	root.AddCommand(resultsCmd(ui))
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

type commonFlags struct {
	configPath string
	ledger     string
	redisAddr  string
	logLevel   string
	logFormat  string
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", os.Getenv("MODELCHECK_CONFIG_PATH"), "YAML config file")
	cmd.Flags().StringVar(&f.ledger, "ledger", "", "Run ledger: memory|redis")
	cmd.Flags().StringVar(&f.redisAddr, "redis-addr", "", "Redis address for the redis ledger")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format: text|json")
}

// load reads the config file and lets explicitly set flags win over it.
func (f *commonFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfigOptional(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("ledger") {
		cfg.Ledger = f.ledger
	}
	if flags.Changed("redis-addr") {
		cfg.RedisAddr = f.redisAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	return cfg, nil
}

func runCmd(ui *ui) *cobra.Command {
	var (
		common             commonFlags
		format             string
		numProc            int
		checkerCommand     string
		statusAddr         string
		failOnCheckFailure bool
		noProgress         bool
	)
	cmd := &cobra.Command{
		Use:     "run <model_dir> <output_dir>",
		Short:   "Check every model in a directory",
		Example: "modelcheck run ./models ./reports --format .xml.gz --num-proc 8",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.load(cmd)
			if err != nil {
				return err
			}
			cfg.ModelDir = args[0]
			cfg.OutputDir = args[1]

			flags := cmd.Flags()
			if flags.Changed("format") {
				cfg.FileFormat = format
			}
			if flags.Changed("num-proc") {
				cfg.NumProc = numProc
			}
			if flags.Changed("checker") {
				cfg.Checker.Command = checkerCommand
			}
			if flags.Changed("status-addr") {
				cfg.StatusAddr = statusAddr
			}
			if flags.Changed("fail-on-check-failure") {
				cfg.FailOnCheckFailure = failOnCheckFailure
			}
			if err := cfg.ValidateRun(); err != nil {
				return err
			}
			fileFormat, err := cfg.Format()
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			showProgress := !noProgress
			application, err := openApp(ui, cfg, app.WithProgress(func(total int) progress.Reporter {
				return progress.ForTerminal(showProgress, total, "Checking models")
			}))
			if err != nil {
				return err
			}
			defer closeApp(application)

			if lp, ok := application.Checker.(interface{ LookPath() (string, error) }); ok {
				if _, err := lp.LookPath(); err != nil {
					fmt.Fprintf(os.Stderr, "%s checker %q not found on PATH; models that are not skipped will error\n", ui.warn("[WARN]"), cfg.Checker.Command)
				}
			}

			app.SetupMappings(application)
			if err := application.StartStatusServer(); err != nil {
				return err
			}
			if addr := application.StatusAddr(); addr != "" {
				fmt.Printf("%s Status server on http://%s\n", ui.info("[INFO]"), addr)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			run, err := application.Batch.Run(ctx, services.RunRequest{
				ModelDir:  cfg.ModelDir,
				OutputDir: cfg.OutputDir,
				Format:    fileFormat,
				NumProc:   cfg.NumProc,
			})
			if err != nil {
				return err
			}
			printSummary(ui, run)

			if run.Status == domain.RunFailed || run.Errored > 0 || (cfg.FailOnCheckFailure && run.CheckFailed > 0) {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	common.register(cmd)
	cmd.Flags().StringVar(&format, "format", string(domain.DefaultFormat), "Model file suffix: .xml.gz|.xml|.json|.mat")
	cmd.Flags().IntVar(&numProc, "num-proc", 0, "Parallel checks (0 = number of CPUs)")
	cmd.Flags().StringVar(&checkerCommand, "checker", config.DefaultCheckerCommand, "Checker executable")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "Serve health, metrics and run status on this address")
	cmd.Flags().BoolVar(&failOnCheckFailure, "fail-on-check-failure", false, "Exit 1 when any model fails a check")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func resultsCmd(ui *ui) *cobra.Command {
	var (
		common  commonFlags
		outcome string
	)
	cmd := &cobra.Command{
		Use:     "results [run-id]",
		Short:   "Show a recorded run and its per-model results",
		Example: "modelcheck results --ledger redis --outcome errored",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Ledger == "memory" {
				fmt.Fprintf(os.Stderr, "%s the memory ledger only lives for one run; use --ledger redis to read past runs\n", ui.warn("[WARN]"))
			}

			application, err := openApp(ui, cfg)
			if err != nil {
				return err
			}
			defer closeApp(application)

			ctx := cmd.Context()
			var run *domain.Run
			if len(args) == 1 {
				run, err = application.Runs.Get(ctx, args[0])
			} else {
				run, err = application.Runs.Latest(ctx)
			}
			if err != nil {
				return err
			}
			_, results, err := application.Runs.Results(ctx, run.ID)
			if err != nil {
				return err
			}

			printSummary(ui, run)
			want := domain.Outcome(strings.ToUpper(strings.TrimSpace(outcome)))
			for _, r := range results {
				if want != "" && r.Outcome != want {
					continue
				}
				printResult(ui, r)
			}
			return nil
		},
	}
	common.register(cmd)
	cmd.Flags().StringVar(&outcome, "outcome", "", "Only show results with this outcome (skipped|passed|check_failed|errored)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func openApp(ui *ui, cfg *config.Config, opts ...app.ApplicationOption) (*app.Application, error) {
	spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
	spin.Suffix = " Opening " + cfg.Ledger + " ledger..."
	spin.Writer = os.Stderr
	if progress.IsTerminal(os.Stderr) {
		spin.Start()
	}
	application, err := app.NewApplication(cfg, opts...)
	spin.Stop()
	if err != nil {
		return nil, fmt.Errorf("init app: %w", err)
	}
	return application, nil
}

func closeApp(a *app.Application) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.Close(ctx)
}

func printSummary(ui *ui, run *domain.Run) {
	status := ui.ok("[OK]")
	switch {
	case run.Status == domain.RunFailed || run.Errored > 0:
		status = ui.err("[ERROR]")
	case run.CheckFailed > 0:
		status = ui.warn("[WARN]")
	}
	elapsed := ""
	if !run.FinishedAt.IsZero() {
		elapsed = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
	}
	fmt.Printf("%s Run %s %s %s\n", status, run.ID, ui.dim(string(run.Status)), ui.dim(elapsed))
	fmt.Printf("%s: %d | %s: %d | %s: %d | %s: %d | %s: %d\n",
		ui.title("Models"), run.Total,
		ui.info("Skipped"), run.Skipped,
		ui.ok("Passed"), run.Passed,
		ui.warn("Check failed"), run.CheckFailed,
		ui.err("Errored"), run.Errored,
	)
	if run.Error != "" {
		fmt.Printf("%s %s\n", ui.err("[ERROR]"), run.Error)
	}
}

func printResult(ui *ui, r domain.Result) {
	tag := ui.info("[SKIP]")
	detail := ""
	switch r.Outcome {
	case domain.OutcomePassed:
		tag = ui.ok("[PASS]")
	case domain.OutcomeCheckFailed:
		tag = ui.warn("[FAIL]")
		if r.Code != nil {
			detail = fmt.Sprintf("code %d", *r.Code)
		}
	case domain.OutcomeErrored:
		tag = ui.err("[ERR] ")
		detail = r.Error
	}
	fmt.Printf("%s %s %s\n", tag, r.Input, ui.dim(detail))
}

func helpTemplate(ui *ui) string {
	title := ui.title("modelcheck")
	return fmt.Sprintf(`%s: batch quality checks for metabolic models

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Environment:
  MODELCHECK_CONFIG_PATH, MODELCHECK_NUM_PROC, MODELCHECK_LEDGER, REDIS_ADDR, ...

Examples:
  modelcheck run ./models ./reports
  modelcheck run ./bigg ./memote --format .json --num-proc 4 --status-addr :9090
  modelcheck results --ledger redis --outcome errored
  modelcheck version

`, title)
}
