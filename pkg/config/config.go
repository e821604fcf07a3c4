package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCheckerCommand = "memote"
	DefaultLedger         = "memory"
	DefaultRedisAddr      = "localhost:6379"
)

// DefaultRunArgs and DefaultReportArgs are text/template strings rendered per model.
var (
	DefaultRunArgs    = []string{"run", "--ignore-git", "--filename", "{{.Results}}", "{{.Model}}"}
	DefaultReportArgs = []string{"report", "snapshot", "--filename", "{{.Report}}", "{{.Model}}"}
)

type Config struct {
	ModelDir   string `yaml:"modelDir"`
	OutputDir  string `yaml:"outputDir"`
	FileFormat string `yaml:"fileFormat"`
	// NumProc <= 0 means one worker per available CPU, resolved when a run starts.
	NumProc int `yaml:"numProc"`

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	Checker CheckerConfig `yaml:"checker"`

	Ledger        string `yaml:"ledger"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	StatusAddr         string        `yaml:"statusAddr"`
	FailOnCheckFailure bool          `yaml:"failOnCheckFailure"`
	Tracing            TracingConfig `yaml:"tracing"`
}

type CheckerConfig struct {
	Command    string   `yaml:"command"`
	RunArgs    []string `yaml:"runArgs"`
	ReportArgs []string `yaml:"reportArgs"`
	Env        []string `yaml:"env"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"serviceName"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	OTLPInsecure bool    `yaml:"otlpInsecure"`
	SampleRatio  float64 `yaml:"sampleRatio"`
}

// LoadConfig reads filePath, applies environment overrides and fills defaults.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

// LoadConfigOptional behaves like LoadConfig but falls back to environment and
// defaults when filePath is blank or does not exist.
func LoadConfigOptional(filePath string) (*Config, error) {
	if strings.TrimSpace(filePath) != "" {
		if _, err := os.Stat(filePath); err == nil {
			return LoadConfig(filePath)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	var c Config
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MODELCHECK_MODEL_DIR"); v != "" {
		c.ModelDir = v
	}
	if v := os.Getenv("MODELCHECK_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("MODELCHECK_FILE_FORMAT"); v != "" {
		c.FileFormat = v
	}
	if v := os.Getenv("MODELCHECK_NUM_PROC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.NumProc = n
		}
	}
	if v := os.Getenv("MODELCHECK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MODELCHECK_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("MODELCHECK_CHECKER"); v != "" {
		c.Checker.Command = v
	}
	if v := os.Getenv("MODELCHECK_LEDGER"); v != "" {
		c.Ledger = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("MODELCHECK_STATUS_ADDR"); v != "" {
		c.StatusAddr = v
	}
	if v := os.Getenv("MODELCHECK_FAIL_ON_CHECK_FAILURE"); v != "" {
		c.FailOnCheckFailure = parseBool(v)
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		c.Tracing.Enabled = parseBool(v)
	}
	if v := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Tracing.SampleRatio = f
		}
	}
}

func (c *Config) applyDefaults() {
	if c.FileFormat == "" {
		c.FileFormat = string(domain.DefaultFormat)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Checker.Command == "" {
		c.Checker.Command = DefaultCheckerCommand
	}
	if len(c.Checker.RunArgs) == 0 {
		c.Checker.RunArgs = append([]string(nil), DefaultRunArgs...)
	}
	if len(c.Checker.ReportArgs) == 0 {
		c.Checker.ReportArgs = append([]string(nil), DefaultReportArgs...)
	}
	if c.Ledger == "" {
		c.Ledger = DefaultLedger
	}
	if c.RedisAddr == "" {
		c.RedisAddr = DefaultRedisAddr
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "modelcheck"
	}
}

// Format returns the parsed FileFormat.
func (c *Config) Format() (domain.Format, error) {
	return domain.ParseFormat(c.FileFormat)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if _, err := c.Format(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.NumProc < 0 {
		errs = append(errs, "numProc must be >= 0 (0 = number of CPUs)")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logLevel %q must be one of debug, info, warn, error", c.LogLevel))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("logFormat %q must be json or text", c.LogFormat))
	}
	if strings.TrimSpace(c.Checker.Command) == "" {
		errs = append(errs, "checker.command is required")
	}
	switch c.Ledger {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.RedisAddr) == "" {
			errs = append(errs, "redisAddr is required for the redis ledger")
		}
	default:
		errs = append(errs, fmt.Sprintf("ledger %q must be memory or redis", c.Ledger))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, "tracing.sampleRatio must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateRun additionally requires the directories a batch run needs.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ModelDir) == "" || strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("need both model_dir and output_dir")
	}
	return nil
}

func parseBool(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	return v == "true" || v == "1" || v == "yes" || v == "y" || v == "on"
}
