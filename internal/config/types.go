package config

import (
	"time"

	"github.com/aryankumar/taskpool/internal/util"
)

// Config represents the taskpool configuration file structure
type Config struct {
	// Defaults apply to every run unless a profile or flag overrides them
	Defaults RunConfig `yaml:"defaults,omitempty" json:"defaults,omitempty" mapstructure:"defaults"`

	// Profiles are named sets of overrides selected with --profile
	Profiles map[string]RunConfig `yaml:"profiles,omitempty" json:"profiles,omitempty" mapstructure:"profiles"`
}

// RunConfig holds the settings of a single pool run
type RunConfig struct {
	// Concurrency is the maximum number of tasks in flight
	Concurrency int `yaml:"concurrency,omitempty" json:"concurrency,omitempty" mapstructure:"concurrency"`

	// StopOnError stops dispatching after the first task failure
	StopOnError bool `yaml:"stopOnError,omitempty" json:"stopOnError,omitempty" mapstructure:"stopOnError"`

	// TaskTimeout bounds each task; zero disables it
	TaskTimeout time.Duration `yaml:"taskTimeout,omitempty" json:"taskTimeout,omitempty" mapstructure:"taskTimeout"`

	// Rate limits task pulls per second; zero disables it
	Rate float64 `yaml:"rate,omitempty" json:"rate,omitempty" mapstructure:"rate"`

	// Burst is the rate limiter bucket size
	Burst int `yaml:"burst,omitempty" json:"burst,omitempty" mapstructure:"burst"`

	// Plan is a workload plan file
	Plan string `yaml:"plan,omitempty" json:"plan,omitempty" mapstructure:"plan"`

	// OutputFormat is the report format (table, json, yaml)
	OutputFormat string `yaml:"outputFormat,omitempty" json:"outputFormat,omitempty" mapstructure:"outputFormat"`

	// NoColor disables colored output
	NoColor bool `yaml:"noColor,omitempty" json:"noColor,omitempty" mapstructure:"noColor"`

	// LogLevel is one of silly, verbose, info, warn, error
	LogLevel string `yaml:"logLevel,omitempty" json:"logLevel,omitempty" mapstructure:"logLevel"`

	// MetricsAddr serves Prometheus metrics when set
	MetricsAddr string `yaml:"metricsAddr,omitempty" json:"metricsAddr,omitempty" mapstructure:"metricsAddr"`
}

// Merge returns r with every non-zero field of o applied on top
func (r RunConfig) Merge(o RunConfig) RunConfig {
	if o.Concurrency != 0 {
		r.Concurrency = o.Concurrency
	}
	if o.StopOnError {
		r.StopOnError = true
	}
	if o.TaskTimeout != 0 {
		r.TaskTimeout = o.TaskTimeout
	}
	if o.Rate != 0 {
		r.Rate = o.Rate
	}
	if o.Burst != 0 {
		r.Burst = o.Burst
	}
	if o.Plan != "" {
		r.Plan = o.Plan
	}
	if o.OutputFormat != "" {
		r.OutputFormat = o.OutputFormat
	}
	if o.NoColor {
		r.NoColor = true
	}
	if o.LogLevel != "" {
		r.LogLevel = o.LogLevel
	}
	if o.MetricsAddr != "" {
		r.MetricsAddr = o.MetricsAddr
	}
	return r
}

// Validate checks the settings for errors
func (r RunConfig) Validate() error {
	m := &util.MultiError{}

	if r.Concurrency < 1 {
		m.Add(util.NewValidationError("concurrency", r.Concurrency, "must be at least 1"))
	}
	if r.TaskTimeout < 0 {
		m.Add(util.NewValidationError("taskTimeout", r.TaskTimeout, "must not be negative"))
	}
	if r.Rate < 0 {
		m.Add(util.NewValidationError("rate", r.Rate, "must not be negative"))
	}
	if r.Burst < 0 {
		m.Add(util.NewValidationError("burst", r.Burst, "must not be negative"))
	}
	switch r.OutputFormat {
	case "", "table", "json", "yaml":
	default:
		m.Add(util.NewValidationError("outputFormat", r.OutputFormat, "must be one of table, json, yaml"))
	}
	switch r.LogLevel {
	case "", "silly", "verbose", "debug", "info", "warn", "warning", "error":
	default:
		m.Add(util.NewValidationError("logLevel", r.LogLevel, "must be one of silly, verbose, info, warn, error"))
	}

	return m.ErrorOrNil()
}
