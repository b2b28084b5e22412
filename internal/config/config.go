// Package config loads and validates segmenta configuration from YAML
// files, environment variables and defaults.
package config

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/logging"
)

// Config is the root segmenta configuration.
type Config struct {
	Scanning ScanningConfig `yaml:"scanning" mapstructure:"scanning"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Logging  logging.Config `yaml:"logging" mapstructure:"logging"`
}

// ScanningConfig controls probe, execution and dispatch behavior.
type ScanningConfig struct {
	// Jobs is the per-run concurrency ceiling for network scan units.
	Jobs int `yaml:"jobs" mapstructure:"jobs" validate:"min=1,max=10"`
	// ScanTimeout bounds a single external scan invocation.
	ScanTimeout time.Duration `yaml:"scan_timeout" mapstructure:"scan_timeout" validate:"min=1s"`
	// ProbeTimeout bounds a single latency probe attempt.
	ProbeTimeout time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout" validate:"min=100ms"`
	// ProbeTarget is the well-known address used to classify latency.
	ProbeTarget string `yaml:"probe_target" mapstructure:"probe_target" validate:"required,ip"`
	// MaxExpansion caps how many addresses a single range may expand to.
	MaxExpansion int `yaml:"max_expansion" mapstructure:"max_expansion" validate:"min=1"`
	// LaunchRate throttles unit launches per second; 0 disables throttling.
	LaunchRate float64 `yaml:"launch_rate" mapstructure:"launch_rate" validate:"min=0"`
	Retry      RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig shapes the backoff applied to transient scan failures.
type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries" validate:"min=0,max=10"`
	BaseDelay     time.Duration `yaml:"base_delay" mapstructure:"base_delay" validate:"min=1ms"`
	BackoffFactor float64       `yaml:"backoff_factor" mapstructure:"backoff_factor" validate:"min=1"`
}

// ExportConfig controls report generation.
type ExportConfig struct {
	// Format selects the exporters: csv, json, markdown or all.
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=csv json markdown all"`
	// OutputDir receives generated report files.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir" validate:"required"`
	// Dashboard toggles the HTML dashboard alongside other exports.
	Dashboard bool `yaml:"dashboard" mapstructure:"dashboard"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Scanning: ScanningConfig{
			Jobs:         3,
			ScanTimeout:  time.Hour,
			ProbeTimeout: 2 * time.Second,
			ProbeTarget:  "8.8.8.8",
			MaxExpansion: 256,
			LaunchRate:   0,
			Retry: RetryConfig{
				MaxRetries:    3,
				BaseDelay:     time.Second,
				BackoffFactor: 2.0,
			},
		},
		Export: ExportConfig{
			Format:    "",
			OutputDir: ".",
			Dashboard: true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// SEGMENTA_* environment variables, then validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SEGMENTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapValidationError("cannot read config file", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapValidationError("cannot decode config", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// YAML renders the effective configuration, for --dump-config and for
// seeding a config file to edit.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.WrapValidationError("cannot render config", "", err)
	}
	return out, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if stderrors.As(err, &invalid) && len(invalid) > 0 {
			first := invalid[0]
			return errors.NewValidationError(
				fmt.Sprintf("invalid config: field %s fails %q", first.Namespace(), first.Tag()),
				first.Namespace())
		}
		return errors.WrapValidationError("invalid config", "", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("scanning.jobs", d.Scanning.Jobs)
	v.SetDefault("scanning.scan_timeout", d.Scanning.ScanTimeout)
	v.SetDefault("scanning.probe_timeout", d.Scanning.ProbeTimeout)
	v.SetDefault("scanning.probe_target", d.Scanning.ProbeTarget)
	v.SetDefault("scanning.max_expansion", d.Scanning.MaxExpansion)
	v.SetDefault("scanning.launch_rate", d.Scanning.LaunchRate)
	v.SetDefault("scanning.retry.max_retries", d.Scanning.Retry.MaxRetries)
	v.SetDefault("scanning.retry.base_delay", d.Scanning.Retry.BaseDelay)
	v.SetDefault("scanning.retry.backoff_factor", d.Scanning.Retry.BackoffFactor)
	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("export.output_dir", d.Export.OutputDir)
	v.SetDefault("export.dashboard", d.Export.Dashboard)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
}
