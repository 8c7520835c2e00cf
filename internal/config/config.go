// ABOUTME: YAML configuration for the drift tracer CLI and dashboard
// ABOUTME: Loads engine, dashboard and logging sections with defaults applied
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mbakholdina/srt-drift-tracer/pkg/drift"
)

// DefaultPath is read when no -config flag is given and the file exists
const DefaultPath = "drift-tracer.yml"

type Config struct {
	Engine    drift.Config    `yaml:"engine"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

type DashboardConfig struct {
	Port         int    `yaml:"port"`
	Name         string `yaml:"name"`
	EnableMDNS   bool   `yaml:"enable_mdns"`
	UseTUI       bool   `yaml:"use_tui"`
	MaxReports   int    `yaml:"max_reports"`
	MaxUploadMB  int64  `yaml:"max_upload_mb"`
	Parallelism  int    `yaml:"parallelism"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"` // text or json
}

func Default() *Config {
	return &Config{
		Engine: drift.DefaultConfig(),
		Dashboard: DashboardConfig{
			Port:         8050,
			Name:         "drift-dashboard",
			EnableMDNS:   true,
			MaxReports:   50,
			MaxUploadMB:  64,
			Parallelism:  4,
			ReadTimeout:  "30s",
			WriteTimeout: "60s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path on top of the defaults. Keys absent from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadOptional loads path, or DefaultPath when path is empty. A missing
// default file yields the defaults; a missing explicit file is an error.
func LoadOptional(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	c, err := Load(DefaultPath)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Engine.BlockWindowSize == 0 {
		c.Engine.BlockWindowSize = d.Engine.BlockWindowSize
	}
	if c.Engine.WrapGuardPeriodUs == 0 {
		c.Engine.WrapGuardPeriodUs = d.Engine.WrapGuardPeriodUs
	}
	if c.Engine.MaxTimestamp == 0 {
		c.Engine.MaxTimestamp = d.Engine.MaxTimestamp
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = d.Dashboard.Port
	}
	if c.Dashboard.Name == "" {
		c.Dashboard.Name = d.Dashboard.Name
	}
	if c.Dashboard.MaxReports <= 0 {
		c.Dashboard.MaxReports = d.Dashboard.MaxReports
	}
	if c.Dashboard.MaxUploadMB <= 0 {
		c.Dashboard.MaxUploadMB = d.Dashboard.MaxUploadMB
	}
	if c.Dashboard.Parallelism <= 0 {
		c.Dashboard.Parallelism = d.Dashboard.Parallelism
	}
	if c.Dashboard.ReadTimeout == "" {
		c.Dashboard.ReadTimeout = d.Dashboard.ReadTimeout
	}
	if c.Dashboard.WriteTimeout == "" {
		c.Dashboard.WriteTimeout = d.Dashboard.WriteTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if c.Dashboard.Port < 0 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard port out of range: %d", c.Dashboard.Port)
	}
	if _, _, err := c.Dashboard.Timeouts(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Timeouts parses the HTTP read and write timeouts
func (d DashboardConfig) Timeouts() (read, write time.Duration, err error) {
	if read, err = time.ParseDuration(d.ReadTimeout); err != nil {
		return 0, 0, fmt.Errorf("dashboard read_timeout: %w", err)
	}
	if write, err = time.ParseDuration(d.WriteTimeout); err != nil {
		return 0, 0, fmt.Errorf("dashboard write_timeout: %w", err)
	}
	return read, write, nil
}

// Setup configures the global logrus logger. Output goes to stdout and, when
// File is set, to the file as well. A nil stdout logs to the file only.
// The returned closer releases the file.
func (l LogConfig) Setup(stdout io.Writer) (io.Closer, error) {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)

	if l.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if l.File == "" {
		if stdout == nil {
			stdout = io.Discard
		}
		log.SetOutput(stdout)
		return io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(l.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	if stdout == nil {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(stdout, f))
	}
	return f, nil
}
