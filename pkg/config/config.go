// Package config loads daemon configuration from YAML with environment
// overrides. The window geometry and rotation period are deliberately not
// here: they are fixed constants of the published status format.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen  string        `yaml:"listen"`
	Input   InputConfig   `yaml:"input"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

type InputConfig struct {
	Enable bool   `yaml:"enable"`
	Dir    string `yaml:"dir"`
}

// HistoryConfig controls the optional sample journal. The journal is an
// observation log only; the daemon never reads it back, so the live
// estimate always restarts at zero.
type HistoryConfig struct {
	Enable   bool   `yaml:"enable"`
	Path     string `yaml:"path"`
	Interval int    `yaml:"interval_s"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	LogSpans    bool    `yaml:"log_spans"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Listen: ":8090",
		Input: InputConfig{
			Enable: true,
			Dir:    "/dev/input",
		},
		History: HistoryConfig{
			Enable:   false,
			Path:     "typespeed.db",
			Interval: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
		Tracing: TracingConfig{
			Endpoint:    "",
			Insecure:    false,
			SampleRatio: 1,
			LogSpans:    false,
		},
	}
}

// Load reads config from file with env var overrides. A missing file is not
// an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if listen := os.Getenv("TYPESPEED_LISTEN"); listen != "" {
		cfg.Listen = listen
	}
	if dir := os.Getenv("TYPESPEED_INPUT_DIR"); dir != "" {
		cfg.Input.Dir = dir
	}
	if level := os.Getenv("TYPESPEED_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if hist := os.Getenv("TYPESPEED_HISTORY_PATH"); hist != "" {
		cfg.History.Path = hist
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Listen == "" {
		return ErrMissingListen
	}
	if c.History.Enable {
		if c.History.Path == "" {
			return ErrMissingHistoryPath
		}
		if c.History.Interval < 1 {
			return ErrInvalidHistoryInterval
		}
	}
	if c.Input.Enable && c.Input.Dir == "" {
		c.Input.Dir = "/dev/input"
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = 1
	}
	return nil
}

var (
	ErrMissingListen          = &Error{"listen address is required"}
	ErrMissingHistoryPath     = &Error{"history path is required when history is enabled"}
	ErrInvalidHistoryInterval = &Error{"history interval must be >= 1s"}
)

type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
