package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/lattesec/luatrace/internal/env"
	"github.com/lattesec/luatrace/pkg/log"
)

// DefaultName is the config file name looked up in every config directory,
// without extension.
const DefaultName = "luatrace"

var (
	ErrBufferSize   = errors.New("trace.buffer_size must be at least 1")
	ErrAnnotateSize = errors.New("trace.annotate_size must be at least 1")
	ErrMaxAttempts  = errors.New("collector.max_attempts must be at least 1")
)

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Trace     TraceConfig     `yaml:"trace"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Collector CollectorConfig `yaml:"collector"`
}

type LogConfig struct {
	Level string `yaml:"level"` // trace, debug, info, warn, error or quiet
	File  string `yaml:"file"`  // mirror every line here. leave empty to disable.
}

type TraceConfig struct {
	BufferSize   int `yaml:"buffer_size"`   // capacity of the fault trace buffer, terminator included
	AnnotateSize int `yaml:"annotate_size"` // capacity of the trace attached to metric tags
}

type MetricsConfig struct {
	SymbolsFile string `yaml:"symbols_file"` // nm output used to name event handlers. empty disables handler attribution.
}

type CollectorConfig struct {
	Address string `yaml:"address"` // host:port of the collector. empty disables reporting.
	Name    string `yaml:"name"`    // only shows up in logs

	TLS                bool `yaml:"tls"`
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	MaxAttempts  int `yaml:"max_attempts"`
	RetryDelayMs int `yaml:"retry_delay_ms"`
}

func (c CollectorConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "warn"},
		Trace: TraceConfig{
			BufferSize:   1024,
			AnnotateSize: 128,
		},
		Collector: CollectorConfig{
			Name:         "collector",
			MaxAttempts:  3,
			RetryDelayMs: 500,
		},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Trace.BufferSize < 1 {
		errs = append(errs, ErrBufferSize)
	}
	if c.Trace.AnnotateSize < 1 {
		errs = append(errs, ErrAnnotateSize)
	}
	if c.Collector.Address != "" && c.Collector.MaxAttempts < 1 {
		errs = append(errs, ErrMaxAttempts)
	}
	return errors.Join(errs...)
}

// Load merges the named config from every config directory over the
// defaults, then applies overrides in order.
func Load(name string, overrides ...func(*Config) error) (*Config, error) {
	if name == "" {
		name = DefaultName
	}

	fromFiles, err := env.FromYAMLConfigs[*Config](name)
	if err != nil {
		return nil, err
	}

	l := env.NewLoader[*Config]()
	l.RegisterCallback(env.WithDefaults(Default()))
	l.RegisterCallback(fromFiles)
	for _, fn := range overrides {
		l.RegisterCallback(fn)
	}

	cfg, err := l.New()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
