package main

import (
	"crypto/tls"
	"fmt"
	"net"

	"github.com/mkideal/cli"

	"github.com/lattesec/luatrace/internal/config"
	"github.com/lattesec/luatrace/internal/socket"
	"github.com/lattesec/luatrace/pkg/log"
)

type Config struct {
	Help       bool   `cli:"!h,help" usage:"Show help"`
	Script     string `cli:"s,script" usage:"Lua script to run"`
	ConfigName string `cli:"c,config" usage:"Config file name, without extension, looked up in every config directory" dft:"luatrace"`
	BufferSize int    `cli:"b,buffer-size" usage:"Trace buffer size in bytes, terminator included. 0 keeps the configured value." dft:"0"`
	Collector  string `cli:"collector" usage:"Collector address (host:port). Overrides collector.address." dft:""`
	LogLevel   string `cli:"l,log-level" usage:"Log level [trace|debug|info|warn|error|quiet]. Overrides log.level." dft:""`
	Metrics    bool   `cli:"m,metrics" usage:"Print the metrics registry after the script finishes"`
}

func (argv *Config) AutoHelp() bool {
	return argv.Help
}

func (argv *Config) Validate(ctx *cli.Context) error {
	if argv.Script == "" {
		return fmt.Errorf("a script is required")
	}
	if argv.BufferSize < 0 {
		return fmt.Errorf("invalid buffer size: %d", argv.BufferSize)
	}
	if argv.Collector != "" {
		if _, _, err := net.SplitHostPort(argv.Collector); err != nil {
			return fmt.Errorf("invalid collector address %q: %w", argv.Collector, err)
		}
	}
	if argv.LogLevel != "" {
		if _, err := log.ParseLevel(argv.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// overrides turns the flags that were set into config overrides, applied
// after every config file.
func (argv *Config) overrides() []func(*config.Config) error {
	var fns []func(*config.Config) error
	if argv.BufferSize > 0 {
		fns = append(fns, func(c *config.Config) error {
			c.Trace.BufferSize = argv.BufferSize
			return nil
		})
	}
	if argv.Collector != "" {
		fns = append(fns, func(c *config.Config) error {
			c.Collector.Address = argv.Collector
			return nil
		})
	}
	if argv.LogLevel != "" {
		fns = append(fns, func(c *config.Config) error {
			c.Log.Level = argv.LogLevel
			return nil
		})
	}
	return fns
}

func connConfig(c config.CollectorConfig) (*socket.ConnConfig, error) {
	var tlsCfg *tls.Config
	if c.TLS {
		host, _, err := net.SplitHostPort(c.Address)
		if err != nil {
			return nil, fmt.Errorf("invalid collector address %q: %w", c.Address, err)
		}
		tlsCfg = &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: c.InsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		}
	}

	cc := socket.DefaultConnConfig(c.Address, c.Name, tlsCfg)
	cc.MaxReconnectionAttempts = c.MaxAttempts
	cc.ReconnectionDelay = c.RetryDelay()
	return cc, cc.Validate()
}
