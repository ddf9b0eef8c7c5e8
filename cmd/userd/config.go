package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// serviceConfig is the userd runtime configuration. Positional arguments are
// [host] [port]; a TOML file supplied via -config overrides the defaults
// before positional arguments are applied.
type serviceConfig struct {
	Host           string
	Port           string
	ZipkinEndpoint string
	MaxConns       int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AcceptRate     float64
	AcceptBurst    int
}

type fileConfig struct {
	Host           string  `toml:"host"`
	Port           string  `toml:"port"`
	ZipkinEndpoint string  `toml:"zipkin_endpoint"`
	MaxConns       int     `toml:"max_conns"`
	ReadTimeout    string  `toml:"read_timeout"`
	WriteTimeout   string  `toml:"write_timeout"`
	AcceptRate     float64 `toml:"accept_rate"`
	AcceptBurst    int     `toml:"accept_burst"`
}

func defaultConfig() serviceConfig {
	return serviceConfig{Host: "127.0.0.1", Port: "8081"}
}

func loadConfig(args []string) (serviceConfig, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("userd", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to TOML config file")
	zipkin := fs.String("zipkin", "", "zipkin collector endpoint, empty disables export")
	if err := fs.Parse(args); err != nil {
		return serviceConfig{}, err
	}

	if *configPath != "" {
		if err := applyFileConfig(&cfg, *configPath); err != nil {
			return serviceConfig{}, err
		}
	}
	if *zipkin != "" {
		cfg.ZipkinEndpoint = *zipkin
	}

	rest := fs.Args()
	if len(rest) >= 1 {
		cfg.Host = rest[0]
	}
	if len(rest) >= 2 {
		cfg.Port = rest[1]
	}
	return cfg, nil
}

func applyFileConfig(cfg *serviceConfig, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if meta.IsDefined("host") {
		cfg.Host = raw.Host
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("zipkin_endpoint") {
		cfg.ZipkinEndpoint = raw.ZipkinEndpoint
	}
	if meta.IsDefined("max_conns") {
		cfg.MaxConns = raw.MaxConns
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(raw.ReadTimeout)
		if err != nil {
			return fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}
	if meta.IsDefined("write_timeout") {
		d, err := time.ParseDuration(raw.WriteTimeout)
		if err != nil {
			return fmt.Errorf("parse write_timeout: %w", err)
		}
		cfg.WriteTimeout = d
	}
	if meta.IsDefined("accept_rate") {
		cfg.AcceptRate = raw.AcceptRate
	}
	if meta.IsDefined("accept_burst") {
		cfg.AcceptBurst = raw.AcceptBurst
	}
	return nil
}
