package main

import (
	"flag"
	"fmt"

	"github.com/BurntSushi/toml"
)

// serviceConfig is the gatewayd runtime configuration. Positional arguments
// are [host] [port] [user_host] [user_port] [message_host] [message_port]
// [notification_host] [notification_port]; a TOML file supplied via -config
// overrides the defaults before positional arguments are applied.
type serviceConfig struct {
	Host                    string
	Port                    string
	UserServiceHost         string
	UserServicePort         string
	MessageServiceHost      string
	MessageServicePort      string
	NotificationServiceHost string
	NotificationServicePort string
	ZipkinEndpoint          string
}

type fileConfig struct {
	Host                    string `toml:"host"`
	Port                    string `toml:"port"`
	UserServiceHost         string `toml:"user_service_host"`
	UserServicePort         string `toml:"user_service_port"`
	MessageServiceHost      string `toml:"message_service_host"`
	MessageServicePort      string `toml:"message_service_port"`
	NotificationServiceHost string `toml:"notification_service_host"`
	NotificationServicePort string `toml:"notification_service_port"`
	ZipkinEndpoint          string `toml:"zipkin_endpoint"`
}

func defaultConfig() serviceConfig {
	return serviceConfig{
		Host:                    "127.0.0.1",
		Port:                    "8080",
		UserServiceHost:         "127.0.0.1",
		UserServicePort:         "8081",
		MessageServiceHost:      "127.0.0.1",
		MessageServicePort:      "8082",
		NotificationServiceHost: "127.0.0.1",
		NotificationServicePort: "8083",
	}
}

func loadConfig(args []string) (serviceConfig, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("gatewayd", flag.ContinueOnError)
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
	positional := []*string{
		&cfg.Host, &cfg.Port,
		&cfg.UserServiceHost, &cfg.UserServicePort,
		&cfg.MessageServiceHost, &cfg.MessageServicePort,
		&cfg.NotificationServiceHost, &cfg.NotificationServicePort,
	}
	for i, dst := range positional {
		if len(rest) > i {
			*dst = rest[i]
		}
	}
	return cfg, nil
}

func applyFileConfig(cfg *serviceConfig, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fields := []struct {
		key string
		src string
		dst *string
	}{
		{"host", raw.Host, &cfg.Host},
		{"port", raw.Port, &cfg.Port},
		{"user_service_host", raw.UserServiceHost, &cfg.UserServiceHost},
		{"user_service_port", raw.UserServicePort, &cfg.UserServicePort},
		{"message_service_host", raw.MessageServiceHost, &cfg.MessageServiceHost},
		{"message_service_port", raw.MessageServicePort, &cfg.MessageServicePort},
		{"notification_service_host", raw.NotificationServiceHost, &cfg.NotificationServiceHost},
		{"notification_service_port", raw.NotificationServicePort, &cfg.NotificationServicePort},
		{"zipkin_endpoint", raw.ZipkinEndpoint, &cfg.ZipkinEndpoint},
	}
	for _, f := range fields {
		if meta.IsDefined(f.key) {
			*f.dst = f.src
		}
	}
	return nil
}
