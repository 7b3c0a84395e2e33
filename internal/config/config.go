package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"ppplink/internal/logger"
	"ppplink/internal/pppd"
)

// Config is the top-level TOML structure for the ppplink daemon.
//
// Example:
//
//	[server]
//	listen = ":8000"
//	base_path = "/ppp"
//
//	[pppd]
//	binary = "/usr/sbin/pppd"
//	grace_period = "3s"
//	confirm_window = "2s"
//
//	[settings]
//	path = "/app/settings/ppplink-settings.json"
//
//	[log]
//	dir = "/app/logs"
//
//	[metrics]
//	enabled = true
//	listen = ":9090"
//
//	[history]
//	dsn = "sqlite:///app/settings/ppplink-history.db"
type Config struct {
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	PPPD     PPPDConfig     `toml:"pppd" mapstructure:"pppd"`
	Settings SettingsConfig `toml:"settings" mapstructure:"settings"`
	Log      logger.Config  `toml:"log" mapstructure:"log"`
	Metrics  MetricsConfig  `toml:"metrics" mapstructure:"metrics"`
	History  HistoryConfig  `toml:"history" mapstructure:"history"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type PPPDConfig struct {
	Binary        string        `toml:"binary" mapstructure:"binary"`
	GracePeriod   time.Duration `toml:"grace_period" mapstructure:"grace_period"`
	ConfirmWindow time.Duration `toml:"confirm_window" mapstructure:"confirm_window"`
}

type SettingsConfig struct {
	Path string `toml:"path" mapstructure:"path"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

// Default returns the configuration used when no file is supplied. Paths
// match the BlueOS extension layout where /app/settings and /app/logs are
// the persistent volumes.
func Default() Config {
	return Config{
		Server:   ServerConfig{Listen: ":8000", BasePath: "/ppp"},
		PPPD:     PPPDConfig{Binary: "pppd", GracePeriod: pppd.DefaultGracePeriod, ConfirmWindow: pppd.DefaultConfirmWindow},
		Settings: SettingsConfig{Path: "/app/settings/ppplink-settings.json"},
		Log:      logger.Config{Dir: "/app/logs"},
		Metrics:  MetricsConfig{Listen: ":9090"},
	}
}

// Load reads a TOML config file, filling unset fields from Default.
// An empty path returns Default unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8000"
	}
	if cfg.PPPD.Binary == "" {
		cfg.PPPD.Binary = "pppd"
	}
	if cfg.Settings.Path == "" {
		cfg.Settings.Path = Default().Settings.Path
	}
	return cfg, nil
}
