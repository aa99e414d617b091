package models

import "time"

// Config is the top-level application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Stats    StatsConfig
	Notify   NotifyConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type ServerConfig struct {
	Port       string
	AssetsFile string
}

// StatsConfig controls the optional periodic drift-correction sweep.
// A zero RefreshInterval disables the sweep; correctness does not depend on
// it because every mutation recomputes synchronously.
type StatsConfig struct {
	RefreshInterval time.Duration
}

// NotifyConfig selects the notification backend. An empty NatsUrl falls back
// to the log-only sink.
type NotifyConfig struct {
	NatsUrl       string
	SubjectPrefix string
}

// LogConfig routes zap output through a rotating file when File is set.
type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}
