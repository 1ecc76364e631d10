package config

import (
	"time"

	"github.com/vietddude/feedwatch/internal/indexing/intervention"
	"github.com/vietddude/feedwatch/internal/indexing/replay"
	"github.com/vietddude/feedwatch/internal/infra/automation"
	"github.com/vietddude/feedwatch/internal/infra/classifier"
	redisclient "github.com/vietddude/feedwatch/internal/infra/redis"
	"github.com/vietddude/feedwatch/internal/infra/source"
	"github.com/vietddude/feedwatch/internal/infra/storage/sqlstore"
	"github.com/vietddude/feedwatch/internal/observability"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server       ServerConfig         `yaml:"server"`
	Logging      LoggingConfig        `yaml:"logging"`
	Pipeline     PipelineConfig       `yaml:"pipeline"`
	Settings     SettingsConfig       `yaml:"settings"`
	Classifier   classifier.Config    `yaml:"classifier"`
	Source       source.FeedConfig    `yaml:"source"`
	Replay       replay.Config        `yaml:"replay"`
	Automation   automation.Config    `yaml:"automation"`
	Intervention intervention.Config  `yaml:"intervention"`
	Redis        redisclient.Config   `yaml:"redis"`
	Database     sqlstore.Config      `yaml:"database"`
	Tracing      observability.Config `yaml:"tracing"`
}

// ServerConfig holds HTTP and gRPC server settings.
type ServerConfig struct {
	Port     int `yaml:"port"      validate:"gte=0,lte=65535"`
	GRPCPort int `yaml:"grpc_port" validate:"gte=0,lte=65535"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"  validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format"` // json, text
}

// PipelineConfig bounds the classification pipeline.
type PipelineConfig struct {
	MaxConcurrency int           `yaml:"max_concurrency" validate:"gte=1"`
	CacheSize      int           `yaml:"cache_size"      validate:"gte=1"`
	RatePerSecond  float64       `yaml:"rate_per_second" validate:"gte=0"` // 0 = unlimited
	Burst          int           `yaml:"burst"           validate:"gte=0"`
	CallTimeout    time.Duration `yaml:"call_timeout"`
}

// SettingsConfig holds the startup values of the hot-reloadable settings.
type SettingsConfig struct {
	Settings `yaml:",inline"`
	// File is watched for changes when set.
	File string `yaml:"file"`
}
