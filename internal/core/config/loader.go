package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

var validate = validator.New()

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, expanding environment variables first.
func Parse(data []byte) (*AppConfig, error) {
	cfg := AppConfig{
		Settings: SettingsConfig{Settings: DefaultSettings()},
	}
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Pipeline.MaxConcurrency == 0 {
		cfg.Pipeline.MaxConcurrency = 2
	}
	if cfg.Pipeline.CacheSize == 0 {
		cfg.Pipeline.CacheSize = 500
	}
	if cfg.Pipeline.CallTimeout == 0 {
		cfg.Pipeline.CallTimeout = 30 * time.Second
	}

	cfg.Classifier = cfg.Classifier.WithDefaults()
	cfg.Source = cfg.Source.WithDefaults()
	cfg.Replay = cfg.Replay.WithDefaults()
	cfg.Automation = cfg.Automation.WithDefaults()
	cfg.Intervention = cfg.Intervention.WithDefaults()
	cfg.Redis = cfg.Redis.WithDefaults()
	cfg.Database = cfg.Database.WithDefaults()
	cfg.Tracing = cfg.Tracing.WithDefaults()
}
