package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config 应用配置
type Config struct {
	Port        string `env:"PORT" envDefault:":8080"`
	DBPath      string `env:"DB_PATH" envDefault:"./data/app.db"`
	JWTSecret   string `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`
	DatasetPath string `env:"DATASET_PATH" envDefault:"./data/centers.json"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Remote entitlement ledger
	LedgerURL        string `env:"LEDGER_URL"`
	LedgerAPIKey     string `env:"LEDGER_API_KEY"`
	LedgerActivePath string `env:"LEDGER_ACTIVE_PATH" envDefault:"subscriber.entitlements.premium.active"`

	// Remote profile store (denormalized premium flag)
	ProfileURL    string `env:"PROFILE_URL"`
	ProfileAPIKey string `env:"PROFILE_API_KEY"`

	HTTPRetryMax int           `env:"HTTP_RETRY_MAX" envDefault:"3"`
	HTTPTimeout  time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	// Whether the host map runtime renders native marker images
	NativeIcons bool `env:"NATIVE_ICONS" envDefault:"false"`

	// Categories whose icons are generated at startup
	PreWarmCategories []string `env:"ICON_PREWARM" envSeparator:"," envDefault:"hemodialysis,peritoneal,home,pediatric,nocturnal,default"`
}

// Load 加载配置
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
