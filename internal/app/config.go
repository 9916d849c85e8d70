package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/storefront-backend/internal/data/db"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/cache"
	"github.com/yungbote/storefront-backend/internal/platform/envutil"
	"github.com/yungbote/storefront-backend/internal/platform/gcp"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/platform/payments"
	"github.com/yungbote/storefront-backend/internal/platform/sendgrid"
	"github.com/yungbote/storefront-backend/internal/temporalx"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port        string   `yaml:"port"`
	LogMode     string   `yaml:"log_mode"`
	CORSOrigins []string `yaml:"cors_allowed_origins"`

	JWTSecretKey    string        `yaml:"jwt_secret_key"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`

	Postgres db.PostgresConfig `yaml:"postgres"`

	Redis              cache.RedisConfig `yaml:"redis"`
	RedisChannel       string            `yaml:"redis_channel"`
	CatalogCacheTTL    time.Duration     `yaml:"catalog_cache_ttl"`
	GuestCartTTL       time.Duration     `yaml:"guest_cart_ttl"`
	RateLimitPerMinute int               `yaml:"rate_limit_per_minute"`
	AuthRateLimit      int               `yaml:"auth_rate_limit_per_minute"`

	MediaBucket       gcp.BucketConfig         `yaml:"media_bucket"`
	Payments          payments.Config          `yaml:"payments"`
	AuthWebhookSecret string                   `yaml:"auth_webhook_secret"`
	SendGrid          sendgrid.Config          `yaml:"sendgrid"`
	Temporal          temporalx.Config         `yaml:"temporal"`
	Otel              observability.OtelConfig `yaml:"otel"`
}

// LoadConfig reads the environment, then overlays CONFIG_FILE when set. Keys
// present in the file win over the environment.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := configFromEnv()
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return cfg, err
		}
		log.Info("Config file applied", "path", path)
	}
	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY not set; using the development default")
	}
	if strings.TrimSpace(cfg.Payments.WebhookSecret) == "" {
		log.Warn("PAYMENTS_WEBHOOK_SECRET not set; payment webhooks are disabled")
	}
	return cfg, nil
}

func configFromEnv() Config {
	return Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		CORSOrigins: envutil.CSV("CORS_ALLOWED_ORIGINS", nil),

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
		AccessTokenTTL:  envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL: envutil.Seconds("REFRESH_TOKEN_TTL", 30*24*time.Hour),

		Postgres: db.PostgresConfig{
			Host:         envutil.String("POSTGRES_HOST", "localhost"),
			Port:         envutil.String("POSTGRES_PORT", "5432"),
			User:         envutil.String("POSTGRES_USER", "postgres"),
			Password:     envutil.String("POSTGRES_PASSWORD", ""),
			Name:         envutil.String("POSTGRES_NAME", "storefront"),
			SSLMode:      envutil.String("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns: envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns: envutil.Int("POSTGRES_MAX_IDLE_CONNS", 5),
		},

		Redis: cache.RedisConfig{
			Addr:      envutil.String("REDIS_ADDR", ""),
			Password:  envutil.String("REDIS_PASSWORD", ""),
			DB:        envutil.Int("REDIS_DB", 0),
			KeyPrefix: envutil.String("REDIS_KEY_PREFIX", "storefront:"),
		},
		RedisChannel:       envutil.String("REDIS_CHANNEL", "storefront:sse"),
		CatalogCacheTTL:    envutil.Seconds("CATALOG_CACHE_TTL_SECONDS", 5*time.Minute),
		GuestCartTTL:       envutil.Seconds("GUEST_CART_TTL_SECONDS", 30*24*time.Hour),
		RateLimitPerMinute: envutil.Int("RATE_LIMIT_PER_MINUTE", 300),
		AuthRateLimit:      envutil.Int("AUTH_RATE_LIMIT_PER_MINUTE", 20),

		MediaBucket: gcp.BucketConfig{
			Name:          envutil.String("PRODUCT_MEDIA_GCS_BUCKET_NAME", ""),
			CDNDomain:     envutil.String("PRODUCT_MEDIA_CDN_DOMAIN", ""),
			Mode:          envutil.String("OBJECT_STORAGE_MODE", ""),
			EmulatorHost:  envutil.String("STORAGE_EMULATOR_HOST", ""),
			PublicBaseURL: envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""),
		},
		Payments: payments.Config{
			Mode:          envutil.String("PAYMENTS_MODE", "live"),
			APIKey:        envutil.String("PAYMENTS_API_KEY", ""),
			BaseURL:       envutil.String("PAYMENTS_BASE_URL", ""),
			WebhookSecret: envutil.String("PAYMENTS_WEBHOOK_SECRET", ""),
			Timeout:       envutil.Seconds("PAYMENTS_TIMEOUT_SECONDS", 20*time.Second),
			MaxRetries:    envutil.Int("PAYMENTS_MAX_RETRIES", 2),
		},
		AuthWebhookSecret: envutil.String("AUTH_WEBHOOK_SECRET", ""),
		SendGrid:          sendgrid.ConfigFromEnv(),
		Temporal:          temporalx.LoadConfig(),
		Otel:              observability.OtelConfigFromEnv(),
	}
}

func overlayFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
