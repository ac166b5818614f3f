package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Core
	Port        int    `env:"PORT" envDefault:"5200"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Gateway → service bearer token
	GatewayToken   string   `env:"GATEWAY_SERVICE_TOKEN,required,notEmpty"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	FrontendURL    string   `env:"FRONTEND_URL" envDefault:"https://earn.superteam.fun"`

	// Chat webhook
	DiscordWinnersWebhook string `env:"DISCORD_WINNERS_WEBHOOK"`

	// Historical token prices
	PriceAPIURL string `env:"PRICE_API_URL" envDefault:"https://api.coingecko.com/api/v3"`
	PriceAPIKey string `env:"PRICE_API_KEY"`

	// Sync service (profiles in, announcements out)
	SyncServiceURL      string        `env:"SYNC_SERVICE_URL"`
	SyncServiceToken    string        `env:"SYNC_SERVICE_TOKEN"`
	ProfileSyncInterval time.Duration `env:"PROFILE_SYNC_INTERVAL" envDefault:"1m"`

	// Outbound e-mail
	EmailAPIURL       string        `env:"EMAIL_API_URL" envDefault:"https://api.resend.com"`
	EmailAPIKey       string        `env:"EMAIL_API_KEY"`
	EmailFrom         string        `env:"EMAIL_FROM" envDefault:"Superteam Earn <hello@earn.superteam.fun>"`
	EmailPollInterval time.Duration `env:"EMAIL_POLL_INTERVAL" envDefault:"30s"`

	// Cloudflare R2 (winner sheet exports)
	R2AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	R2Bucket          string `env:"R2_BUCKET_NAME"`
	CDNBaseURL        string `env:"CDN_BASE_URL"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for i, origin := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// R2Enabled reports whether every R2 credential is present.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2Bucket != ""
}
