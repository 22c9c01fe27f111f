package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

const (
	ModeServerless = "serverless"
	ModePooled     = "pooled"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	PublicURL string `env:"PUBLIC_URL, default=http://localhost:3000"`

	Database    DatabaseConfig
	Redis       RedisConfig
	Mongo       MongoConfig
	Stripe      StripeConfig
	SMTP        SMTPConfig
	Maintenance MaintenanceConfig
}

type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL,  required"`
	Mode     string `env:"DATABASE_MODE"`
	MaxConns int32  `env:"DB_MAX_CONNS,  default=10"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=restaurant_billing"`
}

type StripeConfig struct {
	SecretKey         string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret     string `env:"STRIPE_WEBHOOK_SECRET"`
	PriceStarter      string `env:"STRIPE_PRICE_STARTER"`
	PriceProfessional string `env:"STRIPE_PRICE_PROFESSIONAL"`
	PriceEnterprise   string `env:"STRIPE_PRICE_ENTERPRISE"`
	Workers           int    `env:"BILLING_WORKERS, default=4"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,     default=587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"MAIL_FROM,     default=no-reply@localhost"`
}

type MaintenanceConfig struct {
	Schedule string `env:"MAINTENANCE_SCHEDULE, default=@hourly"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through the given lookuper and resolves the
// database mode once so the rest of the process never re-checks the
// environment.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	mode, err := ResolveMode(cfg.Database.Mode, l)
	if err != nil {
		return nil, err
	}
	cfg.Database.Mode = mode
	return &cfg, nil
}

// IsProduction reports whether the process runs in the production environment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// IsServerless reports whether the database layer must avoid long-lived pools.
func (c *Config) IsServerless() bool {
	return c.Database.Mode == ModeServerless
}

// PlanPrices maps plan names to Stripe price IDs, skipping unset prices.
func (s StripeConfig) PlanPrices() map[string]string {
	prices := make(map[string]string, 3)
	for plan, price := range map[string]string{
		"starter":      s.PriceStarter,
		"professional": s.PriceProfessional,
		"enterprise":   s.PriceEnterprise,
	} {
		if price != "" {
			prices[plan] = price
		}
	}
	return prices
}

// ResolveMode picks the database mode. An explicit value wins; otherwise the
// presence of a serverless platform marker selects serverless mode.
func ResolveMode(explicit string, l envconfig.Lookuper) (string, error) {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case ModeServerless:
		return ModeServerless, nil
	case ModePooled:
		return ModePooled, nil
	case "":
	default:
		return "", fmt.Errorf("config: unknown DATABASE_MODE %q", explicit)
	}

	for _, marker := range []string{"VERCEL", "AWS_LAMBDA_FUNCTION_NAME"} {
		if v, ok := l.Lookup(marker); ok && v != "" {
			return ModeServerless, nil
		}
	}
	return ModePooled, nil
}
