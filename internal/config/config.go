package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env          string       `yaml:"env" env:"ENV" env-default:"local"`
	Postgres     Postgres     `yaml:"postgres"`
	Server       Server       `yaml:"server"`
	Auth         Auth         `yaml:"auth"`
	Listing      Listing      `yaml:"listing"`
	Applications Applications `yaml:"applications"`
	Reviews      Reviews      `yaml:"reviews"`
	Invites      Invites      `yaml:"invites"`
	Redis        Redis        `yaml:"redis"`
	Notify       Notify       `yaml:"notify"`
	RateLimit    RateLimit    `yaml:"rate_limit"`
}

type Postgres struct {
	Username        string        `yaml:"username" env:"POSTGRES_USER" env-required:"true"`
	Password        string        `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	Host            string        `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port            string        `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	Database        string        `yaml:"database" env:"POSTGRES_DB" env-required:"true"`
	SSLMode         string        `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"50"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env-default:"1m"`
}

// DSN returns the lib/pq connection URL.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.Username, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

type Server struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type Auth struct {
	JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	MagicLinkTTL time.Duration `yaml:"magic_link_ttl" env-default:"72h"`
	BaseURL      string        `yaml:"base_url" env:"APP_BASE_URL" env-default:"http://localhost:3000"`
}

type Listing struct {
	DefaultLimit        int `yaml:"default_limit" env-default:"20"`
	MaxLimit            int `yaml:"max_limit" env-default:"50"`
	MaxPage             int `yaml:"max_page" env-default:"1000"`
	MaxFilterLength     int `yaml:"max_filter_length" env-default:"100"`
	MostActiveThreshold int `yaml:"most_active_threshold" env-default:"10"`
	FeaturedLimit       int `yaml:"featured_limit" env-default:"6"`
	FeaturedPoolSize    int `yaml:"featured_pool_size" env-default:"50"`
	FeaturedCategoryCap int `yaml:"featured_category_cap" env-default:"2"`
}

type Applications struct {
	// ContactDelivery is one of phone, email or custom.
	ContactDelivery        string `yaml:"contact_delivery" env:"CONTACT_DELIVERY" env-default:"email"`
	MaxWithdrawalsPerMonth int64  `yaml:"max_withdrawals_per_month" env-default:"3"`
}

type Reviews struct {
	HardBlockThreshold int `yaml:"hard_block_threshold" env-default:"3"`
}

type Invites struct {
	Limit       int `yaml:"limit" env-default:"50"`
	Concurrency int `yaml:"concurrency" env-default:"8"`
}

// Redis is optional. With an empty Addr the invite queue runs in process and
// the withdrawal quota uses the in-memory limiter store.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Notify struct {
	TelegramBotToken string            `yaml:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramAPIURL   string            `yaml:"telegram_api_url" env-default:"https://api.telegram.org"`
	SendGridAPIKey   string            `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
	SendGridAPIURL   string            `yaml:"sendgrid_api_url" env-default:"https://api.sendgrid.com"`
	FromEmail        string            `yaml:"from_email" env:"SENDGRID_FROM_EMAIL" env-default:"noreply@trudify.com"`
	FromName         string            `yaml:"from_name" env-default:"Trudify"`
	Templates        map[string]string `yaml:"templates"`
	Timeout          time.Duration     `yaml:"timeout" env-default:"10s"`
}

type RateLimit struct {
	// Rate uses the ulule/limiter format, e.g. "30-M" for 30 requests a minute.
	Rate string `yaml:"rate" env:"RATE_LIMIT" env-default:"30-M"`
}

// Load reads an optional .env file and then the YAML config at CONFIG_PATH,
// letting environment variables override file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		return nil, errors.New("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file does not exist: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}

	return cfg
}
