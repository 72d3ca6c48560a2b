// Package config reads the engine configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `validate:"required,numeric"`
	Timezone string `validate:"required"`
	Location *time.Location

	LocalPath     string `validate:"required_without=LocalInMemory"`
	LocalInMemory bool

	// DatabaseURL and RedisAddr are optional. Empty disables the remote
	// replica and the profile cache / rate limiter respectively.
	DatabaseURL   string
	RedisAddr     string `validate:"omitempty,hostname_port"`
	RedisPassword string
	RedisDB       int `validate:"gte=0,lte=15"`

	JWTSecret string        `validate:"required,min=16"`
	JWTIssuer string        `validate:"required"`
	TokenTTL  time.Duration `validate:"gt=0"`

	SyncQueueSize int     `validate:"gt=0"`
	SyncPerSecond float64 `validate:"gt=0"`

	RateLimit     int           `validate:"gte=0"`
	RateWindow    time.Duration `validate:"gt=0"`
	EnableSwagger bool
}

var validate = validator.New()

// Load reads the given .env files (missing files are fine), then the
// environment. Variables already set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	p := &parser{}
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Timezone:      getEnv("TIMEZONE", "Local"),
		LocalPath:     getEnv("LOCAL_STORE_PATH", "./data/ledger"),
		LocalInMemory: p.bool("LOCAL_STORE_IN_MEMORY", false),
		DatabaseURL:   databaseURL(),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       p.int("REDIS_DB", 0),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     getEnv("JWT_ISSUER", "kanso"),
		TokenTTL:      p.duration("TOKEN_TTL", 24*time.Hour),
		SyncQueueSize: p.int("SYNC_QUEUE_SIZE", 1000),
		SyncPerSecond: p.float("SYNC_PER_SECOND", 20),
		RateLimit:     p.int("RATE_LIMIT", 100),
		RateWindow:    p.duration("RATE_WINDOW", time.Minute),
		EnableSwagger: p.bool("ENABLE_SWAGGER", true),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// databaseURL prefers DATABASE_URL and otherwise builds a DSN from the DB_*
// variables. No DB_NAME means no remote replica.
func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	name := os.Getenv("DB_NAME")
	if name == "" {
		return ""
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD")),
		Host:     getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432"),
		Path:     name,
		RawQuery: "sslmode=" + getEnv("DB_SSLMODE", "disable"),
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parser collects every malformed variable so one run reports them all.
type parser struct {
	errs []error
}

func (p *parser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (p *parser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return n
}

func (p *parser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return f
}

func (p *parser) bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return b
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return d
}
