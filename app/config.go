package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Relay kinds accepted in RELAY_KIND.
const (
	RelayNone     = "none"
	RelayInMemory = "inmemory"
	RelayNATS     = "nats"
	RelayKafka    = "kafka"
	RelayRabbitMQ = "rabbitmq"
)

type Config struct {
	CacheEnabled    bool          `env:"CACHE_ENABLED,default=true"`
	CacheDefaultTTL time.Duration `env:"CACHE_DEFAULT_TTL,default=5m"`
	// RedisAddr empty means an in-process cache store.
	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"REDIS_DB,default=0"`
	// DatabaseURL empty means an in-process unit of work.
	DatabaseURL string `env:"DATABASE_URL"`
	RelayKind   string `env:"RELAY_KIND,default=none"`
	// RelayURL is a broker url, or a comma separated seed list for kafka.
	RelayURL string `env:"RELAY_URL"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// LoadConfig reads the given .env files (".env" when none are named; missing files are fine)
// and decodes the environment into a Config.
func LoadConfig(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch strings.ToLower(c.RelayKind) {
	case "", RelayNone, RelayInMemory:
	case RelayNATS, RelayKafka, RelayRabbitMQ:
		if c.RelayURL == "" {
			return fmt.Errorf("config: RELAY_KIND=%s needs RELAY_URL", c.RelayKind)
		}
	default:
		return fmt.Errorf("config: unknown RELAY_KIND %q", c.RelayKind)
	}

	if c.CacheDefaultTTL < 0 {
		return fmt.Errorf("config: CACHE_DEFAULT_TTL must not be negative")
	}

	return nil
}

// NewLogger builds a text logger at LOG_LEVEL. An unknown level falls back to info.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
