package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	defaultAppName         = "CustardLedger"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultNATSSubject     = "ledger.entries.append"
	defaultKafkaTopic      = "ledger.entry_appended"
	defaultFaucetIssuer    = "faucet:issuer"
	defaultFaucetAmount    = "100"
	defaultFaucetPerMinute = 3
	defaultCardValidity    = 2 * 365 * 24 * time.Hour
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	dotenvFileEnvVar       = "DOTENV_FILE"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	Env            string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	NATSURL        string
	NATSSubject    string
	KafkaBrokers   []string
	KafkaTopic     string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	FaucetIssuer        string
	FaucetDefaultAmount decimal.Decimal
	FaucetMaxPerMinute  int
	CardValidity        time.Duration
}

// Load reads configuration values from the environment and populates a Config
// instance. A .env file (or the file named by DOTENV_FILE) is merged first;
// variables already set in the environment win.
func Load() (Config, error) {
	if err := loadDotenv(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:            getEnv("APP_NAME", defaultAppName),
		Env:                getEnv("APP_ENV", defaultAppEnv),
		Port:               getEnv("PORT", defaultPort),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		NATSURL:            os.Getenv("NATS_URL"),
		NATSSubject:        getEnv("NATS_SUBJECT", defaultNATSSubject),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:         getEnv("KAFKA_TOPIC", defaultKafkaTopic),
		ShutdownPeriod:     defaultShutdownDelay,
		IdempotencyTTL:     defaultIdempotencyTTL,
		FaucetIssuer:       getEnv("FAUCET_ISSUER", defaultFaucetIssuer),
		FaucetMaxPerMinute: defaultFaucetPerMinute,
		CardValidity:       defaultCardValidity,
	}

	amount, err := decimal.NewFromString(getEnv("FAUCET_DEFAULT_AMOUNT", defaultFaucetAmount))
	if err != nil {
		return Config{}, fmt.Errorf("invalid FAUCET_DEFAULT_AMOUNT: %w", err)
	}
	cfg.FaucetDefaultAmount = amount

	if v := os.Getenv("FAUCET_MAX_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FAUCET_MAX_PER_MINUTE: %w", err)
		}
		cfg.FaucetMaxPerMinute = n
	}

	if v := os.Getenv("CARD_VALIDITY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CARD_VALIDITY: %w", err)
		}
		cfg.CardValidity = d
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(idemTTLDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLDurEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.Env)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.Env)
		}
	}

	return cfg, nil
}

// LoadOperator reads the subset of configuration the operator CLI needs.
// Only Postgres is used there, so the production requirement for Redis is
// not applied.
func LoadOperator() (Config, error) {
	if err := loadDotenv(); err != nil {
		return Config{}, err
	}
	return Config{
		AppName:     getEnv("APP_NAME", defaultAppName),
		Env:         getEnv("APP_ENV", defaultAppEnv),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the service runs in a local/development environment,
// where Postgres and Redis are optional.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func loadDotenv() error {
	path := getEnv(dotenvFileEnvVar, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
