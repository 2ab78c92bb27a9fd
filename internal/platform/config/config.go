package config

import (
	"log"
	"strings"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/core/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string

	// Store access
	StoreCallTimeout          time.Duration
	StoreRetryAttempts        int
	StoreRetryInitialInterval time.Duration

	// Ledger
	EntryNumberPrefix string
	EntryNumberWidth  int
	CurrencyPrecision int32
	AccountCodes      domain.AccountCodeMap

	// Locking
	RedisURL string
	LockTTL  time.Duration // Redis lease, renewed while held

	// HTTP
	RateLimit          string
	CORSAllowedOrigins []string
}

// accountCodeKey returns the environment key overriding the chart code of a role, e.g. ACCOUNT_CODE_CASH.
func accountCodeKey(role domain.AccountRole) string {
	return "ACCOUNT_CODE_" + strings.ToUpper(string(role))
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("STORE_CALL_TIMEOUT", "5s")
	viper.SetDefault("STORE_RETRY_ATTEMPTS", 3)
	viper.SetDefault("STORE_RETRY_INITIAL_INTERVAL", "200ms")
	viper.SetDefault("ENTRY_NUMBER_PREFIX", "JE-")
	viper.SetDefault("ENTRY_NUMBER_WIDTH", 6)
	viper.SetDefault("CURRENCY_PRECISION", 3)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("LOCK_TTL", "30s")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	for role, code := range domain.DefaultAccountCodes() {
		viper.SetDefault(accountCodeKey(role), code)
	}

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.StoreCallTimeout = durationOrDefault("STORE_CALL_TIMEOUT", 5*time.Second)
	cfg.StoreRetryInitialInterval = durationOrDefault("STORE_RETRY_INITIAL_INTERVAL", 200*time.Millisecond)
	cfg.StoreRetryAttempts = viper.GetInt("STORE_RETRY_ATTEMPTS")
	if cfg.StoreRetryAttempts < 1 {
		log.Printf("Warning: Invalid value for STORE_RETRY_ATTEMPTS (%d). Defaulting to 1.\n", cfg.StoreRetryAttempts)
		cfg.StoreRetryAttempts = 1
	}

	cfg.EntryNumberPrefix = viper.GetString("ENTRY_NUMBER_PREFIX")
	cfg.EntryNumberWidth = viper.GetInt("ENTRY_NUMBER_WIDTH")
	if cfg.EntryNumberWidth < 1 || cfg.EntryNumberWidth > 18 {
		log.Printf("Warning: Invalid value for ENTRY_NUMBER_WIDTH (%d). Defaulting to 6.\n", cfg.EntryNumberWidth)
		cfg.EntryNumberWidth = 6
	}

	precision := viper.GetInt("CURRENCY_PRECISION")
	if precision < 0 || precision > 8 {
		log.Printf("Warning: Invalid value for CURRENCY_PRECISION (%d). Defaulting to 3.\n", precision)
		precision = 3
	}
	cfg.CurrencyPrecision = int32(precision)

	cfg.AccountCodes = domain.AccountCodeMap{}
	for _, role := range domain.AllAccountRoles {
		cfg.AccountCodes[role] = viper.GetString(accountCodeKey(role))
	}

	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.LockTTL = durationOrDefault("LOCK_TTL", 30*time.Second)

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))

	return cfg, nil
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		}
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
