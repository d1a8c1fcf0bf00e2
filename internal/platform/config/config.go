package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	IsProduction      bool
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// LockWaitTimeout bounds how long a whole transaction unit of work may
	// run, including row lock acquisition.
	LockWaitTimeout time.Duration

	// MaxFailedLogins is the number of consecutive failed authentications
	// after which an account is locked.
	MaxFailedLogins int

	// RateLimit is the limiter formatted rate for the public API, e.g. "100-M".
	RateLimit string

	// AdminAccountNumber, AdminName, AdminPassword and AdminPIN describe the
	// administrative identity ensured at startup. Admin accounts cannot be
	// created through registration, so this bootstrap is the only provisioning
	// path. Leaving AdminAccountNumber empty disables the bootstrap.
	AdminAccountNumber string
	AdminName          string
	AdminPassword      string
	AdminPIN           string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "account-ledger-app")
	viper.SetDefault("LOCK_WAIT_TIMEOUT", "5s")
	viper.SetDefault("MAX_FAILED_LOGINS", 3)
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("ADMIN_ACCOUNT_NUMBER", "")
	viper.SetDefault("ADMIN_NAME", "Administrator")
	viper.SetDefault("ADMIN_PASSWORD", "")
	viper.SetDefault("ADMIN_PIN", "")

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

	jwtSecret := viper.GetString("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	// Load JWT Expiry Duration (e.g., "60m", "1h")
	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour * 1
		if jwtExpiryStr != "" {
			log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
		}
	}

	jwtIssuer := viper.GetString("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "account-ledger-app"
		log.Printf("Warning: JWT_ISSUER not set. Defaulting to %s.\n", jwtIssuer)
	}

	lockWaitStr := viper.GetString("LOCK_WAIT_TIMEOUT")
	lockWaitTimeout, err := time.ParseDuration(lockWaitStr)
	if err != nil || lockWaitTimeout <= 0 {
		lockWaitTimeout = 5 * time.Second
		if lockWaitStr != "" {
			log.Printf("Warning: Invalid value for LOCK_WAIT_TIMEOUT ('%s'). Defaulting to %s.\n", lockWaitStr, lockWaitTimeout.String())
		}
	}

	maxFailedLogins := viper.GetInt("MAX_FAILED_LOGINS")
	if maxFailedLogins <= 0 {
		maxFailedLogins = 3
		log.Printf("Warning: MAX_FAILED_LOGINS not set or invalid. Defaulting to %d.\n", maxFailedLogins)
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.JWTSecret = jwtSecret
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = jwtIssuer
	cfg.LockWaitTimeout = lockWaitTimeout
	cfg.MaxFailedLogins = maxFailedLogins
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.AdminAccountNumber = viper.GetString("ADMIN_ACCOUNT_NUMBER")
	cfg.AdminName = viper.GetString("ADMIN_NAME")
	cfg.AdminPassword = viper.GetString("ADMIN_PASSWORD")
	cfg.AdminPIN = viper.GetString("ADMIN_PIN")
	if cfg.AdminAccountNumber == "" {
		log.Println("Warning: ADMIN_ACCOUNT_NUMBER not set. No administrative account will be provisioned.")
	}

	return cfg, nil
}
