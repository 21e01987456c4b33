package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/cmlabs-hris/bon-backend-go/internal/domain/bon"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	App      AppConfig
	Cron     CronConfig
	Bon      bon.Rules
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds the optional eligibility cache configuration. An empty
// Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// JWTConfig holds JWT verification configuration. Tokens are issued by the
// directory/auth service; this service only verifies them.
type JWTConfig struct {
	Secret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// CronConfig controls the optional in-process period-close trigger.
type CronConfig struct {
	Enabled  bool
	Interval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbMaxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	dbMinConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-bon"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: dbMaxConns,
		MinConns: dbMinConns,
	}

	// Redis configuration (optional)
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("ELIGIBILITY_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ELIGIBILITY_CACHE_TTL: %w", err)
	}
	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
		CacheTTL: cacheTTL,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	// Cron configuration
	cronInterval, err := time.ParseDuration(getEnv("CRON_INTERVAL", "6h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_INTERVAL: %w", err)
	}
	config.Cron = CronConfig{
		Enabled:  getEnv("CRON_ENABLED", "false") == "true",
		Interval: cronInterval,
	}

	// Bon business rules
	rules, err := loadBonRules()
	if err != nil {
		return nil, err
	}
	config.Bon = rules

	// Validate required fields and rule ranges
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadBonRules() (bon.Rules, error) {
	rules := bon.DefaultRules()

	var err error
	if rules.MaxBonPercentage, err = getEnvInt64("BON_MAX_PERCENTAGE", rules.MaxBonPercentage); err != nil {
		return rules, err
	}
	if v := os.Getenv("BON_MAX_AMOUNT"); v != "" {
		amount, err := decimal.NewFromString(v)
		if err != nil {
			return rules, fmt.Errorf("invalid BON_MAX_AMOUNT: %w", err)
		}
		rules.MaxBonAmount = amount
	}
	if rules.MinInstallmentPeriod, err = getEnvIntValue("BON_MIN_INSTALLMENT_PERIOD", rules.MinInstallmentPeriod); err != nil {
		return rules, err
	}
	if rules.MaxInstallmentPeriod, err = getEnvIntValue("BON_MAX_INSTALLMENT_PERIOD", rules.MaxInstallmentPeriod); err != nil {
		return rules, err
	}
	if rules.MaxActiveBonPerEmployee, err = getEnvIntValue("BON_MAX_ACTIVE_PER_EMPLOYEE", rules.MaxActiveBonPerEmployee); err != nil {
		return rules, err
	}
	if rules.MinEmploymentDuration, err = getEnvIntValue("BON_MIN_EMPLOYMENT_MONTHS", rules.MinEmploymentDuration); err != nil {
		return rules, err
	}
	if rules.MaxInstallmentPercentage, err = getEnvInt64("BON_MAX_INSTALLMENT_PERCENTAGE", rules.MaxInstallmentPercentage); err != nil {
		return rules, err
	}
	if rules.MinTimeBetweenApplications, err = getEnvIntValue("BON_MIN_MONTHS_BETWEEN_APPLICATIONS", rules.MinTimeBetweenApplications); err != nil {
		return rules, err
	}
	if v := os.Getenv("BON_TENURE_POLICY"); v != "" {
		rules.TenurePolicy = bon.TenurePolicy(v)
	}

	return rules, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if err := c.Bon.Validate(); err != nil {
		return fmt.Errorf("invalid bon rules: %w", err)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvIntValue(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
