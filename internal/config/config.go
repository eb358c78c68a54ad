package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/benhicks2/tt-scraper/internal/pricing"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Crawler  CrawlerConfig
	Pricing  PricingConfig
	Query    QueryConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration. When APIKey is empty the
// mutating routes (delete, refresh) are left unguarded; read routes never
// require a key.
type AuthConfig struct {
	APIKey string
}

// CrawlerConfig holds crawl run configuration shared by all spiders.
type CrawlerConfig struct {
	UserAgent       string
	DelaySeconds    int
	Parallelism     int
	MaxPages        int // per-source pagination cap
	Workers         int // concurrent ingestions per run
	ScheduleEnabled bool
	ScheduleMinutes int
}

// PricingConfig holds price comparison configuration.
type PricingConfig struct {
	// EURToUSDRate is the fixed approximate conversion rate used when
	// comparing EUR vendor prices against USD ones.
	EURToUSDRate float64
}

// QueryConfig holds query engine configuration.
type QueryConfig struct {
	PageSize      int
	StalenessDays int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "ttequipment"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Crawler: CrawlerConfig{
			UserAgent:       getEnv("CRAWLER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/115.0"),
			DelaySeconds:    getEnvAsInt("CRAWLER_DELAY_SECONDS", 1),
			Parallelism:     getEnvAsInt("CRAWLER_PARALLELISM", 2),
			MaxPages:        getEnvAsInt("CRAWLER_MAX_PAGES", 10),
			Workers:         getEnvAsInt("CRAWLER_WORKERS", 4),
			ScheduleEnabled: getEnvAsBool("CRAWLER_SCHEDULE_ENABLED", false),
			ScheduleMinutes: getEnvAsInt("CRAWLER_SCHEDULE_MINUTES", 1440),
		},
		Pricing: PricingConfig{
			EURToUSDRate: getEnvAsFloat("PRICE_EUR_USD_RATE", pricing.DefaultEURToUSD),
		},
		Query: QueryConfig{
			PageSize:      getEnvAsInt("QUERY_PAGE_SIZE", 10),
			StalenessDays: getEnvAsInt("QUERY_STALENESS_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Crawler.Workers < 1 {
		return fmt.Errorf("crawler workers must be at least 1")
	}

	if c.Crawler.MaxPages < 1 {
		return fmt.Errorf("crawler max pages must be at least 1")
	}

	if c.Crawler.ScheduleEnabled && c.Crawler.ScheduleMinutes < 1 {
		return fmt.Errorf("crawler schedule interval must be at least 1 minute")
	}

	if c.Pricing.EURToUSDRate <= 0 {
		return fmt.Errorf("EUR to USD rate must be positive")
	}

	if c.Query.PageSize < 1 {
		return fmt.Errorf("query page size must be at least 1")
	}

	if c.Query.StalenessDays < 1 {
		return fmt.Errorf("staleness window must be at least 1 day")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
