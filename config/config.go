package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cart      CartConfig      `mapstructure:"cart"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Internal  InternalConfig  `mapstructure:"internal"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RedisConfig holds the cart persistence store configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig holds the direct catalog database configuration. The pool
// is optional: without a URL the direct fallback backend is disabled.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// CatalogConfig holds the search backend endpoints and client policy
type CatalogConfig struct {
	SearchIndexURL   string        `mapstructure:"search_index_url"`
	SearchIndexName  string        `mapstructure:"search_index_name"`
	OriginURL        string        `mapstructure:"origin_url"`
	CategoryURL      string        `mapstructure:"category_url"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	Retries          int           `mapstructure:"retries"`
	ResultCacheTTL   time.Duration `mapstructure:"result_cache_ttl"`
	CategoryStaleTTL time.Duration `mapstructure:"category_stale_ttl"`
}

// CartConfig holds cart lifecycle configuration
type CartConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	DefaultTier string        `mapstructure:"default_tier"`
}

// PricingConfig holds the price calculation policy. PriceLists and
// VolumeTiers feed the calculator; when both are empty the built-in
// defaults apply.
type PricingConfig struct {
	Currency    string             `mapstructure:"currency"`
	TaxRate     float64            `mapstructure:"tax_rate"`
	Precision   int                `mapstructure:"precision"`
	PriceLists  []PriceListConfig  `mapstructure:"price_lists"`
	VolumeTiers []VolumeTierConfig `mapstructure:"volume_tiers"`
}

// PriceListConfig is one tier or promotional price list.
type PriceListConfig struct {
	ID              string  `mapstructure:"id"`
	Name            string  `mapstructure:"name"`
	Tier            string  `mapstructure:"tier"`
	DiscountPercent float64 `mapstructure:"discount_percent"`
	Priority        int     `mapstructure:"priority"`
	Promotional     bool    `mapstructure:"promotional"`
}

// VolumeTierConfig is one quantity-threshold discount. An empty product_id
// makes the tier storewide.
type VolumeTierConfig struct {
	ProductID       string  `mapstructure:"product_id"`
	MinQuantity     int     `mapstructure:"min_quantity"`
	DiscountPercent float64 `mapstructure:"discount_percent"`
	Label           string  `mapstructure:"label"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// InternalConfig holds service-to-service settings
type InternalConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		// .env is optional
		log.Warn().Err(err).Msg("Warning: .env file not loaded")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("STOREFRONT")

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads a .env file from the usual locations
func loadEnvFile() error {
	envPaths := []string{".", "./config"}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			value = strings.Trim(value, "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	v.BindEnv("database.url", "DATABASE_URL")

	v.BindEnv("catalog.search_index_url", "SEARCH_INDEX_URL")
	v.BindEnv("catalog.origin_url", "ORIGIN_API_URL")
	v.BindEnv("catalog.category_url", "CATEGORY_API_URL")

	v.BindEnv("internal.api_key", "INTERNAL_API_KEY")

	v.BindEnv("logging.level", "LOG_LEVEL")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	v.SetDefault("catalog.search_index_name", "products")
	v.SetDefault("catalog.request_timeout", 10*time.Second)
	v.SetDefault("catalog.retries", 3)
	v.SetDefault("catalog.result_cache_ttl", 2*time.Minute)
	v.SetDefault("catalog.category_stale_ttl", 5*time.Minute)

	v.SetDefault("cart.ttl", 72*time.Hour)
	v.SetDefault("cart.default_tier", "")

	v.SetDefault("pricing.currency", "EUR")
	v.SetDefault("pricing.tax_rate", 20.0)
	v.SetDefault("pricing.precision", 2)

	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst_size", 40)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}
