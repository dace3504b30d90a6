package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Analytics   AnalyticsConfig `mapstructure:"analytics"`
	Model       ModelConfig     `mapstructure:"model"`
	Security    SecurityConfig  `mapstructure:"security"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// DSN renders the keyword/value connection string pgx expects.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	CacheTTL string `mapstructure:"cache_ttl"`
}

type AnalyticsConfig struct {
	DefaultMovingAverageWindow int `mapstructure:"default_moving_average_window"`
	DefaultRSIWindow           int `mapstructure:"default_rsi_window"`
}

type ModelConfig struct {
	ArtifactPath    string  `mapstructure:"artifact_path"`
	Alpha           float64 `mapstructure:"alpha"`
	HoldoutFraction float64 `mapstructure:"holdout_fraction"`
	LagDepth        int     `mapstructure:"lag_depth"`
}

type SecurityConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	JWTExpiry  string `mapstructure:"jwt_expiry"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

func Load() (*Config, error) {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("security.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	environment := strings.ToLower(config.Environment)

	if environment != "development" && config.Security.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required in non-development environments")
	}

	if config.Security.JWTExpiry != "" {
		if _, err := time.ParseDuration(config.Security.JWTExpiry); err != nil {
			return nil, fmt.Errorf("invalid JWT expiry duration: %w", err)
		}
	}

	if config.Redis.CacheTTL != "" {
		if _, err := time.ParseDuration(config.Redis.CacheTTL); err != nil {
			return nil, fmt.Errorf("invalid cache TTL duration: %w", err)
		}
	}

	if config.Security.BcryptCost < bcrypt.MinCost || config.Security.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, config.Security.BcryptCost)
	}

	if config.Database.MaxConns < 1 || config.Database.MinConns > config.Database.MaxConns {
		return nil, fmt.Errorf("database pool bounds invalid: min_conns=%d max_conns=%d",
			config.Database.MinConns, config.Database.MaxConns)
	}

	if config.Model.HoldoutFraction <= 0 || config.Model.HoldoutFraction >= 1 {
		return nil, fmt.Errorf("model holdout fraction must be in (0, 1), got %v", config.Model.HoldoutFraction)
	}

	config.Environment = environment

	return &config, nil
}

// JWTExpiryDuration returns the parsed token lifetime.
func (c *Config) JWTExpiryDuration() time.Duration {
	d, err := time.ParseDuration(c.Security.JWTExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// CacheTTL returns the parsed Redis cache TTL.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Redis.CacheTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "coinsight")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_conns", 10)
	viper.SetDefault("database.min_conns", 2)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.cache_ttl", "5m")

	viper.SetDefault("analytics.default_moving_average_window", 5)
	viper.SetDefault("analytics.default_rsi_window", 7)

	viper.SetDefault("model.artifact_path", "./data/ridge_model.json")
	viper.SetDefault("model.alpha", 1.0)
	viper.SetDefault("model.holdout_fraction", 0.2)
	viper.SetDefault("model.lag_depth", 3)

	viper.SetDefault("security.jwt_secret", "")
	viper.SetDefault("security.jwt_expiry", "24h")
	viper.SetDefault("security.bcrypt_cost", 12)
}
