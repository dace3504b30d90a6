package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "coinsight", cfg.Database.DBName)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, int32(2), cfg.Database.MinConns)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 5, cfg.Analytics.DefaultMovingAverageWindow)
	assert.Equal(t, 7, cfg.Analytics.DefaultRSIWindow)
	assert.Equal(t, 1.0, cfg.Model.Alpha)
	assert.Equal(t, 0.2, cfg.Model.HoldoutFraction)
	assert.Equal(t, 3, cfg.Model.LagDepth)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "super-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "super-secret", cfg.Security.JWTSecret)
}

func TestLoad_RejectsInvalidJWTExpiry(t *testing.T) {
	t.Setenv("SECURITY_JWT_EXPIRY", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidPoolBounds(t *testing.T) {
	t.Setenv("DATABASE_MAX_CONNS", "1")
	t.Setenv("DATABASE_MIN_CONNS", "5")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "coinsight",
		Password: "hunter2",
		DBName:   "prices",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=coinsight password=hunter2 dbname=prices sslmode=require",
		cfg.DSN())
}

func TestDurationHelpers(t *testing.T) {
	cfg := &Config{
		Redis:    RedisConfig{CacheTTL: "90s"},
		Security: SecurityConfig{JWTExpiry: "12h"},
	}
	assert.Equal(t, 90*time.Second, cfg.CacheTTL())
	assert.Equal(t, 12*time.Hour, cfg.JWTExpiryDuration())
}

func TestDurationHelpers_FallBackOnGarbage(t *testing.T) {
	cfg := &Config{
		Redis:    RedisConfig{CacheTTL: "soon"},
		Security: SecurityConfig{JWTExpiry: "later"},
	}
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiryDuration())
}
