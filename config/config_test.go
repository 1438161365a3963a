package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.DB.Type)
	assert.Equal(t, time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 10, cfg.Portal.RateLimit)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("JWT_SECRET_KEY", "s3cret")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.DB.Type)
	assert.Equal(t, "/tmp/test.db", cfg.DB.Path)
	assert.Equal(t, "s3cret", cfg.JWT.SecretKey)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestNewConfigRejectsInvalidValues(t *testing.T) {
	t.Run("port", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "not-a-port")
		_, err := NewConfig()
		assert.Error(t, err)
	})
	t.Run("db type", func(t *testing.T) {
		t.Setenv("DB_TYPE", "mysql")
		_, err := NewConfig()
		assert.Error(t, err)
	})
}

func TestGetDBConnString(t *testing.T) {
	cfg := &Config{}
	cfg.DB.Host = "db"
	cfg.DB.Port = 5433
	cfg.DB.User = "u"
	cfg.DB.Password = "p"
	cfg.DB.DBName = "n"
	cfg.DB.SSLMode = "disable"

	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", cfg.GetDBConnString())
	assert.Equal(t, "postgres://u:p@db:5433/n?sslmode=disable", cfg.GetMigrateURL())
}
