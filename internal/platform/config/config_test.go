package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"API_PORT", "JWT_EXPIRATION_HOURS", "DB_MAX_OPEN_CONNS", "DB_NAME"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, 72*time.Hour, cfg.JWTExp)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Contains(t, cfg.DBConnStr, "dbname=chall_zone")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("JWT_EXPIRATION_HOURS", "1")
	t.Setenv("SHUTDOWN_TIMEOUT", "2s")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.APIPort)
	assert.Contains(t, cfg.DBConnStr, "host=db.internal")
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, time.Hour, cfg.JWTExp)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
}
