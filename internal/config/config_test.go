package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRANSFER_TIMEOUT", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.TransferTimeout)
	assert.Equal(t, "local", cfg.LockBackend)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Contains(t, cfg.DSN(), "dbname=upipay")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TRANSFER_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("ENV", "production")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.TransferTimeout)
	assert.Equal(t, 4, cfg.RedisDB)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.IsProduction())
	assert.True(t, IsProduction())
}

func TestGetIntEnv_InvalidFallsBack(t *testing.T) {
	t.Setenv("BCRYPT_COST", "abc")
	assert.Equal(t, 12, GetIntEnv("BCRYPT_COST", 12))
}
