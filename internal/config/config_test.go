package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBHost)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "gringotts_bank", cfg.DBName)
	assert.Equal(t, 3, cfg.TxMaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.TxRetryBackoff)
	assert.Equal(t, time.Hour, cfg.WorkCooldown)
	assert.Equal(t, 168*time.Hour, cfg.IncomeCooldown)
	assert.Equal(t, int64(10), cfg.DefaultWorkMin)
	assert.Equal(t, int64(50), cfg.DefaultWorkMax)
	assert.Equal(t, "knut", cfg.DefaultWorkUnit)
	assert.Equal(t, "0 4 * * *", cfg.AuditCronSpec)
}

func TestLoadRequiresPassword(t *testing.T) {
	// t.Setenv регистрирует восстановление исходного значения,
	// затем убираем переменную — envconfig споткнётся о required
	t.Setenv("DB_PASSWORD", "x")
	os.Unsetenv("DB_PASSWORD")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "localhost", DBPort: 5433, DBUser: "bank",
		DBPassword: "pw", DBName: "vault", DBSSLMode: "disable",
	}
	assert.Equal(t, "postgres://bank:pw@localhost:5433/vault?sslmode=disable", cfg.DatabaseDSN())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBMaxConns: 25, DBMinConns: 5,
			TxMaxRetries: 3, WorkCooldown: time.Hour, IncomeCooldown: time.Hour,
			DefaultWorkMin: 10, DefaultWorkMax: 50, DefaultIncomeAmount: 5,
		}
	}

	require.NoError(t, valid().Validate())

	t.Run("min conns above max", func(t *testing.T) {
		cfg := valid()
		cfg.DBMinConns = 50
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative retries", func(t *testing.T) {
		cfg := valid()
		cfg.TxMaxRetries = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero cooldown", func(t *testing.T) {
		cfg := valid()
		cfg.WorkCooldown = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("work max below min", func(t *testing.T) {
		cfg := valid()
		cfg.DefaultWorkMax = 1
		assert.Error(t, cfg.Validate())
	})
}
