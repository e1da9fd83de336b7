package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("CALCNERD_SERVICE_URL replaces base_url", func(t *testing.T) {
		t.Setenv("CALCNERD_SERVICE_URL", "http://calc:9000")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "http://calc:9000", cfg.Service.BaseURL)
		assert.Equal(t, "http://calc:9000/api/calculate", cfg.ServiceURL())
	})

	t.Run("CALCNERD_TIMEOUT sets client timeout", func(t *testing.T) {
		t.Setenv("CALCNERD_TIMEOUT", "15s")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "15s", cfg.Service.Timeout)
		assert.Equal(t, 15e9, float64(cfg.GetServiceTimeout()))
	})

	t.Run("CALCNERD_DB moves the history database", func(t *testing.T) {
		t.Setenv("CALCNERD_DB", "/tmp/other.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/other.db", cfg.History.DatabasePath)
	})

	t.Run("CALCNERD_DEBUG toggles debug mode both ways", func(t *testing.T) {
		t.Setenv("CALCNERD_DEBUG", "true")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.DebugMode)

		t.Setenv("CALCNERD_DEBUG", "0")
		cfg.applyEnvOverrides()
		assert.False(t, cfg.Logging.DebugMode)
	})

	t.Run("empty env leaves values alone", func(t *testing.T) {
		t.Setenv("CALCNERD_SERVICE_URL", "")
		t.Setenv("CALCNERD_DEBUG", "")

		cfg := DefaultConfig()
		cfg.Logging.DebugMode = true
		cfg.applyEnvOverrides()

		assert.Equal(t, "http://localhost:5000", cfg.Service.BaseURL)
		assert.True(t, cfg.Logging.DebugMode)
	})
}
