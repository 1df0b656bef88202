package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides_Run(t *testing.T) {
	t.Run("strategies are split and trimmed", func(t *testing.T) {
		t.Setenv("CHOMPIE_STRATEGIES", " bisection, up-to-n ,,")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, []string{"bisection", "up-to-n"}, cfg.Run.Strategies)
	})

	t.Run("numeric overrides", func(t *testing.T) {
		t.Setenv("CHOMPIE_ATTEMPTS", "9")
		t.Setenv("CHOMPIE_WINDOW", "3")
		t.Setenv("CHOMPIE_SEED", "0")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, 9, cfg.Run.Attempts)
		assert.Equal(t, 3, cfg.Run.WindowSize)
		assert.Equal(t, int64(0), cfg.Run.Seed)
	})

	t.Run("malformed number is an error", func(t *testing.T) {
		t.Setenv("CHOMPIE_ATTEMPTS", "many")

		cfg := DefaultConfig()
		assert.Error(t, cfg.applyEnvOverrides())
	})
}

func TestEnvOverrides_ExecutionAndLogging(t *testing.T) {
	t.Setenv("CHOMPIE_TIMEOUT", "90s")
	t.Setenv("CHOMPIE_SHELL", "bash")
	t.Setenv("CHOMPIE_LOG_LEVEL", "debug")
	t.Setenv("CHOMPIE_DEBUG", "true")
	t.Setenv("CHOMPIE_LOG_DIR", "/var/tmp/chompie")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "90s", cfg.Execution.Timeout)
	assert.Equal(t, "bash", cfg.Execution.Shell)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.DebugMode)
	assert.Equal(t, "/var/tmp/chompie", cfg.Logging.LogDir())
}

func TestEnvOverrides_BadDebugFlag(t *testing.T) {
	t.Setenv("CHOMPIE_DEBUG", "maybe")
	_, err := Load("")
	assert.Error(t, err)
}
