package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_LoadConfiguration(t *testing.T) {
	t.Run("success - missing file is created with defaults", func(t *testing.T) {
		// arrange
		path := filepath.Join(t.TempDir(), "stageflow.toml")

		// act
		config, err := LoadConfiguration(path)

		// assert
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, config.DwellMin.Duration())
		assert.Equal(t, 4*time.Second, config.DwellMax.Duration())
		assert.Equal(t, 500*time.Millisecond, config.LayoutPoll.Duration())
		assert.EqualValues(t, 14, config.CurveRadius)
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(b), "dwell_min_ms = 2000")
	})

	t.Run("success - file values are read", func(t *testing.T) {
		// arrange
		path := filepath.Join(t.TempDir(), "stageflow.toml")
		err := os.WriteFile(path, []byte("bridge_width = 60.0\nrun_history_page_size = 25\n"), 0o600)
		require.NoError(t, err)

		// act
		config, err := LoadConfiguration(path)

		// assert
		require.NoError(t, err)
		assert.EqualValues(t, 60, config.BridgeWidth)
		assert.EqualValues(t, 25, config.RunHistoryPageSize)
		assert.EqualValues(t, 14, config.CurveRadius)
	})

	t.Run("success - environment wins over the file", func(t *testing.T) {
		// arrange
		path := filepath.Join(t.TempDir(), "stageflow.toml")
		err := os.WriteFile(path, []byte("dwell_min_ms = 1000\n"), 0o600)
		require.NoError(t, err)
		t.Setenv("STAGEFLOW_DWELL_MIN_MS", "10")
		t.Setenv("STAGEFLOW_DWELL_MAX_MS", "20")

		// act
		config, err := LoadConfiguration(path)

		// assert
		require.NoError(t, err)
		assert.Equal(t, 10*time.Millisecond, config.DwellMin.Duration())
		assert.Equal(t, 20*time.Millisecond, config.DwellMax.Duration())
	})

	t.Run("failure - malformed file", func(t *testing.T) {
		// arrange
		path := filepath.Join(t.TempDir(), "stageflow.toml")
		err := os.WriteFile(path, []byte("dwell_min_ms = ["), 0o600)
		require.NoError(t, err)

		// act
		_, err = LoadConfiguration(path)

		// assert
		assert.Error(t, err)
	})
}

func TestConfig_UpdateConfiguration(t *testing.T) {
	t.Run("success - file rewritten and global replaced", func(t *testing.T) {
		// arrange
		path := filepath.Join(t.TempDir(), "stageflow.toml")
		config := DefaultConfiguration()
		config.CurveRadius = 8
		t.Cleanup(func() { Config = nil })

		// act
		err := UpdateConfiguration(path, config)

		// assert
		require.NoError(t, err)
		assert.Same(t, config, Config)
		loaded, err := LoadConfiguration(path)
		require.NoError(t, err)
		assert.EqualValues(t, 8, loaded.LayoutOptions().Radius)
	})
}
