package syncer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState(t *testing.T) {
	t.Run("save and load round-trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		saved := State{ETag: `"v1"`, LastModified: "Mon, 01 Sep 2025 10:00:00 GMT", Hash: "abc123"}

		require.NoError(t, SaveState(path, saved))
		assert.Equal(t, saved, LoadState(path))
	})

	t.Run("save leaves no temporary file behind", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, SaveState(path, State{Hash: "abc"}))

		_, err := os.Stat(path + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing file loads as empty state", func(t *testing.T) {
		assert.Equal(t, State{}, LoadState(filepath.Join(t.TempDir(), "missing.json")))
	})

	t.Run("corrupt file loads as empty state", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o600))

		assert.Equal(t, State{}, LoadState(path))
	})

	t.Run("save overwrites previous state", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, SaveState(path, State{Hash: "old"}))
		require.NoError(t, SaveState(path, State{Hash: "new"}))

		assert.Equal(t, "new", LoadState(path).Hash)
	})
}
