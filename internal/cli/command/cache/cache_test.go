package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/svnreview/internal/cli/command/clitest"
)

func TestCacheClean(t *testing.T) {
	t.Run("removes every entry", func(t *testing.T) {
		cfg := clitest.Config(t)
		require.NoError(t, os.MkdirAll(cfg.AI.CacheDir, 0755))
		entry := filepath.Join(cfg.AI.CacheDir, "abc.json")
		require.NoError(t, os.WriteFile(entry, []byte(`{}`), 0644))

		out, err := clitest.Run(t, NewCacheCommand(), cfg, "clean")

		require.NoError(t, err)
		assert.Contains(t, out, "Cache cleaned")
		assert.NoFileExists(t, entry)
	})

	t.Run("expired only keeps fresh entries", func(t *testing.T) {
		cfg := clitest.Config(t)
		require.NoError(t, os.MkdirAll(cfg.AI.CacheDir, 0755))
		entry := filepath.Join(cfg.AI.CacheDir, "fresh.json")
		require.NoError(t, os.WriteFile(entry, []byte(`{}`), 0644))

		_, err := clitest.Run(t, NewCacheCommand(), cfg, "clean", "--expired")

		require.NoError(t, err)
		assert.FileExists(t, entry)
	})

	t.Run("no cache directory configured", func(t *testing.T) {
		cfg := clitest.Config(t)
		cfg.AI.CacheDir = ""

		_, err := clitest.Run(t, NewCacheCommand(), cfg, "clean")

		assert.Error(t, err)
	})
}
