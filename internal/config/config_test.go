package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSave(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, &Config{}, cfg)
	})

	t.Run("round trips through Save", func(t *testing.T) {
		want := &Config{
			BackupDir:     "/var/backups/gitflow",
			RetentionDays: 14,
			MaxBackups:    100,
			UndoDepth:     25,
		}
		require.NoError(t, Save(want))

		got, err := Load()
		require.NoError(t, err)
		require.Equal(t, want, got)
	})
}

func TestResolveBackupDir(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	t.Run("explicit directory wins", func(t *testing.T) {
		cfg := &Config{BackupDir: "/tmp/custom"}
		require.Equal(t, "/tmp/custom", cfg.ResolveBackupDir())
	})

	t.Run("default lives under the user config dir", func(t *testing.T) {
		cfg := &Config{}
		require.Equal(t, filepath.Join(configHome, "gitflow", "backups"), cfg.ResolveBackupDir())
	})
}
