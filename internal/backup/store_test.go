package backup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	gferrors "gitflow.dev/gitflow/internal/errors"
)

func openStore(t *testing.T, opts Options) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "backups"), opts)
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCaptureAndRestore(t *testing.T) {
	t.Run("round trips file content", func(t *testing.T) {
		s := openStore(t, Options{})
		work := t.TempDir()
		path := writeFile(t, work, "greeting.txt", "hello")

		b, err := s.Capture(work, "discard greeting.txt", []string{path})
		require.NoError(t, err)
		require.NotEmpty(t, b.ID)
		require.Len(t, b.Files, 1)

		// Simulate the discard.
		require.NoError(t, os.Remove(path))

		restored, err := s.Restore(b.ID)
		require.NoError(t, err)
		require.Equal(t, b.ID, restored.ID)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "hello", string(data))

		// Restore consumes the backup.
		_, err = s.Restore(b.ID)
		require.ErrorIs(t, err, gferrors.ErrBackupNotFound)
	})

	t.Run("backup is durable before Capture returns", func(t *testing.T) {
		s := openStore(t, Options{})
		work := t.TempDir()
		path := writeFile(t, work, "a.txt", "content")

		b, err := s.Capture(work, "discard", []string{path})
		require.NoError(t, err)

		// The content files, manifest and index all exist on disk already.
		backupDir := filepath.Join(s.Dir(), b.ID)
		data, err := os.ReadFile(filepath.Join(backupDir, b.Files[0].Name))
		require.NoError(t, err)
		require.Equal(t, "content", string(data))

		var manifest []File
		raw, err := os.ReadFile(filepath.Join(backupDir, "manifest.json"))
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &manifest))
		require.Equal(t, b.Files, manifest)

		var index []Backup
		raw, err = os.ReadFile(filepath.Join(s.Dir(), "index.json"))
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &index))
		require.Len(t, index, 1)
		require.Equal(t, b.ID, index[0].ID)

		// The index is written via rename; no temp file lingers.
		require.NoFileExists(t, filepath.Join(s.Dir(), "index.json.tmp"))
	})

	t.Run("colliding base names are suffixed", func(t *testing.T) {
		s := openStore(t, Options{})
		work := t.TempDir()
		p1 := writeFile(t, work, "a/config.json", "one")
		p2 := writeFile(t, work, "b/config.json", "two")

		b, err := s.Capture(work, "discard both", []string{p1, p2})
		require.NoError(t, err)
		require.Len(t, b.Files, 2)
		require.NotEqual(t, b.Files[0].Name, b.Files[1].Name)

		require.NoError(t, os.Remove(p1))
		require.NoError(t, os.Remove(p2))
		_, err = s.Restore(b.ID)
		require.NoError(t, err)

		data, err := os.ReadFile(p1)
		require.NoError(t, err)
		require.Equal(t, "one", string(data))
		data, err = os.ReadFile(p2)
		require.NoError(t, err)
		require.Equal(t, "two", string(data))
	})

	t.Run("missing paths are skipped", func(t *testing.T) {
		s := openStore(t, Options{})
		work := t.TempDir()
		path := writeFile(t, work, "exists.txt", "x")

		b, err := s.Capture(work, "discard", []string{path, filepath.Join(work, "gone.txt")})
		require.NoError(t, err)
		require.Len(t, b.Files, 1)
	})

	t.Run("restore recreates missing parent directories", func(t *testing.T) {
		s := openStore(t, Options{})
		work := t.TempDir()
		path := writeFile(t, work, "deep/nested/file.txt", "content")

		b, err := s.Capture(work, "discard", []string{path})
		require.NoError(t, err)
		require.NoError(t, os.RemoveAll(filepath.Join(work, "deep")))

		_, err = s.Restore(b.ID)
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "content", string(data))
	})
}

func TestListRemovePrune(t *testing.T) {
	t.Run("List is newest first", func(t *testing.T) {
		s := openStore(t, Options{})
		work := t.TempDir()
		p := writeFile(t, work, "f.txt", "x")

		first, err := s.Capture(work, "first", []string{p})
		require.NoError(t, err)
		second, err := s.Capture(work, "second", []string{p})
		require.NoError(t, err)

		list := s.List()
		require.Len(t, list, 2)
		require.Equal(t, second.ID, list[0].ID)
		require.Equal(t, first.ID, list[1].ID)
	})

	t.Run("Remove drops without restoring", func(t *testing.T) {
		s := openStore(t, Options{})
		work := t.TempDir()
		p := writeFile(t, work, "f.txt", "x")

		b, err := s.Capture(work, "discard", []string{p})
		require.NoError(t, err)
		require.NoError(t, s.Remove(b.ID))
		require.Empty(t, s.List())
		require.ErrorIs(t, s.Remove(b.ID), gferrors.ErrBackupNotFound)
	})

	t.Run("Prune expires old backups", func(t *testing.T) {
		s := openStore(t, Options{Retention: 7 * 24 * time.Hour})
		work := t.TempDir()
		p := writeFile(t, work, "f.txt", "x")

		b, err := s.Capture(work, "discard", []string{p})
		require.NoError(t, err)

		require.NoError(t, s.Prune(time.Now().Add(6*24*time.Hour)))
		require.Len(t, s.List(), 1)

		require.NoError(t, s.Prune(time.Now().Add(8*24*time.Hour)))
		require.Empty(t, s.List())
		_, err = os.Stat(filepath.Join(s.Dir(), b.ID))
		require.True(t, os.IsNotExist(err))
	})

	t.Run("count cap evicts oldest", func(t *testing.T) {
		s := openStore(t, Options{MaxBackups: 2})
		work := t.TempDir()
		p := writeFile(t, work, "f.txt", "x")

		oldest, err := s.Capture(work, "one", []string{p})
		require.NoError(t, err)
		_, err = s.Capture(work, "two", []string{p})
		require.NoError(t, err)
		_, err = s.Capture(work, "three", []string{p})
		require.NoError(t, err)

		list := s.List()
		require.Len(t, list, 2)
		for _, b := range list {
			require.NotEqual(t, oldest.ID, b.ID)
		}
	})
}

func TestOpenReloadsIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	work := t.TempDir()
	p := writeFile(t, work, "f.txt", "persisted")

	s, err := Open(dir, Options{})
	require.NoError(t, err)
	b, err := s.Capture(work, "discard", []string{p})
	require.NoError(t, err)

	// A fresh store over the same directory sees the backup and can restore.
	reopened, err := Open(dir, Options{})
	require.NoError(t, err)
	require.Len(t, reopened.List(), 1)

	require.NoError(t, os.Remove(p))
	_, err = reopened.Restore(b.ID)
	require.NoError(t, err)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, "persisted", string(data))
}
