// Package backup is the content-addressed safety net for destructive
// discards. Before a discard runs, the caller captures the affected file
// contents here; the undo manager restores them byte for byte.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	gferrors "gitflow.dev/gitflow/internal/errors"
)

const (
	// DefaultRetention is how long backups are kept before pruning.
	DefaultRetention = 7 * 24 * time.Hour
	// DefaultMaxBackups caps the number of retained backups.
	DefaultMaxBackups = 50

	indexFile    = "index.json"
	manifestFile = "manifest.json"
)

// File maps one backed-up file to its origin. Backup storage is flattened
// into a single directory per backup id, so Name carries no path structure;
// OriginalPath is the absolute restore destination.
type File struct {
	Name         string `json:"name"`
	OriginalPath string `json:"original_path"`
}

// Backup is the metadata record for one discard operation: one file for a
// single-file discard, many for a batch.
type Backup struct {
	ID             string    `json:"id"`
	RepositoryPath string    `json:"repository_path"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
	Files          []File    `json:"files"`
}

// Store persists backups under a single shared directory: a JSON metadata
// index plus one subdirectory (content files + manifest) per backup id.
// The directory is shared across repositories; ids keep backups apart.
type Store struct {
	dir       string
	retention time.Duration
	maxCount  int

	mu    sync.Mutex
	index []Backup
}

// Options tunes retention. Zero values mean the defaults.
type Options struct {
	Retention  time.Duration
	MaxBackups int
}

// Open loads (or creates) a store rooted at dir and prunes expired backups.
func Open(dir string, opts Options) (*Store, error) {
	if opts.Retention == 0 {
		opts.Retention = DefaultRetention
	}
	if opts.MaxBackups == 0 {
		opts.MaxBackups = DefaultMaxBackups
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	s := &Store{dir: dir, retention: opts.Retention, maxCount: opts.MaxBackups}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pruneLocked(time.Now()); err != nil {
		log.Debug().Err(err).Msg("backup prune")
	}
	return s, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Capture snapshots the given files under a fresh backup id. Paths that do
// not exist are skipped (a batch discard may include files already deleted).
// The backup is durable before Capture returns; only then may the discard
// proceed.
func (s *Store) Capture(repoPath, description string, paths []string) (Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := Backup{
		ID:             uuid.NewString(),
		RepositoryPath: repoPath,
		Description:    description,
		CreatedAt:      time.Now(),
	}

	backupDir := filepath.Join(s.dir, b.ID)
	if err := os.MkdirAll(backupDir, 0o750); err != nil {
		return Backup{}, fmt.Errorf("failed to create backup dir: %w", err)
	}

	used := map[string]bool{manifestFile: true}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			os.RemoveAll(backupDir)
			return Backup{}, fmt.Errorf("failed to read %s: %w", p, err)
		}
		name := flattenName(filepath.Base(p), used)
		used[name] = true
		if err := os.WriteFile(filepath.Join(backupDir, name), data, 0o600); err != nil {
			os.RemoveAll(backupDir)
			return Backup{}, fmt.Errorf("failed to write backup of %s: %w", p, err)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		b.Files = append(b.Files, File{Name: name, OriginalPath: abs})
	}

	if err := writeJSON(filepath.Join(backupDir, manifestFile), b.Files); err != nil {
		os.RemoveAll(backupDir)
		return Backup{}, err
	}

	s.index = append(s.index, b)
	if err := s.pruneLocked(time.Now()); err != nil {
		log.Debug().Err(err).Msg("backup prune")
	}
	if err := s.saveIndexLocked(); err != nil {
		return Backup{}, err
	}
	return b, nil
}

// Restore writes the backed-up bytes back to their original paths and drops
// the backup record, the exact inverse of Capture.
func (s *Store) Restore(id string) (Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := -1
	for i, b := range s.index {
		if b.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return Backup{}, gferrors.ErrBackupNotFound
	}
	b := s.index[pos]

	backupDir := filepath.Join(s.dir, b.ID)
	for _, f := range b.Files {
		data, err := os.ReadFile(filepath.Join(backupDir, f.Name))
		if err != nil {
			return Backup{}, fmt.Errorf("failed to read backup content %s: %w", f.Name, err)
		}
		if err := os.MkdirAll(filepath.Dir(f.OriginalPath), 0o750); err != nil {
			return Backup{}, fmt.Errorf("failed to recreate directory for %s: %w", f.OriginalPath, err)
		}
		if err := os.WriteFile(f.OriginalPath, data, 0o644); err != nil {
			return Backup{}, fmt.Errorf("failed to restore %s: %w", f.OriginalPath, err)
		}
	}

	s.index = append(s.index[:pos], s.index[pos+1:]...)
	if err := s.saveIndexLocked(); err != nil {
		return Backup{}, err
	}
	os.RemoveAll(backupDir)
	return b, nil
}

// Remove drops a backup without restoring it.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.index {
		if b.ID == id {
			s.index = append(s.index[:i], s.index[i+1:]...)
			os.RemoveAll(filepath.Join(s.dir, id))
			return s.saveIndexLocked()
		}
	}
	return gferrors.ErrBackupNotFound
}

// List returns all backups, newest first.
func (s *Store) List() []Backup {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Backup, len(s.index))
	copy(out, s.index)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Prune removes backups past the retention window or over the count cap.
func (s *Store) Prune(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pruneLocked(now); err != nil {
		return err
	}
	return s.saveIndexLocked()
}

func (s *Store) pruneLocked(now time.Time) error {
	cutoff := now.Add(-s.retention)
	kept := s.index[:0]
	for _, b := range s.index {
		if b.CreatedAt.Before(cutoff) {
			os.RemoveAll(filepath.Join(s.dir, b.ID))
			continue
		}
		kept = append(kept, b)
	}
	s.index = kept

	if len(s.index) > s.maxCount {
		sort.Slice(s.index, func(i, j int) bool { return s.index[i].CreatedAt.Before(s.index[j].CreatedAt) })
		excess := len(s.index) - s.maxCount
		for _, b := range s.index[:excess] {
			os.RemoveAll(filepath.Join(s.dir, b.ID))
		}
		s.index = append([]Backup{}, s.index[excess:]...)
	}
	return nil
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			s.index = []Backup{}
			return nil
		}
		return fmt.Errorf("failed to read backup index: %w", err)
	}
	if err := json.Unmarshal(data, &s.index); err != nil {
		return fmt.Errorf("failed to parse backup index: %w", err)
	}
	return nil
}

func (s *Store) saveIndexLocked() error {
	return writeJSON(filepath.Join(s.dir, indexFile), s.index)
}

// writeJSON writes via a temp file and rename so a crash mid-write leaves
// the previous file intact.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// flattenName resolves base-name collisions inside a backup's flat
// directory by suffixing a counter before the extension.
func flattenName(base string, used map[string]bool) string {
	if !used[base] {
		return base
	}
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%d%s", stem, i, ext)
		if !used[candidate] {
			return candidate
		}
	}
}
