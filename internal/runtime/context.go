// Package runtime provides the context object that wires the core together:
// per-repository facades, the process-wide undo manager and backup store,
// and per-repository rebase engines. Commands receive this context instead
// of reaching for ambient singletons.
package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"gitflow.dev/gitflow/internal/backup"
	"gitflow.dev/gitflow/internal/config"
	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/keys"
	"gitflow.dev/gitflow/internal/output"
	"gitflow.dev/gitflow/internal/rebase"
	"gitflow.dev/gitflow/internal/undo"
)

// Context gives commands access to the core's components. One Context
// exists per process; repositories are opened through it so that every
// path maps to exactly one facade (and therefore one execution gate).
type Context struct {
	Splog   *output.Splog
	Config  *config.Config
	Undo    *undo.Manager
	Backups *backup.Store
	GPG     *keys.GPGService
	SSH     *keys.SSHService

	mu      sync.Mutex
	repos   map[string]*git.Repo
	engines map[string]*rebase.Engine
}

// New builds the process context: loads the config, opens the backup store
// and creates the undo manager on top of the repo registry.
func New() (*Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	opts := backup.Options{}
	if cfg.RetentionDays > 0 {
		opts.Retention = time.Duration(cfg.RetentionDays) * 24 * time.Hour
	}
	if cfg.MaxBackups > 0 {
		opts.MaxBackups = cfg.MaxBackups
	}
	store, err := backup.Open(cfg.ResolveBackupDir(), opts)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		Splog:   output.NewSplog(),
		Config:  cfg,
		Backups: store,
		GPG:     keys.NewGPGService(),
		SSH:     keys.NewSSHService(),
		repos:   map[string]*git.Repo{},
		engines: map[string]*rebase.Engine{},
	}
	ctx.Undo = undo.NewManager(ctx.Repo, store, cfg.UndoDepth)
	return ctx, nil
}

// Repo returns the facade for the repository containing dir, opening it on
// first use. Facades are cached by root path so all callers share one
// serialization gate per working tree.
func (c *Context) Repo(dir string) (*git.Repo, error) {
	c.mu.Lock()
	if repo, ok := c.repos[dir]; ok {
		c.mu.Unlock()
		return repo, nil
	}
	c.mu.Unlock()

	repo, err := git.Open(dir)
	if err != nil {
		return nil, err
	}
	// Load the repo's persisted undo history before anything records
	// against it or tries to undo.
	if err := c.Undo.AttachRepository(context.Background(), repo); err != nil {
		log.Debug().Err(err).Msg("load undo history")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Cache under both the requested dir and the resolved root so later
	// lookups by either key hit the same facade.
	if existing, ok := c.repos[repo.Root()]; ok {
		c.repos[dir] = existing
		return existing, nil
	}
	c.repos[dir] = repo
	c.repos[repo.Root()] = repo
	return repo, nil
}

// Engine returns the rebase engine for the given repository, creating it on
// first use.
func (c *Context) Engine(repo *git.Repo) *rebase.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	if eng, ok := c.engines[repo.Root()]; ok {
		return eng
	}
	eng := rebase.NewEngine(repo)
	c.engines[repo.Root()] = eng
	return eng
}
