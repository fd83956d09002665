package rebase

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher refreshes the engine when git's rebase state changes underneath
// it: a `git rebase --continue` or `--abort` run from a terminal while the
// engine believes the workflow is paused. It watches the .git directory for
// the rebase-merge marker appearing or disappearing.
type Watcher struct {
	engine *Engine
	fw     *fsnotify.Watcher
	done   chan struct{}
}

// NewWatcher starts watching the repository's git dir. Close releases the
// underlying watcher.
func NewWatcher(ctx context.Context, engine *Engine) (*Watcher, error) {
	gitDir, err := engine.repo.GitDir(ctx)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(gitDir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{engine: engine, fw: fw, done: make(chan struct{})}
	go w.loop(ctx)
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if isRebaseMarker(event.Name) {
				w.engine.Refresh(ctx)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Debug().Err(err).Msg("rebase watcher")
		case <-ctx.Done():
			return
		}
	}
}

func isRebaseMarker(path string) bool {
	base := filepath.Base(path)
	return base == "rebase-merge" || base == "rebase-apply" ||
		strings.HasPrefix(base, "REBASE_HEAD")
}
