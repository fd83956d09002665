package rebase

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	gferrors "gitflow.dev/gitflow/internal/errors"
	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/parse"
)

// Phase is the engine's position in the rebase workflow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePreparing
	PhaseInProgress
	PhasePaused
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePreparing:
		return "preparing"
	case PhaseInProgress:
		return "in progress"
	case PhasePaused:
		return "paused"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// PauseReason says why a paused rebase stopped.
type PauseReason int

const (
	PauseNone PauseReason = iota
	PauseEdit
	PauseReword
	PauseConflict
)

func (r PauseReason) String() string {
	switch r {
	case PauseEdit:
		return "edit"
	case PauseReword:
		return "reword"
	case PauseConflict:
		return "conflict"
	}
	return ""
}

// Status is the externally observable engine state. Exactly one Status
// exists per engine at any time; transitions are serialized by the engine
// mutex.
type Status struct {
	Phase      Phase
	Current    int // 1-based step while in progress or paused
	Total      int
	Reason     PauseReason
	PausedHash string   // commit the rebase is stopped on
	Conflicts  []string // unmerged paths when Reason is PauseConflict
	Message    string   // failure message when Phase is PhaseFailed
}

// Engine executes one interactive rebase at a time against a repository.
// All transitions go through the engine mutex; subscribers observe every
// state change.
type Engine struct {
	repo *git.Repo

	mu           sync.Mutex
	status       Status
	plan         *Plan
	rewords      map[string]string // original hash -> deferred amend message
	originalHead string            // HEAD before Start, for detecting external aborts

	subMu   sync.Mutex
	subs    map[int]func(Status)
	nextSub int
}

// NewEngine creates an idle engine for the given repository.
func NewEngine(repo *git.Repo) *Engine {
	return &Engine{
		repo: repo,
		subs: map[int]func(Status){},
	}
}

// Status returns the current workflow state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Subscribe registers fn to be called on every state change and returns an
// unsubscribe function. The engine owns the registry; there is no
// process-wide event bus.
func (e *Engine) Subscribe(fn func(Status)) func() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.subs, id)
	}
}

// setStatus must be called with e.mu held.
func (e *Engine) setStatus(s Status) {
	e.status = s
	log.Debug().Str("phase", s.Phase.String()).Str("reason", s.Reason.String()).Msg("rebase state")

	e.subMu.Lock()
	subs := make([]func(Status), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.subMu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

// PreparePlan computes the commit range onto..HEAD and builds the initial
// plan, oldest first with every entry picked. The caller edits the plan
// (actions, messages, order) and hands it back to Start.
func (e *Engine) PreparePlan(ctx context.Context, onto string) (*Plan, error) {
	e.rehydrate(ctx)
	e.mu.Lock()
	if e.status.Phase == PhaseInProgress || e.status.Phase == PhasePaused {
		e.mu.Unlock()
		return nil, gferrors.NewOperationError("rebase", "a rebase is already in progress", nil)
	}
	e.setStatus(Status{Phase: PhasePreparing})
	e.mu.Unlock()

	commits, err := e.repo.CommitRange(ctx, onto, "HEAD")
	if err != nil {
		e.fail(err.Error())
		return nil, err
	}
	if len(commits) == 0 {
		e.mu.Lock()
		e.setStatus(Status{Phase: PhaseIdle})
		e.mu.Unlock()
		return nil, gferrors.NewOperationError("rebase", "nothing to rebase onto "+onto, nil)
	}
	return NewPlan(commits), nil
}

// Start writes the finalized plan and invokes git rebase -i with the
// non-interactive editor override, then resolves the resulting state.
func (e *Engine) Start(ctx context.Context, onto string, plan *Plan) error {
	e.rehydrate(ctx)
	head, _ := e.repo.Head(ctx)

	e.mu.Lock()
	if e.status.Phase == PhaseInProgress || e.status.Phase == PhasePaused {
		e.mu.Unlock()
		return gferrors.NewOperationError("rebase", "a rebase is already in progress", nil)
	}
	e.plan = plan
	e.rewords = plan.rewords()
	e.originalHead = head
	e.setStatus(Status{Phase: PhaseInProgress, Current: 1, Total: plan.steps()})
	e.mu.Unlock()
	e.saveState(ctx)

	planPath, cleanup, err := writePlanFile(plan)
	if err != nil {
		e.fail(err.Error())
		return err
	}
	defer cleanup()

	res, err := e.repo.RebaseInteractive(ctx, onto, planPath)
	if err != nil {
		e.fail(err.Error())
		return err
	}
	return e.resolve(ctx, "rebase", res)
}

// Continue resumes a paused rebase. For a reword pause the deferred amend
// is applied first, then git picks up where it stopped. A rebase left
// paused by an earlier process is adopted first, so Continue works from a
// fresh engine as long as the rebase state is still on disk.
func (e *Engine) Continue(ctx context.Context) error {
	e.rehydrate(ctx)
	e.mu.Lock()
	if e.status.Phase != PhasePaused {
		e.mu.Unlock()
		return gferrors.ErrRebaseNotInProgress
	}
	status := e.status
	e.setStatus(Status{Phase: PhaseInProgress, Current: status.Current, Total: status.Total})
	e.mu.Unlock()

	if status.Reason == PauseReword {
		if msg, ok := e.rewordFor(status.PausedHash); ok {
			if _, err := e.repo.AmendCommit(ctx, msg); err != nil {
				e.fail(err.Error())
				return err
			}
		}
	}

	res, err := e.repo.RebaseContinue(ctx)
	if err != nil {
		e.fail(err.Error())
		return err
	}
	return e.resolve(ctx, "rebase continue", res)
}

// Skip abandons the commit the rebase is stopped on and moves to the next
// plan entry.
func (e *Engine) Skip(ctx context.Context) error {
	e.rehydrate(ctx)
	e.mu.Lock()
	if e.status.Phase != PhasePaused {
		e.mu.Unlock()
		return gferrors.ErrRebaseNotInProgress
	}
	status := e.status
	e.setStatus(Status{Phase: PhaseInProgress, Current: status.Current, Total: status.Total})
	e.mu.Unlock()

	res, err := e.repo.RebaseSkip(ctx)
	if err != nil {
		e.fail(err.Error())
		return err
	}
	return e.resolve(ctx, "rebase skip", res)
}

// Abort unconditionally aborts the rebase. It is best effort and never
// reports a failure: the caller is already escaping a broken state, and a
// second Abort when nothing is in progress is a no-op. The engine always
// ends up idle.
func (e *Engine) Abort(ctx context.Context) {
	if e.repo.IsRebaseInProgress(ctx) {
		if _, err := e.repo.RebaseAbort(ctx); err != nil {
			log.Debug().Err(err).Msg("rebase abort")
		}
	}
	e.mu.Lock()
	e.plan = nil
	e.rewords = nil
	e.originalHead = ""
	e.setStatus(Status{Phase: PhaseIdle})
	e.mu.Unlock()
	e.clearState(ctx)
}

// Refresh re-derives the engine state from the repository's rebase state
// files. The fsnotify watcher calls this when git state changes underneath
// the engine (e.g. a rebase continued from a terminal), and a fresh engine
// calls it to pick up a rebase an earlier process left paused on disk.
func (e *Engine) Refresh(ctx context.Context) {
	if e.repo.IsRebaseInProgress(ctx) {
		e.mu.Lock()
		active := e.status.Phase == PhaseInProgress || e.status.Phase == PhasePaused
		e.mu.Unlock()
		if !active {
			e.adopt(ctx)
		}
		e.pause(ctx, "rebase")
		return
	}

	e.mu.Lock()
	phase := e.status.Phase
	total := e.status.Total
	originalHead := e.originalHead
	e.mu.Unlock()
	if phase != PhaseInProgress && phase != PhasePaused {
		return
	}

	// The workflow ended externally; decide whether it was aborted or ran
	// to completion. HEAD alone cannot tell: an all-pick rebase completes
	// with HEAD unmoved, exactly like an abort restores it, so the HEAD
	// reflog subject is checked first.
	subject, _ := e.lastReflogSubject(ctx)
	aborted := strings.Contains(subject, "(abort)")
	if !aborted && !strings.Contains(subject, "(finish)") {
		if head, err := e.repo.Head(ctx); err == nil && originalHead != "" {
			aborted = head == originalHead
		}
	}

	e.mu.Lock()
	if aborted {
		e.setStatus(Status{Phase: PhaseIdle})
	} else {
		e.setStatus(Status{Phase: PhaseCompleted, Total: total, Current: total})
	}
	e.mu.Unlock()
	e.clearState(ctx)
}

// rehydrate lifts an inactive engine onto a rebase already in progress on
// disk: a previous process started it and exited while paused. The sidecar
// restores what the state files alone cannot, the deferred reword map and
// the pre-rebase head.
func (e *Engine) rehydrate(ctx context.Context) {
	e.mu.Lock()
	active := e.status.Phase == PhaseInProgress || e.status.Phase == PhasePaused
	e.mu.Unlock()
	if active || !e.repo.IsRebaseInProgress(ctx) {
		return
	}
	e.adopt(ctx)
	e.pause(ctx, "rebase")
}

func (e *Engine) lastReflogSubject(ctx context.Context) (string, bool) {
	res, err := e.repo.Git(ctx, "reflog", "-n1", "--format=%gs")
	if err != nil || res.ExitCode != 0 {
		return "", false
	}
	return strings.TrimSpace(res.Stdout), true
}

// adopt restores the persisted sidecar fields without touching the phase.
func (e *Engine) adopt(ctx context.Context) {
	st, ok := e.loadState(ctx)
	if !ok {
		return
	}
	e.mu.Lock()
	e.originalHead = st.OriginalHead
	if len(e.rewords) == 0 {
		e.rewords = st.Rewords
	}
	if e.status.Total == 0 {
		e.status.Total = st.Total
	}
	e.mu.Unlock()
}

// resolve classifies a finished rebase invocation into the next state.
func (e *Engine) resolve(ctx context.Context, operation string, res git.Result) error {
	if res.ExitCode == 0 && !e.repo.IsRebaseInProgress(ctx) {
		e.mu.Lock()
		total := e.status.Total
		e.setStatus(Status{Phase: PhaseCompleted, Current: total, Total: total})
		e.mu.Unlock()
		e.clearState(ctx)
		return nil
	}

	if e.repo.IsRebaseInProgress(ctx) {
		e.pause(ctx, operation)
		return nil
	}

	// Non-zero exit with no rebase in progress: git gave up entirely.
	msg := strings.TrimSpace(res.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(res.Stdout)
	}
	e.fail(msg)
	e.clearState(ctx)
	return gferrors.NewOperationError(operation, msg, nil)
}

// pause inspects the rebase state files and working tree to decide why git
// stopped. Conflicted paths take precedence; otherwise the stopped commit
// decides between the engine's deferred rewords and a plain edit stop. The
// state files are authoritative here, not the exit code.
func (e *Engine) pause(ctx context.Context, operation string) {
	current, total, err := e.repo.RebaseProgress(ctx)
	if err != nil {
		e.mu.Lock()
		current, total = e.status.Current, e.status.Total
		e.mu.Unlock()
	}

	stopped := e.repo.RebaseStoppedSHA(ctx)
	conflicts, _ := e.repo.ConflictedPaths(ctx)

	status := Status{
		Phase:      PhasePaused,
		Current:    current,
		Total:      total,
		PausedHash: stopped,
	}
	switch {
	case len(conflicts) > 0:
		status.Reason = PauseConflict
		status.Conflicts = conflicts
	default:
		if _, ok := e.rewordFor(stopped); ok {
			status.Reason = PauseReword
		} else {
			status.Reason = PauseEdit
		}
	}

	e.mu.Lock()
	e.setStatus(status)
	e.mu.Unlock()
}

func (e *Engine) fail(message string) {
	e.mu.Lock()
	e.setStatus(Status{Phase: PhaseFailed, Message: message})
	e.mu.Unlock()
}

// rewordFor matches a stopped commit hash against the deferred reword map.
// The stopped-sha file may hold an abbreviated hash, so prefixes match in
// either direction.
func (e *Engine) rewordFor(hash string) (string, bool) {
	if hash == "" {
		return "", false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for original, msg := range e.rewords {
		if strings.HasPrefix(original, hash) || strings.HasPrefix(hash, original) {
			return msg, true
		}
	}
	return "", false
}

// engineState is the slice of engine state a later process needs to resume
// a paused rebase. Git's own state files carry progress and the stopped
// commit; the sidecar carries what only the engine knows.
type engineState struct {
	OriginalHead string            `json:"originalHead"`
	Total        int               `json:"total"`
	Rewords      map[string]string `json:"rewords,omitempty"`
}

func (e *Engine) statePath(ctx context.Context) string {
	gitDir, err := e.repo.GitDir(ctx)
	if err != nil {
		return ""
	}
	return filepath.Join(gitDir, "gitflow", "rebase.json")
}

func (e *Engine) saveState(ctx context.Context) {
	path := e.statePath(ctx)
	if path == "" {
		return
	}
	e.mu.Lock()
	st := engineState{
		OriginalHead: e.originalHead,
		Total:        e.status.Total,
		Rewords:      e.rewords,
	}
	e.mu.Unlock()

	data, err := json.Marshal(st)
	if err == nil {
		if err = os.MkdirAll(filepath.Dir(path), 0o700); err == nil {
			err = os.WriteFile(path, data, 0o600)
		}
	}
	if err != nil {
		log.Debug().Err(err).Msg("persist rebase state")
	}
}

func (e *Engine) loadState(ctx context.Context) (engineState, bool) {
	path := e.statePath(ctx)
	if path == "" {
		return engineState{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return engineState{}, false
	}
	var st engineState
	if err := json.Unmarshal(data, &st); err != nil {
		log.Debug().Err(err).Msg("parse rebase state")
		return engineState{}, false
	}
	return st, true
}

func (e *Engine) clearState(ctx context.Context) {
	if path := e.statePath(ctx); path != "" {
		os.Remove(path)
	}
}

// writePlanFile renders the plan (oldest first) into a temp file for the
// sequence editor override to install as the todo list.
func writePlanFile(plan *Plan) (path string, cleanup func(), err error) {
	dir, err := os.MkdirTemp("", "gitflow-rebase-*")
	if err != nil {
		return "", nil, err
	}
	path = filepath.Join(dir, "plan")
	todo := parse.FormatTodo(plan.todo())
	if err := os.WriteFile(path, []byte(todo), 0o600); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return path, func() { os.RemoveAll(dir) }, nil
}
