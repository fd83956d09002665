// Package git wraps the git binary and go-git for repository operations.
// All parsed output comes from porcelain or format-string invocations;
// human-readable git output is never parsed.
package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	gferrors "gitflow.dev/gitflow/internal/errors"
)

// DefaultCommandTimeout is the default timeout for subprocess invocations
const DefaultCommandTimeout = 5 * time.Minute

// Result holds the captured output of a completed subprocess. A non-zero
// ExitCode is a normal outcome (e.g. a rebase stopping on conflicts) and is
// reported here rather than as an error.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes a single subprocess at a time with a fixed working
// directory. It owns no shared mutable state; serialization across
// invocations against one working tree is the Repo's job.
type Runner struct {
	workingDir string
	env        []string
}

// NewRunner creates a new Runner rooted at workingDir.
func NewRunner(workingDir string) *Runner {
	return &Runner{workingDir: workingDir}
}

// WorkingDir returns the runner's working directory.
func (r *Runner) WorkingDir() string {
	return r.workingDir
}

// WithEnv returns a copy of the runner with extra environment variables
// appended to every invocation.
func (r *Runner) WithEnv(env ...string) *Runner {
	return &Runner{workingDir: r.workingDir, env: append(append([]string{}, r.env...), env...)}
}

// baseEnv disables interactive credential prompts. A git process that blocks
// waiting for a password would hang the whole facade queue.
func baseEnv() []string {
	return []string{"GIT_TERMINAL_PROMPT=0"}
}

// Run executes exe with args and runs it to completion. The child's stdin is
// not inherited; pass input for commands that read from stdin. Spawn-level
// failures (binary missing, process could not start) are returned as errors;
// a process that ran and exited non-zero yields a Result with no error.
func (r *Runner) Run(ctx context.Context, exe string, args ...string) (Result, error) {
	return r.run(ctx, exe, args, "", nil)
}

// RunWithInput is Run with the given string fed to the child's stdin.
func (r *Runner) RunWithInput(ctx context.Context, input, exe string, args ...string) (Result, error) {
	return r.run(ctx, exe, args, input, nil)
}

// RunWithEnv is Run with extra environment variables for this invocation only.
func (r *Runner) RunWithEnv(ctx context.Context, env []string, exe string, args ...string) (Result, error) {
	return r.run(ctx, exe, args, "", env)
}

// Output executes exe with args and returns trimmed stdout, converting a
// non-zero exit into a CommandError. Use this when failure is exceptional.
func (r *Runner) Output(ctx context.Context, exe string, args ...string) (string, error) {
	res, err := r.Run(ctx, exe, args...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", gferrors.NewCommandError(exe, args, res.Stdout, res.Stderr, res.ExitCode, nil)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// OutputRaw is Output without trailing-whitespace trimming, for porcelain
// formats where trailing record separators are significant.
func (r *Runner) OutputRaw(ctx context.Context, exe string, args ...string) (string, error) {
	res, err := r.Run(ctx, exe, args...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", gferrors.NewCommandError(exe, args, res.Stdout, res.Stderr, res.ExitCode, nil)
	}
	return res.Stdout, nil
}

// Lines executes exe with args and returns stdout split into lines,
// dropping a trailing empty line.
func (r *Runner) Lines(ctx context.Context, exe string, args ...string) ([]string, error) {
	out, err := r.Output(ctx, exe, args...)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return []string{}, nil
	}
	return strings.Split(out, "\n"), nil
}

// Stream executes exe with args and invokes fn for every line of combined
// stdout output as it arrives. Stderr is still captured and returned in the
// Result for classification.
func (r *Runner) Stream(ctx context.Context, fn func(line string), exe string, args ...string) (Result, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cmd := r.command(ctx, exe, args, nil)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: -1}, gferrors.NewCommandError(exe, args, "", "", -1, errors.Join(gferrors.ErrSpawnFailed, err))
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, spawnError(exe, args, err)
	}

	var stdout strings.Builder
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		stdout.WriteString(line)
		stdout.WriteByte('\n')
		fn(line)
	}
	// Drain anything the scanner gave up on so the child can exit.
	_, _ = io.Copy(io.Discard, pipe)

	waitErr := cmd.Wait()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd, waitErr),
	}
	logInvocation(exe, args, res, time.Since(started))
	if waitErr != nil && res.ExitCode < 0 {
		return res, gferrors.NewCommandError(exe, args, res.Stdout, res.Stderr, -1, errors.Join(gferrors.ErrSpawnFailed, waitErr))
	}
	return res, nil
}

func (r *Runner) run(ctx context.Context, exe string, args []string, input string, extraEnv []string) (Result, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cmd := r.command(ctx, exe, args, extraEnv)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(cmd, err),
	}
	logInvocation(exe, args, res, time.Since(started))

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return res, gferrors.NewCommandError(exe, args, res.Stdout, res.Stderr, res.ExitCode, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Ran to completion, exited non-zero: not an error at this layer.
			return res, nil
		}
		return res, spawnError(exe, args, err)
	}
	return res, nil
}

func (r *Runner) command(ctx context.Context, exe string, args, extraEnv []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, exe, args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	env := append(os.Environ(), baseEnv()...)
	env = append(env, r.env...)
	env = append(env, extraEnv...)
	cmd.Env = env
	return cmd
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		return context.WithTimeout(ctx, DefaultCommandTimeout)
	}
	return ctx, func() {}
}

func spawnError(exe string, args []string, err error) error {
	sentinel := gferrors.ErrSpawnFailed
	if errors.Is(err, exec.ErrNotFound) {
		sentinel = gferrors.ErrExecutableNotFound
	}
	return gferrors.NewCommandError(exe, args, "", "", -1, errors.Join(sentinel, err))
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

func logInvocation(exe string, args []string, res Result, elapsed time.Duration) {
	log.Debug().
		Str("exe", exe).
		Strs("args", args).
		Int("exit", res.ExitCode).
		Dur("elapsed", elapsed).
		Msg("subprocess")
}
