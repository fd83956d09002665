// Package errors provides sentinel errors and custom error types for the gitflow core.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrExecutableNotFound indicates the requested binary is not on PATH
	ErrExecutableNotFound = errors.New("executable not found")

	// ErrSpawnFailed indicates the child process could not be started
	ErrSpawnFailed = errors.New("process spawn failed")

	// ErrConflict indicates a merge, rebase or cherry-pick stopped on conflicts
	ErrConflict = errors.New("conflict detected")

	// ErrRebaseNotInProgress indicates that no rebase is currently in progress
	ErrRebaseNotInProgress = errors.New("no rebase in progress")

	// ErrNothingToUndo indicates the undo stack is empty
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the redo stack is empty
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrRedoNotSupported indicates the undone action cannot be replayed because
	// the original content was consumed by the undo itself
	ErrRedoNotSupported = errors.New("redo not supported for this action")

	// ErrBackupNotFound indicates a discard backup id does not exist in the store
	ErrBackupNotFound = errors.New("backup not found")
)

// CommandError represents a failed subprocess invocation. A non-zero exit is
// an expected outcome for many git commands, so callers must be able to tell
// it apart from spawn-level failures; ExitCode is -1 when the process never ran.
type CommandError struct {
	Command  string
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s command failed", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", strings.TrimSpace(e.Stderr))
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError
func NewCommandError(command string, args []string, stdout, stderr string, exitCode int, err error) *CommandError {
	return &CommandError{
		Command:  command,
		Args:     args,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Err:      err,
	}
}

// IsExitError reports whether err is a CommandError for a process that ran
// to completion and exited non-zero, as opposed to one that failed to spawn.
func IsExitError(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	return cmdErr.ExitCode > 0
}

// ExitCode extracts the process exit code from err, or -1 when err is not a
// CommandError or the process never ran.
func ExitCode(err error) int {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return -1
	}
	return cmdErr.ExitCode
}

// Stderr extracts the captured stderr from err, or "" when unavailable.
func Stderr(err error) string {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return ""
	}
	return cmdErr.Stderr
}

// ConflictError represents an operation that stopped on merge conflicts.
// The operation is recoverable: the caller continues, skips or aborts.
type ConflictError struct {
	Operation string
	Paths     []string
	Message   string
}

func (e *ConflictError) Error() string {
	if len(e.Paths) > 0 {
		return fmt.Sprintf("%s stopped on conflicts in %s", e.Operation, strings.Join(e.Paths, ", "))
	}
	if e.Message != "" {
		return fmt.Sprintf("%s stopped on conflicts: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("%s stopped on conflicts", e.Operation)
}

// Is returns true if the target error is ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(operation string, paths []string, message string) *ConflictError {
	return &ConflictError{Operation: operation, Paths: paths, Message: message}
}

// OperationError represents a git write operation that failed for a reason
// other than conflicts. The message is derived from git's stderr.
type OperationError struct {
	Operation string
	Message   string
	Err       error
}

func (e *OperationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("%s failed", e.Operation)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError creates a new OperationError
func NewOperationError(operation, message string, err error) *OperationError {
	return &OperationError{Operation: operation, Message: message, Err: err}
}

// ParseError represents malformed command output that could not be turned
// into domain records.
type ParseError struct {
	Context string
	Line    string
	Err     error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("failed to parse %s", e.Context)
	if e.Line != "" {
		msg += fmt.Sprintf(": %q", e.Line)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(context, line string, err error) *ParseError {
	return &ParseError{Context: context, Line: line, Err: err}
}
