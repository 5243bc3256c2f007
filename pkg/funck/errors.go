package funck

import (
	"errors"
	"fmt"
)

var (
	// ErrManagerAlreadyStarted is returned by Manager.Start when called
	// more than once on the same Manager.
	ErrManagerAlreadyStarted = errors.New("manager already started")

	// ErrWorkerNotStarted is returned when a job is dispatched to a
	// Compile Worker that has not yet had Start called on it.
	ErrWorkerNotStarted = errors.New("compile worker not started")

	// ErrLoaderLockFailure indicates the Loader's reader/writer lock was
	// found in an inconsistent state. Treated as a hard, unrecoverable
	// inconsistency rather than surfaced as a retryable error.
	ErrLoaderLockFailure = errors.New("loader lock failure")

	// ErrMissingFileName is returned when a compile result's artifact
	// path has no file name component to move into the artifact
	// directory.
	ErrMissingFileName = errors.New("compiled artifact has no file name")
)

// ErrUnknownFunction indicates a call targeting a function name the Loader
// has no installed entry for.
type ErrUnknownFunction struct {
	Name string
}

func (e ErrUnknownFunction) Error() string {
	return fmt.Sprintf("unknown function: %q", e.Name)
}

// ErrCall wraps a failure reported by the foreign function itself, as
// opposed to a failure in the surrounding loader machinery.
type ErrCall struct {
	Name string
	Err  error
}

func (e ErrCall) Error() string {
	return fmt.Sprintf("call to %q failed: %v", e.Name, e.Err)
}

func (e ErrCall) Unwrap() error { return e.Err }

// ErrFailedToLoadLibrary indicates the dynamic library at Path could not be
// opened at all (corrupt file, wrong platform, unresolved symbols within
// the plugin's own dependency graph, etc).
type ErrFailedToLoadLibrary struct {
	Path string
	Err  error
}

func (e ErrFailedToLoadLibrary) Error() string {
	return fmt.Sprintf("failed to load library %s: %v", e.Path, e.Err)
}

func (e ErrFailedToLoadLibrary) Unwrap() error { return e.Err }

// ErrMissingSymbol indicates an artifact was opened successfully but does
// not export the well-known constructor symbol.
type ErrMissingSymbol struct {
	Path   string
	Symbol string
}

func (e ErrMissingSymbol) Error() string {
	return fmt.Sprintf("symbol %q not found in %s", e.Symbol, e.Path)
}

// ErrSwitchDir indicates a CwdGuard failed to switch the process working
// directory to its target.
type ErrSwitchDir struct {
	Path string
	Err  error
}

func (e ErrSwitchDir) Error() string {
	return fmt.Sprintf("failed to switch to directory %s: %v", e.Path, e.Err)
}

func (e ErrSwitchDir) Unwrap() error { return e.Err }

// ErrBuildSpawn indicates the compiler subprocess could not be started.
type ErrBuildSpawn struct{ Err error }

func (e ErrBuildSpawn) Error() string { return fmt.Sprintf("failed to spawn build: %v", e.Err) }
func (e ErrBuildSpawn) Unwrap() error { return e.Err }

// ErrBuildJoin indicates the compiler subprocess was spawned but waiting
// on it failed (as opposed to it exiting non-zero).
type ErrBuildJoin struct{ Err error }

func (e ErrBuildJoin) Error() string { return fmt.Sprintf("failed waiting for build: %v", e.Err) }
func (e ErrBuildJoin) Unwrap() error { return e.Err }

// ErrExitCodeNonZero indicates the compiler exited with a non-zero status.
type ErrExitCodeNonZero struct{ Code int }

func (e ErrExitCodeNonZero) Error() string { return fmt.Sprintf("exit code %d", e.Code) }

// ErrInvalidOutputPath indicates the compiler reported success but the
// expected artifact is not present at the canonical output location.
type ErrInvalidOutputPath struct {
	Path string
	Err  error
}

func (e ErrInvalidOutputPath) Error() string {
	return fmt.Sprintf("invalid output path: %s: %v", e.Path, e.Err)
}

func (e ErrInvalidOutputPath) Unwrap() error { return e.Err }

// ErrCantMoveArtifact indicates the compiled artifact could not be moved
// into the persistent artifact directory.
type ErrCantMoveArtifact struct{ Err error }

func (e ErrCantMoveArtifact) Error() string {
	return fmt.Sprintf("failed to move artifact: %v", e.Err)
}

func (e ErrCantMoveArtifact) Unwrap() error { return e.Err }
