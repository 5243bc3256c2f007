package funck

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ScopedDir is a filesystem directory whose lifetime is tied to this value:
// the directory is created on construction and recursively removed on
// Release. It is conceptually move-only — passing one across a channel
// transfers ownership to the receiver, who is then the only one entitled to
// Release it. Calling Release more than once, or from more than one owner,
// is a misuse this type does not protect against (in this codebase the
// Compile Worker releases it, and Manager.Add and the server's bundle
// handler release it only on their own error paths, before any hand-off).
type ScopedDir struct {
	path    string
	jobName string
}

// NewScopedDir creates path (recursively, if needed) and returns a
// ScopedDir owning it. jobName is a human-readable label, typically the
// source directory's basename, used in status reporting.
func NewScopedDir(path, jobName string) (ScopedDir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return ScopedDir{}, err
	}
	return ScopedDir{path: path, jobName: jobName}, nil
}

// Path returns the owned directory's filesystem path.
func (d ScopedDir) Path() string { return d.path }

// JobName returns the human-readable label for this directory's job.
func (d ScopedDir) JobName() string { return d.jobName }

// Release recursively removes the owned directory. Errors are logged, not
// returned or panicked: a ScopedDir must never leak, but a failed removal
// is not something any caller in this codebase can meaningfully react to
// beyond noting it.
func (d ScopedDir) Release() {
	if d.path == "" {
		return
	}
	if err := os.RemoveAll(d.path); err != nil {
		logrus.WithError(err).WithField("path", d.path).Warn("failed to remove scoped directory")
	}
}
