package funck

import (
	"os"

	"github.com/sirupsen/logrus"
)

// CwdGuard brackets a temporary change to the process's current working
// directory: acquiring one records the current cwd and switches to target;
// releasing it restores the recorded cwd. The process working directory is
// global, process-wide state, so holding two CwdGuards concurrently is
// undefined — the Compile Worker is the only holder in this codebase,
// which is what makes that safe (see Manager/Compile Worker's single
// in-flight-compile rule).
type CwdGuard struct {
	previous string
}

// AcquireCwdGuard switches the process working directory to target,
// returning a guard that will restore the prior directory on Release.
// Fails if target does not exist.
func AcquireCwdGuard(target string) (CwdGuard, error) {
	previous, err := os.Getwd()
	if err != nil {
		return CwdGuard{}, ErrSwitchDir{Path: target, Err: err}
	}
	if err := os.Chdir(target); err != nil {
		return CwdGuard{}, ErrSwitchDir{Path: target, Err: err}
	}
	return CwdGuard{previous: previous}, nil
}

// Release restores the working directory recorded at acquisition time. A
// failure to do so is logged, never panicked or propagated — per §4.2, this
// must not bring down the Compile Worker.
func (g CwdGuard) Release() {
	if g.previous == "" {
		return
	}
	if err := os.Chdir(g.previous); err != nil {
		logrus.WithError(err).WithField("path", g.previous).Warn("failed to restore working directory")
	}
}
