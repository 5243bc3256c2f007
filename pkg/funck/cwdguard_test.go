package funck_test

import (
	"os"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/boson-project/funck/pkg/funck"
)

func TestCwdGuardSwitchesAndRestores(t *testing.T) {
	owd, err := os.Getwd()
	assert.NilError(t, err)

	target := t.TempDir()
	guard, err := funck.AcquireCwdGuard(target)
	assert.NilError(t, err)

	cwd, err := os.Getwd()
	assert.NilError(t, err)
	assert.Assert(t, cwd != owd)

	guard.Release()

	cwd, err = os.Getwd()
	assert.NilError(t, err)
	assert.Equal(t, cwd, owd)
}

func TestCwdGuardFailsOnMissingTarget(t *testing.T) {
	_, err := funck.AcquireCwdGuard("/no/such/directory/ever")
	assert.ErrorContains(t, err, "failed to switch to directory")
}
