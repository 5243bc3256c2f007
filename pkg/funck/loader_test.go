package funck_test

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/boson-project/funck/pkg/funck"
	"github.com/boson-project/funck/pkg/funck/abi"
	"github.com/boson-project/funck/pkg/funck/functest"
)

func TestLoaderInstallAndCall(t *testing.T) {
	out := t.TempDir()
	artifact := functest.BuildFixturePlugin(t, "greet", out)

	l := funck.NewLoader()
	name, err := l.Install(artifact)
	assert.NilError(t, err)
	assert.Equal(t, name, "greet")
	assert.Assert(t, l.Has("greet"))

	resp, err := l.Call("greet", abi.NewRequest(nil, nil))
	assert.NilError(t, err)
	assert.Equal(t, string(resp.Body), "hi")
}

func TestLoaderCallUnknownFunction(t *testing.T) {
	l := funck.NewLoader()
	_, err := l.Call("nope", abi.NewRequest(nil, nil))
	assert.ErrorContains(t, err, `unknown function: "nope"`)
	var unknown funck.ErrUnknownFunction
	assert.Assert(t, errors.As(err, &unknown))
}

func TestLoaderCallGuardsAgainstPanic(t *testing.T) {
	out := t.TempDir()
	artifact := functest.BuildFixturePlugin(t, "panicker", out)

	l := funck.NewLoader()
	_, err := l.Install(artifact)
	assert.NilError(t, err)

	_, err = l.Call("panicker", abi.NewRequest(nil, nil))
	assert.ErrorContains(t, err, `call to "panicker" failed`)

	// the loader itself must still be usable afterward
	assert.Assert(t, l.Has("panicker"))
}

func TestLoaderReplacementByDifferentLibraryIdentity(t *testing.T) {
	out := t.TempDir()
	v1 := functest.BuildFixturePlugin(t, "echo", out)
	v2 := functest.BuildFixturePlugin(t, "echo_v2", out)

	l := funck.NewLoader()
	_, err := l.Install(v1)
	assert.NilError(t, err)

	resp, err := l.Call("echo", abi.NewRequest([]byte{1, 2, 3}, nil))
	assert.NilError(t, err)
	assert.DeepEqual(t, resp.Body, []byte{1, 2, 3})

	// v2 declares the same name "echo" from a distinct library identity;
	// installing it must evict v1's entry and take over the name.
	_, err = l.Install(v2)
	assert.NilError(t, err)

	resp, err = l.Call("echo", abi.NewRequest([]byte{1, 2, 3}, nil))
	assert.NilError(t, err)
	assert.DeepEqual(t, resp.Body, []byte{3, 2, 1})
}

func TestLoaderDropAll(t *testing.T) {
	out := t.TempDir()
	artifact := functest.BuildFixturePlugin(t, "greet", out)

	l := funck.NewLoader()
	_, err := l.Install(artifact)
	assert.NilError(t, err)
	assert.Assert(t, l.Has("greet"))

	l.DropAll()
	assert.Assert(t, !l.Has("greet"))
}
