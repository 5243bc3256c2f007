package funck_test

import (
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/boson-project/funck/pkg/funck"
	"github.com/boson-project/funck/pkg/funck/abi"
	"github.com/boson-project/funck/pkg/funck/functest"
)

func newTestManager(t *testing.T) *funck.Manager {
	t.Helper()
	root := t.TempDir()
	m, err := funck.New(funck.Config{
		ArtifactDir:    filepath.Join(root, "artifacts"),
		TmpDir:         filepath.Join(root, "tmp"),
		CompileTimeout: 60 * time.Second,
	})
	assert.NilError(t, err)
	assert.NilError(t, m.Start())
	return m
}

func waitForReady(t *testing.T, m *funck.Manager, name string) {
	t.Helper()
	deadline := time.After(90 * time.Second)
	for {
		if entry, ok := m.Stat()[name]; ok {
			switch entry.Phase {
			case funck.Ready:
				return
			case funck.Failed:
				t.Fatalf("%s failed to compile: %s", name, entry.Reason)
			}
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s to become Ready", name)
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func TestManagerHappyPath(t *testing.T) {
	m := newTestManager(t)

	dir, err := m.NewDeployment("greet")
	assert.NilError(t, err)
	functest.WriteDeployableSource(t, filepath.Dir(dir.Path()), "greet", greetSource)
	assert.NilError(t, m.Add(dir))

	entry, ok := m.Stat()["greet"]
	assert.Assert(t, ok)
	assert.Assert(t, entry.Phase == funck.Accepted || entry.Phase == funck.Compiling || entry.Phase == funck.Ready)

	waitForReady(t, m, "greet")
	assert.Assert(t, m.Has("greet"))

	resp, err := m.Call("greet", abi.NewRequest(nil, nil))
	assert.NilError(t, err)
	assert.Equal(t, string(resp.Body), "hi")
}

func TestManagerUnknownFunction(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Call("nope", abi.NewRequest(nil, nil))
	assert.ErrorContains(t, err, "unknown function")
	assert.Assert(t, !m.Has("nope"))
}

func TestManagerCompilationFailure(t *testing.T) {
	m := newTestManager(t)

	dir, err := m.NewDeployment("bad")
	assert.NilError(t, err)
	functest.WriteDeployableSource(t, filepath.Dir(dir.Path()), "bad", brokenSource)
	assert.NilError(t, m.Add(dir))

	deadline := time.After(60 * time.Second)
	for {
		if entry, ok := m.Stat()["bad"]; ok && entry.Phase == funck.Failed {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for failure status")
		case <-time.After(100 * time.Millisecond):
		}
	}

	assert.Assert(t, !m.Has("bad"))
	assert.Assert(t, !functest.FileExists(t, dir.Path()))
}

func TestManagerStartupScanSeedsReady(t *testing.T) {
	root := t.TempDir()
	artifactDir := filepath.Join(root, "artifacts")

	out := functest.BuildFixturePlugin(t, "greet", t.TempDir())
	assert.NilError(t, functest.CopyIntoDir(t, out, artifactDir))

	m, err := funck.New(funck.Config{ArtifactDir: artifactDir, TmpDir: filepath.Join(root, "tmp")})
	assert.NilError(t, err)

	assert.Assert(t, m.Has("greet"))
	entry, ok := m.Stat()["greet"]
	assert.Assert(t, ok)
	assert.Equal(t, entry.Phase, funck.Ready)
}

func TestManagerDoubleStartFails(t *testing.T) {
	m := newTestManager(t)
	assert.ErrorIs(t, m.Start(), funck.ErrManagerAlreadyStarted)
}

func TestManagerForeignPanicDoesNotBringDownOtherCalls(t *testing.T) {
	m := newTestManager(t)

	greetDir, err := m.NewDeployment("greet")
	assert.NilError(t, err)
	functest.WriteDeployableSource(t, filepath.Dir(greetDir.Path()), "greet", greetSource)
	assert.NilError(t, m.Add(greetDir))
	waitForReady(t, m, "greet")

	panicDir, err := m.NewDeployment("panicker")
	assert.NilError(t, err)
	functest.WriteDeployableSource(t, filepath.Dir(panicDir.Path()), "panicker", panickerSource)
	assert.NilError(t, m.Add(panicDir))
	waitForReady(t, m, "panicker")

	_, err = m.Call("panicker", abi.NewRequest(nil, nil))
	assert.ErrorContains(t, err, `call to "panicker" failed`)

	resp, err := m.Call("greet", abi.NewRequest(nil, nil))
	assert.NilError(t, err)
	assert.Equal(t, string(resp.Body), "hi")
}

const panickerSource = `package main

import "github.com/boson-project/funck/pkg/funck/abi"

type panicker struct{}

func (panicker) Name() string { return "panicker" }

func (panicker) Call(abi.Request) (abi.Response, error) {
	panic("boom")
}

func FunckCreate() abi.Funcktion { return panicker{} }

func main() {}
`
