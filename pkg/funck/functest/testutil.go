// Package functest holds small testing helpers shared across pkg/funck's
// test files: scoped temporary directories and helpers that produce
// loadable plugin artifacts the way a real Compile Worker run would.
package functest

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// Mktemp creates a temporary directory, CDs the test process into it, and
// returns its path. The original working directory is restored in
// t.Cleanup.
func Mktemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	owd := pwd(t)
	cd(t, tmp)
	t.Cleanup(func() { cd(t, owd) })
	return tmp
}

func pwd(t *testing.T) string {
	t.Helper()
	d, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func cd(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
}

// FileExists reports whether a file exists at path.
func FileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		t.Fatal(err)
	}
	return true
}

// ModuleRoot locates the repository root (the directory holding go.mod)
// relative to this source file, so fixtures can be built against it
// regardless of the package invoking the helper.
func ModuleRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("functest: unable to determine caller for module root lookup")
	}
	// this file lives at <root>/pkg/funck/functest/testutil.go
	return filepath.Join(filepath.Dir(file), "..", "..", "..")
}

// BuildFixturePlugin compiles the named fixture under
// pkg/funck/testdata/fixtures/<name> as a Go plugin, within the host
// module itself so the produced artifact shares type identity with this
// process's abi package, and returns the path to the resulting artifact
// inside outDir.
func BuildFixturePlugin(t *testing.T, name, outDir string) string {
	t.Helper()
	srcDir := filepath.Join(ModuleRoot(t), "pkg", "funck", "testdata", "fixtures", name)
	out := filepath.Join(outDir, name+".so")

	cmd := exec.Command("go", "build", "-buildmode=plugin", "-o", out, ".")
	cmd.Dir = srcDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("building fixture plugin %s: %v\n%s", name, err, output)
	}
	return out
}

// WriteDeployableSource creates a freestanding source tree at dir/project
// containing goSrc as main.go, with its own go.mod that replaces the funck
// module with the local checkout being tested, so `go build
// -buildmode=plugin` run from inside it — exactly as the real Compile
// Worker invokes it — can resolve the abi package without network access.
// Used to drive CompileWorker and Manager integration tests end to end,
// including sources expected to fail to compile.
func WriteDeployableSource(t *testing.T, dir, project, goSrc string) string {
	t.Helper()
	root := ModuleRoot(t)
	srcDir := filepath.Join(dir, project)
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "main.go"), []byte(goSrc), 0o644); err != nil {
		t.Fatal(err)
	}

	gomod := fmt.Sprintf(
		"module %s\n\ngo 1.25\n\nrequire github.com/boson-project/funck v0.0.0\n\nreplace github.com/boson-project/funck => %s\n",
		project, root,
	)
	if err := os.WriteFile(filepath.Join(srcDir, "go.mod"), []byte(gomod), 0o644); err != nil {
		t.Fatal(err)
	}
	return srcDir
}

// CopyIntoDir copies src into destDir (created if necessary), keeping its
// base name, as if it had been placed there by an Install Loop run in a
// prior process lifetime — used to set up the Manager startup-scan tests.
func CopyIntoDir(t *testing.T, src, destDir string) error {
	t.Helper()
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(filepath.Join(destDir, filepath.Base(src)))
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
