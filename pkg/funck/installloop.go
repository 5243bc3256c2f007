package funck

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// installLoop consumes compile results and installs each one into the
// persistent artifact directory and the Loader, updating status to Ready
// or Failed(install error). It runs for the lifetime of the Manager and
// exits when results is closed (Compile Worker stopped).
func installLoop(results <-chan CompileResult, loader *Loader, tracker *StatusTracker, artifactDir string) {
	for res := range results {
		installOne(res, loader, tracker, artifactDir)
	}
}

func installOne(res CompileResult, loader *Loader, tracker *StatusTracker, artifactDir string) {
	dest := filepath.Join(artifactDir, filepath.Base(res.ArtifactPath))

	if err := moveFile(res.ArtifactPath, dest); err != nil {
		werr := ErrCantMoveArtifact{Err: err}
		logrus.WithError(werr).WithField("job", res.JobName).Warn("failed to install artifact")
		tracker.Set(res.JobName, StatusEntry{Phase: Failed, Reason: werr.Error()})
		return
	}

	if _, err := loader.Install(dest); err != nil {
		logrus.WithError(err).WithField("job", res.JobName).Warn("failed to install artifact")
		tracker.Set(res.JobName, StatusEntry{Phase: Failed, Reason: err.Error()})
		return
	}

	tracker.Set(res.JobName, StatusEntry{Phase: Ready})
}

// moveFile relocates src to dest, falling back to copy-then-remove when a
// plain rename fails (e.g. src and dest live on different filesystems,
// which os.Rename cannot bridge).
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
