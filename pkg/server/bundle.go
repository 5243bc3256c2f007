package server

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/boson-project/funck/pkg/funck"
)

// maxBundleBytes is the payload cap on POST /_funck_add.
const maxBundleBytes = 100 * 1024

// deployBundle saves src (a zip archive's contents) to a temporary file,
// extracts it into a freshly allocated ScopedDir via the external unzip
// utility, and hands the populated directory to the Manager. filename is
// used only to derive the deployment's project name.
func deployBundle(manager *funck.Manager, tmpDir, filename string, src io.Reader) error {
	project := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	zipFile, err := os.CreateTemp(tmpDir, "funck-upload-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temporary upload file: %w", err)
	}
	zipPath := zipFile.Name()
	defer os.Remove(zipPath)

	if _, err := io.Copy(zipFile, src); err != nil {
		zipFile.Close()
		return fmt.Errorf("failed to save source bundle: %w", err)
	}
	if err := zipFile.Close(); err != nil {
		return fmt.Errorf("failed to save source bundle: %w", err)
	}

	dir, err := manager.NewDeployment(project)
	if err != nil {
		return err
	}

	if err := unzip(zipPath, dir.Path()); err != nil {
		dir.Release()
		return err
	}

	return manager.Add(dir)
}

// unzip extracts archivePath into destDir using the system unzip utility
// rather than an in-process zip library, keeping archive extraction an
// opaque sub-process boundary.
func unzip(archivePath, destDir string) error {
	cmd := exec.Command("unzip", "-o", "-q", archivePath, "-d", destDir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to extract source bundle: %w: %s", err, output)
	}
	return nil
}
