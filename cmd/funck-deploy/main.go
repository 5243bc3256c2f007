// Command funck-deploy packages a function's source directory into a zip
// bundle and posts it to a running funck server's POST /_funck_add
// endpoint.
package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/boson-project/funck/pkg/config"
)

// date, version and commit are populated via -ldflags at build time; left
// at their zero values, the binary reports itself as a source build.
var (
	date    = "unknown"
	version = "tip"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults, _ := config.NewDefault()

	root := &cobra.Command{
		Use:           "funck-deploy [path]",
		Short:         "Package and deploy a function's source to a funck server",
		Version:       buildVersion(),
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runDeploy,
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.Flags().String("server", defaults.ServerURL, "funck server base URL (env FUNCK_SERVER)")
	root.Flags().Bool("verbose", false, "print debug-level logs (env FUNCK_VERBOSE)")

	viper.SetEnvPrefix("funck")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("server", root.Flags().Lookup("server"))
	_ = viper.BindPFlag("verbose", root.Flags().Lookup("verbose"))

	return root
}

func runDeploy(_ *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	}

	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	project := filepath.Base(path)

	zipPath, err := zipSource(path, project)
	if err != nil {
		return err
	}
	defer os.Remove(zipPath)

	serverURL := viper.GetString("server")
	logrus.WithFields(logrus.Fields{"path": path, "server": serverURL}).Info("deploying function")

	return upload(serverURL, project, zipPath)
}

// zipSource shells out to the system zip utility to archive dir into a
// temporary file named <project>-<random>.zip, excluding version control metadata
// and previously built artifacts.
func zipSource(dir, project string) (string, error) {
	tmp, err := os.CreateTemp("", project+"-*.zip")
	if err != nil {
		return "", err
	}
	zipPath := tmp.Name()
	tmp.Close()
	os.Remove(zipPath) // zip refuses to write over an existing empty file path it didn't create

	cmd := exec.Command("zip", "-r", zipPath, ".",
		"-x", ".git/*",
		"-x", "*.so",
	)
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("failed to zip source directory: %w: %s", err, output)
	}
	return zipPath, nil
}

// upload posts the zip bundle at zipPath to serverURL's /_funck_add
// endpoint under the multipart field name the server expects. The bundle's
// size is not checked here; the server enforces its 100 KiB cap.
func upload(serverURL, project, zipPath string) error {
	f, err := os.Open(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("src", project+".zip")
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, serverURL+"/_funck_add", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach funck server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("deploy failed (%s): %s", resp.Status, msg)
	}

	logrus.Info("deployed successfully")
	return nil
}

// buildVersion renders version/commit/date the way the Knative Functions
// CLI reports its own build provenance: the version alone when it is a
// "v"-prefixed tag, otherwise v0.0.0-<commit>-<date>.
func buildVersion() string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return fmt.Sprintf("v0.0.0-%s-%s", commit, date)
}
