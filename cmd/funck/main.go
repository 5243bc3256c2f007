// Command funck runs the function lifecycle manager's HTTP front end: the
// compile/install pipeline plus the control/data plane.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/boson-project/funck/pkg/config"
	"github.com/boson-project/funck/pkg/funck"
	"github.com/boson-project/funck/pkg/server"
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
	root := &cobra.Command{
		Use:           "funck",
		Short:         "Function-as-a-Service executor",
		Version:       buildVersion(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	defaults, _ := config.NewDefault()

	root.PersistentFlags().Bool("verbose", false, "print debug-level logs (env FUNCK_VERBOSE)")
	root.PersistentFlags().String("listen", defaults.ListenAddr, "address to listen on (env FUNCK_LISTEN)")
	root.PersistentFlags().String("artifact-dir", defaults.ArtifactDir, "directory holding installed artifacts (env FUNCK_ARTIFACT_DIR)")
	root.PersistentFlags().String("tmp-dir", defaults.TmpDir, "directory holding in-flight deployment sources (env FUNCK_TMP_DIR)")
	root.PersistentFlags().Duration("compile-timeout", 0, "max duration of a single compile, 0 for unbounded (env FUNCK_COMPILE_TIMEOUT)")

	viper.SetEnvPrefix("funck")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, name := range []string{"verbose", "listen", "artifact-dir", "tmp-dir", "compile-timeout"} {
		_ = viper.BindPFlag(name, root.PersistentFlags().Lookup(name))
	}

	root.RunE = runServe

	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg := funck.Config{
		ArtifactDir:    viper.GetString("artifact-dir"),
		TmpDir:         viper.GetString("tmp-dir"),
		ListenAddr:     viper.GetString("listen"),
		CompileTimeout: viper.GetDuration("compile-timeout"),
	}

	manager, err := funck.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize manager: %w", err)
	}
	if err := manager.Start(); err != nil {
		return fmt.Errorf("failed to start manager: %w", err)
	}

	srv := server.New(manager, cfg.ListenAddr, cfg.TmpDir)

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logrus.Info("shutdown signal received")
		cancel()
	}()

	start := time.Now()
	logrus.WithField("listen", cfg.ListenAddr).Info("starting funck server")
	err = srv.ListenAndServe(ctx)
	logrus.WithField("uptime", time.Since(start)).Info("funck server stopped")
	return err
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
