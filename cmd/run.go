package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/connerkward/every-time/internal/logger"
	"github.com/connerkward/every-time/internal/nerdfonts"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Keep running timers saved until interrupted",
	Long: `Run every-time in the foreground.

Running timers are saved every autosave interval and once more on exit, so an
unexpected shutdown loses at most one interval. When metrics are enabled in the
config, a Prometheus endpoint is served on the configured address.

Suitable for running as a systemd user service.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := app.Start(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s every-time running, %d timer(s) active, saving every %s\n",
		nerdfonts.InfoCircle, len(app.Runtime.Active()), app.Config.Timers.AutosaveInterval)
	if app.Config.Metrics.Enabled {
		fmt.Fprintf(out, "Metrics: http://%s/metrics\n", app.Config.Metrics.Listen)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutdown signal received")
	if err := app.Close(); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	fmt.Fprintf(out, "%s Running timers saved\n", nerdfonts.CheckCircle)
	return nil
}
