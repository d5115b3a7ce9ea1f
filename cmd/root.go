package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/connerkward/every-time/internal"
	"github.com/connerkward/every-time/internal/calendar"
	"github.com/connerkward/every-time/internal/di"
	"github.com/connerkward/every-time/internal/logger"
	"github.com/connerkward/every-time/internal/nerdfonts"
)

var (
	verbose bool
	cfgFile string
	dataDir string

	// Version information
	version    string
	commitHash string
	buildTime  string
)

var rootCmd = &cobra.Command{
	Use:   "every-time",
	Short: "Named timers that log their sessions to Google Calendar",
	Long: `every-time tracks named timers, each bound to one of your Google calendars.

Start and stop a timer with 'every-time toggle <name>'. When a timer stops, the
session is written to your history and mirrored as an event in its calendar.
Running timers survive restarts: their start times are saved as soon as they
start and periodically while 'every-time run' is active.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, commit, buildTimeStr string) {
	version = v
	commitHash = commit
	buildTime = buildTimeStr

	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commitHash, buildTime)
}

func init() {
	cobra.OnInitialize(initLogger)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config directory (default is $HOME/.config/every-time)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default is $HOME/.local/share/every-time)")

	// Add subcommands
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(calendarsCmd)
	rootCmd.AddCommand(timersCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(setupCmd)
}

func initLogger() {
	logger.Init(verbose)
}

// newApp wires the application for one command invocation.
func newApp(cmd *cobra.Command) (*internal.App, error) {
	app, err := di.InitApp(cmd.Context(), di.Options{
		ConfigPath: cfgFile,
		DataDir:    dataDir,
		Verbose:    verbose,
		Opener:     consoleOpener(cmd.OutOrStdout()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return app, nil
}

// consoleOpener prints the consent URL before handing it to the browser, so
// headless sessions can still complete the flow.
func consoleOpener(w io.Writer) calendar.BrowserOpener {
	return calendar.OpenerFunc(func(url string) error {
		fmt.Fprintf(w, "%s Open this URL to authorize every-time:\n\n  %s\n\n", nerdfonts.Key, url)
		return calendar.SystemBrowser{}.Open(url)
	})
}

func requireAuth(app *internal.App) error {
	if !app.Auth.IsAuthenticated() {
		return fmt.Errorf("authentication required. Run 'every-time auth' first")
	}
	return nil
}
