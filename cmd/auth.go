package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connerkward/every-time/internal/nerdfonts"
)

var (
	revokeFlag bool
	statusOnly bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Google Calendar authentication",
	Long: `Authenticate with Google Calendar using the OAuth 2.0 authorization code flow.

A browser window opens on Google's consent page. After you approve, Google
redirects to a temporary listener on localhost and every-time stores the token.

Client credentials are read from credentials.json next to the executable, then
from the data directory, then from GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.

Examples:
  every-time auth              # Authenticate in the browser
  every-time auth --status     # Check authentication status
  every-time auth --revoke     # Clear local authentication`,
	RunE: runAuth,
}

func init() {
	authCmd.Flags().BoolVar(&revokeFlag, "revoke", false, "clear local authentication")
	authCmd.Flags().BoolVar(&statusOnly, "status", false, "check authentication status only")
}

func runAuth(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if statusOnly {
		if app.Auth.IsAuthenticated() {
			fmt.Fprintf(out, "%s Authentication: Valid\n", nerdfonts.CheckCircle)
		} else {
			fmt.Fprintf(out, "%s Authentication: Required\n", nerdfonts.ExclamationCircle)
		}
		fmt.Fprintf(out, "Credentials: %s\n", app.Credentials.Source)
		return nil
	}

	if revokeFlag {
		fmt.Fprintf(out, "%s Clearing authentication...\n", nerdfonts.InfoCircle)
		if err := app.Auth.ClearToken(); err != nil {
			return fmt.Errorf("failed to clear authentication: %w", err)
		}
		fmt.Fprintf(out, "%s Authentication cleared successfully\n", nerdfonts.CheckCircle)
		return nil
	}

	if app.Auth.IsAuthenticated() {
		fmt.Fprintf(out, "%s Already authenticated with Google Calendar\n", nerdfonts.CheckCircle)
		fmt.Fprintln(out, "Use --revoke to re-authenticate or --status to check status")
		return nil
	}

	if app.Credentials.IsPlaceholder() {
		fmt.Fprintf(out, "%s No OAuth client configured (source: %s)\n", nerdfonts.ExclamationTriangle, app.Credentials.Source)
		fmt.Fprintln(out, "Place a Google 'Desktop app' credentials.json in your data directory or set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.")
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "%s Starting browser authentication (waiting up to %s)...\n", nerdfonts.InfoCircle, app.Config.Auth.Timeout)

	if !app.Auth.Authenticate(cmd.Context()) {
		return fmt.Errorf("authentication failed: %w", app.Auth.LastError())
	}

	fmt.Fprintf(out, "%s Authentication successful!\n", nerdfonts.CheckCircle)
	fmt.Fprintln(out, "Run 'every-time calendars' to see where timers can write sessions.")
	return nil
}
