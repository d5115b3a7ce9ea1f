package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connerkward/every-time/internal/nerdfonts"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Guided first-time setup",
	Long: `Guided setup for first-time users.

This command walks you through:
- Authentication with Google Calendar
- Picking a calendar for your first timer
- Next steps`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s Welcome to every-time!\n\n", nerdfonts.CheckCircle)

	if app.Auth.IsAuthenticated() {
		fmt.Fprintf(out, "%s Step 1: Authentication - Already authenticated!\n", nerdfonts.CheckCircle)
	} else {
		fmt.Fprintf(out, "%s Step 1: Authentication\n", nerdfonts.InfoCircle)
		if app.Credentials.IsPlaceholder() {
			fmt.Fprintf(out, "%s No OAuth client found. Put credentials.json in your data directory or set GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET, then run setup again.\n", nerdfonts.ExclamationTriangle)
			return nil
		}
		if !app.Auth.Authenticate(cmd.Context()) {
			return fmt.Errorf("authentication failed: %w", app.Auth.LastError())
		}
		fmt.Fprintf(out, "%s Authenticated\n", nerdfonts.CheckCircle)
	}

	fmt.Fprintf(out, "\n%s Step 2: Calendars\n", nerdfonts.InfoCircle)
	calendars, err := app.Calendar.ListCalendars(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "%s Could not list calendars: %v\n", nerdfonts.ExclamationTriangle, err)
	}

	suggested := "primary"
	for _, cal := range calendars {
		marker := " "
		if cal.Primary {
			marker = "*"
			suggested = cal.ID
		}
		fmt.Fprintf(out, " %s %s %s  (%s)\n", marker, nerdfonts.Calendar, cal.DisplayName, cal.ID)
	}

	fmt.Fprintf(out, "\n%s Step 3: Next steps\n", nerdfonts.InfoCircle)
	fmt.Fprintf(out, "  every-time timers add \"Deep work\" %s\n", suggested)
	fmt.Fprintln(out, "  every-time toggle \"Deep work\"")
	fmt.Fprintln(out, "  every-time status")
	return nil
}
