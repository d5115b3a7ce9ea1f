package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connerkward/every-time/internal/nerdfonts"
)

var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List calendars timers can write to",
	Long: `List the calendars you own or can edit.

Use a calendar's ID when defining a timer:
  every-time timers add "Deep work" <calendar-id>`,
	RunE: runCalendars,
}

func runCalendars(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := requireAuth(app); err != nil {
		return err
	}

	calendars, err := app.Calendar.ListCalendars(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list calendars: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Writable Calendars ===")
	for _, cal := range calendars {
		icon := nerdfonts.Calendar
		if cal.Primary {
			icon = nerdfonts.CheckCircle + " " + nerdfonts.Calendar
		}

		fmt.Fprintf(out, "%s %s\n", icon, cal.DisplayName)
		fmt.Fprintf(out, "  ID: %s\n", cal.ID)
		fmt.Fprintf(out, "  Access Role: %s\n", cal.AccessRole)
		if cal.Primary {
			fmt.Fprintln(out, "  Primary: Yes")
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Total calendars: %d\n", len(calendars))
	return nil
}
