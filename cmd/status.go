package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/connerkward/every-time/internal/nerdfonts"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication and running timers",
	Long: `Display the current state of every-time:
- Authentication status and credential source
- Running timers with their elapsed time
- Number of recorded sessions`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := app.Load(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "=== Authentication ===")
	if app.Auth.IsAuthenticated() {
		fmt.Fprintf(out, "%s Authentication: Valid\n", nerdfonts.CheckCircle)
	} else {
		fmt.Fprintf(out, "%s Authentication: Required (run 'every-time auth')\n", nerdfonts.ExclamationCircle)
	}
	fmt.Fprintf(out, "Credentials: %s\n", app.Credentials.Source)

	fmt.Fprintln(out, "\n=== Running Timers ===")
	active := app.Runtime.Active()
	if len(active) == 0 {
		fmt.Fprintf(out, "%s No timers running\n", nerdfonts.Clock)
	}

	names := make([]string, 0, len(active))
	for name := range active {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now()
	for _, name := range names {
		start, _ := app.Runtime.StartTime(name)
		calendarID := ""
		if t, ok := app.Registry.Get(name); ok {
			calendarID = t.CalendarID
		}
		fmt.Fprintf(out, "%s %s  %s  (since %s, %s)\n",
			nerdfonts.CircleDot,
			name,
			now.Sub(start).Truncate(time.Second),
			start.Local().Format("2006-01-02 15:04"),
			calendarID)
	}

	fmt.Fprintf(out, "\nTimers defined: %d\n", len(app.Runtime.Timers()))
	fmt.Fprintf(out, "Sessions recorded: %d\n", len(app.Runtime.Sessions()))
	return nil
}
