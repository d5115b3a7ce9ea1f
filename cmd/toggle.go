package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connerkward/every-time/internal/nerdfonts"
	"github.com/connerkward/every-time/internal/timer"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <name>",
	Short: "Start a timer, or stop it if it is running",
	Long: `Start a timer, or stop it if it is running.

Stopping a timer records a session when it ran for at least half a minute
and creates a matching event in the timer's calendar. If the calendar cannot
be reached the session is still recorded.`,
	Args: cobra.ExactArgs(1),
	RunE: runToggle,
}

func runToggle(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := app.Load(); err != nil {
		return err
	}

	res, err := app.Runtime.StartStop(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	printResult(cmd, res)
	return app.Close()
}

func printResult(cmd *cobra.Command, res timer.Result) {
	out := cmd.OutOrStdout()

	if res.Action == timer.ActionStarted {
		fmt.Fprintf(out, "%s %s started at %s\n", nerdfonts.Play, res.Name, res.Start.Local().Format("15:04"))
		return
	}

	fmt.Fprintf(out, "%s %s stopped after %s\n", nerdfonts.Stop, res.Name, formatMinutes(res.DurationMinutes))
	switch {
	case !res.Recorded:
		fmt.Fprintf(out, "%s Under a minute, nothing recorded\n", nerdfonts.InfoCircle)
	case res.EventErr != nil:
		fmt.Fprintf(out, "%s Session recorded, but the calendar event failed: %v\n", nerdfonts.ExclamationTriangle, res.EventErr)
	default:
		fmt.Fprintf(out, "%s Session recorded and added to your calendar\n", nerdfonts.CalendarCheck)
	}
}

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}
