package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connerkward/every-time/internal/nerdfonts"
	"github.com/connerkward/every-time/internal/timer"
)

var timersCmd = &cobra.Command{
	Use:   "timers",
	Short: "Manage timer definitions",
}

var timersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List defined timers",
	Args:  cobra.NoArgs,
	RunE:  runTimersList,
}

var timersAddCmd = &cobra.Command{
	Use:   "add <name> <calendar-id>",
	Short: "Define a new timer",
	Args:  cobra.ExactArgs(2),
	RunE:  runTimersAdd,
}

var timersSaveCmd = &cobra.Command{
	Use:   "save <name> <calendar-id>",
	Short: "Create a timer or change the calendar of an existing one",
	Args:  cobra.ExactArgs(2),
	RunE:  runTimersSave,
}

var timersDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a timer, stopping it first if it is running",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimersDelete,
}

func init() {
	timersCmd.AddCommand(timersListCmd, timersAddCmd, timersSaveCmd, timersDeleteCmd)
}

func runTimersList(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := app.Load(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	timers := app.Runtime.Timers()
	if len(timers) == 0 {
		fmt.Fprintf(out, "%s No timers defined. Add one with 'every-time timers add <name> <calendar-id>'\n", nerdfonts.InfoCircle)
		return nil
	}

	for _, t := range timers {
		icon := nerdfonts.Clock
		if app.Runtime.IsActive(t.Name) {
			icon = nerdfonts.Play
		}
		fmt.Fprintf(out, "%s %s  (%s)\n", icon, t.Name, t.CalendarID)
	}
	return nil
}

func runTimersAdd(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	if err := app.Registry.Add(args[0], args[1]); err != nil {
		if errors.Is(err, timer.ErrDuplicateTimer) {
			return fmt.Errorf("a timer named %q already exists; use 'timers save' to change it", args[0])
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Added timer %q\n", nerdfonts.CheckCircle, args[0])
	return nil
}

func runTimersSave(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	if err := app.Registry.Upsert(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Saved timer %q\n", nerdfonts.CheckCircle, args[0])
	return nil
}

func runTimersDelete(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := app.Load(); err != nil {
		return err
	}

	wasActive := app.Runtime.IsActive(args[0])
	removed, err := app.Runtime.DeleteTimer(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", timer.ErrTimerNotFound, args[0])
	}

	out := cmd.OutOrStdout()
	if wasActive {
		fmt.Fprintf(out, "%s Stopped running timer %q\n", nerdfonts.Stop, args[0])
	}
	fmt.Fprintf(out, "%s Deleted timer %q\n", nerdfonts.Trash, args[0])
	return app.Close()
}
