package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/connerkward/every-time/internal/nerdfonts"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded sessions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of sessions to show (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	sessions := app.Runtime.Sessions()
	if len(sessions) == 0 {
		fmt.Fprintf(out, "%s No sessions recorded yet\n", nerdfonts.History)
		return nil
	}

	shown := 0
	for i := len(sessions) - 1; i >= 0; i-- {
		if historyLimit > 0 && shown == historyLimit {
			break
		}
		s := sessions[i]
		fmt.Fprintf(out, "%s %s  %s - %s  %s  (%s)\n",
			nerdfonts.Hourglass,
			s.Start.Local().Format("2006-01-02"),
			s.Start.Local().Format("15:04"),
			s.End.Local().Format("15:04"),
			formatMinutes(s.DurationMinutes),
			s.Name)
		shown++
	}

	if shown < len(sessions) {
		fmt.Fprintf(out, "\n%d of %d sessions shown\n", shown, len(sessions))
	}
	return nil
}
