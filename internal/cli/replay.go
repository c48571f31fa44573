package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var replayLimit int

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay failed runs whose backoff has elapsed",
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().IntVar(&replayLimit, "limit", 0, "maximum replays (0 = until nothing is due)")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	app, _, ctx, cancel, err := newApp()
	if err != nil {
		return err
	}
	defer cancel()
	defer stopApp(app)

	sum, err := app.Replay(ctx, replayLimit)
	if err != nil {
		slog.Error("Replay stopped", "error", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "resolved: %d, failed: %d, ignored: %d\n", sum.Resolved, sum.Failed, sum.Ignored)
	return err
}
