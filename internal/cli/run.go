package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	runPrompt  string
	runCaption string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and publish a single post",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runPrompt, "prompt", "", "prompt text (default: rendered preset)")
	runCmd.Flags().StringVar(&runCaption, "caption", "", "post caption (default: prompt.caption)")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	app, cfg, ctx, cancel, err := newApp()
	if err != nil {
		return err
	}
	defer cancel()
	defer stopApp(app)

	item, err := presetItem(cfg, runPrompt, runCaption)
	if err != nil {
		return err
	}

	out := app.RunOne(ctx, item)
	if out.Failed() {
		return out.Err
	}

	slog.Info("Post published", "record_id", out.Result.RecordID, "media_ref", out.Result.MediaRef)
	fmt.Fprintln(cmd.OutOrStdout(), out.Result.RecordID)
	return nil
}

