package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/genpost/internal/core/domain"
)

var (
	batchItemsPath   string
	batchCount       int
	batchConcurrency int
	batchCaption     string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate and publish many posts concurrently",
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchItemsPath, "items", "", "YAML file with a list of {prompt, caption} items")
	batchCmd.Flags().IntVar(&batchCount, "count", 0, "run N copies of the preset prompt")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "worker count (default: batch.concurrency)")
	batchCmd.Flags().StringVar(&batchCaption, "caption", "", "caption for items without one")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchItemsPath == "" && batchCount <= 0 {
		return errors.New("either --items or --count is required")
	}

	app, cfg, ctx, cancel, err := newApp()
	if err != nil {
		return err
	}
	defer cancel()
	defer stopApp(app)

	var items []domain.BatchItem
	if batchItemsPath != "" {
		items, err = loadItems(batchItemsPath, defaultCaption(cfg, batchCaption))
	} else {
		var item domain.BatchItem
		item, err = presetItem(cfg, "", batchCaption)
		items = repeatItem(item, batchCount)
	}
	if err != nil {
		return err
	}

	app.Start(ctx)
	if cfg.Server.Port > 0 {
		app.Serve()
	}

	res := app.RunBatch(ctx, items, batchConcurrency)
	printBatch(res)

	if res.Failed() > 0 {
		return fmt.Errorf("%d of %d items failed", res.Failed(), len(res.Outcomes))
	}
	return nil
}

func printBatch(res domain.BatchResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "#\tRESULT\tRECORD / ERROR")
	for i, out := range res.Outcomes {
		if out.Succeeded() {
			_, _ = fmt.Fprintf(w, "%d\tok\t%s\n", i, out.Result.RecordID)
			continue
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%v\n", i, out.Err.Kind, out.Err)
	}
	_ = w.Flush()
	fmt.Printf("succeeded: %d, failed: %d\n", res.Succeeded(), res.Failed())
}
