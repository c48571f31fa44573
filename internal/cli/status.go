package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show published post count and pending failed runs",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, _, ctx, cancel, err := newApp()
	if err != nil {
		return err
	}
	defer cancel()
	defer stopApp(app)

	st, err := app.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("posts: %d, pending failed runs: %d\n", st.Posts, len(st.Pending))
	if len(st.Pending) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tSTAGE\tKIND\tRETRIES\tLAST ATTEMPT\tERROR")
	for _, item := range st.Pending {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			item.ID,
			item.Stage,
			item.Kind,
			item.RetryCount,
			time.Unix(int64(item.LastAttempt), 0).Format(time.RFC3339),
			item.Error,
		)
	}
	_ = w.Flush()
	return nil
}
