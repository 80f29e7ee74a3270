package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/buildmetric/costmap/pkg/events"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live change events from the backend",
	Long: `Connects to the server-push endpoint and prints every change event
as it arrives, until interrupted. Reconnects automatically on drops.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		listener := events.NewListenerID("watch")
		for _, t := range events.Registry {
			client.Bus().Subscribe(t, listener, func(e events.Event) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\n",
					e.Metadata.Timestamp.Format(time.TimeOnly),
					e.Type, e.Origin, e.Data)
				w.Flush()
			})
		}

		if err := client.Connect(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "watching for events, ctrl-c to stop")

		<-cmd.Context().Done()

		stats := client.Push().GetStats()
		fmt.Fprintf(os.Stderr, "received %d events, %d reconnects\n",
			stats.Received, stats.Reconnects)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
