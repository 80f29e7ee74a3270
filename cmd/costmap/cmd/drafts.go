package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/buildmetric/costmap/internal/config"
	"github.com/buildmetric/costmap/pkg/draft"
	"github.com/buildmetric/costmap/pkg/draft/sqlitestore"
	"github.com/buildmetric/costmap/pkg/errors"
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect locally persisted form drafts",
}

// openDraftStore opens the configured draft database. Expired drafts are
// pruned as a side effect of opening.
func openDraftStore() (*sqlitestore.Store, error) {
	path := config.DraftDB()
	if path == "" {
		return nil, errors.New("no draft database configured, set COSTMAP_DRAFTS_DB")
	}
	return sqlitestore.Open(path)
}

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved drafts and their ages",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openDraftStore()
		if err != nil {
			return err
		}
		defer store.Close()

		snapshots, err := store.List()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ENTITY\tITEMS\tCAPTURED")
		for _, s := range snapshots {
			fmt.Fprintf(w, "%s\t%d\t%s\n",
				s.Entity.Key(), len(s.Selection), humanize.Time(s.CapturedAt))
		}
		return w.Flush()
	},
}

var draftsDiscardCmd = &cobra.Command{
	Use:   "discard <id|new>",
	Short: "Delete a saved draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var entity draft.EntityRef
		if args[0] == "new" {
			entity = draft.NewEntity()
		} else {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid draft reference %q", args[0])
			}
			entity = draft.ExistingEntity(id)
		}

		store, err := openDraftStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(entity); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "discarded %s\n", entity.Key())
		return nil
	},
}

func init() {
	draftsCmd.AddCommand(draftsListCmd, draftsDiscardCmd)
	rootCmd.AddCommand(draftsCmd)
}
