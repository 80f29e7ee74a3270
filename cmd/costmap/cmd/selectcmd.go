package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/buildmetric/costmap/pkg/selection"
)

// selectionFile is the YAML shape of a saved work-item selection.
type selectionFile struct {
	Screen     string `yaml:"screen"`
	EstimateID int    `yaml:"estimate_id"`
	Items      []struct {
		WorkTypeID      int     `yaml:"work_type_id"`
		WorkName        string  `yaml:"work_name"`
		Quantity        float64 `yaml:"quantity"`
		UnitCostPrice   float64 `yaml:"unit_cost_price"`
		UnitClientPrice float64 `yaml:"unit_client_price"`
	} `yaml:"items"`
}

var selectCmd = &cobra.Command{
	Use:   "select <file.yaml>...",
	Short: "Merge work-item selection files and print the result",
	Long: `Reads one or more YAML selection files, merges them with the same
first-pick-wins semantics the estimate form uses, and prints the combined
items with cost and client totals.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := selection.Store{}
		var scope selection.Scope

		for _, path := range args {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			var file selectionFile
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}

			scope = selection.EstimateScope(file.Screen, file.EstimateID)
			items := make([]selection.Item, 0, len(file.Items))
			for _, it := range file.Items {
				items = append(items, selection.Item{
					WorkTypeID:      it.WorkTypeID,
					WorkName:        it.WorkName,
					Quantity:        it.Quantity,
					UnitCostPrice:   it.UnitCostPrice,
					UnitClientPrice: it.UnitClientPrice,
				})
			}
			store = selection.Add(store, scope, items)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WORK\tQTY\tCOST\tCLIENT")
		for _, item := range selection.Read(store, scope) {
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\n",
				item.WorkName, item.Quantity, item.TotalCost, item.TotalClient)
		}
		cost, client := selection.Totals(store, scope)
		fmt.Fprintf(w, "TOTAL\t\t%.2f\t%.2f\n", cost, client)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
}
