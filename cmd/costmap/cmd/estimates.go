package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/buildmetric/costmap/pkg/smeta"
)

var estimatesCmd = &cobra.Command{
	Use:   "estimates",
	Short: "Read and write cost estimates",
}

var estimatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List estimates visible to the current user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		estimates, err := client.API().ListEstimates(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNUMBER\tPROJECT\tSTATUS\tFOREMAN\tCREATED")
		for _, e := range estimates {
			created := ""
			if !e.CreatedAt.IsZero() {
				created = humanize.Time(e.CreatedAt)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				e.EstimateID, e.EstimateNumber, e.ProjectName,
				e.StatusName, e.ForemanName, created)
		}
		return w.Flush()
	},
}

var estimatesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one estimate with its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid estimate id %q", args[0])
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		e, err := client.API().GetEstimate(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Estimate %s (#%d)\n", e.EstimateNumber, e.EstimateID)
		fmt.Fprintf(out, "Project: %s  Status: %s  Foreman: %s\n",
			e.ProjectName, e.StatusName, e.ForemanName)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WORK\tQTY\tUNIT COST\tTOTAL COST\tTOTAL CLIENT")
		var cost, clientTotal float64
		for _, item := range e.Items {
			cost += item.TotalCost
			clientTotal += item.TotalClient
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\n",
				item.WorkName, item.Quantity, item.UnitCostPrice,
				item.TotalCost, item.TotalClient)
		}
		fmt.Fprintf(w, "TOTAL\t\t\t%.2f\t%.2f\n", cost, clientTotal)
		return w.Flush()
	},
}

var estimateUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an estimate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid estimate id %q", args[0])
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		// Fetch, apply the provided flags, write back.
		current, err := client.API().GetEstimate(cmd.Context(), id)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("number") {
			current.EstimateNumber = estimateNumber
		}
		if cmd.Flags().Changed("project") {
			current.ProjectID = estimateProject
		}
		if cmd.Flags().Changed("foreman") {
			current.ForemanID = estimateForeman
		}

		updated, err := client.Writer().UpdateEstimate(cmd.Context(), *current)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated estimate %d (%s)\n",
			updated.EstimateID, updated.EstimateNumber)
		return nil
	},
}

var estimateDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an estimate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid estimate id %q", args[0])
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Writer().DeleteEstimate(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted estimate %d\n", id)
		return nil
	},
}

var (
	estimateNumber  string
	estimateProject int
	estimateForeman int
)

var estimateCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an estimate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		created, err := client.Writer().CreateEstimate(cmd.Context(), smeta.Estimate{
			EstimateNumber: estimateNumber,
			ProjectID:      estimateProject,
			ForemanID:      estimateForeman,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created estimate %d (%s)\n",
			created.EstimateID, created.EstimateNumber)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{estimateCreateCmd, estimateUpdateCmd} {
		c.Flags().StringVar(&estimateNumber, "number", "", "estimate number")
		c.Flags().IntVar(&estimateProject, "project", 0, "project id")
		c.Flags().IntVar(&estimateForeman, "foreman", 0, "foreman user id")
	}
	_ = estimateCreateCmd.MarkFlagRequired("project")

	estimatesCmd.AddCommand(estimatesListCmd, estimatesGetCmd,
		estimateCreateCmd, estimateUpdateCmd, estimateDeleteCmd)
	rootCmd.AddCommand(estimatesCmd)
}
