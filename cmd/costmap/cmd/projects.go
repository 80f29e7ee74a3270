package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/buildmetric/costmap/pkg/smeta"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Read and write construction projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		projects, err := client.API().ListProjects(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tADDRESS")
		for _, p := range projects {
			fmt.Fprintf(w, "%d\t%s\t%s\n", p.ProjectID, p.ProjectName, p.Address)
		}
		return w.Flush()
	},
}

var (
	projectName    string
	projectAddress string
)

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		created, err := client.Writer().CreateProject(cmd.Context(), smeta.Project{
			ProjectName: projectName,
			Address:     projectAddress,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created project %d (%s)\n",
			created.ProjectID, created.ProjectName)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid project id %q", args[0])
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Writer().DeleteProject(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted project %d\n", id)
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectName, "name", "", "project name")
	projectCreateCmd.Flags().StringVar(&projectAddress, "address", "", "project address")
	_ = projectCreateCmd.MarkFlagRequired("name")

	projectsCmd.AddCommand(projectsListCmd, projectCreateCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}
