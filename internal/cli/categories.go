package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List RFP categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireRole(cmd.Context()); err != nil {
				return err
			}

			categories, err := client.ListCategories(cmd.Context())
			if err != nil {
				return describe("list categories", err)
			}

			out := cmd.OutOrStdout()
			if len(categories) == 0 {
				fmt.Fprintln(out, "No categories found.")
				return nil
			}

			fmt.Fprintf(out, "%-38s  %s\n", "ID", "NAME")
			fmt.Fprintf(out, "%-38s  %s\n", "--", "----")
			for _, c := range categories {
				fmt.Fprintf(out, "%-38s  %s\n", c.ID, c.Name)
			}
			return nil
		},
	}
}
