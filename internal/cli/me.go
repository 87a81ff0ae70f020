package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := newAPIClient().Me()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, me)
			}
			fmt.Fprintf(out, "%s <%s>\n", me.User.Name, me.User.Email)
			fmt.Fprintf(out, "  Role: %s\n", me.User.Role)
			fmt.Fprintf(out, "  ID:   %d\n", me.User.ID)
			return nil
		},
	}
}

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show conversation and visit counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := newAPIClient().Dashboard()
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(cmd.OutOrStdout(), sum)
			}
			printDashboard(cmd.OutOrStdout(), sum)
			return nil
		},
	}
}
