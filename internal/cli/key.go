package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"keys"},
		Short:   "Manage your API keys",
	}
	cmd.AddCommand(newKeyListCmd(), newKeyCreateCmd(), newKeyDeleteCmd())
	return cmd
}

func newKeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := newAPIClient().ListKeys()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, keys)
			}
			if len(keys) == 0 {
				fmt.Fprintln(out, "No API keys.")
				return nil
			}

			now := time.Now()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			if _, err := fmt.Fprintln(w, "ID\tNAME\tPREFIX\tCREATED\tLAST USED"); err != nil {
				return fmt.Errorf("writing table header: %w", err)
			}
			for _, k := range keys {
				used := "never"
				if k.LastUsedAt != nil {
					used = formatAge(*k.LastUsedAt, now)
				}
				if _, err := fmt.Fprintf(w, "%d\t%s\t%s…\t%s\t%s\n",
					k.ID, k.Name, k.KeyPrefix, k.CreatedAt.Local().Format(timeFormat), used); err != nil {
					return fmt.Errorf("writing table row: %w", err)
				}
			}
			return w.Flush()
		},
	}
}

func newKeyCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new API key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			resp, err := newAPIClient().CreateKey(name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, resp)
			}
			fmt.Fprintf(out, "Created key #%d (%s):\n\n  %s\n\nIt will not be shown again.\n", resp.APIKey.ID, resp.APIKey.Name, resp.Key)
			return nil
		},
	}
}

func newKeyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Revoke one of your API keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("key", args[0])
			if err != nil {
				return err
			}
			if err := newAPIClient().DeleteKey(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Key #%d revoked.\n", id)
			return nil
		},
	}
}
