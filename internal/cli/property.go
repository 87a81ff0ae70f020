package cli

import (
	"github.com/spf13/cobra"
)

func newPropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "property",
		Aliases: []string{"properties"},
		Short:   "Manage and view properties",
	}
	cmd.AddCommand(newPropertyAddCmd(), newPropertyListCmd(), newPropertyShowCmd())
	return cmd
}

func newPropertyAddCmd() *cobra.Command {
	var (
		address string
		price   int64
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "List a new property you own",
		Long: `List a new property you own. Owners only.

Examples:
  rw property add "Sunny loft" --address "12 Elm St" --price 1450`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pricePtr *int64
			if cmd.Flags().Changed("price") {
				pricePtr = &price
			}

			p, err := newAPIClient().AddProperty(args[0], address, pricePtr)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), p)
			}
			printProperty(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "street address")
	cmd.Flags().Int64Var(&price, "price", 0, "monthly rent in dollars")

	return cmd
}

func newPropertyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the properties you own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := newAPIClient().ListProperties()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), props)
			}
			return printPropertyTable(cmd.OutOrStdout(), props)
		},
	}
}

func newPropertyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("property", args[0])
			if err != nil {
				return err
			}

			p, err := newAPIClient().GetProperty(id)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), p)
			}
			printProperty(cmd.OutOrStdout(), p)
			return nil
		},
	}
}
