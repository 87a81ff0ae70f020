package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentwise/internal/client"
	"github.com/evcraddock/rentwise/internal/visit"
)

func newVisitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visit",
		Short: "Request and manage property visits",
		Long: `Request and manage property visits.

Tenants request visits and may cancel them. Owners confirm, cancel or
complete requests for their properties. Finished requests (completed or
canceled) can be deleted by either party.`,
	}

	cmd.AddCommand(newVisitRequestCmd(), newVisitShowCmd())
	for _, action := range visit.Actions {
		cmd.AddCommand(newVisitActionCmd(action))
	}
	return cmd
}

func newVisitRequestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request <property-id> <when>",
		Short: "Ask to visit a property",
		Long: `Ask to visit a property.

When format: YYYY-MM-DDTHH:MM (UTC) or RFC 3339

Examples:
  rw visit request 3 2026-11-02T10:30
  rw visit request 3 2026-11-02T10:30:00-05:00`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("property", args[0])
			if err != nil {
				return err
			}

			v, err := newAPIClient().RequestVisit(id, args[1])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			printVisit(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newVisitShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a visit request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("visit", args[0])
			if err != nil {
				return err
			}

			v, err := newAPIClient().GetVisit(id)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			printVisit(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

var actionHelp = map[visit.Action]string{
	visit.ActionConfirm:  "Confirm a pending visit request (owner)",
	visit.ActionCancel:   "Cancel a pending or confirmed visit request",
	visit.ActionComplete: "Mark a confirmed visit as completed (owner)",
	visit.ActionDelete:   "Delete a completed or canceled visit request",
}

func newVisitActionCmd(action visit.Action) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <id>",
		Short: actionHelp[action],
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("visit", args[0])
			if err != nil {
				return err
			}

			v, err := newAPIClient().ApplyVisit(id, action)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if v == nil {
				if isJSON() {
					return printJSON(out, map[string]interface{}{"id": id, "deleted": true})
				}
				fmt.Fprintf(out, "Visit #%d deleted.\n", id)
				return nil
			}
			if isJSON() {
				return printJSON(out, v)
			}
			printVisit(out, v)
			return nil
		},
	}
}

func newVisitsCmd() *cobra.Command {
	var opts client.VisitOptions

	cmd := &cobra.Command{
		Use:   "visits",
		Short: "List your visit requests",
		Long: `List visit requests you made (tenant) or received (owner), latest visit
date first, with per-status counts.

Examples:
  rw visits --status pending
  rw visits --from 2026-11-01 --to 2026-11-30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newAPIClient().ListVisits(opts)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return printVisitTable(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "pending, confirmed, completed or canceled")
	cmd.Flags().Int64Var(&opts.PropertyID, "property", 0, "only requests for this property")
	cmd.Flags().StringVar(&opts.From, "from", "", "earliest visit date (inclusive)")
	cmd.Flags().StringVar(&opts.To, "to", "", "latest visit date (inclusive)")

	return cmd
}
