package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentwise/internal/auth"
	"github.com/evcraddock/rentwise/internal/identity"
	"github.com/evcraddock/rentwise/internal/property"
)

// newAdminCmd groups commands that work on the database directly, for
// bootstrapping users and their first API keys.
func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage users, keys and properties in the local database",
		Long: `Manage users, keys and properties directly in the SQLite database.
These commands do not go through the API server; use --db to pick the database.`,
	}

	user := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	user.AddCommand(newAdminUserAddCmd(), newAdminUserListCmd(), newAdminUserRemoveCmd())

	prop := &cobra.Command{
		Use:   "property",
		Short: "Manage listings",
	}
	prop.AddCommand(newAdminPropertyAddCmd(), newAdminPropertyStatusCmd(), newAdminPropertyRemoveCmd())

	cmd.AddCommand(user, prop, newAdminKeyCmd())
	return cmd
}

func newAdminUserAddCmd() *cobra.Command {
	var (
		name string
		role string
	)

	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Add a user",
		Long: `Add a user with the owner or tenant role.

Examples:
  rw admin user add olivia@example.com --name Olivia --role owner
  rw admin user add tess@example.com --name Tess --role tenant`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			u, err := auth.NewUserStore(d).Add(cmd.Context(), args[0], name, identity.Role(role))
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User #%d added: %s (%s)\n", u.ID, u.Email, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(identity.RoleTenant), "owner or tenant")

	return cmd
}

func newAdminUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			users, err := auth.NewUserStore(d).List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, users)
			}
			if len(users) == 0 {
				fmt.Fprintln(out, "No users.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			if _, err := fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE"); err != nil {
				return fmt.Errorf("writing table header: %w", err)
			}
			for _, u := range users {
				if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role); err != nil {
					return fmt.Errorf("writing table row: %w", err)
				}
			}
			return w.Flush()
		},
	}
}

func newAdminKeyCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "key <email>",
		Short: "Issue an API key for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			u, err := auth.NewUserStore(d).GetByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			raw, key, err := auth.NewAPIKeyStore(d).Create(cmd.Context(), u.ID, name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, map[string]interface{}{"key": raw, "api_key": key})
			}
			fmt.Fprintf(out, "Key #%d for %s:\n\n  %s\n\nIt will not be shown again.\n", key.ID, u.Email, raw)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "label for the key")

	return cmd
}

func newAdminUserRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <email>",
		Short: "Remove a user and their API keys",
		Long:  "Remove a user and their API keys. Users who still own properties or take part in conversations or visits cannot be removed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			users := auth.NewUserStore(d)
			u, err := users.GetByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := users.Delete(cmd.Context(), u.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User #%d removed: %s\n", u.ID, u.Email)
			return nil
		},
	}
}

func newAdminPropertyAddCmd() *cobra.Command {
	var (
		owner   string
		address string
		price   int64
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "List a property on behalf of an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			u, err := auth.NewUserStore(d).GetByEmail(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if !u.Principal().IsOwner() {
				return fmt.Errorf("%s is a %s, not an owner", u.Email, u.Role)
			}

			p := &property.Property{OwnerID: u.ID, Title: args[0], Address: address}
			if cmd.Flags().Changed("price") {
				p.Price = &price
			}
			p, err = property.NewRepository(d).Insert(cmd.Context(), p)
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

	cmd.Flags().StringVar(&owner, "owner", "", "owner's email")
	cmd.Flags().StringVar(&address, "address", "", "street address")
	cmd.Flags().Int64Var(&price, "price", 0, "monthly rent in dollars")
	cobra.CheckErr(cmd.MarkFlagRequired("owner"))

	return cmd
}

func newAdminPropertyStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set a property's listing status (e.g. active, rented)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("property", args[0])
			if err != nil {
				return err
			}
			d, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			repo := property.NewRepository(d)
			if err := repo.UpdateStatus(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			p, err := repo.GetByID(cmd.Context(), id)
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

func newAdminPropertyRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a property with its conversations and visit requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("property", args[0])
			if err != nil {
				return err
			}
			d, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(d)

			if err := property.NewRepository(d).Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Property #%d removed.\n", id)
			return nil
		},
	}
}
