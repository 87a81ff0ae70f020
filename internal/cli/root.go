// Package cli defines the cobra command tree for rentwise.
package cli

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentwise/internal/client"
	"github.com/evcraddock/rentwise/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rw",
		Short:         "Talk to tenants and schedule property visits",
		Long:          "A rental marketplace tool. Tenants message owners about properties and request visits; owners reply and confirm, cancel or complete those visits.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path for serve and admin (default: $RW_DB or ~/.rentwise/rentwise.db)")

	root.AddCommand(
		newMeCmd(),
		newDashboardCmd(),
		newPropertyCmd(),
		newMessageCmd(),
		newConversationsCmd(),
		newThreadCmd(),
		newReplyCmd(),
		newVisitCmd(),
		newVisitsCmd(),
		newKeyCmd(),
		newAdminCmd(),
		newServeCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag, $RW_DB or the default path.
// Used by serve and admin, which work on the database directly.
func openDB() (*sql.DB, error) {
	path := flagDB
	if path == "" {
		path = os.Getenv("RW_DB")
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the rentwise API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

// parseIDArg parses a positive numeric ID argument.
func parseIDArg(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", kind, s)
	}
	return id, nil
}
