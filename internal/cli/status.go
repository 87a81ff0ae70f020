package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentwise/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the server and checks if the stored API key is valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

func runStatus(out io.Writer) error {
	server := serverURLSetting()
	key := apiKeySetting()
	serverURL, apiKey := server.Value, key.Value

	fmt.Fprintf(out, "Server:  %s (%s)\n", serverURL, server.Source)

	if apiKey == "" {
		fmt.Fprintln(out, "API Key: not configured")
		fmt.Fprintln(out, "\nRun 'rw login' to authenticate.")
		return nil
	}

	prefix := apiKey
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	fmt.Fprintf(out, "API Key: %s… (%s)\n", prefix, key.Source)

	me, err := client.New(serverURL, apiKey).Me()
	var apiErr *client.APIError
	switch {
	case err == nil:
		fmt.Fprintf(out, "Status:  ✓ connected as %s (%s)\n", me.User.Email, me.User.Role)
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
		fmt.Fprintln(out, "Status:  ✗ invalid API key")
		fmt.Fprintln(out, "\nRun 'rw login' to re-authenticate.")
	case errors.As(err, &apiErr):
		fmt.Fprintf(out, "Status:  ✗ unexpected response (%d)\n", apiErr.StatusCode)
	default:
		fmt.Fprintf(out, "Status:  ✗ cannot reach server (%v)\n", err)
	}

	return nil
}
