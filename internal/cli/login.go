package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentwise/internal/client"
)

func newLoginCmd() *cobra.Command {
	var (
		server string
		key    string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key",
		Long: `Verify an API key against the server and store it for later commands.
Without --key the key is read from standard input.

Ask an administrator for your first key ("rw admin key <email>"), then
create more with "rw key create".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Paste your API key: ")
				var err error
				key, err = readKey(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}
			return runLogin(cmd.OutOrStdout(), server, key)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or http://localhost:8080)")
	cmd.Flags().StringVar(&key, "key", "", "API key to store")

	return cmd
}

func readKey(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runLogin(out io.Writer, serverFlag, key string) error {
	key = strings.TrimSpace(key)
	if err := validateAPIKey(key); err != nil {
		return err
	}

	serverURL := serverFlag
	if serverURL == "" {
		serverURL = getServerURL()
	}
	me, err := client.New(normalizeURL(serverURL), key).Me()
	if err != nil {
		return fmt.Errorf("checking key: %w", err)
	}

	// Load existing config to preserve other fields
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}

	cfg.APIKey = key
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintf(out, "✓ Logged in as %s (%s).\n", me.User.Email, me.User.Role)
	return nil
}

// validateAPIKey checks that the key is non-empty and has the expected prefix.
func validateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("no API key provided")
	}
	if !strings.HasPrefix(key, "rw_") {
		return fmt.Errorf("invalid API key format (should start with rw_)")
	}
	return nil
}
