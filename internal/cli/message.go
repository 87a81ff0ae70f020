package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rentwise/internal/client"
	"github.com/evcraddock/rentwise/internal/conversation"
)

func newMessageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "message <property-id> <text>",
		Short: "Message a property's owner",
		Long: `Send a message about a property to its owner, opening the conversation
if this is your first message. Tenants only.

Examples:
  rw message 3 "Is parking included?"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("property", args[0])
			if err != nil {
				return err
			}
			body := strings.Join(args[1:], " ")

			resp, err := newAPIClient().MessageProperty(id, body)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Message #%d sent in conversation #%d.\n", resp.Message.ID, resp.Conversation.ID)
			return nil
		},
	}
}

func newConversationsCmd() *cobra.Command {
	var opts client.ConversationOptions

	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"inbox"},
		Short:   "List your conversations",
		Long: `List your conversations, most recent activity first.

Examples:
  rw conversations --unread
  rw conversations --property 3 --search parking`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sums, err := newAPIClient().ListConversations(opts)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), sums)
			}
			return printConversationTable(cmd.OutOrStdout(), sums)
		},
	}

	cmd.Flags().Int64Var(&opts.PropertyID, "property", 0, "only conversations about this property")
	cmd.Flags().BoolVar(&opts.UnreadOnly, "unread", false, "only conversations with unread messages")
	cmd.Flags().StringVarP(&opts.Query, "search", "s", "", "match property title, counterpart name or last message")

	return cmd
}

func newThreadCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "thread <conversation-id>",
		Short: "Read a conversation",
		Long: `Print a conversation's messages and mark the ones sent to you as read.
With --follow, keep polling for new messages until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("conversation", args[0])
			if err != nil {
				return err
			}

			c := newAPIClient()
			me, err := c.Me()
			if err != nil {
				return err
			}
			thread, err := c.Thread(id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() && !follow {
				return printJSON(out, thread)
			}
			printThread(out, thread.Messages, me.User.ID)
			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			interval := time.Duration(me.PollIntervalSeconds) * time.Second
			return followThread(ctx, out, c, id, me.User.ID, lastID(thread.Messages), interval)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "poll for new messages")

	return cmd
}

// followThread prints messages newer than afterID every interval until ctx ends.
func followThread(ctx context.Context, out io.Writer, c *client.Client, id, selfID, afterID int64, interval time.Duration) error {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		thread, err := c.Thread(id)
		if err != nil {
			return err
		}
		var fresh []*conversation.Message
		for _, m := range thread.Messages {
			if m.ID > afterID {
				fresh = append(fresh, m)
			}
		}
		if len(fresh) > 0 {
			printThread(out, fresh, selfID)
			afterID = lastID(fresh)
		}
	}
}

func lastID(messages []*conversation.Message) int64 {
	if len(messages) == 0 {
		return 0
	}
	return messages[len(messages)-1].ID
}

func newReplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reply <conversation-id> <text>",
		Short: "Reply in a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("conversation", args[0])
			if err != nil {
				return err
			}
			body := strings.Join(args[1:], " ")

			msg, err := newAPIClient().Reply(id, body)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), msg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Message #%d sent.\n", msg.ID)
			return nil
		},
	}
}
