package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/garrettladley/inbox/internal/client/inbox"
	"github.com/garrettladley/inbox/internal/storage"
	"github.com/garrettladley/inbox/internal/xslog"
	"github.com/garrettladley/inbox/internal/xsync"
)

func countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of unread notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := xslog.NewLoggerFromEnv(os.Stderr)
			return withController(cmd.Context(), logger, func(_ clientDeps, c *xsync.Controller) error {
				count, err := c.FetchUnreadCount(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to fetch unread count: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), count)
				return nil
			})
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List unread notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := xslog.NewLoggerFromEnv(os.Stderr)
			return withController(cmd.Context(), logger, func(_ clientDeps, c *xsync.Controller) error {
				messages, err := c.FetchUnreadMessages(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to fetch unread messages: %w", err)
				}
				return printNotifications(cmd.OutOrStdout(), messages)
			})
		},
	}
}

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <serviceId>",
		Short: "Mark every notification of a service as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := xslog.NewLoggerFromEnv(os.Stderr)
			return withController(cmd.Context(), logger, func(_ clientDeps, c *xsync.Controller) error {
				if err := c.MarkAsRead(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d unread\n", c.UnreadCount())
				return nil
			})
		},
	}
}

func readAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := xslog.NewLoggerFromEnv(os.Stderr)
			return withController(cmd.Context(), logger, func(_ clientDeps, c *xsync.Controller) error {
				if err := c.MarkAllAsRead(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "0 unread")
				return nil
			})
		},
	}
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <recipientId> <serviceId> <message>",
		Short: "Send a notification to another user",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := xslog.NewLoggerFromEnv(os.Stderr)
			d, err := newClientDeps(logger)
			if err != nil {
				return err
			}

			n, err := d.api.Send(cmd.Context(), d.session, inbox.SendRequest{
				RecipientID: args[0],
				ServiceID:   args[1],
				Message:     strings.Join(args[2:], " "),
			})
			if err != nil {
				return fmt.Errorf("failed to send notification: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", n.ID)
			return nil
		},
	}
}

func printNotifications(w io.Writer, messages []storage.Notification) error {
	if len(messages) == 0 {
		_, err := fmt.Fprintln(w, "nothing unread")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tFROM\tRECEIVED\tMESSAGE")
	for _, n := range messages {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			n.ServiceID,
			n.SenderID,
			n.CreatedAt.Local().Format(time.DateTime),
			strings.Join(strings.Fields(n.Message), " "),
		)
	}
	return tw.Flush()
}
