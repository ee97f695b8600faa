package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zerbin/internal/cli"
)

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Read users' report notifications",
	}

	cmd.AddCommand(notificationsListCmd())
	cmd.AddCommand(notificationsReadCmd())

	return cmd
}

func notificationsListCmd() *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "list <user-id>",
		Short: "List a user's notifications, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				list, err := a.store.ListNotifications(cmd.Context(), userID, unread)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, cli.InfoStyle.Render("No notifications."))
					return nil
				}
				for _, n := range list {
					marker := cli.BoldStyle.Render("●")
					if n.IsRead {
						marker = cli.SubtleStyle.Render("○")
					}
					fmt.Fprintf(out, "%s [%d] %s  %s\n   %s\n", marker, n.ID, cli.BoldStyle.Render(n.Title),
						cli.SubtleStyle.Render(n.CreatedAt.Format("2006-01-02 15:04")), n.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")

	return cmd
}

func notificationsReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <user-id> [notification-id...]",
		Short: "Mark notifications read (all unread when no ids are given)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			ids := make([]int64, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, err := parseID(arg, "notification")
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			return withApp(cmd.Context(), func(a *app) error {
				n, err := a.store.MarkNotificationsRead(cmd.Context(), userID, ids)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Marked %d notifications read", n)))
				return nil
			})
		},
	}
}
