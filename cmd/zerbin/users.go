package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zerbin/internal/cli"
	"github.com/Veraticus/zerbin/internal/model"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage reporting users",
	}

	cmd.AddCommand(usersAddCmd())
	cmd.AddCommand(usersListCmd())
	cmd.AddCommand(usersShowCmd())
	cmd.AddCommand(usersGrantCmd())

	return cmd
}

func usersAddCmd() *cobra.Command {
	var email string
	var admin bool

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				user := &model.User{Username: args[0], Email: email, Role: model.RoleCitizen}
				if admin {
					user.Role = model.RoleAdmin
				}
				if err := a.store.CreateUser(cmd.Context(), user); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created user %s (id %d)", user.Username, user.ID)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "contact email")
	cmd.Flags().BoolVar(&admin, "admin", false, "create an operator account")

	return cmd
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users and their balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				users, err := a.store.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(users) == 0 {
					fmt.Fprintln(out, cli.InfoStyle.Render("No users yet. Use 'zerbin users add' to create one."))
					return nil
				}

				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Username, string(u.Role), strconv.Itoa(u.Points)})
				}
				fmt.Fprintln(out, cli.RenderTable([]string{"ID", "Username", "Role", "Points"}, rows))
				return nil
			})
		},
	}
}

func usersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's balance and point history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				ctx := cmd.Context()
				user, err := a.store.GetUser(ctx, id)
				if err != nil {
					return err
				}
				history, err := a.ledger.History(ctx, id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.RenderBox(user.Username, fmt.Sprintf("Points: %d\nRole:   %s", user.Points, user.Role)))
				if len(history) == 0 {
					return nil
				}

				rows := make([][]string, 0, len(history))
				for _, e := range history {
					report := "-"
					if e.ReportID != nil {
						report = strconv.FormatInt(*e.ReportID, 10)
					}
					rows = append(rows, []string{
						e.CreatedAt.Format("2006-01-02 15:04"),
						string(e.Event),
						report,
						fmt.Sprintf("+%d", e.Points),
						strconv.Itoa(e.BalanceAfter),
					})
				}
				fmt.Fprintln(out, cli.RenderTable([]string{"When", "Event", "Report", "Points", "Balance"}, rows))
				return nil
			})
		},
	}
}

func usersGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <user-id> <points>",
		Short: "Credit points manually",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			points, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid points %q", args[1])
			}
			return withApp(cmd.Context(), func(a *app) error {
				result, err := a.ledger.Grant(cmd.Context(), id, points)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Granted %d points, balance now %d", result.Points, result.Balance)))
				return nil
			})
		},
	}
}
