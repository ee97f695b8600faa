package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zerbin/internal/cli"
	"github.com/Veraticus/zerbin/internal/common"
)

func rewardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Manage the rewards catalog and redemptions",
	}

	cmd.AddCommand(rewardsListCmd())
	cmd.AddCommand(rewardsAddCmd())
	cmd.AddCommand(rewardsRedeemCmd())
	cmd.AddCommand(rewardsWalletCmd())

	return cmd
}

func rewardsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rewards, cheapest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				list, err := a.catalog.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, cli.InfoStyle.Render("The catalog is empty. Use 'zerbin rewards add' to stock it."))
					return nil
				}

				rows := make([][]string, 0, len(list))
				for _, r := range list {
					rows = append(rows, []string{strconv.FormatInt(r.ID, 10), r.Name, strconv.Itoa(r.PointsRequired), r.Description})
				}
				fmt.Fprintln(out, cli.RenderTable([]string{"ID", "Reward", "Points", "Description"}, rows))
				return nil
			})
		},
	}
}

func rewardsAddCmd() *cobra.Command {
	var description, image string

	cmd := &cobra.Command{
		Use:   "add <name> <points>",
		Short: "Add a reward to the catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cost, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid points %q", args[1])
			}
			return withApp(cmd.Context(), func(a *app) error {
				reward, err := a.catalog.Create(cmd.Context(), args[0], description, cost, image)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added reward %d: %s for %d points", reward.ID, reward.Name, reward.PointsRequired)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "reward description")
	cmd.Flags().StringVar(&image, "image", "", "image URL")

	return cmd
}

func rewardsRedeemCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "redeem <user-id> <reward-id>",
		Short: "Exchange a user's points for a reward",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			rewardID, err := parseID(args[1], "reward")
			if err != nil {
				return err
			}

			return withApp(cmd.Context(), func(a *app) error {
				ctx := cmd.Context()
				out := cmd.OutOrStdout()

				if !yes {
					reward, err := a.store.GetReward(ctx, rewardID)
					if err != nil {
						return err
					}
					question := fmt.Sprintf("Redeem %q for %d points?", reward.Name, reward.PointsRequired)
					ok, err := cli.Confirm(ctx, cli.NewLineReader(cmd.InOrStdin()), out, question)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(out, cli.SubtleStyle.Render("Cancelled."))
						return nil
					}
				}

				record, err := a.catalog.Redeem(ctx, userID, rewardID)
				if errors.Is(err, common.ErrInsufficientPoints) {
					fmt.Fprintln(out, cli.FormatError(common.Describe(err)))
				}
				if err != nil {
					return err
				}

				body := fmt.Sprintf("Code:    %s\nCost:    %d points\nBalance: %d\n\n%s",
					record.Code, record.PointCost, record.UserPoints, record.PickupMessage)
				fmt.Fprintln(out, cli.RenderBox(cli.GiftIcon+" "+record.RewardName, body))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func rewardsWalletCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wallet <user-id>",
		Short: "Show a user's balance and what it can buy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				ctx := cmd.Context()
				wallet, err := a.catalog.Wallet(ctx, userID)
				if err != nil {
					return err
				}
				redemptions, err := a.catalog.Redemptions(ctx, userID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%d points", wallet.Points)))
				if len(wallet.Affordable) == 0 {
					fmt.Fprintln(out, cli.SubtleStyle.Render("Nothing redeemable yet."))
				} else {
					rows := make([][]string, 0, len(wallet.Affordable))
					for _, r := range wallet.Affordable {
						rows = append(rows, []string{strconv.FormatInt(r.ID, 10), r.Name, strconv.Itoa(r.PointsRequired)})
					}
					fmt.Fprintln(out, cli.RenderTable([]string{"ID", "Redeemable", "Points"}, rows))
				}
				if wallet.Next != nil {
					fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d more points for %s", wallet.Next.PointsRequired-wallet.Points, wallet.Next.Name)))
				}
				if len(redemptions) > 0 {
					fmt.Fprintln(out)
					rows := make([][]string, 0, len(redemptions))
					for _, r := range redemptions {
						rows = append(rows, []string{r.RedeemedAt.Format("2006-01-02"), r.RewardName, r.Code})
					}
					fmt.Fprintln(out, cli.RenderTable([]string{"Redeemed", "Reward", "Code"}, rows))
				}
				return nil
			})
		},
	}
}
