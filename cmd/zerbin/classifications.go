package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zerbin/internal/cli"
)

func classificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classifications",
		Short: "Manage authoritative waste classifications",
		Long: `Stored classifications override the built-in ranking of a waste type.
The priority follows from how long the waste takes to decompose.`,
	}

	cmd.AddCommand(classificationsListCmd())
	cmd.AddCommand(classificationsAddCmd())

	return cmd
}

func classificationsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored classifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				list, err := a.reports.Classifications(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, cli.InfoStyle.Render("No classifications stored; built-in rankings apply."))
					return nil
				}

				rows := make([][]string, 0, len(list))
				for _, c := range list {
					rows = append(rows, []string{c.WasteType, cli.FormatPriority(c.PriorityLevel), strconv.Itoa(c.DecompositionDays), c.Description})
				}
				fmt.Fprintln(out, cli.RenderTable([]string{"Type", "Priority", "Days", "Description"}, rows))
				return nil
			})
		},
	}
}

func classificationsAddCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add <waste-type> <decomposition-days>",
		Short: "Add a classification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid decomposition days %q", args[1])
			}
			return withApp(cmd.Context(), func(a *app) error {
				c, err := a.reports.AddClassification(cmd.Context(), args[0], description, days)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s with priority %s", c.WasteType, cli.FormatPriority(c.PriorityLevel))))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "why this type matters")

	return cmd
}
