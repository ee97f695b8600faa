package main

import (
	"fmt"
	"strconv"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/zerbin/internal/cli"
	"github.com/Veraticus/zerbin/internal/model"
)

func priorityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "priority",
		Short: "Recalculate and inspect report priorities",
	}

	cmd.AddCommand(priorityRecalcCmd())
	cmd.AddCommand(priorityStatsCmd())
	cmd.AddCommand(priorityInfoCmd())

	return cmd
}

func priorityRecalcCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "recalc",
		Short: "Rescore every open report",
		Long: `Rescore every report that is not yet closed against the current time
and store the priorities that changed. Safe to interrupt and rerun.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			handler := cli.NewInterruptHandler(out, "Finished reports are saved. Run 'zerbin priority recalc' again to continue.")
			ctx, stop := handler.HandleInterrupts(cmd.Context())
			defer stop()

			return withApp(ctx, func(a *app) error {
				var bar *progressbar.ProgressBar
				progress := func(done, total int) {
					if quiet {
						return
					}
					if bar == nil {
						bar = progressbar.NewOptions(total,
							progressbar.OptionSetWriter(out),
							progressbar.OptionEnableColorCodes(true),
							progressbar.OptionShowCount(),
							progressbar.OptionSetWidth(40),
							progressbar.OptionSetDescription("[cyan][bold]Rescoring reports...[reset]"),
							progressbar.OptionSetTheme(progressbar.Theme{
								Saucer:        "[green]=[reset]",
								SaucerHead:    "[green]>[reset]",
								SaucerPadding: " ",
								BarStart:      "[",
								BarEnd:        "]",
							}),
							progressbar.OptionOnCompletion(func() {
								fmt.Fprintln(out)
							}),
						)
					}
					_ = bar.Set(done)
				}

				result, err := a.reports.Recalculate(ctx, progress)
				if err != nil {
					if handler.WasInterrupted() && result != nil {
						fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Checked %d reports before stopping, updated %d", result.TotalChecked, result.Updated)))
					}
					return err
				}

				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Checked %d reports, updated %d", result.TotalChecked, result.Updated)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")

	return cmd
}

func priorityStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count reports by priority and status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				stats, err := a.reports.Stats(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatTitle("Open reports by priority"))
				var rows [][]string
				for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
					rows = append(rows, []string{cli.FormatPriority(p), strconv.Itoa(stats.ByPriority[p.Label()])})
				}
				rows = append(rows, []string{cli.BoldStyle.Render("Total"), strconv.Itoa(stats.TotalActive)})
				fmt.Fprintln(out, cli.RenderTable([]string{"Priority", "Reports"}, rows))

				fmt.Fprintln(out)
				fmt.Fprintln(out, cli.FormatTitle("All reports by status"))
				rows = rows[:0]
				for _, s := range model.AllStatuses {
					rows = append(rows, []string{cli.FormatStatus(s), strconv.Itoa(stats.ByStatus[string(s)])})
				}
				fmt.Fprintln(out, cli.RenderTable([]string{"Status", "Reports"}, rows))
				return nil
			})
		},
	}
}

func priorityInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <waste-type>",
		Short: "Show how a waste type is ranked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				info := a.reports.TypePriority(cmd.Context(), args[0])
				body := fmt.Sprintf("Priority:      %s\nWeight:        %d\nDecomposition: %d days\nSource:        %s",
					cli.FormatPriority(info.Priority), info.Weight, info.DecompositionDays, info.Source)
				if info.Description != "" {
					body += "\n\n" + info.Description
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(info.WasteType, body))
				return nil
			})
		},
	}
}
