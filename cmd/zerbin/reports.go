package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zerbin/internal/cli"
	"github.com/Veraticus/zerbin/internal/lifecycle"
	"github.com/Veraticus/zerbin/internal/model"
)

func reportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Create and manage waste reports",
	}

	cmd.AddCommand(reportsCreateCmd())
	cmd.AddCommand(reportsShowCmd())
	cmd.AddCommand(reportsListCmd())
	cmd.AddCommand(reportsStatusCmd())
	cmd.AddCommand(reportsClassifyCmd())
	cmd.AddCommand(reportsPriorityCmd())

	return cmd
}

func reportsCreateCmd() *cobra.Command {
	var in lifecycle.NewReport
	var userID int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "File a new report",
		Long: `Score and store a new waste report. When --user is given the reporter
is credited for the waste type straight away.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID > 0 {
				in.UserID = &userID
			}
			return withApp(cmd.Context(), func(a *app) error {
				created, err := a.reports.CreateReport(cmd.Context(), in)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Report %d filed as %s, priority %s",
					created.Report.ID, created.Report.WasteType, cli.FormatPriority(created.Report.Priority))))
				if created.Award != nil && created.Award.Applied {
					fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("+%d points (balance %d)", created.Award.Points, created.Award.Balance)))
				}
				if created.Alert {
					fmt.Fprintln(out, cli.FormatWarning("Urgent: high priority waste reported with high confidence"))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.WasteType, "type", "", "classified waste type")
	cmd.Flags().Float64Var(&in.Confidence, "confidence", 0, "classifier confidence, 0-100")
	cmd.Flags().Float64Var(&in.Latitude, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&in.Longitude, "lng", 0, "longitude in degrees")
	cmd.Flags().StringVar(&in.Address, "address", "", "street address")
	cmd.Flags().StringVar(&in.Description, "description", "", "free text description")
	cmd.Flags().StringVar(&in.ImageURL, "image", "", "photo URL")
	cmd.Flags().Int64Var(&userID, "user", 0, "reporting user id (omit for anonymous)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func reportsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <report-id>",
		Short: "Show one report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "report")
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				report, err := a.reports.Report(cmd.Context(), id)
				if err != nil {
					return err
				}
				printReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
}

func printReport(out io.Writer, r *model.Report) {
	body := fmt.Sprintf("Type:       %s\nStatus:     %s\nPriority:   %s\nConfidence: %g\nLocation:   %s\nCreated:    %s",
		r.EffectiveWasteType(), cli.FormatStatus(r.Status), cli.FormatPriority(r.Priority),
		r.Confidence, r.Location(), r.CreatedAt.Format("2006-01-02 15:04"))
	if r.ManualClassification != "" {
		body += fmt.Sprintf("\nClassifier: %s (corrected)", r.WasteType)
	}
	if r.ResolvedAt != nil {
		body += "\nResolved:   " + r.ResolvedAt.Format("2006-01-02 15:04")
	}
	if r.UserID != nil {
		body += fmt.Sprintf("\nReporter:   %d", *r.UserID)
	}
	if r.Description != "" {
		body += "\n\n" + r.Description
	}
	fmt.Fprintln(out, cli.RenderBox(fmt.Sprintf("Report #%d", r.ID), body))
}

func reportsListCmd() *cobra.Command {
	var status string
	var tier, limit int
	var userID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := model.ReportFilter{Limit: limit}
			if status != "" {
				s, err := model.ParseReportStatus(status)
				if err != nil {
					return err
				}
				filter.Status = &s
			}
			if tier != 0 {
				p, err := model.ParsePriority(tier)
				if err != nil {
					return err
				}
				filter.Priority = &p
			}
			if userID > 0 {
				filter.UserID = &userID
			}

			return withApp(cmd.Context(), func(a *app) error {
				reports, err := a.reports.Reports(cmd.Context(), filter)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(reports) == 0 {
					fmt.Fprintln(out, cli.InfoStyle.Render("No reports found."))
					return nil
				}

				rows := make([][]string, 0, len(reports))
				for i := range reports {
					r := &reports[i]
					rows = append(rows, []string{
						strconv.FormatInt(r.ID, 10),
						r.EffectiveWasteType(),
						cli.FormatPriority(r.Priority),
						cli.FormatStatus(r.Status),
						r.CreatedAt.Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, cli.RenderTable([]string{"ID", "Type", "Priority", "Status", "Created"}, rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only reports in this status")
	cmd.Flags().IntVar(&tier, "priority", 0, "only reports with this tier (1=Low, 2=Medium, 3=High)")
	cmd.Flags().Int64Var(&userID, "user", 0, "only reports filed by this user")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of reports")

	return cmd
}

func reportsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <report-id> <status>",
		Short: "Move a report to a new status",
		Long: `Move a report through its lifecycle: pending, assigned, in_progress,
then collected or resolved (which earn the reporter a bonus), rejected or
cancelled.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "report")
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				transition, err := a.reports.UpdateStatus(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if !transition.Changed {
					fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Report %d is already %s", id, transition.NewStatus)))
					return nil
				}
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Report %d: %s → %s", id, transition.OldStatus, transition.NewStatus)))
				if transition.Bonus != nil && transition.Bonus.Applied {
					fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Reporter earned a %d point bonus", transition.Bonus.Points)))
				}
				return nil
			})
		},
	}
}

func reportsClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <report-id> <waste-type>",
		Short: "Correct a report's waste type",
		Long: `Record the waste type an operator saw on site. The priority is not
changed until the report is recalculated.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "report")
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				report, err := a.reports.CorrectClassification(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Report %d reclassified as %s", id, report.ManualClassification)))
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render(fmt.Sprintf("Run 'zerbin reports priority %d --apply' to rescore it.", id)))
				return nil
			})
		},
	}
}

func reportsPriorityCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "priority <report-id>",
		Short: "Explain a report's priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "report")
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				ctx := cmd.Context()
				out := cmd.OutOrStdout()

				if apply {
					_, updated, err := a.reports.RecalculateReport(ctx, id)
					if err != nil {
						return err
					}
					if updated {
						fmt.Fprintln(out, cli.FormatSuccess("Priority updated"))
					}
				}

				details, err := a.reports.PriorityDetails(ctx, id)
				if err != nil {
					return err
				}
				b := details.Breakdown
				body := fmt.Sprintf("Waste type: %s (%s)\nType:       %d\nSize:       %d (%s)\nExposure:   %d (%s h)\nTotal:      %d\n\nStored:     %s\nCurrent:    %s",
					b.WasteType, b.Source, b.TypeWeight, b.SizeWeight, b.EstimatedSize,
					b.ExposureWeight, b.ExposureHours.StringFixed(2), b.Total,
					cli.FormatPriority(details.StoredTier), cli.FormatPriority(details.CurrentTier))
				fmt.Fprintln(out, cli.RenderBox(fmt.Sprintf("%s Report #%d priority", cli.ChartIcon, id), body))
				if details.NeedsRecalc {
					fmt.Fprintln(out, cli.FormatWarning("Stored priority is stale; pass --apply to update it."))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "store the recalculated priority")

	return cmd
}
