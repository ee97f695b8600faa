package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/priority"
)

// RecalcResult summarizes a recalculation run.
type RecalcResult struct {
	TotalChecked int `json:"total_checked"`
	Updated      int `json:"updated"`
}

// ProgressFunc is called after each report is checked.
type ProgressFunc func(done, total int)

// Recalculate rescores every non-terminal report against the current time
// and stores the tiers that changed. Each row is committed on its own with
// a conditional update, so a second run with no time change updates nothing.
func (c *Controller) Recalculate(ctx context.Context, progress ProgressFunc) (*RecalcResult, error) {
	reports, err := c.storage.ListActiveReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active reports: %w", err)
	}

	result := &RecalcResult{}
	now := c.now().UTC()

	for i := range reports {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		updated, err := c.rescore(ctx, &reports[i], now)
		if err != nil {
			return result, err
		}
		result.TotalChecked++
		if updated {
			result.Updated++
		}
		if progress != nil {
			progress(i+1, len(reports))
		}
	}

	slog.InfoContext(ctx, "Priority recalculation complete",
		"total_checked", result.TotalChecked,
		"updated", result.Updated)

	return result, nil
}

// RecalculateReport rescores a single report. Terminal reports are left
// untouched.
func (c *Controller) RecalculateReport(ctx context.Context, id int64) (*model.Report, bool, error) {
	report, err := c.storage.GetReport(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if report.Status.IsTerminal() {
		return report, false, nil
	}

	updated, err := c.rescore(ctx, report, c.now().UTC())
	if err != nil {
		return nil, false, err
	}
	return report, updated, nil
}

func (c *Controller) rescore(ctx context.Context, report *model.Report, now time.Time) (bool, error) {
	score := c.engine.Score(ctx, report.EffectiveWasteType(), report.Confidence, report.CreatedAt, now)
	if score.Priority == report.Priority {
		return false, nil
	}

	ok, err := c.storage.UpdateReportPriority(ctx, report.ID, report.Priority, score.Priority, now)
	if err != nil {
		return false, fmt.Errorf("failed to update priority of report %d: %w", report.ID, err)
	}
	if !ok {
		// changed underneath us; the next run will see the new value
		slog.DebugContext(ctx, "Report priority changed concurrently", "report_id", report.ID)
		return false, nil
	}

	slog.DebugContext(ctx, "Report priority updated",
		"report_id", report.ID,
		"old_priority", report.Priority,
		"new_priority", score.Priority)

	report.Priority = score.Priority
	report.UpdatedAt = now
	return true, nil
}

// Details is the priority breakdown of a stored report.
type Details struct {
	Breakdown   priority.Breakdown `json:"breakdown"`
	StoredLabel string             `json:"stored_label"`
	ReportID    int64              `json:"report_id"`
	StoredTier  model.Priority     `json:"stored_priority"`
	CurrentTier model.Priority     `json:"current_priority"`
	NeedsRecalc bool               `json:"needs_recalculation"`
}

// PriorityDetails explains how a report's tier is computed right now,
// alongside the tier currently stored.
func (c *Controller) PriorityDetails(ctx context.Context, id int64) (*Details, error) {
	report, err := c.storage.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}

	score := c.engine.Score(ctx, report.EffectiveWasteType(), report.Confidence, report.CreatedAt, c.now())
	return &Details{
		ReportID:    report.ID,
		StoredTier:  report.Priority,
		StoredLabel: report.Priority.Label(),
		CurrentTier: score.Priority,
		Breakdown:   score.Breakdown,
		NeedsRecalc: !report.Status.IsTerminal() && score.Priority != report.Priority,
	}, nil
}

// Stats counts active reports by tier label and all reports by status.
type Stats struct {
	ByPriority  map[string]int `json:"by_priority"`
	ByStatus    map[string]int `json:"by_status"`
	TotalActive int            `json:"total_active"`
}

// Stats returns report counts. Every tier and status is present, zero or not.
func (c *Controller) Stats(ctx context.Context) (*Stats, error) {
	byPriority, err := c.storage.CountActiveByPriority(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports by priority: %w", err)
	}
	byStatus, err := c.storage.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports by status: %w", err)
	}

	stats := &Stats{
		ByPriority: make(map[string]int, len(byPriority)),
		ByStatus:   make(map[string]int, len(byStatus)),
	}
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
		stats.ByPriority[p.Label()] = byPriority[p]
		stats.TotalActive += byPriority[p]
	}
	for _, s := range model.AllStatuses {
		stats.ByStatus[string(s)] = byStatus[s]
	}
	return stats, nil
}
