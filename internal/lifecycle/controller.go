// Package lifecycle drives reports from creation to a terminal status and
// applies the scoring and reward rules at each step.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang/geo/s2"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/ledger"
	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/priority"
	"github.com/Veraticus/zerbin/internal/service"
	"github.com/Veraticus/zerbin/internal/wastetype"
)

// Controller coordinates report creation, status changes and recalculation.
type Controller struct {
	storage    service.Storage
	engine     *priority.Engine
	ledger     *ledger.Ledger
	locker     service.Locker
	notifier   service.Notifier
	normalizer *wastetype.Normalizer
	now        func() time.Time
	retry      service.RetryOptions
}

// Deps groups the collaborators of a Controller.
type Deps struct {
	Storage    service.Storage
	Engine     *priority.Engine
	Ledger     *ledger.Ledger
	Locker     service.Locker
	Notifier   service.Notifier
	Normalizer *wastetype.Normalizer
	// Now defaults to time.Now.
	Now func() time.Time
}

// New creates a controller.
func New(deps Deps) *Controller {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		storage:    deps.Storage,
		engine:     deps.Engine,
		ledger:     deps.Ledger,
		locker:     deps.Locker,
		notifier:   deps.Notifier,
		normalizer: deps.Normalizer,
		now:        now,
		retry:      common.DefaultRetryOptions(),
	}
}

// NewReport is the input for CreateReport. Confidence uses a 0..100 scale;
// zero means the classifier gave none.
type NewReport struct {
	UserID      *int64  `json:"user_id,omitempty"`
	Address     string  `json:"address,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	WasteType   string  `json:"waste_type"`
	Description string  `json:"description,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Confidence  float64 `json:"confidence_score"`
}

// Created is the outcome of CreateReport.
type Created struct {
	Report *model.Report   `json:"report"`
	Award  *ledger.Result  `json:"award,omitempty"`
	Score  priority.Result `json:"priority"`
	Alert  bool            `json:"urgent_alert"`
}

// Transition is the outcome of UpdateStatus.
type Transition struct {
	Report    *model.Report      `json:"report"`
	Bonus     *ledger.Result     `json:"bonus,omitempty"`
	OldStatus model.ReportStatus `json:"old_status"`
	NewStatus model.ReportStatus `json:"new_status"`
	Changed   bool               `json:"changed"`
}

func validateNewReport(in NewReport) error {
	if !(in.Confidence >= 0 && in.Confidence <= 100) {
		return common.Validationf("confidence must be between 0 and 100, got %v", in.Confidence)
	}
	if !s2.LatLngFromDegrees(in.Latitude, in.Longitude).IsValid() {
		return common.Validationf("invalid coordinates %v,%v", in.Latitude, in.Longitude)
	}
	return nil
}

// CreateReport scores and stores a new report and, when it has an owner,
// awards the creation points in the same transaction.
func (c *Controller) CreateReport(ctx context.Context, in NewReport) (*Created, error) {
	if err := validateNewReport(in); err != nil {
		return nil, err
	}

	now := c.now().UTC()
	canonical := c.normalizer.Normalize(in.WasteType)
	score := c.engine.Score(ctx, canonical, in.Confidence, now, now)

	report := &model.Report{
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      in.UserID,
		Address:     strings.TrimSpace(in.Address),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		WasteType:   canonical,
		Description: strings.TrimSpace(in.Description),
		Status:      model.StatusPending,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Confidence:  in.Confidence,
		Priority:    score.Priority,
	}

	if in.UserID != nil {
		unlock, err := c.locker.Lock(ctx, ledger.LockKey(*in.UserID))
		if err != nil {
			return nil, fmt.Errorf("failed to lock user %d: %w", *in.UserID, err)
		}
		defer unlock()
	}

	var award *ledger.Result
	err := common.WithRetry(ctx, func() error {
		tx, err := c.storage.BeginTx(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if in.UserID != nil {
			if _, err := tx.GetUser(ctx, *in.UserID); err != nil {
				return err
			}
		}

		report.ID = 0
		if err := tx.CreateReport(ctx, report); err != nil {
			return err
		}

		award = nil
		if in.UserID != nil {
			reportID := report.ID
			award, err = c.ledger.AwardTx(ctx, tx, *in.UserID, canonical, model.EventReportCreated, &reportID)
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	}, c.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	alert := c.engine.ShouldAlert(ctx, canonical, in.Confidence)
	if alert {
		info := c.engine.TypeInfo(ctx, canonical)
		slog.WarnContext(ctx, "Urgent waste report",
			"report_id", report.ID,
			"waste_type", canonical,
			"confidence", in.Confidence,
			"decomposition_days", info.DecompositionDays,
			"location", report.Location())
	}

	slog.InfoContext(ctx, "Report created",
		"report_id", report.ID,
		"waste_type", canonical,
		"priority", score.Label,
		"score", score.Breakdown.Total)

	return &Created{Report: report, Score: score, Award: award, Alert: alert}, nil
}

// UpdateStatus moves a report to a new status. Entering collected or
// resolved awards the completion bonus once. The owner is notified after
// commit; delivery failures are logged and never undo the change.
func (c *Controller) UpdateStatus(ctx context.Context, reportID int64, status string) (*Transition, error) {
	next, err := model.ParseReportStatus(status)
	if err != nil {
		return nil, common.Validationf("%v", err)
	}

	report, err := c.storage.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	old := report.Status

	if old == next {
		return &Transition{Report: report, OldStatus: old, NewStatus: next}, nil
	}
	if !old.CanTransition(next) {
		return nil, invalidTransition(old, next)
	}

	awardBonus := next.IsTerminalSuccess() && report.UserID != nil
	if awardBonus {
		unlock, lockErr := c.locker.Lock(ctx, ledger.LockKey(*report.UserID))
		if lockErr != nil {
			return nil, fmt.Errorf("failed to lock user %d: %w", *report.UserID, lockErr)
		}
		defer unlock()
	}

	var bonus *ledger.Result
	changed := true
	err = common.WithRetry(ctx, func() error {
		bonus = nil
		changed = true

		tx, err := c.storage.BeginTx(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		ok, err := tx.UpdateReportStatus(ctx, reportID, old, next, c.now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			current, getErr := tx.GetReport(ctx, reportID)
			if getErr != nil {
				return getErr
			}
			if current.Status == next {
				changed = false
				return nil
			}
			return invalidTransition(current.Status, next)
		}

		if awardBonus {
			bonus, err = c.ledger.AwardTx(ctx, tx, *report.UserID, report.EffectiveWasteType(), model.EventReportCompleted, &reportID)
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	}, c.retry)
	if err != nil {
		return nil, err
	}

	updated, err := c.storage.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &Transition{Report: updated, OldStatus: next, NewStatus: next}, nil
	}

	slog.InfoContext(ctx, "Report status updated",
		"report_id", reportID,
		"old_status", old,
		"new_status", next)

	c.notify(ctx, updated, old, next)

	return &Transition{Report: updated, Bonus: bonus, OldStatus: old, NewStatus: next, Changed: true}, nil
}

func (c *Controller) notify(ctx context.Context, report *model.Report, old, next model.ReportStatus) {
	if c.notifier == nil || report.UserID == nil {
		return
	}

	change := model.StatusChange{
		OldStatus: old,
		NewStatus: next,
		WasteType: report.EffectiveWasteType(),
		Location:  report.Location(),
		UserID:    *report.UserID,
		ReportID:  report.ID,
	}
	if err := c.notifier.NotifyStatusChange(ctx, change); err != nil {
		common.LogError(ctx, err, "Failed to deliver status notification", common.Fields{
			"report_id": report.ID,
			"user_id":   *report.UserID,
		})
	}
}

func invalidTransition(from, to model.ReportStatus) error {
	return fmt.Errorf("%w: %w: %s -> %s", common.ErrValidation, common.ErrInvalidTransition, from, to)
}

// CorrectClassification records an operator's waste type. The tier is left
// alone until the next explicit recalculation.
func (c *Controller) CorrectClassification(ctx context.Context, reportID int64, label string) (*model.Report, error) {
	if strings.TrimSpace(label) == "" {
		return nil, common.Validationf("waste type is required")
	}

	resolved := c.normalizer.Resolve(label)
	if err := c.storage.UpdateReportClassification(ctx, reportID, resolved, c.now().UTC()); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Report classification corrected", "report_id", reportID, "waste_type", resolved)
	return c.storage.GetReport(ctx, reportID)
}

// Report returns a single report.
func (c *Controller) Report(ctx context.Context, id int64) (*model.Report, error) {
	return c.storage.GetReport(ctx, id)
}

// Reports lists reports matching filter.
func (c *Controller) Reports(ctx context.Context, filter model.ReportFilter) ([]model.Report, error) {
	return c.storage.ListReports(ctx, filter)
}
