// Package ledger owns every change to a user's point balance.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/service"
	"github.com/Veraticus/zerbin/internal/wastetype"
)

// Result describes the outcome of an award.
type Result struct {
	Event   model.LedgerEvent `json:"event"`
	Points  int               `json:"points"`
	Balance int               `json:"new_balance"`
	Applied bool              `json:"applied"`
}

// Ledger awards points. Balances only ever grow here; redemptions debit
// through the rewards catalog.
type Ledger struct {
	storage    service.Storage
	locker     service.Locker
	normalizer *wastetype.Normalizer
	table      PointsTable
	retry      service.RetryOptions
}

// New creates a ledger.
func New(storage service.Storage, locker service.Locker, normalizer *wastetype.Normalizer, table PointsTable) *Ledger {
	return &Ledger{
		storage:    storage,
		locker:     locker,
		normalizer: normalizer,
		table:      table,
		retry:      common.DefaultRetryOptions(),
	}
}

// LockKey is the Locker key guarding a user's balance.
func LockKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// Points returns what event is worth for wasteType.
func (l *Ledger) Points(event model.LedgerEvent, wasteType string) int {
	switch event {
	case model.EventReportCompleted:
		return l.table.CompletionBonus
	default:
		return l.table.For(l.normalizer.Normalize(wasteType))
	}
}

// Award credits a user for a report event. A repeated (report, event)
// pair is a no-op that reports the current balance.
func (l *Ledger) Award(ctx context.Context, userID int64, wasteType string, event model.LedgerEvent, reportID *int64) (*Result, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	unlock, err := l.locker.Lock(ctx, LockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	defer unlock()

	var result *Result
	err = common.WithRetry(ctx, func() error {
		tx, txErr := l.storage.BeginTx(ctx)
		if txErr != nil {
			return txErr
		}
		defer func() { _ = tx.Rollback() }()

		res, awardErr := l.AwardTx(ctx, tx, userID, wasteType, event, reportID)
		if awardErr != nil {
			return awardErr
		}
		if commitErr := tx.Commit(); commitErr != nil {
			return commitErr
		}
		result = res
		return nil
	}, l.retry)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AwardTx credits within a caller's transaction. The caller must hold the
// user's lock.
func (l *Ledger) AwardTx(ctx context.Context, tx service.Transaction, userID int64, wasteType string, event model.LedgerEvent, reportID *int64) (*Result, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	entry := &model.LedgerEntry{
		UserID:    userID,
		ReportID:  reportID,
		Event:     event,
		WasteType: l.normalizer.Normalize(wasteType),
		Points:    l.Points(event, wasteType),
	}

	applied, err := tx.CreditPoints(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to award %s points: %w", event, err)
	}

	if applied {
		slog.InfoContext(ctx, "Awarded points",
			"user_id", userID,
			"event", event,
			"points", entry.Points,
			"balance", entry.BalanceAfter)
	} else {
		slog.DebugContext(ctx, "Award already applied",
			"user_id", userID,
			"event", event,
			"report_id", reportID)
	}

	result := &Result{Event: event, Balance: entry.BalanceAfter, Applied: applied}
	if applied {
		result.Points = entry.Points
	}
	return result, nil
}

// Grant adds an administrative credit that is not tied to a report.
func (l *Ledger) Grant(ctx context.Context, userID int64, points int) (*Result, error) {
	if points <= 0 {
		return nil, common.Validationf("granted points must be positive, got %d", points)
	}

	unlock, err := l.locker.Lock(ctx, LockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	defer unlock()

	entry := &model.LedgerEntry{UserID: userID, Event: model.EventManualAdjust, Points: points}
	err = common.WithRetry(ctx, func() error {
		_, creditErr := l.storage.CreditPoints(ctx, entry)
		return creditErr
	}, l.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to grant points: %w", err)
	}

	return &Result{Event: model.EventManualAdjust, Points: points, Balance: entry.BalanceAfter, Applied: true}, nil
}

// Balance returns a user's current balance.
func (l *Ledger) Balance(ctx context.Context, userID int64) (int, error) {
	user, err := l.storage.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Points, nil
}

// History returns a user's credits, oldest first.
func (l *Ledger) History(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	if _, err := l.storage.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return l.storage.GetLedgerEntries(ctx, userID)
}

func validateEvent(event model.LedgerEvent) error {
	switch event {
	case model.EventReportCreated, model.EventReportCompleted:
		return nil
	default:
		return common.Validationf("unsupported award event %q", event)
	}
}
