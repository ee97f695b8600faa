package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/model"
)

// CreditPoints records a ledger entry and adds its points to the user's
// balance. A second entry for the same (report, event) pair is ignored and
// applied is false; entry.BalanceAfter always holds the resulting balance.
func (s *SQLiteStorage) CreditPoints(ctx context.Context, entry *model.LedgerEntry) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateLedgerEntry(entry); err != nil {
		return false, err
	}

	var applied bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		applied, txErr = s.creditPointsTx(ctx, tx, entry)
		return txErr
	})
	return applied, err
}

func (s *SQLiteStorage) creditPointsTx(ctx context.Context, q queryable, entry *model.LedgerEntry) (bool, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO point_ledger (user_id, report_id, event, waste_type, points, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(report_id, event) DO NOTHING
	`, entry.UserID, nullableInt64(entry.ReportID), string(entry.Event), entry.WasteType, entry.Points, entry.CreatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert ledger entry: %w", classify(err))
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check ledger insert: %w", err)
	}
	if inserted == 0 {
		user, getErr := s.getUserTx(ctx, q, entry.UserID)
		if getErr != nil {
			return false, getErr
		}
		entry.BalanceAfter = user.Points
		return false, nil
	}

	entryID, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get ledger entry ID: %w", err)
	}
	entry.ID = entryID

	var balance int
	err = q.QueryRowContext(ctx, `
		UPDATE users SET points = points + ? WHERE id = ? RETURNING points
	`, entry.Points, entry.UserID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return false, common.NotFoundf("user %d", entry.UserID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to credit points: %w", classify(err))
	}

	if _, err := q.ExecContext(ctx, `
		UPDATE point_ledger SET balance_after = ? WHERE id = ?
	`, balance, entryID); err != nil {
		return false, fmt.Errorf("failed to record balance: %w", classify(err))
	}

	entry.BalanceAfter = balance
	return true, nil
}

// DebitPoints subtracts amount from the user's balance only if the balance
// covers it, and returns the new balance.
func (s *SQLiteStorage) DebitPoints(ctx context.Context, userID int64, amount int) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validatePositive(amount, "amount"); err != nil {
		return 0, err
	}

	var balance int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		balance, txErr = s.debitPointsTx(ctx, tx, userID, amount)
		return txErr
	})
	return balance, err
}

func (s *SQLiteStorage) debitPointsTx(ctx context.Context, q queryable, userID int64, amount int) (int, error) {
	var balance int
	err := q.QueryRowContext(ctx, `
		UPDATE users SET points = points - ?
		WHERE id = ? AND points >= ?
		RETURNING points
	`, amount, userID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to debit points: %w", classify(err))
	}

	user, getErr := s.getUserTx(ctx, q, userID)
	if getErr != nil {
		return 0, getErr
	}
	return 0, fmt.Errorf("%w: need %d, have %d", common.ErrInsufficientPoints, amount, user.Points)
}

// GetLedgerEntries returns a user's credits, oldest first.
func (s *SQLiteStorage) GetLedgerEntries(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getLedgerEntriesTx(ctx, s.db, userID)
}

func (s *SQLiteStorage) getLedgerEntriesTx(ctx context.Context, q queryable, userID int64) ([]model.LedgerEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, report_id, event, COALESCE(waste_type, ''), points, balance_after, created_at
		FROM point_ledger
		WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var entries []model.LedgerEntry
	for rows.Next() {
		var entry model.LedgerEntry
		var reportID sql.NullInt64
		var event string
		if err := rows.Scan(&entry.ID, &entry.UserID, &reportID, &event, &entry.WasteType,
			&entry.Points, &entry.BalanceAfter, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entry.ReportID = int64Ptr(reportID)
		entry.Event = model.LedgerEvent(event)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
