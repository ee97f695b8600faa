package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/service"
)

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
// Every method runs on the transaction; none may touch the pool, which
// holds a single connection.
type sqliteTransaction struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTransaction) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

func (t *sqliteTransaction) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTransaction) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}
	return t.storage.createUserTx(ctx, t.tx, user)
}

func (t *sqliteTransaction) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getUserTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.listUsersTx(ctx, t.tx)
}

func (t *sqliteTransaction) CreditPoints(ctx context.Context, entry *model.LedgerEntry) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateLedgerEntry(entry); err != nil {
		return false, err
	}
	return t.storage.creditPointsTx(ctx, t.tx, entry)
}

func (t *sqliteTransaction) DebitPoints(ctx context.Context, userID int64, amount int) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validatePositive(amount, "amount"); err != nil {
		return 0, err
	}
	return t.storage.debitPointsTx(ctx, t.tx, userID, amount)
}

func (t *sqliteTransaction) GetLedgerEntries(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getLedgerEntriesTx(ctx, t.tx, userID)
}

func (t *sqliteTransaction) CreateReward(ctx context.Context, reward *model.Reward) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReward(reward); err != nil {
		return err
	}
	return t.storage.createRewardTx(ctx, t.tx, reward)
}

func (t *sqliteTransaction) GetReward(ctx context.Context, id int64) (*model.Reward, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getRewardTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) ListRewards(ctx context.Context) ([]model.Reward, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.listRewardsTx(ctx, t.tx)
}

func (t *sqliteTransaction) CreateRedemption(ctx context.Context, redemption *model.RewardRedemption) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRedemption(redemption); err != nil {
		return err
	}
	return t.storage.createRedemptionTx(ctx, t.tx, redemption)
}

func (t *sqliteTransaction) SetRedemptionCode(ctx context.Context, id int64, code string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(code, "code"); err != nil {
		return err
	}
	return t.storage.setRedemptionCodeTx(ctx, t.tx, id, code)
}

func (t *sqliteTransaction) ListRedemptions(ctx context.Context, userID int64) ([]model.RewardRedemption, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.listRedemptionsTx(ctx, t.tx, userID)
}

func (t *sqliteTransaction) CreateReport(ctx context.Context, report *model.Report) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReport(report); err != nil {
		return err
	}
	return t.storage.createReportTx(ctx, t.tx, report)
}

func (t *sqliteTransaction) GetReport(ctx context.Context, id int64) (*model.Report, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getReportTx(ctx, t.tx, id)
}

func (t *sqliteTransaction) ListReports(ctx context.Context, filter model.ReportFilter) ([]model.Report, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.listReportsTx(ctx, t.tx, filter)
}

func (t *sqliteTransaction) ListActiveReports(ctx context.Context) ([]model.Report, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.listActiveReportsTx(ctx, t.tx)
}

func (t *sqliteTransaction) UpdateReportStatus(ctx context.Context, id int64, from, to model.ReportStatus, at time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return t.storage.updateReportStatusTx(ctx, t.tx, id, from, to, at)
}

func (t *sqliteTransaction) UpdateReportPriority(ctx context.Context, id int64, from, to model.Priority, at time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validatePriority(to); err != nil {
		return false, err
	}
	return t.storage.updateReportPriorityTx(ctx, t.tx, id, from, to, at)
}

func (t *sqliteTransaction) UpdateReportClassification(ctx context.Context, id int64, manualType string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(manualType, "manualType"); err != nil {
		return err
	}
	return t.storage.updateReportClassificationTx(ctx, t.tx, id, manualType, at)
}

func (t *sqliteTransaction) CountActiveByPriority(ctx context.Context) (map[model.Priority]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.countActiveByPriorityTx(ctx, t.tx)
}

func (t *sqliteTransaction) CountByStatus(ctx context.Context) (map[model.ReportStatus]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.countByStatusTx(ctx, t.tx)
}

func (t *sqliteTransaction) CreateWasteClassification(ctx context.Context, classification *model.WasteClassification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateWasteClassification(classification); err != nil {
		return err
	}
	return t.storage.createWasteClassificationTx(ctx, t.tx, classification)
}

func (t *sqliteTransaction) GetWasteClassification(ctx context.Context, wasteType string) (*model.WasteClassification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.getWasteClassificationTx(ctx, t.tx, wasteType)
}

func (t *sqliteTransaction) ListWasteClassifications(ctx context.Context) ([]model.WasteClassification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.listWasteClassificationsTx(ctx, t.tx)
}

func (t *sqliteTransaction) SaveNotification(ctx context.Context, notification *model.Notification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateNotification(notification); err != nil {
		return err
	}
	return t.storage.saveNotificationTx(ctx, t.tx, notification)
}

func (t *sqliteTransaction) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]model.Notification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.storage.listNotificationsTx(ctx, t.tx, userID, unreadOnly)
}

func (t *sqliteTransaction) MarkNotificationsRead(ctx context.Context, userID int64, ids []int64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return t.storage.markNotificationsReadTx(ctx, t.tx, userID, ids, time.Now())
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
