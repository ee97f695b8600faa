// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/zerbin/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)

	// Ledger operations. Balances only change through these two methods.
	CreditPoints(ctx context.Context, entry *model.LedgerEntry) (applied bool, err error)
	DebitPoints(ctx context.Context, userID int64, amount int) (balance int, err error)
	GetLedgerEntries(ctx context.Context, userID int64) ([]model.LedgerEntry, error)

	// Reward operations
	CreateReward(ctx context.Context, reward *model.Reward) error
	GetReward(ctx context.Context, id int64) (*model.Reward, error)
	ListRewards(ctx context.Context) ([]model.Reward, error)
	CreateRedemption(ctx context.Context, redemption *model.RewardRedemption) error
	SetRedemptionCode(ctx context.Context, id int64, code string) error
	ListRedemptions(ctx context.Context, userID int64) ([]model.RewardRedemption, error)

	// Report operations
	CreateReport(ctx context.Context, report *model.Report) error
	GetReport(ctx context.Context, id int64) (*model.Report, error)
	ListReports(ctx context.Context, filter model.ReportFilter) ([]model.Report, error)
	ListActiveReports(ctx context.Context) ([]model.Report, error)
	UpdateReportStatus(ctx context.Context, id int64, from, to model.ReportStatus, at time.Time) (bool, error)
	UpdateReportPriority(ctx context.Context, id int64, from, to model.Priority, at time.Time) (bool, error)
	UpdateReportClassification(ctx context.Context, id int64, manualType string, at time.Time) error
	CountActiveByPriority(ctx context.Context) (map[model.Priority]int, error)
	CountByStatus(ctx context.Context) (map[model.ReportStatus]int, error)

	// Waste classification operations
	CreateWasteClassification(ctx context.Context, classification *model.WasteClassification) error
	GetWasteClassification(ctx context.Context, wasteType string) (*model.WasteClassification, error)
	ListWasteClassifications(ctx context.Context) ([]model.WasteClassification, error)

	// Notification operations
	SaveNotification(ctx context.Context, notification *model.Notification) error
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationsRead(ctx context.Context, userID int64, ids []int64) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// ClassificationSource looks up authoritative waste classifications.
// GetWasteClassification returns nil, nil when the type has no entry.
type ClassificationSource interface {
	GetWasteClassification(ctx context.Context, wasteType string) (*model.WasteClassification, error)
}

// Notifier delivers status-change notifications. Delivery is best effort:
// callers log and discard the returned error.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, change model.StatusChange) error
}

// Locker serializes balance mutations for a single key (a user id).
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
