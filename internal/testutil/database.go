// Package testutil provides shared fixtures for tests that need a real database.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/service"
	"github.com/Veraticus/zerbin/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup     func(context.Context, service.Storage) error
	Rewards         []model.Reward
	Classifications []model.WasteClassification
	SkipMigrations  bool
}

// SetupTestDB creates a migrated in-memory database that is closed when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
//
// Example:
//
//	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
//		Rewards: []model.Reward{{Name: "Tote bag", PointsRequired: 50}},
//	})
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for i := range opts.Rewards {
		if err := store.CreateReward(ctx, &opts.Rewards[i]); err != nil {
			t.Fatalf("failed to seed reward %q: %v", opts.Rewards[i].Name, err)
		}
	}

	for i := range opts.Classifications {
		if err := store.CreateWasteClassification(ctx, &opts.Classifications[i]); err != nil {
			t.Fatalf("failed to seed classification %q: %v", opts.Classifications[i].WasteType, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustCreateUser creates a citizen with the given opening balance.
func (db *TestDB) MustCreateUser(username string, points int) *model.User {
	db.t.Helper()
	ctx := context.Background()

	user := &model.User{Username: username, Email: username + "@example.com"}
	if err := db.Storage.CreateUser(ctx, user); err != nil {
		db.t.Fatalf("failed to create user %q: %v", username, err)
	}

	if points > 0 {
		entry := &model.LedgerEntry{UserID: user.ID, Event: model.EventManualAdjust, Points: points}
		if _, err := db.Storage.CreditPoints(ctx, entry); err != nil {
			db.t.Fatalf("failed to credit user %q: %v", username, err)
		}
		user.Points = entry.BalanceAfter
	}
	return user
}

// MustCreateReward adds a catalog entry.
func (db *TestDB) MustCreateReward(name string, cost int) *model.Reward {
	db.t.Helper()
	reward := &model.Reward{Name: name, Description: name + " reward", PointsRequired: cost}
	if err := db.Storage.CreateReward(context.Background(), reward); err != nil {
		db.t.Fatalf("failed to create reward %q: %v", name, err)
	}
	return reward
}

// MustBalance returns the stored balance of a user.
func (db *TestDB) MustBalance(userID int64) int {
	db.t.Helper()
	user, err := db.Storage.GetUser(context.Background(), userID)
	if err != nil {
		db.t.Fatalf("failed to get user %d: %v", userID, err)
	}
	return user.Points
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
