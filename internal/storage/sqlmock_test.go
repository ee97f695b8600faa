package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/model"
)

var (
	mockDB *sql.DB
	mock   sqlmock.Sqlmock
)

func setUpMock() {
	mockDB, mock, _ = sqlmock.New()
}

func tearDownMock() {
	_ = mockDB.Close()
}

var it = beforeeach.Create(setUpMock, tearDownMock)

func TestCreditPointsBusyIsRetryable(t *testing.T) {
	it(func() {
		store := NewFromDB(mockDB)
		reportID := int64(7)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO point_ledger").
			WillReturnError(sqlite3.Error{Code: sqlite3.ErrBusy})
		mock.ExpectRollback()

		_, err := store.CreditPoints(context.Background(), &model.LedgerEntry{
			UserID: 1, ReportID: &reportID, Event: model.EventReportCreated, Points: 10,
		})
		require.Error(t, err)
		assert.True(t, common.IsRetryable(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreditPointsRollsBackWhenBalanceUpdateFails(t *testing.T) {
	it(func() {
		store := NewFromDB(mockDB)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO point_ledger").
			WillReturnResult(sqlmock.NewResult(3, 1))
		mock.ExpectQuery("UPDATE users SET points = points \\+").
			WithArgs(10, int64(1)).
			WillReturnError(errors.New("disk I/O error"))
		mock.ExpectRollback()

		applied, err := store.CreditPoints(context.Background(), &model.LedgerEntry{
			UserID: 1, Event: model.EventManualAdjust, Points: 10,
		})
		require.Error(t, err)
		assert.False(t, applied)
		assert.False(t, common.IsRetryable(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreditPointsCommits(t *testing.T) {
	it(func() {
		store := NewFromDB(mockDB)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO point_ledger").
			WillReturnResult(sqlmock.NewResult(3, 1))
		mock.ExpectQuery("UPDATE users SET points = points \\+").
			WithArgs(10, int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(25))
		mock.ExpectExec("UPDATE point_ledger SET balance_after").
			WithArgs(25, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		entry := &model.LedgerEntry{UserID: 1, Event: model.EventManualAdjust, Points: 10}
		applied, err := store.CreditPoints(context.Background(), entry)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, 25, entry.BalanceAfter)
		assert.Equal(t, int64(3), entry.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDebitPointsInsufficientRollsBack(t *testing.T) {
	it(func() {
		store := NewFromDB(mockDB)

		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE users SET points = points -").
			WithArgs(50, int64(1), 50).
			WillReturnRows(sqlmock.NewRows([]string{"points"}))
		mock.ExpectQuery("SELECT id, username, email, role, points, created_at").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "role", "points", "created_at"}).
				AddRow(1, "ana", "ana@example.com", "citizen", 30, time.Now()))
		mock.ExpectRollback()

		_, err := store.DebitPoints(context.Background(), 1, 50)
		assert.ErrorIs(t, err, common.ErrInsufficientPoints)
		assert.Contains(t, err.Error(), "have 30")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMigrateReportsVersionError(t *testing.T) {
	it(func() {
		store := NewFromDB(mockDB)

		mock.ExpectQuery("PRAGMA user_version").
			WillReturnError(errors.New("file is not a database"))

		err := store.Migrate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get schema version")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClassifyConstraintViolations(t *testing.T) {
	err := classify(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	err = classify(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey})
	assert.ErrorIs(t, err, common.ErrNotFound)

	for _, code := range []sqlite3.ErrNoExtended{sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull} {
		err = classify(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: code})
		assert.ErrorIs(t, err, common.ErrValidation)
		assert.NotErrorIs(t, err, common.ErrDuplicateEntry)
	}

	plain := errors.New("boom")
	assert.Equal(t, plain, classify(plain))
}
