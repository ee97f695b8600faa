package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/zerbin/internal/model"
)

// SaveNotification stores a notification for a user.
func (s *SQLiteStorage) SaveNotification(ctx context.Context, notification *model.Notification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateNotification(notification); err != nil {
		return err
	}
	return s.saveNotificationTx(ctx, s.db, notification)
}

func (s *SQLiteStorage) saveNotificationTx(ctx context.Context, q queryable, n *model.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Type == "" {
		n.Type = model.NotificationGeneral
	}

	var extra any
	if n.ExtraData != "" {
		extra = n.ExtraData
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO notifications (user_id, report_id, type, title, message, extra_data, is_read, created_at, read_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.UserID, nullableInt64(n.ReportID), string(n.Type), n.Title, n.Message, extra, n.IsRead,
		n.CreatedAt.UTC(), nullableTime(n.ReadAt))
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get notification ID: %w", err)
	}
	n.ID = id
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *SQLiteStorage) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]model.Notification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listNotificationsTx(ctx, s.db, userID, unreadOnly)
}

func (s *SQLiteStorage) listNotificationsTx(ctx context.Context, q queryable, userID int64, unreadOnly bool) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, report_id, type, title, message, COALESCE(extra_data, ''), is_read, created_at, read_at
		FROM notifications
		WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var reportID sql.NullInt64
		var readAt sql.NullTime
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &reportID, &kind, &n.Title, &n.Message, &n.ExtraData,
			&n.IsRead, &n.CreatedAt, &readAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.ReportID = int64Ptr(reportID)
		n.ReadAt = timePtr(readAt)
		n.Type = model.NotificationType(kind)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationsRead marks the given notifications read, or all of the
// user's unread notifications when ids is empty. It returns how many changed.
func (s *SQLiteStorage) MarkNotificationsRead(ctx context.Context, userID int64, ids []int64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.markNotificationsReadTx(ctx, s.db, userID, ids, time.Now())
}

func (s *SQLiteStorage) markNotificationsReadTx(ctx context.Context, q queryable, userID int64, ids []int64, at time.Time) (int, error) {
	query := `UPDATE notifications SET is_read = 1, read_at = ? WHERE user_id = ? AND is_read = 0`
	args := []any{at.UTC(), userID}

	if len(ids) > 0 {
		placeholders := make([]string, len(ids))
		for i, id := range ids {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += ` AND id IN (` + strings.Join(placeholders, ", ") + `)`
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", classify(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}
