package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/model"
)

const reportColumns = `id, user_id, latitude, longitude, COALESCE(address, ''), COALESCE(image_url, ''),
	waste_type, COALESCE(manual_classification, ''), confidence_score, COALESCE(description, ''),
	status, priority, created_at, updated_at, resolved_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*model.Report, error) {
	var report model.Report
	var userID sql.NullInt64
	var resolvedAt sql.NullTime
	var status string
	var priority int

	if err := row.Scan(
		&report.ID,
		&userID,
		&report.Latitude,
		&report.Longitude,
		&report.Address,
		&report.ImageURL,
		&report.WasteType,
		&report.ManualClassification,
		&report.Confidence,
		&report.Description,
		&status,
		&priority,
		&report.CreatedAt,
		&report.UpdatedAt,
		&resolvedAt,
	); err != nil {
		return nil, err
	}

	report.UserID = int64Ptr(userID)
	report.ResolvedAt = timePtr(resolvedAt)
	report.Status = model.ReportStatus(status)
	report.Priority = model.Priority(priority)
	report.CreatedAt = report.CreatedAt.UTC()
	report.UpdatedAt = report.UpdatedAt.UTC()
	return &report, nil
}

// CreateReport inserts a scored report.
func (s *SQLiteStorage) CreateReport(ctx context.Context, report *model.Report) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReport(report); err != nil {
		return err
	}
	return s.createReportTx(ctx, s.db, report)
}

func (s *SQLiteStorage) createReportTx(ctx context.Context, q queryable, report *model.Report) error {
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	if report.UpdatedAt.IsZero() {
		report.UpdatedAt = report.CreatedAt
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO reports (user_id, latitude, longitude, address, image_url, waste_type,
			manual_classification, confidence_score, description, status, priority,
			created_at, updated_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		nullableInt64(report.UserID),
		report.Latitude,
		report.Longitude,
		report.Address,
		report.ImageURL,
		report.WasteType,
		report.ManualClassification,
		report.Confidence,
		report.Description,
		string(report.Status),
		int(report.Priority),
		report.CreatedAt.UTC(),
		report.UpdatedAt.UTC(),
		nullableTime(report.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get report ID: %w", err)
	}
	report.ID = id
	return nil
}

// GetReport retrieves a report by ID.
func (s *SQLiteStorage) GetReport(ctx context.Context, id int64) (*model.Report, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getReportTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getReportTx(ctx context.Context, q queryable, id int64) (*model.Report, error) {
	row := q.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("report %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", classify(err))
	}
	return report, nil
}

// ListReports returns reports matching filter, newest first.
func (s *SQLiteStorage) ListReports(ctx context.Context, filter model.ReportFilter) ([]model.Report, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listReportsTx(ctx, s.db, filter)
}

func (s *SQLiteStorage) listReportsTx(ctx context.Context, q queryable, filter model.ReportFilter) ([]model.Report, error) {
	var conditions []string
	var args []any

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, int(*filter.Priority))
	}
	if filter.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *filter.UserID)
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, max(filter.Offset, 0))
	}

	return s.queryReports(ctx, q, query, args...)
}

// ListActiveReports returns every report in a non-terminal status, oldest first.
func (s *SQLiteStorage) ListActiveReports(ctx context.Context) ([]model.Report, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listActiveReportsTx(ctx, s.db)
}

func (s *SQLiteStorage) listActiveReportsTx(ctx context.Context, q queryable) ([]model.Report, error) {
	clause, args := terminalStatusClause()
	return s.queryReports(ctx, q, `SELECT `+reportColumns+` FROM reports WHERE status NOT IN `+clause+` ORDER BY id`, args...)
}

func (s *SQLiteStorage) queryReports(ctx context.Context, q queryable, query string, args ...any) ([]model.Report, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var reports []model.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

// UpdateReportStatus moves a report from one status to another. It returns
// false without error when the report is no longer in status from.
// Entering a terminal success status records at as the resolution time.
func (s *SQLiteStorage) UpdateReportStatus(ctx context.Context, id int64, from, to model.ReportStatus, at time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return s.updateReportStatusTx(ctx, s.db, id, from, to, at)
}

func (s *SQLiteStorage) updateReportStatusTx(ctx context.Context, q queryable, id int64, from, to model.ReportStatus, at time.Time) (bool, error) {
	var resolvedAt any
	if to.IsTerminalSuccess() {
		resolvedAt = at.UTC()
	}

	result, err := q.ExecContext(ctx, `
		UPDATE reports
		SET status = ?, updated_at = ?, resolved_at = COALESCE(?, resolved_at)
		WHERE id = ? AND status = ?
	`, string(to), at.UTC(), resolvedAt, id, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update report status: %w", classify(err))
	}
	return affectedOne(result)
}

// UpdateReportPriority sets a new tier if the stored tier is still from.
func (s *SQLiteStorage) UpdateReportPriority(ctx context.Context, id int64, from, to model.Priority, at time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validatePriority(to); err != nil {
		return false, err
	}
	return s.updateReportPriorityTx(ctx, s.db, id, from, to, at)
}

func (s *SQLiteStorage) updateReportPriorityTx(ctx context.Context, q queryable, id int64, from, to model.Priority, at time.Time) (bool, error) {
	result, err := q.ExecContext(ctx, `
		UPDATE reports SET priority = ?, updated_at = ?
		WHERE id = ? AND priority = ?
	`, int(to), at.UTC(), id, int(from))
	if err != nil {
		return false, fmt.Errorf("failed to update report priority: %w", classify(err))
	}
	return affectedOne(result)
}

// UpdateReportClassification stores a manual waste type correction.
func (s *SQLiteStorage) UpdateReportClassification(ctx context.Context, id int64, manualType string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(manualType, "manualType"); err != nil {
		return err
	}
	return s.updateReportClassificationTx(ctx, s.db, id, manualType, at)
}

func (s *SQLiteStorage) updateReportClassificationTx(ctx context.Context, q queryable, id int64, manualType string, at time.Time) error {
	result, err := q.ExecContext(ctx, `
		UPDATE reports SET manual_classification = ?, updated_at = ? WHERE id = ?
	`, manualType, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update report classification: %w", classify(err))
	}
	ok, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !ok {
		return common.NotFoundf("report %d", id)
	}
	return nil
}

// CountActiveByPriority counts non-terminal reports per tier.
// Every tier is present in the result.
func (s *SQLiteStorage) CountActiveByPriority(ctx context.Context) (map[model.Priority]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.countActiveByPriorityTx(ctx, s.db)
}

func (s *SQLiteStorage) countActiveByPriorityTx(ctx context.Context, q queryable) (map[model.Priority]int, error) {
	clause, args := terminalStatusClause()
	rows, err := q.QueryContext(ctx, `
		SELECT priority, COUNT(*) FROM reports
		WHERE status NOT IN `+clause+`
		GROUP BY priority
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports by priority: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	counts := map[model.Priority]int{
		model.PriorityLow:    0,
		model.PriorityMedium: 0,
		model.PriorityHigh:   0,
	}
	for rows.Next() {
		var priority, count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, fmt.Errorf("failed to scan priority count: %w", err)
		}
		counts[model.Priority(priority)] = count
	}
	return counts, rows.Err()
}

// CountByStatus counts all reports per status. Every status is present in the result.
func (s *SQLiteStorage) CountByStatus(ctx context.Context) (map[model.ReportStatus]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.countByStatusTx(ctx, s.db)
}

func (s *SQLiteStorage) countByStatusTx(ctx context.Context, q queryable) (map[model.ReportStatus]int, error) {
	rows, err := q.QueryContext(ctx, `SELECT status, COUNT(*) FROM reports GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports by status: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.ReportStatus]int, len(model.AllStatuses))
	for _, status := range model.AllStatuses {
		counts[status] = 0
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[model.ReportStatus(status)] = count
	}
	return counts, rows.Err()
}

func affectedOne(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}
