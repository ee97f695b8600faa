package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/zerbin/internal/model"
)

// CreateWasteClassification adds an authoritative type entry. Types are
// stored lower-cased; an existing type yields common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateWasteClassification(ctx context.Context, classification *model.WasteClassification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateWasteClassification(classification); err != nil {
		return err
	}
	return s.createWasteClassificationTx(ctx, s.db, classification)
}

func (s *SQLiteStorage) createWasteClassificationTx(ctx context.Context, q queryable, c *model.WasteClassification) error {
	c.WasteType = strings.ToLower(strings.TrimSpace(c.WasteType))

	result, err := q.ExecContext(ctx, `
		INSERT INTO waste_classifications (waste_type, decomposition_time_days, priority_level, description)
		VALUES (?, ?, ?, ?)
	`, c.WasteType, c.DecompositionDays, int(c.PriorityLevel), c.Description)
	if err != nil {
		return fmt.Errorf("failed to create waste classification %q: %w", c.WasteType, classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get waste classification ID: %w", err)
	}
	c.ID = id
	return nil
}

// GetWasteClassification returns the entry for wasteType, or nil if there is none.
func (s *SQLiteStorage) GetWasteClassification(ctx context.Context, wasteType string) (*model.WasteClassification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getWasteClassificationTx(ctx, s.db, wasteType)
}

func (s *SQLiteStorage) getWasteClassificationTx(ctx context.Context, q queryable, wasteType string) (*model.WasteClassification, error) {
	var c model.WasteClassification
	var level int
	err := q.QueryRowContext(ctx, `
		SELECT id, waste_type, decomposition_time_days, priority_level, COALESCE(description, '')
		FROM waste_classifications
		WHERE waste_type = ?
	`, strings.ToLower(strings.TrimSpace(wasteType))).Scan(&c.ID, &c.WasteType, &c.DecompositionDays, &level, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get waste classification: %w", classify(err))
	}
	c.PriorityLevel = model.Priority(level)
	return &c, nil
}

// ListWasteClassifications returns all entries ordered by type.
func (s *SQLiteStorage) ListWasteClassifications(ctx context.Context) ([]model.WasteClassification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listWasteClassificationsTx(ctx, s.db)
}

func (s *SQLiteStorage) listWasteClassificationsTx(ctx context.Context, q queryable) ([]model.WasteClassification, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, waste_type, decomposition_time_days, priority_level, COALESCE(description, '')
		FROM waste_classifications
		ORDER BY waste_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query waste classifications: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var classifications []model.WasteClassification
	for rows.Next() {
		var c model.WasteClassification
		var level int
		if err := rows.Scan(&c.ID, &c.WasteType, &c.DecompositionDays, &level, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan waste classification: %w", err)
		}
		c.PriorityLevel = model.Priority(level)
		classifications = append(classifications, c)
	}
	return classifications, rows.Err()
}
