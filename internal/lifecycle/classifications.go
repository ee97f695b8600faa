package lifecycle

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/priority"
)

// AddClassification registers an authoritative entry for a waste type. The
// priority level follows from the decomposition time. Aliases resolve to
// their canonical name; unlisted labels are stored as given.
func (c *Controller) AddClassification(ctx context.Context, wasteType, description string, decompositionDays int) (*model.WasteClassification, error) {
	if strings.TrimSpace(wasteType) == "" {
		return nil, common.Validationf("waste type is required")
	}
	if decompositionDays < 0 {
		return nil, common.Validationf("decomposition days cannot be negative, got %d", decompositionDays)
	}

	classification := &model.WasteClassification{
		WasteType:         c.normalizer.Resolve(wasteType),
		Description:       strings.TrimSpace(description),
		DecompositionDays: decompositionDays,
		PriorityLevel:     model.PriorityFromDecompositionDays(decompositionDays),
	}
	if err := c.storage.CreateWasteClassification(ctx, classification); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Waste classification added",
		"waste_type", classification.WasteType,
		"priority", classification.PriorityLevel)
	return classification, nil
}

// Classifications lists the stored entries.
func (c *Controller) Classifications(ctx context.Context) ([]model.WasteClassification, error) {
	return c.storage.ListWasteClassifications(ctx)
}

// TypePriority reports how the engine currently ranks a waste type.
func (c *Controller) TypePriority(ctx context.Context, wasteType string) priority.TypeInfo {
	return c.engine.TypeInfo(ctx, wasteType)
}
