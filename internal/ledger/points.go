package ledger

import (
	"fmt"
	"strings"
)

// PointsTable maps canonical waste types to creation awards.
type PointsTable struct {
	points          map[string]int
	Default         int
	CompletionBonus int
}

// DefaultPoints returns a fresh copy of the built-in creation awards.
// Recyclables and hazardous items earn more than general waste.
func DefaultPoints() map[string]int {
	return map[string]int{
		"battery":     20,
		"e-waste":     20,
		"electronics": 15,
		"medical":     15,
		"hazardous":   15,
		"toxic":       15,
		"metal":       12,
		"glass":       12,
		"plastic":     10,
		"cardboard":   8,
		"paper":       8,
		"organic":     5,
		"food":        5,
		"biological":  5,
	}
}

// DefaultPointsTable returns the built-in table: unknown types earn 5 and
// completion earns a flat 5.
func DefaultPointsTable() PointsTable {
	t, err := NewPointsTable(DefaultPoints(), 5, 5)
	if err != nil {
		panic(err)
	}
	return t
}

// NewPointsTable validates and copies an award table.
func NewPointsTable(points map[string]int, defaultPoints, completionBonus int) (PointsTable, error) {
	if defaultPoints < 0 || completionBonus < 0 {
		return PointsTable{}, fmt.Errorf("default points and completion bonus cannot be negative")
	}

	copied := make(map[string]int, len(points))
	for name, p := range points {
		if p < 0 {
			return PointsTable{}, fmt.Errorf("points for %q cannot be negative, got %d", name, p)
		}
		copied[strings.ToLower(strings.TrimSpace(name))] = p
	}

	return PointsTable{points: copied, Default: defaultPoints, CompletionBonus: completionBonus}, nil
}

// For returns the creation award for a canonical type.
func (t PointsTable) For(wasteType string) int {
	if p, ok := t.points[wasteType]; ok {
		return p
	}
	return t.Default
}
