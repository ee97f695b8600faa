// Package wastetype canonicalizes waste labels and holds the hazard weight table.
package wastetype

import (
	"fmt"
	"sort"
	"strings"
)

// Sentinel canonical types.
const (
	// Unknown is returned for empty labels.
	Unknown = "unknown"
	// Trash is returned for labels outside the vocabulary.
	Trash = "trash"
)

// Weight bounds for table entries.
const (
	MinWeight = 1
	MaxWeight = 5
)

// DefaultWeights returns a fresh copy of the built-in hazard weights.
func DefaultWeights() map[string]int {
	return map[string]int{
		"battery":     5,
		"e-waste":     5,
		"medical":     5,
		"hazardous":   5,
		"toxic":       5,
		"glass":       4,
		"metal":       4,
		"electronics": 4,
		"plastic":     3,
		"cardboard":   3,
		"paper":       2,
		"organic":     3,
		"food":        3,
		"biological":  3,
		Trash:         2,
		Unknown:       2,
	}
}

// Table is an immutable canonical type → weight mapping.
type Table struct {
	weights map[string]int
}

// NewTable validates and copies weights into a Table.
func NewTable(weights map[string]int) (*Table, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("weight table cannot be empty")
	}

	copied := make(map[string]int, len(weights))
	for name, weight := range weights {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return nil, fmt.Errorf("weight table contains an empty type name")
		}
		if weight < MinWeight || weight > MaxWeight {
			return nil, fmt.Errorf("weight for %q must be between %d and %d, got %d", key, MinWeight, MaxWeight, weight)
		}
		copied[key] = weight
	}

	return &Table{weights: copied}, nil
}

// DefaultTable returns a Table built from DefaultWeights.
func DefaultTable() *Table {
	t, err := NewTable(DefaultWeights())
	if err != nil {
		panic(err)
	}
	return t
}

// Weight returns the weight of a canonical type.
func (t *Table) Weight(wasteType string) (int, bool) {
	w, ok := t.weights[wasteType]
	return w, ok
}

// Contains reports whether wasteType is part of the vocabulary.
func (t *Table) Contains(wasteType string) bool {
	_, ok := t.weights[wasteType]
	return ok
}

// Types returns the vocabulary sorted alphabetically.
func (t *Table) Types() []string {
	types := make([]string, 0, len(t.weights))
	for name := range t.weights {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
