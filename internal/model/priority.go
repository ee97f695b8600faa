package model

import "fmt"

// Priority is the urgency tier of a report.
type Priority int

// Priority tiers.
const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// Label returns the human readable tier name.
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	default:
		return "Unknown"
	}
}

// Valid reports whether p is one of the defined tiers.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

func (p Priority) String() string {
	return p.Label()
}

// ParsePriority converts a stored integer into a Priority.
func ParsePriority(v int) (Priority, error) {
	p := Priority(v)
	if !p.Valid() {
		return 0, fmt.Errorf("priority must be 1, 2 or 3, got %d", v)
	}
	return p, nil
}

// PriorityFromDecompositionDays maps a decomposition time to a tier.
// Waste that breaks down within a week is urgent; anything lasting
// longer than a year is low priority.
func PriorityFromDecompositionDays(days int) Priority {
	switch {
	case days > 365:
		return PriorityLow
	case days < 7:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}
