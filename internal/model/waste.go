package model

// WasteClassification is an authoritative per-type priority entry.
type WasteClassification struct {
	WasteType         string   `json:"waste_type"`
	Description       string   `json:"description,omitempty"`
	ID                int64    `json:"id"`
	DecompositionDays int      `json:"decomposition_time_days"`
	PriorityLevel     Priority `json:"priority_level"`
}

// IsUrgent reports whether the classification marks its type as high priority.
func (c *WasteClassification) IsUrgent() bool {
	return c.PriorityLevel == PriorityHigh
}
