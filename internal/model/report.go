package model

import (
	"fmt"
	"strings"
	"time"
)

// ReportStatus is the lifecycle state of a report.
type ReportStatus string

// Report lifecycle states.
const (
	StatusPending    ReportStatus = "pending"
	StatusAssigned   ReportStatus = "assigned"
	StatusInProgress ReportStatus = "in_progress"
	StatusCollected  ReportStatus = "collected"
	StatusResolved   ReportStatus = "resolved"
	StatusRejected   ReportStatus = "rejected"
	StatusCancelled  ReportStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []ReportStatus{
	StatusPending,
	StatusAssigned,
	StatusInProgress,
	StatusCollected,
	StatusResolved,
	StatusRejected,
	StatusCancelled,
}

// transitions lists the states reachable from each non-terminal state.
var transitions = map[ReportStatus][]ReportStatus{
	StatusPending:    {StatusAssigned, StatusInProgress, StatusCollected, StatusResolved, StatusRejected, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusCollected, StatusResolved, StatusRejected, StatusCancelled},
	StatusInProgress: {StatusCollected, StatusResolved, StatusRejected, StatusCancelled},
}

// ParseReportStatus validates a status name.
func ParseReportStatus(s string) (ReportStatus, error) {
	status := ReportStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStatuses {
		if status == known {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown report status %q", s)
}

// IsTerminal reports whether no further transitions are allowed.
func (s ReportStatus) IsTerminal() bool {
	switch s {
	case StatusCollected, StatusResolved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminalSuccess reports whether the waste was actually handled.
func (s ReportStatus) IsTerminalSuccess() bool {
	return s == StatusCollected || s == StatusResolved
}

// CanTransition reports whether moving from s to next is allowed.
func (s ReportStatus) CanTransition(next ReportStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TerminalStatuses returns every terminal status.
func TerminalStatuses() []ReportStatus {
	var out []ReportStatus
	for _, s := range AllStatuses {
		if s.IsTerminal() {
			out = append(out, s)
		}
	}
	return out
}

// Report is a citizen waste report.
type Report struct {
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
	ResolvedAt           *time.Time   `json:"resolved_at,omitempty"`
	UserID               *int64       `json:"user_id,omitempty"`
	Address              string       `json:"address,omitempty"`
	ImageURL             string       `json:"image_url,omitempty"`
	WasteType            string       `json:"waste_type"`
	ManualClassification string       `json:"manual_classification,omitempty"`
	Description          string       `json:"description,omitempty"`
	Status               ReportStatus `json:"status"`
	ID                   int64        `json:"id"`
	Latitude             float64      `json:"latitude"`
	Longitude            float64      `json:"longitude"`
	Confidence           float64      `json:"confidence_score"`
	Priority             Priority     `json:"priority"`
}

// EffectiveWasteType returns the manual correction when present,
// otherwise the classifier's type.
func (r *Report) EffectiveWasteType() string {
	if r.ManualClassification != "" {
		return r.ManualClassification
	}
	return r.WasteType
}

// Location formats the coordinates as "lat,lng".
func (r *Report) Location() string {
	return fmt.Sprintf("%g,%g", r.Latitude, r.Longitude)
}

// ReportFilter narrows report listings.
type ReportFilter struct {
	Status   *ReportStatus
	Priority *Priority
	UserID   *int64
	Limit    int
	Offset   int
}
