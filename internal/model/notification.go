package model

import "time"

// NotificationType categorizes a notification.
type NotificationType string

// Notification types.
const (
	NotificationStatusChange NotificationType = "status_change"
	NotificationGeneral      NotificationType = "general"
)

// Notification is a message stored for a user.
type Notification struct {
	CreatedAt time.Time        `json:"created_at"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	ReportID  *int64           `json:"report_id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	ExtraData string           `json:"extra_data,omitempty"`
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	IsRead    bool             `json:"is_read"`
}

// StatusChange is the request sent to notification sinks when a report
// changes state.
type StatusChange struct {
	OldStatus ReportStatus `json:"old_status"`
	NewStatus ReportStatus `json:"new_status"`
	WasteType string       `json:"waste_type"`
	Location  string       `json:"location"`
	UserID    int64        `json:"user_id"`
	ReportID  int64        `json:"report_id"`
}
