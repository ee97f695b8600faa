package model

import "time"

// LedgerEvent identifies why points were awarded.
type LedgerEvent string

// Ledger events.
const (
	EventReportCreated   LedgerEvent = "report_created"
	EventReportCompleted LedgerEvent = "report_completed"
	EventManualAdjust    LedgerEvent = "manual_adjustment"
)

// LedgerEntry is one credit applied to a user's balance.
type LedgerEntry struct {
	CreatedAt    time.Time   `json:"created_at"`
	ReportID     *int64      `json:"report_id,omitempty"`
	Event        LedgerEvent `json:"event"`
	WasteType    string      `json:"waste_type,omitempty"`
	ID           int64       `json:"id"`
	UserID       int64       `json:"user_id"`
	Points       int         `json:"points"`
	BalanceAfter int         `json:"balance_after"`
}
