// Package notify delivers report status changes to users and downstream systems.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/service"
)

// Multi fans a status change out to several notifiers. Every notifier is
// tried; the joined errors are returned.
type Multi []service.Notifier

// NotifyStatusChange implements service.Notifier.
func (m Multi) NotifyStatusChange(ctx context.Context, change model.StatusChange) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyStatusChange(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes status changes to the structured log.
type LogNotifier struct{}

// NotifyStatusChange implements service.Notifier.
func (LogNotifier) NotifyStatusChange(ctx context.Context, change model.StatusChange) error {
	slog.InfoContext(ctx, "Report status changed",
		"report_id", change.ReportID,
		"user_id", change.UserID,
		"old_status", change.OldStatus,
		"new_status", change.NewStatus,
		"waste_type", change.WasteType,
		"location", change.Location)
	return nil
}
