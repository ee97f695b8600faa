package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/zerbin/internal/model"
)

// NotificationSaver is the slice of storage the StoreNotifier needs.
type NotificationSaver interface {
	SaveNotification(ctx context.Context, notification *model.Notification) error
}

// StoreNotifier persists an in-app notification for the report owner.
type StoreNotifier struct {
	store NotificationSaver
}

// NewStoreNotifier creates a notifier backed by store.
func NewStoreNotifier(store NotificationSaver) *StoreNotifier {
	return &StoreNotifier{store: store}
}

// Message returns the title and body shown to the user for a new status.
func Message(reportID int64, status model.ReportStatus) (title, message string) {
	switch status {
	case model.StatusAssigned:
		return "Report assigned", fmt.Sprintf("Your report #%d has been assigned to a collection team.", reportID)
	case model.StatusInProgress:
		return "Collection in progress", fmt.Sprintf("A team is on its way to collect the waste reported in #%d.", reportID)
	case model.StatusCollected, model.StatusResolved:
		return "Report completed", fmt.Sprintf("The waste from report #%d has been collected. Thanks for helping keep the city clean!", reportID)
	case model.StatusRejected:
		return "Report rejected", fmt.Sprintf("Your report #%d could not be processed.", reportID)
	case model.StatusCancelled:
		return "Report cancelled", fmt.Sprintf("Report #%d has been cancelled.", reportID)
	default:
		return "Status update", fmt.Sprintf("The status of your report #%d changed to %s.", reportID, status)
	}
}

// NotifyStatusChange implements service.Notifier. Anonymous reports are skipped.
func (s *StoreNotifier) NotifyStatusChange(ctx context.Context, change model.StatusChange) error {
	if change.UserID <= 0 {
		return nil
	}

	extra, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode notification metadata: %w", err)
	}

	title, message := Message(change.ReportID, change.NewStatus)
	reportID := change.ReportID
	notification := &model.Notification{
		UserID:    change.UserID,
		ReportID:  &reportID,
		Type:      model.NotificationStatusChange,
		Title:     title,
		Message:   message,
		ExtraData: string(extra),
	}

	if err := s.store.SaveNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification for report %d: %w", change.ReportID, err)
	}
	return nil
}
