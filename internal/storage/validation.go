package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/model"
)

// Validation errors. Each also matches common.ErrValidation.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrNonPositive         = errors.New("value must be positive")
	ErrInvalidUser         = errors.New("invalid user")
	ErrInvalidReport       = errors.New("invalid report")
	ErrInvalidReward       = errors.New("invalid reward")
	ErrInvalidRedemption   = errors.New("invalid redemption")
	ErrInvalidLedger       = errors.New("invalid ledger entry")
	ErrInvalidWasteClass   = errors.New("invalid waste classification")
	ErrInvalidNotification = errors.New("invalid notification")
)

func invalid(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", common.ErrValidation, kind, fmt.Sprintf(format, args...))
}

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("%w: %w", common.ErrValidation, ErrNilContext)
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return invalid(ErrEmptyString, "%s", paramName)
	}
	return nil
}

func validatePositive(v int, paramName string) error {
	if v <= 0 {
		return invalid(ErrNonPositive, "%s must be greater than zero, got %d", paramName, v)
	}
	return nil
}

func validatePriority(p model.Priority) error {
	if !p.Valid() {
		return invalid(ErrInvalidReport, "priority must be 1, 2 or 3, got %d", p)
	}
	return nil
}

func validateUser(user *model.User) error {
	if user == nil {
		return invalid(ErrNilParameter, "user")
	}
	if strings.TrimSpace(user.Username) == "" {
		return invalid(ErrInvalidUser, "missing username")
	}
	if strings.TrimSpace(user.Email) == "" {
		return invalid(ErrInvalidUser, "missing email")
	}
	switch user.Role {
	case "", model.RoleCitizen, model.RoleAdmin:
	default:
		return invalid(ErrInvalidUser, "unknown role %q", user.Role)
	}
	return nil
}

func validateReport(report *model.Report) error {
	if report == nil {
		return invalid(ErrNilParameter, "report")
	}
	if strings.TrimSpace(report.WasteType) == "" {
		return invalid(ErrInvalidReport, "missing waste type")
	}
	if !(report.Confidence >= 0 && report.Confidence <= 100) {
		return invalid(ErrInvalidReport, "confidence must be between 0 and 100, got %v", report.Confidence)
	}
	if _, err := model.ParseReportStatus(string(report.Status)); err != nil {
		return invalid(ErrInvalidReport, "%v", err)
	}
	return validatePriority(report.Priority)
}

func validateReward(reward *model.Reward) error {
	if reward == nil {
		return invalid(ErrNilParameter, "reward")
	}
	if strings.TrimSpace(reward.Name) == "" {
		return invalid(ErrInvalidReward, "missing name")
	}
	if reward.PointsRequired <= 0 {
		return invalid(ErrInvalidReward, "points required must be positive, got %d", reward.PointsRequired)
	}
	return nil
}

func validateRedemption(redemption *model.RewardRedemption) error {
	if redemption == nil {
		return invalid(ErrNilParameter, "redemption")
	}
	if redemption.UserID <= 0 || redemption.RewardID <= 0 {
		return invalid(ErrInvalidRedemption, "user and reward are required")
	}
	if redemption.PointCost <= 0 {
		return invalid(ErrInvalidRedemption, "point cost must be positive, got %d", redemption.PointCost)
	}
	return nil
}

func validateLedgerEntry(entry *model.LedgerEntry) error {
	if entry == nil {
		return invalid(ErrNilParameter, "ledger entry")
	}
	if entry.UserID <= 0 {
		return invalid(ErrInvalidLedger, "missing user")
	}
	if strings.TrimSpace(string(entry.Event)) == "" {
		return invalid(ErrInvalidLedger, "missing event")
	}
	if entry.Points < 0 {
		return invalid(ErrInvalidLedger, "credits cannot be negative, got %d", entry.Points)
	}
	return nil
}

func validateWasteClassification(c *model.WasteClassification) error {
	if c == nil {
		return invalid(ErrNilParameter, "waste classification")
	}
	if strings.TrimSpace(c.WasteType) == "" {
		return invalid(ErrInvalidWasteClass, "missing waste type")
	}
	if c.DecompositionDays < 0 {
		return invalid(ErrInvalidWasteClass, "decomposition days cannot be negative, got %d", c.DecompositionDays)
	}
	if !c.PriorityLevel.Valid() {
		return invalid(ErrInvalidWasteClass, "priority level must be 1, 2 or 3, got %d", c.PriorityLevel)
	}
	return nil
}

func validateNotification(n *model.Notification) error {
	if n == nil {
		return invalid(ErrNilParameter, "notification")
	}
	if n.UserID <= 0 {
		return invalid(ErrInvalidNotification, "missing user")
	}
	if strings.TrimSpace(n.Title) == "" {
		return invalid(ErrInvalidNotification, "missing title")
	}
	return nil
}
