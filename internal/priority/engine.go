// Package priority turns a waste type, classifier confidence and report age
// into an urgency tier.
package priority

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/service"
	"github.com/Veraticus/zerbin/internal/wastetype"
)

const organicType = "organic"

// Size estimates derived from classifier confidence.
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

// Tier thresholds on the total score.
const (
	highThreshold   = 8
	mediumThreshold = 5
)

// Config holds configuration options for the scoring engine.
type Config struct {
	Keywords       []string
	DefaultWeight  int
	AlertThreshold float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Keywords:       []string{"food", "fruit", "meat", "vegetable", "peel", "compost", "organic"},
		DefaultWeight:  2,
		AlertThreshold: 0.75,
	}
}

// Engine scores reports. It is safe for concurrent use.
type Engine struct {
	normalizer     *wastetype.Normalizer
	chain          []Strategy
	alertThreshold float64
}

// Breakdown explains every term of a score.
type Breakdown struct {
	WasteType         string          `json:"waste_type"`
	Source            Source          `json:"source"`
	EstimatedSize     string          `json:"estimated_size"`
	Label             string          `json:"label"`
	ExposureHours     decimal.Decimal `json:"exposure_hours"`
	TypeWeight        int             `json:"type_weight"`
	SizeWeight        int             `json:"size_weight"`
	ExposureWeight    int             `json:"exposure_weight"`
	Total             int             `json:"total_score"`
	DecompositionDays int             `json:"decomposition_days"`
	Priority          model.Priority  `json:"priority"`
	IsUrgent          bool            `json:"is_urgent"`
}

// Result is the outcome of scoring a report.
type Result struct {
	Label     string         `json:"label"`
	Breakdown Breakdown      `json:"breakdown"`
	Priority  model.Priority `json:"priority"`
}

// New creates an engine with the default configuration. lookup may be nil.
func New(normalizer *wastetype.Normalizer, lookup service.ClassificationSource) *Engine {
	return NewWithConfig(normalizer, lookup, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(normalizer *wastetype.Normalizer, lookup service.ClassificationSource, config Config) *Engine {
	defaults := DefaultConfig()
	if config.DefaultWeight < wastetype.MinWeight || config.DefaultWeight > wastetype.MaxWeight {
		config.DefaultWeight = defaults.DefaultWeight
	}
	if config.AlertThreshold <= 0 {
		config.AlertThreshold = defaults.AlertThreshold
	}

	organicWeight, ok := normalizer.Table().Weight(organicType)
	if !ok {
		organicWeight = config.DefaultWeight
	}

	return &Engine{
		normalizer: normalizer,
		chain: []Strategy{
			&lookupStrategy{source: lookup, normalizer: normalizer},
			&keywordStrategy{normalizer: normalizer, keywords: config.Keywords, weight: organicWeight},
			&tableStrategy{normalizer: normalizer},
			&defaultStrategy{normalizer: normalizer, weight: config.DefaultWeight},
		},
		alertThreshold: config.AlertThreshold,
	}
}

// TypeInfo returns the first answer of the strategy chain for wasteType.
func (e *Engine) TypeInfo(ctx context.Context, wasteType string) TypeInfo {
	for _, strategy := range e.chain {
		if info, ok := strategy.Resolve(ctx, wasteType); ok {
			return info
		}
	}
	// unreachable: the default strategy always answers
	return TypeInfo{WasteType: wastetype.Unknown, Source: SourceDefault, Weight: 2, Priority: model.PriorityLow, DecompositionDays: 365}
}

// Score computes the priority of a report. Confidence is on a 0..100 scale
// where zero means the classifier gave none.
func (e *Engine) Score(ctx context.Context, wasteType string, confidence float64, createdAt, now time.Time) Result {
	info := e.TypeInfo(ctx, wasteType)
	size, sizeWeight := sizeWeight(confidence)

	hours := now.UTC().Sub(createdAt.UTC()).Hours()
	if hours < 0 {
		hours = 0
	}
	exposure := exposureWeight(hours)

	total := info.Weight + sizeWeight + exposure
	tier := tierFor(total)

	return Result{
		Priority: tier,
		Label:    tier.Label(),
		Breakdown: Breakdown{
			WasteType:         info.WasteType,
			Source:            info.Source,
			EstimatedSize:     size,
			Label:             tier.Label(),
			ExposureHours:     decimal.NewFromFloat(hours).Round(2),
			TypeWeight:        info.Weight,
			SizeWeight:        sizeWeight,
			ExposureWeight:    exposure,
			Total:             total,
			DecompositionDays: info.DecompositionDays,
			Priority:          tier,
			IsUrgent:          info.IsUrgent,
		},
	}
}

// ShouldAlert reports whether a new report warrants an urgent alert:
// the type must be high priority and the classifier fairly sure.
// Confidence may be given as 0..1 or 0..100.
func (e *Engine) ShouldAlert(ctx context.Context, wasteType string, confidence float64) bool {
	if confidence > 1 {
		confidence /= 100
	}
	info := e.TypeInfo(ctx, wasteType)
	return info.Priority == model.PriorityHigh && confidence >= e.alertThreshold
}

// sizeWeight infers object size from confidence: the classifier is surest
// about small, isolated items.
func sizeWeight(confidence float64) (string, int) {
	switch {
	case confidence <= 0:
		return SizeLarge, 3
	case confidence >= 80:
		return SizeSmall, 1
	case confidence >= 60:
		return SizeMedium, 2
	default:
		return SizeLarge, 3
	}
}

func exposureWeight(hours float64) int {
	switch {
	case hours < 24:
		return 0
	case hours < 72:
		return 1
	case hours < 168:
		return 2
	default:
		return 3
	}
}

func tierFor(total int) model.Priority {
	switch {
	case total >= highThreshold:
		return model.PriorityHigh
	case total >= mediumThreshold:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}
