package priority

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/service"
	"github.com/Veraticus/zerbin/internal/wastetype"
)

// Source names the strategy that produced a type term.
type Source string

// Strategy sources, in precedence order.
const (
	SourceClassification Source = "classification"
	SourceKeyword        Source = "keyword"
	SourceTable          Source = "table"
	SourceDefault        Source = "default"
)

// TypeInfo is the per-type part of a priority decision.
type TypeInfo struct {
	WasteType         string         `json:"waste_type"`
	Description       string         `json:"description,omitempty"`
	Source            Source         `json:"source"`
	Weight            int            `json:"weight"`
	DecompositionDays int            `json:"decomposition_days"`
	Priority          model.Priority `json:"priority"`
	IsUrgent          bool           `json:"is_urgent"`
}

// Strategy resolves a waste label into type information.
// ok is false when the strategy has no opinion.
type Strategy interface {
	Name() Source
	Resolve(ctx context.Context, label string) (info TypeInfo, ok bool)
}

// levelWeights converts an authoritative priority level into a type weight.
var levelWeights = map[model.Priority]int{
	model.PriorityHigh:   5,
	model.PriorityMedium: 4,
	model.PriorityLow:    2,
}

type lookupStrategy struct {
	source     service.ClassificationSource
	normalizer *wastetype.Normalizer
}

func (s *lookupStrategy) Name() Source { return SourceClassification }

func (s *lookupStrategy) Resolve(ctx context.Context, label string) (TypeInfo, bool) {
	if s.source == nil {
		return TypeInfo{}, false
	}

	resolved := s.normalizer.Resolve(label)
	classification, err := s.source.GetWasteClassification(ctx, resolved)
	if err != nil {
		slog.WarnContext(ctx, "Classification lookup failed, falling back",
			"waste_type", resolved,
			"error", err)
		return TypeInfo{}, false
	}
	if classification == nil || !classification.PriorityLevel.Valid() {
		return TypeInfo{}, false
	}

	return TypeInfo{
		WasteType:         classification.WasteType,
		Description:       classification.Description,
		Source:            SourceClassification,
		Weight:            levelWeights[classification.PriorityLevel],
		DecompositionDays: classification.DecompositionDays,
		Priority:          classification.PriorityLevel,
		IsUrgent:          classification.IsUrgent(),
	}, true
}

type keywordStrategy struct {
	normalizer *wastetype.Normalizer
	keywords   []string
	weight     int
}

func (s *keywordStrategy) Name() Source { return SourceKeyword }

func (s *keywordStrategy) Resolve(_ context.Context, label string) (TypeInfo, bool) {
	resolved := s.normalizer.Resolve(label)
	for _, kw := range s.keywords {
		if kw != "" && strings.Contains(resolved, kw) {
			return TypeInfo{
				WasteType:         organicType,
				Description:       "Organic waste decomposes quickly and attracts pests",
				Source:            SourceKeyword,
				Weight:            s.weight,
				DecompositionDays: 7,
				Priority:          model.PriorityHigh,
				IsUrgent:          true,
			}, true
		}
	}
	return TypeInfo{}, false
}

type tableStrategy struct {
	normalizer *wastetype.Normalizer
}

func (s *tableStrategy) Name() Source { return SourceTable }

func (s *tableStrategy) Resolve(_ context.Context, label string) (TypeInfo, bool) {
	canonical := s.normalizer.Normalize(label)
	weight, ok := s.normalizer.Table().Weight(canonical)
	if !ok {
		return TypeInfo{}, false
	}
	level, days := levelFromWeight(weight)
	return TypeInfo{
		WasteType:         canonical,
		Source:            SourceTable,
		Weight:            weight,
		DecompositionDays: days,
		Priority:          level,
		IsUrgent:          level == model.PriorityHigh,
	}, true
}

type defaultStrategy struct {
	normalizer *wastetype.Normalizer
	weight     int
}

func (s *defaultStrategy) Name() Source { return SourceDefault }

func (s *defaultStrategy) Resolve(_ context.Context, label string) (TypeInfo, bool) {
	level, days := levelFromWeight(s.weight)
	return TypeInfo{
		WasteType:         s.normalizer.Normalize(label),
		Source:            SourceDefault,
		Weight:            s.weight,
		DecompositionDays: days,
		Priority:          level,
		IsUrgent:          level == model.PriorityHigh,
	}, true
}

func levelFromWeight(weight int) (model.Priority, int) {
	switch {
	case weight >= 5:
		return model.PriorityHigh, 7
	case weight == 4:
		return model.PriorityMedium, 30
	default:
		return model.PriorityLow, 365
	}
}
