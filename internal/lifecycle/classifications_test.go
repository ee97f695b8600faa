package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/priority"
)

func TestAddClassificationDerivesPriority(t *testing.T) {
	tests := []struct {
		wasteType string
		days      int
		want      model.Priority
	}{
		{wasteType: "banana peel", days: 3, want: model.PriorityHigh},
		{wasteType: "diapers", days: 180, want: model.PriorityMedium},
		{wasteType: "styrofoam", days: 500, want: model.PriorityLow},
		{wasteType: "boundary week", days: 7, want: model.PriorityMedium},
		{wasteType: "boundary year", days: 365, want: model.PriorityMedium},
	}

	h := newHarness(t)
	for _, tt := range tests {
		t.Run(tt.wasteType, func(t *testing.T) {
			got, err := h.controller.AddClassification(context.Background(), tt.wasteType, "", tt.days)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.PriorityLevel)
			assert.NotZero(t, got.ID)
		})
	}
}

func TestAddClassificationRejectsDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.controller.AddClassification(ctx, "Batteries", "leaks acid", 100)
	require.NoError(t, err)

	_, err = h.controller.AddClassification(ctx, "battery", "", 50)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	_, err = h.controller.AddClassification(ctx, " ", "", 5)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = h.controller.AddClassification(ctx, "glass", "", -1)
	assert.ErrorIs(t, err, common.ErrValidation)

	list, err := h.controller.Classifications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "battery", list[0].WasteType)
}

func TestTypePriorityPrefersStoredClassification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	before := h.controller.TypePriority(ctx, "glass")
	assert.Equal(t, priority.SourceTable, before.Source)

	_, err := h.controller.AddClassification(ctx, "glass", "", 2)
	require.NoError(t, err)

	after := h.controller.TypePriority(ctx, "glass")
	assert.Equal(t, priority.SourceClassification, after.Source)
	assert.Equal(t, model.PriorityHigh, after.Priority)
	assert.True(t, after.IsUrgent)
}
