package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	for _, v := range []int{1, 2, 3} {
		p, err := ParsePriority(v)
		require.NoError(t, err)
		assert.Equal(t, Priority(v), p)
	}

	for _, v := range []int{0, 4, -1} {
		_, err := ParsePriority(v)
		assert.Error(t, err, "value %d", v)
	}
}

func TestPriorityLabel(t *testing.T) {
	assert.Equal(t, "High", PriorityHigh.Label())
	assert.Equal(t, "Medium", PriorityMedium.String())
	assert.Equal(t, "Low", PriorityLow.Label())
	assert.Equal(t, "Unknown", Priority(9).Label())
}

func TestPriorityFromDecompositionDays(t *testing.T) {
	tests := []struct {
		days int
		want Priority
	}{
		{0, PriorityHigh},
		{6, PriorityHigh},
		{7, PriorityMedium},
		{30, PriorityMedium},
		{365, PriorityMedium},
		{366, PriorityLow},
		{450000, PriorityLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PriorityFromDecompositionDays(tt.days), "days=%d", tt.days)
	}
}
