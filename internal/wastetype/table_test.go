package wastetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	tests := []struct {
		weights map[string]int
		name    string
		wantErr bool
	}{
		{name: "valid", weights: map[string]int{"battery": 5, "paper": 1}},
		{name: "empty", weights: map[string]int{}, wantErr: true},
		{name: "weight too high", weights: map[string]int{"battery": 6}, wantErr: true},
		{name: "weight too low", weights: map[string]int{"battery": 0}, wantErr: true},
		{name: "blank name", weights: map[string]int{"  ": 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewTable(tt.weights)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, table)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, table)
		})
	}
}

func TestTableIsIsolatedFromInput(t *testing.T) {
	weights := map[string]int{"Battery ": 5}
	table, err := NewTable(weights)
	require.NoError(t, err)

	weights["battery"] = 1

	w, ok := table.Weight("battery")
	require.True(t, ok)
	assert.Equal(t, 5, w)
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()

	w, ok := table.Weight("battery")
	assert.True(t, ok)
	assert.Equal(t, 5, w)

	w, ok = table.Weight(Trash)
	assert.True(t, ok)
	assert.Equal(t, 2, w)

	assert.True(t, table.Contains(Unknown))
	assert.False(t, table.Contains("spaceship"))

	types := table.Types()
	assert.IsIncreasing(t, types)
	assert.Len(t, types, len(DefaultWeights()))
}
