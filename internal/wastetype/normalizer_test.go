package wastetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := DefaultNormalizer()

	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: Unknown},
		{input: "   ", want: Unknown},
		{input: "\t\n", want: Unknown},
		{input: "Battery", want: "battery"},
		{input: "  PLASTIC  ", want: "plastic"},
		{input: "batteries", want: "battery"},
		{input: "E_Waste", want: "e-waste"},
		{input: "ewaste", want: "e-waste"},
		{input: "electronic", want: "electronics"},
		{input: "plastics", want: "plastic"},
		{input: "Metals", want: "metal"},
		{input: "trash", want: Trash},
		{input: "unknown", want: Unknown},
		{input: "asdkjh1234", want: Trash},
		{input: "banana peel", want: Trash},
		{input: "🗑️", want: Trash},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := n.Normalize(tt.input)
			assert.Equal(t, tt.want, got)
			assert.True(t, n.Table().Contains(got), "normalized type %q must be in the vocabulary", got)
		})
	}
}

func TestResolveKeepsUnknownLabels(t *testing.T) {
	n := DefaultNormalizer()

	assert.Equal(t, "banana peel", n.Resolve("  Banana Peel "))
	assert.Equal(t, "battery", n.Resolve("BATTERIES"))
	assert.Equal(t, Unknown, n.Resolve(""))
}

func TestCustomAliases(t *testing.T) {
	table, err := NewTable(map[string]int{"glass": 4, Trash: 2, Unknown: 2})
	if err != nil {
		t.Fatal(err)
	}
	n := NewNormalizer(table, map[string]string{"Bottle": "GLASS"})

	assert.Equal(t, "glass", n.Normalize("bottle"))
	assert.Equal(t, Trash, n.Normalize("batteries"))
}
