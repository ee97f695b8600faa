package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportStatusTransitions(t *testing.T) {
	tests := []struct {
		from ReportStatus
		to   ReportStatus
		want bool
	}{
		{StatusPending, StatusAssigned, true},
		{StatusPending, StatusResolved, true},
		{StatusAssigned, StatusInProgress, true},
		{StatusAssigned, StatusPending, false},
		{StatusInProgress, StatusCollected, true},
		{StatusInProgress, StatusAssigned, false},
		{StatusInProgress, StatusInProgress, false},
		{StatusResolved, StatusPending, false},
		{StatusCollected, StatusResolved, false},
		{StatusRejected, StatusAssigned, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestReportStatusTerminal(t *testing.T) {
	assert.ElementsMatch(t,
		[]ReportStatus{StatusCollected, StatusResolved, StatusRejected, StatusCancelled},
		TerminalStatuses())

	for _, s := range TerminalStatuses() {
		for _, next := range AllStatuses {
			assert.False(t, s.CanTransition(next), "%s must not move to %s", s, next)
		}
	}

	assert.True(t, StatusResolved.IsTerminalSuccess())
	assert.True(t, StatusCollected.IsTerminalSuccess())
	assert.False(t, StatusRejected.IsTerminalSuccess())
	assert.False(t, StatusPending.IsTerminal())
}

func TestParseReportStatus(t *testing.T) {
	got, err := ParseReportStatus("  In_Progress ")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got)

	_, err = ParseReportStatus("done")
	assert.Error(t, err)

	_, err = ParseReportStatus("")
	assert.Error(t, err)
}

func TestReportEffectiveWasteType(t *testing.T) {
	r := &Report{WasteType: "plastic"}
	assert.Equal(t, "plastic", r.EffectiveWasteType())

	r.ManualClassification = "organic"
	assert.Equal(t, "organic", r.EffectiveWasteType())
}

func TestReportLocation(t *testing.T) {
	r := &Report{Latitude: 48.8566, Longitude: -2.5}
	assert.Equal(t, "48.8566,-2.5", r.Location())

	r = &Report{}
	assert.Equal(t, "0,0", r.Location())
}
