package storage

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{
			name:      "valid string",
			str:       "test",
			paramName: "param",
			wantErr:   false,
		},
		{
			name:      "empty string",
			str:       "",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			str:       "   ",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "string with spaces",
			str:       "  test  ",
			paramName: "param",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidateReport(t *testing.T) {
	valid := func() *model.Report {
		return &model.Report{WasteType: "plastic", Confidence: 50, Status: model.StatusPending, Priority: model.PriorityLow}
	}

	tests := []struct {
		report  *model.Report
		name    string
		errMsg  string
		wantErr bool
	}{
		{name: "valid report", report: valid()},
		{name: "nil report", report: nil, wantErr: true, errMsg: "report"},
		{name: "missing waste type", report: func() *model.Report { r := valid(); r.WasteType = " "; return r }(), wantErr: true, errMsg: "waste type"},
		{name: "confidence above range", report: func() *model.Report { r := valid(); r.Confidence = 100.5; return r }(), wantErr: true, errMsg: "confidence"},
		{name: "negative confidence", report: func() *model.Report { r := valid(); r.Confidence = -1; return r }(), wantErr: true, errMsg: "confidence"},
		{name: "nan confidence", report: func() *model.Report { r := valid(); r.Confidence = math.NaN(); return r }(), wantErr: true, errMsg: "confidence"},
		{name: "unknown status", report: func() *model.Report { r := valid(); r.Status = "lost"; return r }(), wantErr: true, errMsg: "status"},
		{name: "bad priority", report: func() *model.Report { r := valid(); r.Priority = 0; return r }(), wantErr: true, errMsg: "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateReport(tt.report)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateReward(t *testing.T) {
	assert.NoError(t, validateReward(&model.Reward{Name: "Sticker", PointsRequired: 1}))
	assert.ErrorIs(t, validateReward(&model.Reward{Name: "", PointsRequired: 1}), ErrInvalidReward)
	assert.ErrorIs(t, validateReward(&model.Reward{Name: "Sticker", PointsRequired: 0}), ErrInvalidReward)
	assert.ErrorIs(t, validateReward(nil), ErrNilParameter)
}

func TestValidateLedgerEntry(t *testing.T) {
	assert.NoError(t, validateLedgerEntry(&model.LedgerEntry{UserID: 1, Event: model.EventReportCreated, Points: 0}))
	assert.ErrorIs(t, validateLedgerEntry(&model.LedgerEntry{UserID: 1, Event: model.EventReportCreated, Points: -5}), ErrInvalidLedger)
	assert.ErrorIs(t, validateLedgerEntry(&model.LedgerEntry{Event: model.EventReportCreated, Points: 5}), ErrInvalidLedger)
	assert.ErrorIs(t, validateLedgerEntry(&model.LedgerEntry{UserID: 1, Points: 5}), ErrInvalidLedger)
}

func TestValidateWasteClassification(t *testing.T) {
	assert.NoError(t, validateWasteClassification(&model.WasteClassification{WasteType: "glass", DecompositionDays: 1000000, PriorityLevel: model.PriorityLow}))
	assert.ErrorIs(t, validateWasteClassification(&model.WasteClassification{WasteType: "glass", DecompositionDays: -1, PriorityLevel: model.PriorityLow}), ErrInvalidWasteClass)
	assert.ErrorIs(t, validateWasteClassification(&model.WasteClassification{WasteType: "glass", PriorityLevel: 4}), ErrInvalidWasteClass)
	assert.ErrorIs(t, validateWasteClassification(&model.WasteClassification{PriorityLevel: model.PriorityLow}), common.ErrValidation)
}

func TestValidateUser(t *testing.T) {
	assert.NoError(t, validateUser(&model.User{Username: "ana", Email: "ana@example.com"}))
	assert.ErrorIs(t, validateUser(&model.User{Username: "ana"}), ErrInvalidUser)
	assert.ErrorIs(t, validateUser(&model.User{Username: "ana", Email: "a@b", Role: "root"}), ErrInvalidUser)
}
