package lifecycle

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/ledger"
	"github.com/Veraticus/zerbin/internal/lock"
	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/priority"
	"github.com/Veraticus/zerbin/internal/testutil"
	"github.com/Veraticus/zerbin/internal/wastetype"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	err     error
	changes []model.StatusChange
	mu      sync.Mutex
}

func (n *recordingNotifier) NotifyStatusChange(_ context.Context, change model.StatusChange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.changes)
}

type harness struct {
	controller *Controller
	db         *testutil.TestDB
	clock      *fakeClock
	notifier   *recordingNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	normalizer := wastetype.DefaultNormalizer()
	locker := lock.NewKeyedMutex()

	controller := New(Deps{
		Storage:    db.Storage,
		Engine:     priority.New(normalizer, db.Storage),
		Ledger:     ledger.New(db.Storage, locker, normalizer, ledger.DefaultPointsTable()),
		Locker:     locker,
		Notifier:   notifier,
		Normalizer: normalizer,
		Now:        clock.Now,
	})
	return &harness{controller: controller, db: db, clock: clock, notifier: notifier}
}

func (h *harness) mustCreate(t *testing.T, userID *int64, wasteType string, confidence float64) *model.Report {
	t.Helper()
	created, err := h.controller.CreateReport(context.Background(), NewReport{
		UserID:     userID,
		WasteType:  wasteType,
		Confidence: confidence,
		Latitude:   40.4168,
		Longitude:  -3.7038,
	})
	require.NoError(t, err)
	return created.Report
}

func TestCreateReportAwardsPoints(t *testing.T) {
	h := newHarness(t)
	user := h.db.MustCreateUser("ana", 0)

	created, err := h.controller.CreateReport(context.Background(), NewReport{
		UserID:     &user.ID,
		WasteType:  "Plastic",
		Confidence: 70,
		Latitude:   40.4168,
		Longitude:  -3.7038,
	})
	require.NoError(t, err)

	assert.Equal(t, "plastic", created.Report.WasteType)
	assert.Equal(t, model.StatusPending, created.Report.Status)
	assert.Equal(t, model.PriorityMedium, created.Report.Priority)
	assert.Equal(t, "Medium", created.Score.Label)
	assert.False(t, created.Alert)
	require.NotNil(t, created.Award)
	assert.Equal(t, 10, created.Award.Points)
	assert.Equal(t, 10, h.db.MustBalance(user.ID))

	stored, err := h.controller.Report(context.Background(), created.Report.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, stored.Priority)
}

func TestCreateReportUrgentAlert(t *testing.T) {
	h := newHarness(t)

	created, err := h.controller.CreateReport(context.Background(), NewReport{
		WasteType:  "batteries",
		Confidence: 90,
	})
	require.NoError(t, err)

	assert.Equal(t, "battery", created.Report.WasteType)
	assert.True(t, created.Alert)
	assert.Nil(t, created.Award)
}

func TestCreateReportUnknownLabelBecomesTrash(t *testing.T) {
	h := newHarness(t)

	report := h.mustCreate(t, nil, "mystery sludge", 0)
	assert.Equal(t, wastetype.Trash, report.WasteType)
}

func TestCreateReportValidation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name  string
		input NewReport
	}{
		{name: "confidence too high", input: NewReport{WasteType: "plastic", Confidence: 150}},
		{name: "negative confidence", input: NewReport{WasteType: "plastic", Confidence: -1}},
		{name: "latitude out of range", input: NewReport{WasteType: "plastic", Latitude: 91}},
		{name: "longitude out of range", input: NewReport{WasteType: "plastic", Longitude: -181}},
		{name: "nan confidence", input: NewReport{WasteType: "battery", Confidence: math.NaN(), Latitude: 1, Longitude: 1}},
		{name: "nan latitude", input: NewReport{WasteType: "plastic", Latitude: math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.controller.CreateReport(context.Background(), tt.input)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}

	reports, err := h.controller.Reports(context.Background(), model.ReportFilter{})
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestCreateReportUnknownUser(t *testing.T) {
	h := newHarness(t)
	missing := int64(404)

	_, err := h.controller.CreateReport(context.Background(), NewReport{UserID: &missing, WasteType: "glass"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	reports, err := h.controller.Reports(context.Background(), model.ReportFilter{})
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestUpdateStatusAwardsBonusOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.db.MustCreateUser("ana", 0)
	report := h.mustCreate(t, &user.ID, "plastic", 70)

	moved, err := h.controller.UpdateStatus(ctx, report.ID, "resolved")
	require.NoError(t, err)
	assert.True(t, moved.Changed)
	assert.Equal(t, model.StatusPending, moved.OldStatus)
	assert.Equal(t, model.StatusResolved, moved.NewStatus)
	require.NotNil(t, moved.Report.ResolvedAt)
	require.NotNil(t, moved.Bonus)
	assert.Equal(t, 5, moved.Bonus.Points)
	assert.Equal(t, 15, h.db.MustBalance(user.ID))

	again, err := h.controller.UpdateStatus(ctx, report.ID, "resolved")
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Nil(t, again.Bonus)
	assert.Equal(t, 15, h.db.MustBalance(user.ID))
	assert.Equal(t, 1, h.notifier.count())
}

func TestUpdateStatusThroughIntermediateStates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.db.MustCreateUser("ana", 0)
	report := h.mustCreate(t, &user.ID, "glass", 50)

	for _, status := range []string{"assigned", "in_progress"} {
		moved, err := h.controller.UpdateStatus(ctx, report.ID, status)
		require.NoError(t, err)
		assert.Nil(t, moved.Bonus)
		assert.Nil(t, moved.Report.ResolvedAt)
	}
	assert.Equal(t, 12, h.db.MustBalance(user.ID))

	moved, err := h.controller.UpdateStatus(ctx, report.ID, "collected")
	require.NoError(t, err)
	require.NotNil(t, moved.Bonus)
	assert.Equal(t, 17, h.db.MustBalance(user.ID))
	assert.Equal(t, model.PriorityMedium, moved.Report.Priority)
	assert.Equal(t, 3, h.notifier.count())
}

func TestUpdateStatusRejectsInvalidTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	report := h.mustCreate(t, nil, "paper", 50)

	_, err := h.controller.UpdateStatus(ctx, report.ID, "rejected")
	require.NoError(t, err)

	_, err = h.controller.UpdateStatus(ctx, report.ID, "pending")
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = h.controller.UpdateStatus(ctx, report.ID, "archived")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = h.controller.UpdateStatus(ctx, 999, "resolved")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateStatusRejectionEarnsNoBonus(t *testing.T) {
	h := newHarness(t)
	user := h.db.MustCreateUser("ana", 0)
	report := h.mustCreate(t, &user.ID, "plastic", 70)

	moved, err := h.controller.UpdateStatus(context.Background(), report.ID, "rejected")
	require.NoError(t, err)
	assert.Nil(t, moved.Bonus)
	assert.Nil(t, moved.Report.ResolvedAt)
	assert.Equal(t, 10, h.db.MustBalance(user.ID))
}

func TestUpdateStatusNotifiesOwner(t *testing.T) {
	h := newHarness(t)
	user := h.db.MustCreateUser("ana", 0)
	report := h.mustCreate(t, &user.ID, "metal", 85)

	_, err := h.controller.UpdateStatus(context.Background(), report.ID, "assigned")
	require.NoError(t, err)

	require.Len(t, h.notifier.changes, 1)
	change := h.notifier.changes[0]
	assert.Equal(t, user.ID, change.UserID)
	assert.Equal(t, report.ID, change.ReportID)
	assert.Equal(t, model.StatusPending, change.OldStatus)
	assert.Equal(t, model.StatusAssigned, change.NewStatus)
	assert.Equal(t, "metal", change.WasteType)
	assert.Equal(t, "40.4168,-3.7038", change.Location)
}

func TestUpdateStatusSkipsNotificationForAnonymousReports(t *testing.T) {
	h := newHarness(t)
	report := h.mustCreate(t, nil, "metal", 85)

	_, err := h.controller.UpdateStatus(context.Background(), report.ID, "resolved")
	require.NoError(t, err)
	assert.Zero(t, h.notifier.count())
}

func TestUpdateStatusSwallowsNotificationFailure(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = errors.New("smtp down")
	user := h.db.MustCreateUser("ana", 0)
	report := h.mustCreate(t, &user.ID, "plastic", 70)

	moved, err := h.controller.UpdateStatus(context.Background(), report.ID, "resolved")
	require.NoError(t, err)
	assert.True(t, moved.Changed)
	assert.Equal(t, model.StatusResolved, moved.Report.Status)
	assert.Equal(t, 15, h.db.MustBalance(user.ID))
}

func TestConcurrentResolutionAwardsBonusOnce(t *testing.T) {
	h := newHarness(t)
	user := h.db.MustCreateUser("ana", 0)
	report := h.mustCreate(t, &user.ID, "plastic", 70)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.controller.UpdateStatus(context.Background(), report.ID, "resolved")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 15, h.db.MustBalance(user.ID))
	assert.Equal(t, 1, h.notifier.count())
}

func TestCorrectClassificationKeepsTierUntilRecalculated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	report := h.mustCreate(t, nil, "plastic", 90)
	assert.Equal(t, model.PriorityLow, report.Priority)

	corrected, err := h.controller.CorrectClassification(ctx, report.ID, "Batteries")
	require.NoError(t, err)
	assert.Equal(t, "battery", corrected.ManualClassification)
	assert.Equal(t, "plastic", corrected.WasteType)
	assert.Equal(t, model.PriorityLow, corrected.Priority)

	recalculated, updated, err := h.controller.RecalculateReport(ctx, report.ID)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, model.PriorityMedium, recalculated.Priority)

	_, err = h.controller.CorrectClassification(ctx, report.ID, "  ")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = h.controller.CorrectClassification(ctx, 999, "glass")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
