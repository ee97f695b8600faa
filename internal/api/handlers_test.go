package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/ledger"
	"github.com/Veraticus/zerbin/internal/lifecycle"
	"github.com/Veraticus/zerbin/internal/lock"
	"github.com/Veraticus/zerbin/internal/notify"
	"github.com/Veraticus/zerbin/internal/priority"
	"github.com/Veraticus/zerbin/internal/rewards"
	"github.com/Veraticus/zerbin/internal/testutil"
	"github.com/Veraticus/zerbin/internal/wastetype"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router http.Handler
	db     *testutil.TestDB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t)
	normalizer := wastetype.DefaultNormalizer()
	locker := lock.NewKeyedMutex()
	l := ledger.New(db.Storage, locker, normalizer, ledger.DefaultPointsTable())

	controller := lifecycle.New(lifecycle.Deps{
		Storage:    db.Storage,
		Engine:     priority.New(normalizer, db.Storage),
		Ledger:     l,
		Locker:     locker,
		Notifier:   notify.NewStoreNotifier(db.Storage),
		Normalizer: normalizer,
		Now:        func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) },
	})
	catalog := rewards.New(db.Storage, locker)

	h := NewHandlers(controller, catalog, l, db.Storage, "test")
	return &testServer{router: NewRouter(h), db: db}
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Success bool            `json:"success"`
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestReportLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	user := s.db.MustCreateUser("ana", 0)

	code, env := s.do(t, http.MethodPost, "/api/v1/reports", map[string]any{
		"user_id":          user.ID,
		"waste_type":       "plastic",
		"confidence_score": 70,
		"latitude":         40.4,
		"longitude":        -3.7,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	var created lifecycle.Created
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Medium", created.Score.Label)
	reportPath := fmt.Sprintf("/api/v1/reports/%d", created.Report.ID)

	code, _ = s.do(t, http.MethodGet, reportPath, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, reportPath+"/priority", nil)
	require.Equal(t, http.StatusOK, code)
	var details lifecycle.Details
	require.NoError(t, json.Unmarshal(env.Data, &details))
	assert.Equal(t, 3, details.Breakdown.TypeWeight)

	code, _ = s.do(t, http.MethodPatch, reportPath+"/status", map[string]string{"status": "resolved"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 15, s.db.MustBalance(user.ID))

	code, env = s.do(t, http.MethodPatch, reportPath+"/status", map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "that status change is not allowed", env.Message)

	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/notifications?unread=true", user.ID), nil)
	require.Equal(t, http.StatusOK, code)
	var notifications []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &notifications))
	assert.Len(t, notifications, 1)

	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/points", user.ID), nil)
	require.Equal(t, http.StatusOK, code)
	var points struct {
		Points int `json:"points"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &points))
	assert.Equal(t, 15, points.Points)
}

func TestListReportsFilters(t *testing.T) {
	s := newTestServer(t)
	for _, wasteType := range []string{"battery", "paper", "plastic"} {
		code, env := s.do(t, http.MethodPost, "/api/v1/reports", map[string]any{"waste_type": wasteType, "confidence_score": 50})
		require.Equal(t, http.StatusCreated, code, env.Message)
	}

	tests := []struct {
		query string
		code  int
		count int
	}{
		{query: "", code: http.StatusOK, count: 3},
		{query: "?priority=3", code: http.StatusOK, count: 1},
		{query: "?status=pending&limit=2", code: http.StatusOK, count: 2},
		{query: "?status=resolved", code: http.StatusOK, count: 0},
		{query: "?status=bogus", code: http.StatusBadRequest},
		{query: "?priority=7", code: http.StatusBadRequest},
		{query: "?limit=-1", code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			code, env := s.do(t, http.MethodGet, "/api/v1/reports"+tt.query, nil)
			require.Equal(t, tt.code, code)
			if code != http.StatusOK {
				return
			}
			var list []json.RawMessage
			require.NoError(t, json.Unmarshal(env.Data, &list))
			assert.Len(t, list, tt.count)
		})
	}
}

func TestRewardsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	user := s.db.MustCreateUser("ana", 50)

	code, env := s.do(t, http.MethodPost, "/api/v1/rewards", map[string]any{"name": "Tote bag", "points_required": 30})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var tote struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tote))

	code, env = s.do(t, http.MethodPost, "/api/v1/rewards", map[string]any{"name": "Bike", "points_required": 500})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var bike struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &bike))

	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/wallet", user.ID), nil)
	require.Equal(t, http.StatusOK, code)
	var wallet rewards.Wallet
	require.NoError(t, json.Unmarshal(env.Data, &wallet))
	assert.Len(t, wallet.Affordable, 1)

	code, _ = s.do(t, http.MethodPost, "/api/v1/rewards/redeem", map[string]any{"user_id": user.ID, "reward_id": tote.ID})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 20, s.db.MustBalance(user.ID))

	code, _ = s.do(t, http.MethodPost, "/api/v1/rewards/redeem", map[string]any{"user_id": user.ID, "reward_id": bike.ID})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/rewards/redeem", map[string]any{"user_id": user.ID, "reward_id": 999})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/rewards/redeem", map[string]any{"user_id": user.ID})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/redemptions", user.ID), nil)
	require.Equal(t, http.StatusOK, code)
	var records []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &records))
	assert.Len(t, records, 1)
}

func TestClassificationsOverHTTP(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/v1/classifications", map[string]any{"waste_type": "diapers", "decomposition_time_days": 3})
	assert.Equal(t, http.StatusCreated, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/classifications", map[string]any{"waste_type": "diapers", "decomposition_time_days": 400})
	assert.Equal(t, http.StatusConflict, code)

	code, env := s.do(t, http.MethodGet, "/api/v1/classifications/diapers/priority", nil)
	require.Equal(t, http.StatusOK, code)
	var info priority.TypeInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, priority.SourceClassification, info.Source)

	code, env = s.do(t, http.MethodGet, "/api/v1/classifications", nil)
	require.Equal(t, http.StatusOK, code)
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
}

func TestBadPathIDs(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/reports/abc", "/api/v1/reports/0", "/api/v1/users/-1/wallet"} {
		code, _ := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, code, path)
	}

	code, _ := s.do(t, http.MethodGet, "/api/v1/reports/42", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: common.Validationf("bad"), want: http.StatusBadRequest},
		{err: common.NotFoundf("user 1"), want: http.StatusNotFound},
		{err: fmt.Errorf("%w: need 50, have 30", common.ErrInsufficientPoints), want: http.StatusConflict},
		{err: fmt.Errorf("wrap: %w", common.ErrDuplicateEntry), want: http.StatusConflict},
		{err: errors.New("disk on fire"), want: http.StatusInternalServerError},
		{err: context.Canceled, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRecalculateAndStatsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodPost, "/api/v1/reports", map[string]any{"waste_type": "glass", "confidence_score": 90})
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(t, http.MethodPost, "/api/v1/priority/recalculate", nil)
	require.Equal(t, http.StatusOK, code)
	var result lifecycle.RecalcResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, lifecycle.RecalcResult{TotalChecked: 1, Updated: 0}, result)

	code, env = s.do(t, http.MethodGet, "/api/v1/priority/stats", nil)
	require.Equal(t, http.StatusOK, code)
	var stats lifecycle.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.ByPriority["Medium"])
}
