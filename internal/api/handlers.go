package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/ledger"
	"github.com/Veraticus/zerbin/internal/lifecycle"
	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/rewards"
	"github.com/Veraticus/zerbin/internal/service"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	reports       *lifecycle.Controller
	catalog       *rewards.Catalog
	ledger        *ledger.Ledger
	notifications service.Storage
	version       string
}

// NewHandlers creates the handler set.
func NewHandlers(reports *lifecycle.Controller, catalog *rewards.Catalog, l *ledger.Ledger, store service.Storage, version string) *Handlers {
	return &Handlers{
		reports:       reports,
		catalog:       catalog,
		ledger:        l,
		notifications: store,
		version:       version,
	}
}

// CreateReportRequest is the body of POST /reports.
type CreateReportRequest struct {
	UserID      *int64   `json:"user_id"`
	Confidence  *float64 `json:"confidence_score"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	WasteType   string   `json:"waste_type"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	ImageURL    string   `json:"image_url"`
}

// StatusRequest is the body of PATCH /reports/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ClassificationRequest is the body of PATCH /reports/:id/classification.
type ClassificationRequest struct {
	WasteType string `json:"waste_type" binding:"required"`
}

// AddClassificationRequest is the body of POST /classifications.
type AddClassificationRequest struct {
	WasteType         string `json:"waste_type" binding:"required"`
	Description       string `json:"description"`
	DecompositionDays int    `json:"decomposition_time_days"`
}

// CreateRewardRequest is the body of POST /rewards.
type CreateRewardRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	ImageURL       string `json:"image_url"`
	PointsRequired int    `json:"points_required"`
}

// RedeemRequest is the body of POST /rewards/redeem.
type RedeemRequest struct {
	UserID   int64 `json:"user_id" binding:"required"`
	RewardID int64 `json:"reward_id" binding:"required"`
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

// CreateReport scores and stores a new report.
func (h *Handlers) CreateReport(c *gin.Context) {
	var req CreateReportRequest
	if !bind(c, &req) {
		return
	}

	in := lifecycle.NewReport{
		UserID:      req.UserID,
		Address:     req.Address,
		ImageURL:    req.ImageURL,
		WasteType:   req.WasteType,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
	if req.Confidence != nil {
		in.Confidence = *req.Confidence
	}

	created, err := h.reports.CreateReport(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": created})
}

// ListReports lists reports, optionally filtered by status, priority or user.
func (h *Handlers) ListReports(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}

	reports, err := h.reports.Reports(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if reports == nil {
		reports = []model.Report{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": reports, "count": len(reports)})
}

// GetReport returns one report.
func (h *Handlers) GetReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	report, err := h.reports.Report(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
}

// GetReportPriority returns the current priority breakdown of a report.
func (h *Handlers) GetReportPriority(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	details, err := h.reports.PriorityDetails(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": details})
}

// UpdateStatus moves a report through its lifecycle.
func (h *Handlers) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !bind(c, &req) {
		return
	}

	transition, err := h.reports.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": transition})
}

// CorrectClassification records a manual waste type.
func (h *Handlers) CorrectClassification(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req ClassificationRequest
	if !bind(c, &req) {
		return
	}

	report, err := h.reports.CorrectClassification(c.Request.Context(), id, req.WasteType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
}

// Recalculate rescores every active report.
func (h *Handlers) Recalculate(c *gin.Context) {
	result, err := h.reports.Recalculate(c.Request.Context(), nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// PriorityStats returns report counts by tier and status.
func (h *Handlers) PriorityStats(c *gin.Context) {
	stats, err := h.reports.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}

// ListClassifications lists the stored waste classifications.
func (h *Handlers) ListClassifications(c *gin.Context) {
	list, err := h.reports.Classifications(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []model.WasteClassification{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

// AddClassification registers a waste classification.
func (h *Handlers) AddClassification(c *gin.Context) {
	var req AddClassificationRequest
	if !bind(c, &req) {
		return
	}
	created, err := h.reports.AddClassification(c.Request.Context(), req.WasteType, req.Description, req.DecompositionDays)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": created})
}

// TypePriority reports how a waste type is ranked.
func (h *Handlers) TypePriority(c *gin.Context) {
	info := h.reports.TypePriority(c.Request.Context(), c.Param("type"))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": info})
}

// ListRewards lists the catalog, cheapest first.
func (h *Handlers) ListRewards(c *gin.Context) {
	list, err := h.catalog.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []model.Reward{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

// CreateReward adds a catalog entry.
func (h *Handlers) CreateReward(c *gin.Context) {
	var req CreateRewardRequest
	if !bind(c, &req) {
		return
	}
	reward, err := h.catalog.Create(c.Request.Context(), req.Name, req.Description, req.PointsRequired, req.ImageURL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": reward})
}

// Redeem exchanges points for a reward.
func (h *Handlers) Redeem(c *gin.Context) {
	var req RedeemRequest
	if !bind(c, &req) {
		return
	}
	record, err := h.catalog.Redeem(c.Request.Context(), req.UserID, req.RewardID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": record})
}

// UserPoints returns a user's balance and ledger history.
func (h *Handlers) UserPoints(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	balance, err := h.ledger.Balance(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	history, err := h.ledger.History(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if history == nil {
		history = []model.LedgerEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"user_id": id,
		"points":  balance,
		"history": history,
	}})
}

// UserWallet returns a user's balance and redeemable rewards.
func (h *Handlers) UserWallet(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	wallet, err := h.catalog.Wallet(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": wallet})
}

// UserRedemptions lists a user's past redemptions.
func (h *Handlers) UserRedemptions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	records, err := h.catalog.Redemptions(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

// UserNotifications lists a user's notifications; ?unread=true limits the
// list to unread ones.
func (h *Handlers) UserNotifications(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	unread, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))

	list, err := h.notifications.ListNotifications(c.Request.Context(), id, unread)
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []model.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func parseFilter(c *gin.Context) (model.ReportFilter, error) {
	var filter model.ReportFilter

	if v := c.Query("status"); v != "" {
		status, err := model.ParseReportStatus(v)
		if err != nil {
			return filter, common.Validationf("%v", err)
		}
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, common.Validationf("priority must be 1, 2 or 3")
		}
		p, err := model.ParsePriority(n)
		if err != nil {
			return filter, common.Validationf("%v", err)
		}
		filter.Priority = &p
	}
	if v := c.Query("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, common.Validationf("user_id must be an integer")
		}
		filter.UserID = &id
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := c.Query(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return filter, common.Validationf("%s must be a non-negative integer", key)
			}
			*dst = n
		}
	}
	return filter, nil
}

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInsufficientPoints), errors.Is(err, common.ErrDuplicateEntry):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "Request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"success": false, "message": "internal error"})
		return
	}
	c.JSON(status, gin.H{"success": false, "message": common.Describe(err)})
}
