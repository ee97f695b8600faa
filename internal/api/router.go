// Package api exposes the engine over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Route paths under /api/v1.
const (
	EndPointHealth               = "/health"
	EndPointReports              = "/reports"
	EndPointReport               = "/reports/:id"
	EndPointReportPriority       = "/reports/:id/priority"
	EndPointReportStatus         = "/reports/:id/status"
	EndPointReportClassification = "/reports/:id/classification"
	EndPointRecalculate          = "/priority/recalculate"
	EndPointPriorityStats        = "/priority/stats"
	EndPointClassifications      = "/classifications"
	EndPointTypePriority         = "/classifications/:type/priority"
	EndPointRewards              = "/rewards"
	EndPointRedeem               = "/rewards/redeem"
	EndPointUserPoints           = "/users/:id/points"
	EndPointUserWallet           = "/users/:id/wallet"
	EndPointUserRedemptions      = "/users/:id/redemptions"
	EndPointUserNotifications    = "/users/:id/notifications"
)

// NewRouter builds the gin engine serving h.
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET(EndPointHealth, h.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET(EndPointHealth, h.Health)

		v1.POST(EndPointReports, h.CreateReport)
		v1.GET(EndPointReports, h.ListReports)
		v1.GET(EndPointReport, h.GetReport)
		v1.GET(EndPointReportPriority, h.GetReportPriority)
		v1.PATCH(EndPointReportStatus, h.UpdateStatus)
		v1.PATCH(EndPointReportClassification, h.CorrectClassification)

		v1.POST(EndPointRecalculate, h.Recalculate)
		v1.GET(EndPointPriorityStats, h.PriorityStats)

		v1.GET(EndPointClassifications, h.ListClassifications)
		v1.POST(EndPointClassifications, h.AddClassification)
		v1.GET(EndPointTypePriority, h.TypePriority)

		v1.GET(EndPointRewards, h.ListRewards)
		v1.POST(EndPointRewards, h.CreateReward)
		v1.POST(EndPointRedeem, h.Redeem)

		v1.GET(EndPointUserPoints, h.UserPoints)
		v1.GET(EndPointUserWallet, h.UserWallet)
		v1.GET(EndPointUserRedemptions, h.UserRedemptions)
		v1.GET(EndPointUserNotifications, h.UserNotifications)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "route not found"})
	})

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
