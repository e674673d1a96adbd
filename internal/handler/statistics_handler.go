package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-billing-api/internal/service"
	"github.com/noah-isme/academy-billing-api/pkg/response"
)

// StatisticsHandler exposes dashboard and reporting endpoints.
type StatisticsHandler struct {
	service *service.DashboardService
}

// NewStatisticsHandler creates a new statistics handler.
func NewStatisticsHandler(svc *service.DashboardService) *StatisticsHandler {
	return &StatisticsHandler{service: svc}
}

// Dashboard godoc
// @Summary Dashboard overview
// @Description Headline counts, revenue and recent enrollments
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /statistics/dashboard [get]
func (h *StatisticsHandler) Dashboard(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}

// Revenue godoc
// @Summary Revenue by payment status
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /statistics/revenue [get]
func (h *StatisticsHandler) Revenue(c *gin.Context) {
	totals, err := h.service.RevenueByStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, totals, nil)
}

// Completion godoc
// @Summary Course completion leaderboard
// @Description Top courses ranked by completion rate
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /statistics/completion [get]
func (h *StatisticsHandler) Completion(c *gin.Context) {
	stats, err := h.service.CompletionLeaderboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}

// System godoc
// @Summary System metrics snapshot
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /statistics/system [get]
func (h *StatisticsHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.SystemMetrics(), nil)
}
