package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-billing-api/internal/service"
	"github.com/noah-isme/academy-billing-api/pkg/response"
)

// BillingHandler exposes derived financial projections.
type BillingHandler struct {
	service *service.BillingService
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(svc *service.BillingService) *BillingHandler {
	return &BillingHandler{service: svc}
}

// StudentFinancials godoc
// @Summary Student financial summary
// @Description Per-enrollment balances and rolled-up standing for one student
// @Tags Billing
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/financials [get]
func (h *BillingHandler) StudentFinancials(c *gin.Context) {
	summary, cached, err := h.service.StudentFinancials(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cache_hit": cached})
}

// Portfolio godoc
// @Summary Portfolio revenue summary
// @Description Aggregate revenue totals and a dense monthly series
// @Tags Billing
// @Produce json
// @Param period query string false "Reporting window: 30d, 6m, 1y or all" default(6m)
// @Success 200 {object} response.Envelope
// @Router /billing/portfolio [get]
func (h *BillingHandler) Portfolio(c *gin.Context) {
	summary, cached, err := h.service.Portfolio(c.Request.Context(), c.Query("period"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cache_hit": cached})
}
