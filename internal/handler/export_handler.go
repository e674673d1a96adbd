package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academy-billing-api/internal/models"
	"github.com/noah-isme/academy-billing-api/internal/service"
	"github.com/noah-isme/academy-billing-api/pkg/response"
)

// ExportHandler streams rendered payment reports.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Payments godoc
// @Summary Export payments
// @Description Download the filtered payment listing as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Param enrollment_id query string false "Enrollment filter"
// @Param status query string false "Status filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /export/payments [get]
func (h *ExportHandler) Payments(c *gin.Context) {
	filter := models.PaymentFilter{
		EnrollmentID: c.Query("enrollment_id"),
		Status:       models.PaymentStatus(c.Query("status")),
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	file, err := h.service.Payments(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
