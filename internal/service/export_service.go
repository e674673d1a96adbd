package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
	"github.com/noah-isme/academy-billing-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered document ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type exportPaymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders payment listings as downloadable documents.
type ExportService struct {
	payments exportPaymentRepository
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(payments exportPaymentRepository, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{payments: payments, csv: csv, pdf: pdf, logger: logger}
}

// Payments renders the filtered payment listing in the requested format.
func (s *ExportService) Payments(ctx context.Context, filter models.PaymentFilter, format ExportFormat) (*ExportFile, error) {
	normalized := ExportFormat(strings.ToLower(string(format)))
	if normalized != ExportFormatCSV && normalized != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	// Exports always cover the full filtered set, not a page.
	filter.Page = 1
	filter.PageSize = 100

	var details []models.PaymentDetail
	for {
		page, total, err := s.payments.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
		}
		details = append(details, page...)
		if len(details) >= total || len(page) == 0 {
			break
		}
		filter.Page++
	}

	dataset := export.Dataset{
		Headers: []string{"Payment ID", "Student", "Course", "Amount", "Status", "Payment Date", "Recorded At"},
	}
	for _, d := range details {
		paymentDate := ""
		if d.PaymentDate != nil {
			paymentDate = d.PaymentDate.Format("2006-01-02")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Payment ID":   d.ID,
			"Student":      d.StudentName,
			"Course":       d.CourseName,
			"Amount":       fmt.Sprintf("%.2f", d.Amount),
			"Status":       string(d.Status),
			"Payment Date": paymentDate,
			"Recorded At":  d.CreatedAt.Format("2006-01-02"),
		})
	}

	timestamp := time.Now().UTC().Format("20060102-150405")
	switch normalized {
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, "Payments")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("payments-%s.pdf", timestamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("payments-%s.csv", timestamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	}
}
