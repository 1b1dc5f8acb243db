package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eco-report-api/internal/models"
	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
	"github.com/noah-isme/eco-report-api/pkg/export"
)

const maxExportRows = 5000

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportReader interface {
	ForExport(ctx context.Context, filter models.ReportFilter, limit int) ([]models.Report, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered export ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders report listings as CSV or PDF.
type ExportService struct {
	reports exportReader
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(reports exportReader, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{reports: reports, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ParseExportFormat accepts csv or pdf, case-insensitively.
func ParseExportFormat(raw string) (ExportFormat, bool) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case ExportFormatCSV, "":
		return ExportFormatCSV, true
	case ExportFormatPDF:
		return ExportFormatPDF, true
	default:
		return "", false
	}
}

// ExportReports renders reports matching filter. Only admins may export.
func (s *ExportService) ExportReports(ctx context.Context, actor models.Actor, filter models.ReportFilter, format ExportFormat) (*ExportResult, error) {
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can export reports")
	}
	reports, err := s.reports.ForExport(ctx, filter, maxExportRows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reports for export")
	}

	dataset := buildReportDataset(reports)
	now := s.now().UTC()
	name := fmt.Sprintf("reports_%s.%s", now.Format("20060102_150405"), format)

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Environmental reports")
		contentType = "application/pdf"
	default:
		return nil, appErrors.Validation(fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("reports exported", zap.String("format", string(format)), zap.Int("rows", len(reports)), zap.String("actor_id", actor.ID))
	return &ExportResult{Filename: name, ContentType: contentType, Data: payload, Rows: len(reports)}, nil
}

var exportLabels = map[string]string{
	"created_at":  "created (UTC)",
	"eco_points":  "points",
	"resolved_at": "resolved (UTC)",
}

func buildReportDataset(reports []models.Report) export.Dataset {
	headers := []string{"id", "created_at", "category", "status", "priority", "title", "latitude", "longitude", "address", "eco_points", "verified", "resolved_at"}
	rows := make([]map[string]string, 0, len(reports))
	for _, r := range reports {
		row := map[string]string{
			"id":         r.ID,
			"created_at": r.CreatedAt.UTC().Format(time.RFC3339),
			"category":   string(r.Category),
			"status":     string(r.Status),
			"priority":   strconv.Itoa(r.Priority),
			"title":      r.Title,
			"latitude":   strconv.FormatFloat(r.Latitude, 'f', 6, 64),
			"longitude":  strconv.FormatFloat(r.Longitude, 'f', 6, 64),
			"eco_points": strconv.Itoa(r.EcoPoints),
			"verified":   strconv.FormatBool(r.Verified),
		}
		if r.Address != nil {
			row["address"] = *r.Address
		}
		if r.ResolvedAt != nil {
			row["resolved_at"] = r.ResolvedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Labels: exportLabels, Rows: rows}
}
