package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	geojson "github.com/paulmach/go.geojson"

	"github.com/noah-isme/eco-report-api/internal/dto"
	"github.com/noah-isme/eco-report-api/internal/models"
	"github.com/noah-isme/eco-report-api/internal/service"
	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
	"github.com/noah-isme/eco-report-api/pkg/response"
)

const (
	photosField          = "photos"
	defaultRecentWindow  = 24 * time.Hour
	defaultResolvedLimit = 20
)

type reportService interface {
	CreateReport(ctx context.Context, actor models.Actor, req dto.CreateReportRequest, uploads []dto.PhotoUpload) (*dto.CreateReportResponse, error)
	UpdateStatus(ctx context.Context, actor models.Actor, reportID string, req dto.UpdateStatusRequest) (*dto.UpdateStatusResponse, error)
	AttachPhoto(ctx context.Context, actor models.Actor, reportID string, upload dto.PhotoUpload) (*models.ReportPhoto, error)
	AddComment(ctx context.Context, actor models.Actor, reportID string, req dto.AddCommentRequest) (*models.ReportComment, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Report, error)
	List(ctx context.Context, actor models.Actor, filter models.ReportFilter) ([]models.Report, *models.Pagination, error)
	Recent(ctx context.Context, actor models.Actor, since time.Time, filter models.ReportFilter) ([]models.Report, *models.Pagination, error)
	Critical(ctx context.Context, actor models.Actor, filter models.ReportFilter) ([]models.Report, *models.Pagination, error)
	RecentlyResolved(ctx context.Context, actor models.Actor, since time.Time, limit int) ([]models.Report, error)
	Nearby(ctx context.Context, actor models.Actor, q dto.NearbyQuery) ([]models.ReportMatch, error)
	MapFeatures(ctx context.Context, actor models.Actor, filter models.ReportFilter) (*geojson.FeatureCollection, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

type reportExporter interface {
	ExportReports(ctx context.Context, actor models.Actor, filter models.ReportFilter, format service.ExportFormat) (*service.ExportResult, error)
}

// ReportHandler exposes the report lifecycle over HTTP.
type ReportHandler struct {
	reports      reportService
	exporter     reportExporter
	maxFileBytes int64
	now          func() time.Time
}

// NewReportHandler constructs the handler. maxFileBytes caps how much of each
// uploaded file is read.
func NewReportHandler(reports reportService, exporter reportExporter, maxFileBytes int64) *ReportHandler {
	return &ReportHandler{reports: reports, exporter: exporter, maxFileBytes: maxFileBytes, now: time.Now}
}

// Create godoc
// @Summary Submit a report
// @Description Accepts JSON or multipart/form-data with up to five "photos" files. Nearby reports of the same category are returned as possible duplicates.
// @Tags Reports
// @Accept json,mpfd
// @Produce json
// @Param payload body dto.CreateReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreateReportRequest
	var uploads []dto.PhotoUpload
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			response.Error(c, invalidPayload(err, "invalid report form"))
			return
		}
		form, err := c.MultipartForm()
		if err != nil {
			response.Error(c, invalidPayload(err, "invalid multipart payload"))
			return
		}
		for _, header := range form.File[photosField] {
			upload, err := readUpload(header, h.maxFileBytes)
			if err != nil {
				response.Error(c, err)
				return
			}
			uploads = append(uploads, upload)
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid report payload"))
		return
	}

	res, err := h.reports.CreateReport(c.Request.Context(), actor, req, uploads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Get godoc
// @Summary Get report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// List godoc
// @Summary List reports
// @Tags Reports
// @Produce json
// @Param category query string false "Category"
// @Param status query string false "Status"
// @Param user_id query string false "Reporter ID"
// @Param min_priority query int false "Minimum priority"
// @Param verified query bool false "Verified flag"
// @Param from query string false "Created from (RFC3339 or date)"
// @Param to query string false "Created before (RFC3339 or date)"
// @Param search query string false "Search title, description and address"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "created_at, priority, eco_points or status"
// @Param sort_order query string false "ASC or DESC"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	reports, pagination, err := h.reports.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Recent godoc
// @Summary Recently submitted reports
// @Tags Reports
// @Produce json
// @Param hours query int false "Look-back window in hours (default 24)"
// @Success 200 {object} response.Envelope
// @Router /reports/recent [get]
func (h *ReportHandler) Recent(c *gin.Context) {
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	window := defaultRecentWindow
	if hours := queryInt(c, "hours", 0); hours > 0 {
		window = time.Duration(hours) * time.Hour
	}
	reports, pagination, err := h.reports.Recent(c.Request.Context(), actorFromContext(c), h.now().Add(-window), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Critical godoc
// @Summary High and critical priority reports
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/critical [get]
func (h *ReportHandler) Critical(c *gin.Context) {
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	reports, pagination, err := h.reports.Critical(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Resolved godoc
// @Summary Recently resolved reports
// @Tags Reports
// @Produce json
// @Param days query int false "Look-back window in days (default 7)"
// @Param limit query int false "Maximum rows (default 20)"
// @Success 200 {object} response.Envelope
// @Router /reports/resolved [get]
func (h *ReportHandler) Resolved(c *gin.Context) {
	days := queryInt(c, "days", 7)
	if days <= 0 {
		days = 7
	}
	limit := queryInt(c, "limit", defaultResolvedLimit)
	if limit <= 0 || limit > 100 {
		limit = defaultResolvedLimit
	}
	since := h.now().AddDate(0, 0, -days)
	reports, err := h.reports.RecentlyResolved(c.Request.Context(), actorFromContext(c), since, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Nearby godoc
// @Summary Reports near a point
// @Tags Reports
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Param radius query number false "Radius in meters (default 1000)"
// @Param category query string false "Category"
// @Param limit query int false "Maximum rows (default 50)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/nearby [get]
func (h *ReportHandler) Nearby(c *gin.Context) {
	if c.Query("lat") == "" || c.Query("lng") == "" {
		response.Error(c, appErrors.Validation("lat and lng are required"))
		return
	}
	var q dto.NearbyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, invalidPayload(err, "invalid nearby query"))
		return
	}
	matches, err := h.reports.Nearby(c.Request.Context(), actorFromContext(c), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matches, nil)
}

// Map godoc
// @Summary Reports as GeoJSON
// @Description Returns a GeoJSON FeatureCollection of point features for map clients.
// @Tags Reports
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /reports/map [get]
func (h *ReportHandler) Map(c *gin.Context) {
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	collection, err := h.reports.MapFeatures(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := collection.MarshalJSON()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to encode map"))
		return
	}
	c.Data(http.StatusOK, "application/geo+json", payload)
}

// Export godoc
// @Summary Export reports
// @Tags Reports
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format, ok := service.ParseExportFormat(c.Query("format"))
	if !ok {
		response.Error(c, appErrors.Validation("format must be csv or pdf"))
		return
	}
	filter, err := reportFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exporter.ExportReports(c.Request.Context(), actor, filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// UpdateStatus godoc
// @Summary Move a report through its workflow
// @Description Admin only. Points are credited to the reporter on the first move into RESOLVED or VERIFIED.
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.UpdateStatusRequest true "Transition"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/status [patch]
func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid status payload"))
		return
	}
	res, err := h.reports.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// AddPhoto godoc
// @Summary Attach a photo
// @Tags Reports
// @Accept mpfd
// @Produce json
// @Param id path string true "Report ID"
// @Param photo formData file true "Image"
// @Param description formData string false "Caption"
// @Success 201 {object} response.Envelope
// @Router /reports/{id}/photos [post]
func (h *ReportHandler) AddPhoto(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	header, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, invalidPayload(err, "photo file is required"))
		return
	}
	upload, err := readUpload(header, h.maxFileBytes)
	if err != nil {
		response.Error(c, err)
		return
	}
	if desc := strings.TrimSpace(c.PostForm("description")); desc != "" {
		upload.Description = &desc
	}

	photo, err := h.reports.AttachPhoto(c.Request.Context(), actor, c.Param("id"), upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, photo)
}

// AddComment godoc
// @Summary Comment on a report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.AddCommentRequest true "Comment"
// @Success 201 {object} response.Envelope
// @Router /reports/{id}/comments [post]
func (h *ReportHandler) AddComment(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid comment payload"))
		return
	}
	comment, err := h.reports.AddComment(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// Delete godoc
// @Summary Delete a report
// @Tags Reports
// @Param id path string true "Report ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.reports.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
