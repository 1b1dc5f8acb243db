package handler

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eco-report-api/internal/dto"
	"github.com/noah-isme/eco-report-api/internal/middleware"
	"github.com/noah-isme/eco-report-api/internal/models"
	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
)

// actorFromContext returns the caller or an anonymous actor.
func actorFromContext(c *gin.Context) models.Actor {
	actor, _ := middleware.ActorFromContext(c)
	return actor
}

// requireActor returns the caller or an unauthorized error.
func requireActor(c *gin.Context) (models.Actor, error) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok || actor.ID == "" {
		return models.Actor{}, appErrors.ErrUnauthorized
	}
	return actor, nil
}

func invalidPayload(err error, msg string) error {
	return appErrors.Invalid(err, msg)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return fallback
}

// parseTime accepts RFC3339 timestamps or plain dates.
func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// reportFilterFromQuery reads the shared list parameters of report endpoints.
func reportFilterFromQuery(c *gin.Context) (models.ReportFilter, error) {
	filter := models.ReportFilter{
		UserID:      c.Query("user_id"),
		MinPriority: queryInt(c, "min_priority", 0),
		Search:      strings.TrimSpace(c.Query("search")),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 20),
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
	}

	if raw := c.Query("category"); raw != "" {
		category, ok := models.ParseCategory(raw)
		if !ok {
			return filter, appErrors.Validation("unknown category " + raw)
		}
		filter.Category = &category
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseStatus(raw)
		if !ok {
			return filter, appErrors.Validation("unknown status " + raw)
		}
		filter.Status = &status
	}
	if raw := c.Query("verified"); raw != "" {
		verified, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, appErrors.Validation("verified must be a boolean")
		}
		filter.Verified = &verified
	}
	if raw := c.Query("from"); raw != "" {
		from, err := parseTime(raw)
		if err != nil {
			return filter, appErrors.Validation("from must be RFC3339 or YYYY-MM-DD")
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := parseTime(raw)
		if err != nil {
			return filter, appErrors.Validation("to must be RFC3339 or YYYY-MM-DD")
		}
		filter.To = &to
	}
	return filter, nil
}

// readUpload loads a multipart file, reading at most limit+1 bytes so the
// service can reject oversized payloads without buffering them whole.
func readUpload(header *multipart.FileHeader, limit int64) (dto.PhotoUpload, error) {
	file, err := header.Open()
	if err != nil {
		return dto.PhotoUpload{}, invalidPayload(err, "unreadable upload")
	}
	defer file.Close()

	reader := io.Reader(file)
	if limit > 0 {
		reader = io.LimitReader(file, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return dto.PhotoUpload{}, invalidPayload(err, "unreadable upload")
	}
	return dto.PhotoUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
