package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eco-report-api/internal/middleware"
	"github.com/noah-isme/eco-report-api/internal/models"
	"github.com/noah-isme/eco-report-api/pkg/response"
)

type statsService interface {
	ReportStats(ctx context.Context, days int) (*models.ReportStats, bool, error)
	Leaderboard(ctx context.Context, by string, limit int) (*models.Leaderboard, bool, error)
}

// StatsHandler exposes cached aggregates.
type StatsHandler struct {
	service statsService
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(service statsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Reports godoc
// @Summary Report statistics
// @Tags Stats
// @Produce json
// @Param days query int false "Daily histogram window (default 30)"
// @Success 200 {object} response.Envelope
// @Router /stats/reports [get]
func (h *StatsHandler) Reports(c *gin.Context) {
	stats, hit, err := h.service.ReportStats(c.Request.Context(), queryInt(c, "days", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// Leaderboard godoc
// @Summary Top reporters
// @Tags Stats
// @Produce json
// @Param by query string false "points or reports"
// @Param limit query int false "Rows (default 10)"
// @Success 200 {object} response.Envelope
// @Router /stats/leaderboard [get]
func (h *StatsHandler) Leaderboard(c *gin.Context) {
	board, hit, err := h.service.Leaderboard(c.Request.Context(), c.Query("by"), queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, board, nil, middleware.ExtractMeta(c))
}
