package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eco-report-api/internal/dto"
	"github.com/noah-isme/eco-report-api/internal/models"
	"github.com/noah-isme/eco-report-api/internal/service"
	"github.com/noah-isme/eco-report-api/pkg/response"
)

// CatalogHandler serves the static lookup tables clients render forms from.
type CatalogHandler struct{}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// Catalog godoc
// @Summary Categories, statuses, levels and achievements
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) Catalog(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.CatalogResponse{
		Categories:   models.CategoryCatalog(),
		Statuses:     models.StatusCatalog(),
		Levels:       models.Levels(),
		Achievements: service.AchievementDefinitions(),
	}, nil)
}

// Categories godoc
// @Summary Report categories with base points
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/categories [get]
func (h *CatalogHandler) Categories(c *gin.Context) {
	response.JSON(c, http.StatusOK, models.CategoryCatalog(), nil)
}

// Statuses godoc
// @Summary Report statuses and allowed transitions
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/statuses [get]
func (h *CatalogHandler) Statuses(c *gin.Context) {
	response.JSON(c, http.StatusOK, models.StatusCatalog(), nil)
}

// Levels godoc
// @Summary Experience levels and their point thresholds
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/levels [get]
func (h *CatalogHandler) Levels(c *gin.Context) {
	response.JSON(c, http.StatusOK, models.Levels(), nil)
}
