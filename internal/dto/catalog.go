package dto

import "github.com/noah-isme/eco-report-api/internal/models"

// CatalogResponse bundles every static lookup table.
type CatalogResponse struct {
	Categories   []models.CategoryMetadata      `json:"categories"`
	Statuses     []models.StatusMetadata        `json:"statuses"`
	Levels       []models.LevelThreshold        `json:"levels"`
	Achievements []models.AchievementDefinition `json:"achievements"`
}
