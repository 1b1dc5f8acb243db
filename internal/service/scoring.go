package service

import "github.com/noah-isme/eco-report-api/internal/models"

// DefaultPhotoBonus is added to a new report's points when it carries a photo.
const DefaultPhotoBonus = 5

// ScoringEngine computes report rewards and user progression.
type ScoringEngine struct {
	photoBonus int
}

// NewScoringEngine builds an engine; a non-positive bonus falls back to DefaultPhotoBonus.
func NewScoringEngine(photoBonus int) *ScoringEngine {
	if photoBonus <= 0 {
		photoBonus = DefaultPhotoBonus
	}
	return &ScoringEngine{photoBonus: photoBonus}
}

// PointsForNewReport is the category base plus the photo bonus. The value is
// fixed on the report at creation.
func (e *ScoringEngine) PointsForNewReport(category models.ReportCategory, hasPhoto bool) int {
	points := category.BasePoints()
	if hasPhoto {
		points += e.photoBonus
	}
	return points
}

// CreditUser adds points and recomputes the level. Non-positive amounts are
// ignored so totals never decrease. It reports whether the level changed.
func CreditUser(user *models.User, points int) bool {
	before := user.Level
	if points > 0 {
		user.EcoPoints += points
	}
	user.Level = models.LevelFor(user.EcoPoints)
	return user.Level != before
}

// IncrementReportsCount bumps the user's report counter.
func IncrementReportsCount(user *models.User) {
	user.ReportsCount++
}
