package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eco-report-api/internal/models"
)

// AchievementRepository reads unlocked badges.
type AchievementRepository struct {
	db *sqlx.DB
}

// NewAchievementRepository constructs the repository.
func NewAchievementRepository(db *sqlx.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// ListByUser returns a user's achievements, oldest first.
func (r *AchievementRepository) ListByUser(ctx context.Context, userID string) ([]models.Achievement, error) {
	const query = `SELECT id, user_id, code, title, description, icon, category, points, unlocked_at FROM achievements WHERE user_id = $1 ORDER BY unlocked_at ASC, code ASC`
	var achievements []models.Achievement
	if err := r.db.SelectContext(ctx, &achievements, query, userID); err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return achievements, nil
}
