package dto

import "github.com/noah-isme/eco-report-api/internal/models"

// RegisterRequest captures POST /auth/register payload.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=255"`
}

// UpdateProfileRequest captures PUT /users/me payload.
type UpdateProfileRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=255"`
}

// UserProfile is a user together with unlocked achievements and level progress.
type UserProfile struct {
	User         *models.User         `json:"user"`
	Achievements []models.Achievement `json:"achievements"`
	NextLevel    *models.Level        `json:"next_level,omitempty"`
	PointsToNext int                  `json:"points_to_next"`
}
