package models

import "time"

// AchievementCode identifies an unlockable badge.
type AchievementCode string

const (
	AchievementFirstReport    AchievementCode = "FIRST_REPORT"
	AchievementTenReports     AchievementCode = "TEN_REPORTS"
	AchievementFirstResolved  AchievementCode = "FIRST_RESOLVED"
	AchievementLevelDefender  AchievementCode = "LEVEL_DEFENDER"
	AchievementLevelProtector AchievementCode = "LEVEL_PROTECTOR"
	AchievementLevelGuardian  AchievementCode = "LEVEL_GUARDIAN"
)

// Achievement is a badge unlocked by a user. Points is informational and is
// not added to the user's total.
type Achievement struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	Code        AchievementCode `db:"code" json:"code"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Icon        string          `db:"icon" json:"icon"`
	Category    string          `db:"category" json:"category"`
	Points      int             `db:"points" json:"points"`
	UnlockedAt  time.Time       `db:"unlocked_at" json:"unlocked_at"`
}

// AchievementDefinition is the template an unlocked Achievement is built from.
type AchievementDefinition struct {
	Code        AchievementCode `json:"code"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Category    string          `json:"category"`
	Points      int             `json:"points"`
}
