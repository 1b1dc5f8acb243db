package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/eco-report-api/internal/models"
	"github.com/noah-isme/eco-report-api/internal/repository"
)

var achievementDefinitions = map[models.AchievementCode]models.AchievementDefinition{
	models.AchievementFirstReport: {
		Title: "First report", Icon: "🌱", Category: "reports", Points: 10,
		Description: "Filed your first environmental report",
	},
	models.AchievementTenReports: {
		Title: "Watchful eye", Icon: "👀", Category: "reports", Points: 50,
		Description: "Filed ten environmental reports",
	},
	models.AchievementFirstResolved: {
		Title: "Problem solver", Icon: "✅", Category: "impact", Points: 25,
		Description: "One of your reports was resolved",
	},
	models.AchievementLevelDefender: {
		Title: "Defender", Icon: "🍃", Category: "level", Points: 0,
		Description: "Reached 100 eco-points",
	},
	models.AchievementLevelProtector: {
		Title: "Protector", Icon: "🌿", Category: "level", Points: 0,
		Description: "Reached 500 eco-points",
	},
	models.AchievementLevelGuardian: {
		Title: "Guardian", Icon: "🌎", Category: "level", Points: 0,
		Description: "Reached 1000 eco-points",
	},
}

var levelAchievements = map[models.Level]models.AchievementCode{
	models.LevelDefender:  models.AchievementLevelDefender,
	models.LevelProtector: models.AchievementLevelProtector,
	models.LevelGuardian:  models.AchievementLevelGuardian,
}

// AchievementDefinitions lists every badge that can be unlocked.
func AchievementDefinitions() []models.AchievementDefinition {
	order := []models.AchievementCode{
		models.AchievementFirstReport, models.AchievementTenReports, models.AchievementFirstResolved,
		models.AchievementLevelDefender, models.AchievementLevelProtector, models.AchievementLevelGuardian,
	}
	out := make([]models.AchievementDefinition, 0, len(order))
	for _, code := range order {
		def := achievementDefinitions[code]
		def.Code = code
		out = append(out, def)
	}
	return out
}

// creationAchievements returns the badges a user qualifies for after filing a report.
func creationAchievements(user *models.User) []models.AchievementCode {
	var codes []models.AchievementCode
	if user.ReportsCount >= 1 {
		codes = append(codes, models.AchievementFirstReport)
	}
	if user.ReportsCount >= 10 {
		codes = append(codes, models.AchievementTenReports)
	}
	return codes
}

// creditAchievements returns the badges a user qualifies for after a points credit.
func creditAchievements(user *models.User) []models.AchievementCode {
	codes := []models.AchievementCode{models.AchievementFirstResolved}
	rank := user.Level.Rank()
	for _, t := range models.Levels() {
		code, ok := levelAchievements[t.Level]
		if ok && t.Level.Rank() <= rank {
			codes = append(codes, code)
		}
	}
	return codes
}

// unlockAchievements inserts the candidate badges the user does not hold yet
// and returns the newly unlocked ones.
func unlockAchievements(ctx context.Context, tx repository.LifecycleTx, userID string, candidates []models.AchievementCode, now time.Time) ([]models.Achievement, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	held, err := tx.ListAchievementCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	have := make(map[models.AchievementCode]struct{}, len(held))
	for _, code := range held {
		have[code] = struct{}{}
	}

	var unlocked []models.Achievement
	for _, code := range candidates {
		if _, ok := have[code]; ok {
			continue
		}
		def := achievementDefinitions[code]
		a := models.Achievement{
			ID:          uuid.NewString(),
			UserID:      userID,
			Code:        code,
			Title:       def.Title,
			Description: def.Description,
			Icon:        def.Icon,
			Category:    def.Category,
			Points:      def.Points,
			UnlockedAt:  now.UTC(),
		}
		inserted, err := tx.InsertAchievement(ctx, &a)
		if err != nil {
			return nil, err
		}
		if inserted {
			unlocked = append(unlocked, a)
			have[code] = struct{}{}
		}
	}
	return unlocked, nil
}
