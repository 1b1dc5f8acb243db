package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eco-report-api/internal/models"
)

// StatsRepository runs aggregate queries over reports.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Totals returns the number of reports and how many are verified.
func (r *StatsRepository) Totals(ctx context.Context) (total int, verified int, err error) {
	var row struct {
		Total    int `db:"total"`
		Verified int `db:"verified"`
	}
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE verified) AS verified FROM reports`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("report totals: %w", err)
	}
	return row.Total, row.Verified, nil
}

// CountByCategory aggregates reports per category.
func (r *StatsRepository) CountByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	const query = `SELECT category, COUNT(*) AS count FROM reports GROUP BY category ORDER BY count DESC, category ASC`
	var counts []models.CategoryCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count reports by category: %w", err)
	}
	return counts, nil
}

// CountByStatus aggregates reports per status.
func (r *StatsRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM reports GROUP BY status ORDER BY status ASC`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count reports by status: %w", err)
	}
	return counts, nil
}

// DailyCounts aggregates reports created per UTC day since the given time.
func (r *StatsRepository) DailyCounts(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	const query = `SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, COUNT(*) AS count FROM reports WHERE created_at >= $1 GROUP BY day ORDER BY day ASC`
	var counts []models.DailyCount
	if err := r.db.SelectContext(ctx, &counts, query, since); err != nil {
		return nil, fmt.Errorf("count reports per day: %w", err)
	}
	return counts, nil
}

// TopAddresses returns the addresses with the most reports.
func (r *StatsRepository) TopAddresses(ctx context.Context, limit int) ([]models.AddressCount, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT address, COUNT(*) AS count FROM reports WHERE address IS NOT NULL AND address <> '' GROUP BY address ORDER BY count DESC, address ASC LIMIT %d`, limit)
	var counts []models.AddressCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("top report addresses: %w", err)
	}
	return counts, nil
}
