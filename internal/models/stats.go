package models

import "time"

// CategoryCount aggregates reports per category.
type CategoryCount struct {
	Category ReportCategory `db:"category" json:"category"`
	Count    int            `db:"count" json:"count"`
}

// StatusCount aggregates reports per status.
type StatusCount struct {
	Status ReportStatus `db:"status" json:"status"`
	Count  int          `db:"count" json:"count"`
}

// DailyCount aggregates reports created per calendar day (UTC).
type DailyCount struct {
	Day   time.Time `db:"day" json:"day"`
	Count int       `db:"count" json:"count"`
}

// AddressCount aggregates reports by free-text address.
type AddressCount struct {
	Address string `db:"address" json:"address"`
	Count   int    `db:"count" json:"count"`
}

// LevelCount aggregates active users per level.
type LevelCount struct {
	Level Level `db:"level" json:"level"`
	Count int   `db:"count" json:"count"`
}

// ReportStats is the dashboard summary for reports.
type ReportStats struct {
	Total        int             `json:"total"`
	Verified     int             `json:"verified"`
	ByCategory   []CategoryCount `json:"by_category"`
	ByStatus     []StatusCount   `json:"by_status"`
	Daily        []DailyCount    `json:"daily"`
	TopAddresses []AddressCount  `json:"top_addresses"`
	Since        time.Time       `json:"since"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// LeaderboardEntry is one row of the user ranking.
type LeaderboardEntry struct {
	Rank         int    `db:"-" json:"rank"`
	UserID       string `db:"id" json:"user_id"`
	Name         string `db:"name" json:"name"`
	EcoPoints    int    `db:"eco_points" json:"eco_points"`
	Level        Level  `db:"level" json:"level"`
	ReportsCount int    `db:"reports_count" json:"reports_count"`
}

// Leaderboard ranks users by points or by report count.
type Leaderboard struct {
	By          string             `json:"by"`
	Entries     []LeaderboardEntry `json:"entries"`
	Levels      []LevelCount       `json:"levels"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// SystemMetrics is a lightweight snapshot of process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ReportsCreated           uint64    `json:"reports_created"`
	Transitions              uint64    `json:"transitions"`
	PointsCredited           uint64    `json:"points_credited"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
