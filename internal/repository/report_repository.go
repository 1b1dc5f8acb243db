package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eco-report-api/internal/models"
)

// ReportRepository serves read queries over reports and their owned rows.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FindByID returns a report without its collections.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	query := fmt.Sprintf("SELECT %s FROM reports WHERE id = $1 LIMIT 1", reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find report by id: %w", err)
	}
	return &report, nil
}

// ListPhotos returns the photos of a report in upload order.
func (r *ReportRepository) ListPhotos(ctx context.Context, reportID string) ([]models.ReportPhoto, error) {
	return selectPhotos(ctx, r.db, reportID)
}

// ListComments returns comments in posting order. Private comments are
// included only when includePrivate is set.
func (r *ReportRepository) ListComments(ctx context.Context, reportID string, includePrivate bool) ([]models.ReportComment, error) {
	query := `SELECT c.id, c.report_id, c.user_id, COALESCE(u.name, '') AS author_name, c.content, c.is_admin_comment, c.is_public, c.created_at
FROM report_comments c LEFT JOIN users u ON u.id = c.user_id
WHERE c.report_id = $1`
	if !includePrivate {
		query += " AND c.is_public = TRUE"
	}
	query += " ORDER BY c.created_at ASC, c.id ASC"

	var comments []models.ReportComment
	if err := r.db.SelectContext(ctx, &comments, query, reportID); err != nil {
		return nil, fmt.Errorf("list report comments: %w", err)
	}
	return comments, nil
}

// FindNear returns bounding-box candidates for a proximity query.
func (r *ReportRepository) FindNear(ctx context.Context, q models.ProximityQuery) ([]models.Report, error) {
	return selectNear(ctx, r.db, q)
}

// List returns reports based on filters with total count.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error) {
	baseQuery := `FROM reports WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, *filter.Category)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.MinPriority > 0 {
		conditions = append(conditions, fmt.Sprintf("priority >= $%d", len(args)+1))
		args = append(args, filter.MinPriority)
	}
	if filter.PublicOnly {
		conditions = append(conditions, "is_public = TRUE")
	}
	if filter.Verified != nil {
		conditions = append(conditions, fmt.Sprintf("verified = $%d", len(args)+1))
		args = append(args, *filter.Verified)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(`(LOWER(title) LIKE $%d ESCAPE '\' OR LOWER(description) LIKE $%d ESCAPE '\' OR LOWER(COALESCE(address, '')) LIKE $%d ESCAPE '\')`, n, n, n))
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Search))+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"priority":   true,
		"eco_points": true,
		"status":     true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", reportColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	return reports, total, nil
}

// RecentlyResolved returns reports resolved at or after since, newest first.
func (r *ReportRepository) RecentlyResolved(ctx context.Context, since time.Time, limit int) ([]models.Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM reports WHERE resolved_at IS NOT NULL AND resolved_at >= $1 AND is_public = TRUE ORDER BY resolved_at DESC LIMIT %d", reportColumns, limit)
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, since); err != nil {
		return nil, fmt.Errorf("list recently resolved reports: %w", err)
	}
	return reports, nil
}

// ForExport returns every report matching filter, capped at limit rows.
func (r *ReportRepository) ForExport(ctx context.Context, filter models.ReportFilter, limit int) ([]models.Report, error) {
	filter.Page = 1
	filter.PageSize = 100
	var out []models.Report
	for len(out) < limit {
		batch, total, err := r.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) == 0 || len(out) >= total {
			break
		}
		filter.Page++
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
