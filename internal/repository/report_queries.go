package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eco-report-api/internal/models"
	"github.com/noah-isme/eco-report-api/pkg/geo"
)

const reportColumns = `id, user_id, category, title, description, latitude, longitude, address, status, eco_points, priority, verified, verification_notes, verified_at, admin_notes, resolved_at, is_public, anonymous, duplicate_of, points_credited_at, created_at, updated_at`

const photoColumns = `id, report_id, storage_key, filename, original_filename, file_url, file_size, content_type, width, height, is_primary, description, taken_at, created_at`

const userColumns = `id, name, email, password_hash, location, eco_points, level, reports_count, role, active, email_verified, last_login, created_at, updated_at`

// maxNearCandidates bounds the bounding-box prefilter result.
const maxNearCandidates = 2000

// nearQuery builds the prefilter for a proximity search. Rows still need an
// exact great-circle check by the caller.
func nearQuery(q models.ProximityQuery) (string, []interface{}) {
	var args []interface{}
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	boxes := geo.BoundingBoxes(q.Latitude, q.Longitude, q.RadiusMeters)
	boxConds := make([]string, 0, len(boxes))
	for _, b := range boxes {
		boxConds = append(boxConds, fmt.Sprintf("(latitude BETWEEN %s AND %s AND longitude BETWEEN %s AND %s)",
			next(b.MinLat), next(b.MaxLat), next(b.MinLon), next(b.MaxLon)))
	}

	conditions := []string{"(" + strings.Join(boxConds, " OR ") + ")"}
	if q.Category != "" {
		conditions = append(conditions, "category = "+next(q.Category))
	}
	if !q.Since.IsZero() {
		conditions = append(conditions, "created_at >= "+next(q.Since))
	}
	if q.PublicOnly {
		if q.ViewerID != "" {
			conditions = append(conditions, "(is_public = TRUE OR user_id = "+next(q.ViewerID)+")")
		} else {
			conditions = append(conditions, "is_public = TRUE")
		}
	}
	if q.ExcludeID != "" {
		conditions = append(conditions, "id <> "+next(q.ExcludeID))
	}

	order := "created_at ASC, id ASC"
	if q.NearestFirst {
		// Equirectangular squared distance in degrees; longitude delta wraps
		// across the antimeridian.
		lat, lon := next(q.Latitude), next(q.Longitude)
		scale := next(math.Cos(q.Latitude * math.Pi / 180))
		order = fmt.Sprintf("POWER(latitude - %s, 2) + POWER(LEAST(ABS(longitude - %s), 360 - ABS(longitude - %s)) * %s, 2) ASC, id ASC",
			lat, lon, lon, scale)
	}

	limit := maxNearCandidates
	if q.Limit > 0 && q.Limit < maxNearCandidates {
		limit = q.Limit
	}

	query := fmt.Sprintf("SELECT %s FROM reports WHERE %s ORDER BY %s LIMIT %d",
		reportColumns, strings.Join(conditions, " AND "), order, limit)
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using '\' as the
// escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func selectNear(ctx context.Context, db sqlx.QueryerContext, q models.ProximityQuery) ([]models.Report, error) {
	query, args := nearQuery(q)
	var reports []models.Report
	if err := sqlx.SelectContext(ctx, db, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("select nearby reports: %w", err)
	}
	return reports, nil
}

func selectPhotos(ctx context.Context, db sqlx.QueryerContext, reportID string) ([]models.ReportPhoto, error) {
	query := fmt.Sprintf("SELECT %s FROM report_photos WHERE report_id = $1 ORDER BY created_at ASC, id ASC", photoColumns)
	var photos []models.ReportPhoto
	if err := sqlx.SelectContext(ctx, db, &photos, query, reportID); err != nil {
		return nil, fmt.Errorf("list report photos: %w", err)
	}
	return photos, nil
}
