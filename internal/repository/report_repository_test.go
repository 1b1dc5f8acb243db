package repository

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eco-report-api/internal/models"
)

func reportRows() *sqlmock.Rows {
	return sqlmock.NewRows(strings.Split(strings.ReplaceAll(reportColumns, " ", ""), ","))
}

func addReportRow(rows *sqlmock.Rows, id string, category models.ReportCategory, status models.ReportStatus, lat, lon float64, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(id, "u-1", string(category), "Dumped tyres", "Tyres dumped along the riverbank", lat, lon, nil,
		string(status), category.BasePoints(), 1, false, nil, nil, nil, nil, true, false, nil, nil, createdAt, createdAt)
}

func TestReportRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE id = $1 LIMIT 1")).
		WithArgs("r-1").
		WillReturnRows(addReportRow(reportRows(), "r-1", models.CategoryTrash, models.StatusPending, -12.04, -77.03, now))

	report, err := repo.FindByID(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryTrash, report.Category)
	assert.Equal(t, 10, report.EcoPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE id = $1 LIMIT 1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReportRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	category := models.CategoryNoise
	status := models.StatusPending
	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE 1=1 AND category = $1 AND status = $2 AND priority >= $3 AND is_public = TRUE AND (LOWER(title) LIKE $4 ESCAPE '\\' OR LOWER(description) LIKE $4 ESCAPE '\\' OR LOWER(COALESCE(address, '')) LIKE $4 ESCAPE '\\') ORDER BY priority ASC, id ASC LIMIT 10 OFFSET 10")).
		WithArgs("NOISE", "PENDING", 3, "%party%").
		WillReturnRows(addReportRow(reportRows(), "r-2", category, status, 1, 1, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reports WHERE 1=1 AND category = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	reports, total, err := repo.List(context.Background(), models.ReportFilter{
		Category:    &category,
		Status:      &status,
		MinPriority: 3,
		PublicOnly:  true,
		Search:      "Party",
		Page:        2,
		PageSize:    10,
		SortBy:      "priority",
		SortOrder:   "asc",
	})
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListEscapesSearchWildcards(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LIKE $1 ESCAPE")).
		WithArgs(`%100\% off\_sale c:\\tmp%`).
		WillReturnRows(reportRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reports WHERE 1=1 AND (LOWER(title) LIKE $1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.ReportFilter{Search: `100% OFF_sale C:\tmp`})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "plain", escapeLike("plain"))
	assert.Equal(t, `50\%\_\\`, escapeLike(`50%_\`))
}

func TestReportRepositoryListRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE 1=1 ORDER BY created_at DESC, id ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(reportRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reports WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.ReportFilter{SortBy: "title; DROP TABLE reports"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryFindNearBuildsBoundingBox(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	since := time.Now().Add(-7 * 24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE ((latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4)) AND category = $5 AND created_at >= $6 ORDER BY created_at ASC, id ASC LIMIT 2000")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "TRASH", since).
		WillReturnRows(addReportRow(reportRows(), "r-1", models.CategoryTrash, models.StatusPending, -12.04, -77.03, time.Now()))

	reports, err := repo.FindNear(context.Background(), models.ProximityQuery{
		Category:     models.CategoryTrash,
		Latitude:     -12.04,
		Longitude:    -77.03,
		RadiusMeters: 100,
		Since:        since,
	})
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNearQuerySplitsAntimeridian(t *testing.T) {
	query, args := nearQuery(models.ProximityQuery{Latitude: 0, Longitude: 179.9999, RadiusMeters: 100, ExcludeID: "r-9"})
	assert.Contains(t, query, " OR ")
	assert.Contains(t, query, "id <> $9")
	assert.Len(t, args, 9)
	assert.NotContains(t, query, "category = ")
}

func TestNearQueryNearestFirstWithViewer(t *testing.T) {
	query, args := nearQuery(models.ProximityQuery{
		Latitude:     -6.2,
		Longitude:    106.8,
		RadiusMeters: 500,
		PublicOnly:   true,
		ViewerID:     "u-1",
		NearestFirst: true,
		Limit:        40,
	})
	assert.Contains(t, query, "(is_public = TRUE OR user_id = $5)")
	assert.Contains(t, query, "ORDER BY POWER(latitude - $6, 2) + POWER(LEAST(ABS(longitude - $7), 360 - ABS(longitude - $7)) * $8, 2) ASC, id ASC LIMIT 40")
	require.Len(t, args, 8)
	assert.Equal(t, "u-1", args[4])
	assert.InDelta(t, 0.99414, args[7].(float64), 1e-4)

	query, _ = nearQuery(models.ProximityQuery{Latitude: 1, Longitude: 1, RadiusMeters: 10, PublicOnly: true, Limit: 5000})
	assert.Contains(t, query, "is_public = TRUE ORDER BY created_at ASC, id ASC LIMIT 2000")
}

func TestReportRepositoryListComments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"id", "report_id", "user_id", "author_name", "content", "is_admin_comment", "is_public", "created_at"}).
		AddRow("c-1", "r-1", "u-2", "Ben", "Still there this morning", false, true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.report_id = $1 AND c.is_public = TRUE ORDER BY c.created_at ASC")).
		WithArgs("r-1").
		WillReturnRows(rows)

	comments, err := repo.ListComments(context.Background(), "r-1", false)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Ben", comments[0].AuthorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
