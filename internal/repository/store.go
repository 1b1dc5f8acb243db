package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eco-report-api/internal/models"
)

// LifecycleTx exposes the statements lifecycle mutations run inside one
// transaction. Rows read through Lock* stay locked until commit.
type LifecycleTx interface {
	LockCells(ctx context.Context, cells []int64) error
	FindNear(ctx context.Context, q models.ProximityQuery) ([]models.Report, error)
	InsertReport(ctx context.Context, report *models.Report) error
	LockReport(ctx context.Context, id string) (*models.Report, error)
	UpdateReportWorkflow(ctx context.Context, report *models.Report) error
	LockUser(ctx context.Context, id string) (*models.User, error)
	UpdateUserProgress(ctx context.Context, user *models.User) error
	PhotoCounts(ctx context.Context, reportID string) (total, primary int, err error)
	InsertPhoto(ctx context.Context, photo *models.ReportPhoto) error
	InsertComment(ctx context.Context, comment *models.ReportComment) error
	ListAchievementCodes(ctx context.Context, userID string) ([]models.AchievementCode, error)
	InsertAchievement(ctx context.Context, achievement *models.Achievement) (bool, error)
	ListPhotoKeysByReport(ctx context.Context, reportID string) ([]string, error)
	ListPhotoKeysByUser(ctx context.Context, userID string) ([]string, error)
	DeleteReport(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, id string) error
}

// Store opens lifecycle transactions.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a Store.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// WithinTx runs fn in a transaction, committing when fn returns nil and
// rolling back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(tx LifecycleTx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin lifecycle transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&lifecycleTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit lifecycle transaction: %w", err)
	}
	return nil
}

type lifecycleTx struct {
	tx *sqlx.Tx
}

// LockCells takes transaction-scoped advisory locks in ascending order.
func (t *lifecycleTx) LockCells(ctx context.Context, cells []int64) error {
	for _, cell := range cells {
		if _, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, cell); err != nil {
			return fmt.Errorf("lock cell %d: %w", cell, err)
		}
	}
	return nil
}

func (t *lifecycleTx) FindNear(ctx context.Context, q models.ProximityQuery) ([]models.Report, error) {
	return selectNear(ctx, t.tx, q)
}

func (t *lifecycleTx) InsertReport(ctx context.Context, report *models.Report) error {
	const query = `INSERT INTO reports (id, user_id, category, title, description, latitude, longitude, address, status, eco_points, priority, verified, verification_notes, verified_at, admin_notes, resolved_at, is_public, anonymous, duplicate_of, points_credited_at, created_at, updated_at)
VALUES (:id, :user_id, :category, :title, :description, :latitude, :longitude, :address, :status, :eco_points, :priority, :verified, :verification_notes, :verified_at, :admin_notes, :resolved_at, :is_public, :anonymous, :duplicate_of, :points_credited_at, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (t *lifecycleTx) LockReport(ctx context.Context, id string) (*models.Report, error) {
	query := fmt.Sprintf("SELECT %s FROM reports WHERE id = $1 FOR UPDATE", reportColumns)
	var report models.Report
	if err := t.tx.GetContext(ctx, &report, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock report: %w", err)
	}
	return &report, nil
}

func (t *lifecycleTx) UpdateReportWorkflow(ctx context.Context, report *models.Report) error {
	report.UpdatedAt = time.Now().UTC()
	const query = `UPDATE reports SET status = :status, verified = :verified, verification_notes = :verification_notes, verified_at = :verified_at, admin_notes = :admin_notes, resolved_at = :resolved_at, duplicate_of = :duplicate_of, points_credited_at = :points_credited_at, updated_at = :updated_at WHERE id = :id`
	if _, err := t.tx.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("update report workflow: %w", err)
	}
	return nil
}

func (t *lifecycleTx) LockUser(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1 FOR UPDATE", userColumns)
	var user models.User
	if err := t.tx.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock user: %w", err)
	}
	return &user, nil
}

func (t *lifecycleTx) UpdateUserProgress(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET eco_points = $2, level = $3, reports_count = $4, updated_at = $5 WHERE id = $1`
	if _, err := t.tx.ExecContext(ctx, query, user.ID, user.EcoPoints, user.Level, user.ReportsCount, user.UpdatedAt); err != nil {
		return fmt.Errorf("update user progress: %w", err)
	}
	return nil
}

// PhotoCounts returns how many photos a report has and how many of them
// are flagged primary.
func (t *lifecycleTx) PhotoCounts(ctx context.Context, reportID string) (int, int, error) {
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_primary) AS "primary" FROM report_photos WHERE report_id = $1`
	var counts struct {
		Total   int `db:"total"`
		Primary int `db:"primary"`
	}
	if err := t.tx.GetContext(ctx, &counts, query, reportID); err != nil {
		return 0, 0, fmt.Errorf("count report photos: %w", err)
	}
	return counts.Total, counts.Primary, nil
}

func (t *lifecycleTx) InsertPhoto(ctx context.Context, photo *models.ReportPhoto) error {
	const query = `INSERT INTO report_photos (id, report_id, storage_key, filename, original_filename, file_url, file_size, content_type, width, height, is_primary, description, taken_at, created_at)
VALUES (:id, :report_id, :storage_key, :filename, :original_filename, :file_url, :file_size, :content_type, :width, :height, :is_primary, :description, :taken_at, :created_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, photo); err != nil {
		return fmt.Errorf("insert report photo: %w", err)
	}
	return nil
}

func (t *lifecycleTx) InsertComment(ctx context.Context, comment *models.ReportComment) error {
	const query = `INSERT INTO report_comments (id, report_id, user_id, content, is_admin_comment, is_public, created_at)
VALUES (:id, :report_id, :user_id, :content, :is_admin_comment, :is_public, :created_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("insert report comment: %w", err)
	}
	return nil
}

func (t *lifecycleTx) ListAchievementCodes(ctx context.Context, userID string) ([]models.AchievementCode, error) {
	var codes []models.AchievementCode
	if err := t.tx.SelectContext(ctx, &codes, `SELECT code FROM achievements WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("list achievement codes: %w", err)
	}
	return codes, nil
}

// InsertAchievement reports false when the user already holds the code.
func (t *lifecycleTx) InsertAchievement(ctx context.Context, a *models.Achievement) (bool, error) {
	const query = `INSERT INTO achievements (id, user_id, code, title, description, icon, category, points, unlocked_at)
VALUES (:id, :user_id, :code, :title, :description, :icon, :category, :points, :unlocked_at)
ON CONFLICT (user_id, code) DO NOTHING`
	res, err := t.tx.NamedExecContext(ctx, query, a)
	if err != nil {
		return false, fmt.Errorf("insert achievement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert achievement rows: %w", err)
	}
	return affected > 0, nil
}

func (t *lifecycleTx) ListPhotoKeysByReport(ctx context.Context, reportID string) ([]string, error) {
	var keys []string
	if err := t.tx.SelectContext(ctx, &keys, `SELECT storage_key FROM report_photos WHERE report_id = $1`, reportID); err != nil {
		return nil, fmt.Errorf("list photo keys: %w", err)
	}
	return keys, nil
}

func (t *lifecycleTx) ListPhotoKeysByUser(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT p.storage_key FROM report_photos p JOIN reports r ON r.id = p.report_id WHERE r.user_id = $1`
	var keys []string
	if err := t.tx.SelectContext(ctx, &keys, query, userID); err != nil {
		return nil, fmt.Errorf("list user photo keys: %w", err)
	}
	return keys, nil
}

// DeleteReport removes a report with its comments and photos. Reports that
// were flagged as duplicates of it lose the link.
func (t *lifecycleTx) DeleteReport(ctx context.Context, id string) error {
	steps := []struct {
		name  string
		query string
	}{
		{"delete report comments", `DELETE FROM report_comments WHERE report_id = $1`},
		{"delete report photos", `DELETE FROM report_photos WHERE report_id = $1`},
		{"unlink duplicates", `UPDATE reports SET duplicate_of = NULL WHERE duplicate_of = $1`},
	}
	for _, step := range steps {
		if _, err := t.tx.ExecContext(ctx, step.query, id); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	res, err := t.tx.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return requireAffected(res)
}

// DeleteUser removes a user and everything the user owns.
func (t *lifecycleTx) DeleteUser(ctx context.Context, id string) error {
	steps := []struct {
		name  string
		query string
	}{
		{"delete user comments", `DELETE FROM report_comments WHERE user_id = $1 OR report_id IN (SELECT id FROM reports WHERE user_id = $1)`},
		{"delete user photos", `DELETE FROM report_photos WHERE report_id IN (SELECT id FROM reports WHERE user_id = $1)`},
		{"unlink duplicates", `UPDATE reports SET duplicate_of = NULL WHERE duplicate_of IN (SELECT id FROM reports WHERE user_id = $1)`},
		{"delete user reports", `DELETE FROM reports WHERE user_id = $1`},
		{"delete user achievements", `DELETE FROM achievements WHERE user_id = $1`},
	}
	for _, step := range steps {
		if _, err := t.tx.ExecContext(ctx, step.query, id); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	res, err := t.tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
