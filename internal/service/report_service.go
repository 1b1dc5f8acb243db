package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	geojson "github.com/paulmach/go.geojson"
	"go.uber.org/zap"

	"github.com/noah-isme/eco-report-api/internal/dto"
	"github.com/noah-isme/eco-report-api/internal/models"
	"github.com/noah-isme/eco-report-api/internal/repository"
	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
	"github.com/noah-isme/eco-report-api/pkg/geo"
	"github.com/noah-isme/eco-report-api/pkg/photometa"
	"github.com/noah-isme/eco-report-api/pkg/storage"
)

const (
	maxPhotosPerReport   = 5
	defaultNearbyRadius  = 1000
	defaultNearbyLimit   = 50
	maxMapFeatures       = 1000
	defaultDuplicateArea = 100
)

type lifecycleStore interface {
	WithinTx(ctx context.Context, fn func(tx repository.LifecycleTx) error) error
}

type reportReader interface {
	FindByID(ctx context.Context, id string) (*models.Report, error)
	ListPhotos(ctx context.Context, reportID string) ([]models.ReportPhoto, error)
	ListComments(ctx context.Context, reportID string, includePrivate bool) ([]models.ReportComment, error)
	FindNear(ctx context.Context, q models.ProximityQuery) ([]models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error)
	RecentlyResolved(ctx context.Context, since time.Time, limit int) ([]models.Report, error)
	ForExport(ctx context.Context, filter models.ReportFilter, limit int) ([]models.Report, error)
}

type blobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (*storage.BlobInfo, error)
	URL(key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type eventEmitter interface {
	Emit(eventType models.EventType, payload interface{})
}

type aggregateInvalidator interface {
	InvalidateAggregates(ctx context.Context)
}

// ReportServiceConfig tunes duplicate detection and scoring.
type ReportServiceConfig struct {
	DuplicateRadiusMeters float64
	DuplicateLookback     time.Duration
	AutoFlagDuplicates    bool
	PhotoBonus            int
}

// ReportService orchestrates the report lifecycle.
type ReportService struct {
	store     lifecycleStore
	reports   reportReader
	blobs     blobStore
	events    eventEmitter
	cache     aggregateInvalidator
	metrics   *MetricsService
	scoring   *ScoringEngine
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(store lifecycleStore, reports reportReader, blobs blobStore, events eventEmitter, cache aggregateInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.DuplicateRadiusMeters <= 0 {
		cfg.DuplicateRadiusMeters = defaultDuplicateArea
	}
	if cfg.DuplicateLookback <= 0 {
		cfg.DuplicateLookback = 7 * 24 * time.Hour
	}
	RegisterReportValidations(validate)
	return &ReportService{
		store:     store,
		reports:   reports,
		blobs:     blobs,
		events:    events,
		cache:     cache,
		metrics:   metrics,
		scoring:   NewScoringEngine(cfg.PhotoBonus),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// RegisterReportValidations adds the report_category and report_status tags.
func RegisterReportValidations(v *validator.Validate) {
	_ = v.RegisterValidation("report_category", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseCategory(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("report_status", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseStatus(fl.Field().String())
		return ok
	})
}

// CreateReport validates and stores a new report. Nearby reports of the same
// category filed within the lookback window are returned as duplicates and,
// when auto-flagging is on, the new report starts as DUPLICATE of the earliest.
// The reporter's count is incremented; points are credited later on resolution.
func (s *ReportService) CreateReport(ctx context.Context, actor models.Actor, req dto.CreateReportRequest, uploads []dto.PhotoUpload) (*dto.CreateReportResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid report payload")
	}
	lat, lon := *req.Latitude, *req.Longitude
	if !geo.Valid(lat, lon) {
		return nil, appErrors.Validation("coordinates out of range")
	}
	if len(uploads) > maxPhotosPerReport {
		return nil, appErrors.Validation(fmt.Sprintf("at most %d photos per report", maxPhotosPerReport))
	}
	category, _ := models.ParseCategory(req.Category)

	now := s.now().UTC()
	report := &models.Report{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		Category:    category,
		Title:       req.Title,
		Description: req.Description,
		Latitude:    lat,
		Longitude:   lon,
		Address:     trimmedOrNil(req.Address),
		Status:      models.StatusPending,
		EcoPoints:   s.scoring.PointsForNewReport(category, len(uploads) > 0),
		Priority:    models.PriorityLow,
		IsPublic:    true,
		Anonymous:   req.Anonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Priority > 0 {
		report.Priority = req.Priority
	}
	if req.IsPublic != nil {
		report.IsPublic = *req.IsPublic
	}

	photos, err := s.storePhotos(ctx, report.ID, uploads, now)
	if err != nil {
		return nil, err
	}
	if len(photos) > 0 {
		photos[0].IsPrimary = true
	}

	var matches []models.ReportMatch
	var unlocked []models.Achievement
	err = s.store.WithinTx(ctx, func(tx repository.LifecycleTx) error {
		if err := tx.LockCells(ctx, geo.LockCells(lat, lon, s.cfg.DuplicateRadiusMeters)); err != nil {
			return err
		}
		user, err := s.lockActiveUser(ctx, tx, actor.ID)
		if err != nil {
			return err
		}

		matches, err = FindDuplicates(ctx, tx, models.ProximityQuery{
			Category:     category,
			Latitude:     lat,
			Longitude:    lon,
			RadiusMeters: s.cfg.DuplicateRadiusMeters,
			Since:        now.Add(-s.cfg.DuplicateLookback),
		})
		if err != nil {
			return err
		}
		if len(matches) > 0 && s.cfg.AutoFlagDuplicates {
			original := matches[0].ID
			report.Status = models.StatusDuplicate
			report.DuplicateOf = &original
		}

		if err := tx.InsertReport(ctx, report); err != nil {
			return err
		}
		for i := range photos {
			if err := tx.InsertPhoto(ctx, &photos[i]); err != nil {
				return err
			}
		}

		IncrementReportsCount(user)
		user.Level = models.LevelFor(user.EcoPoints)
		if err := tx.UpdateUserProgress(ctx, user); err != nil {
			return err
		}
		unlocked, err = unlockAchievements(ctx, tx, user.ID, creationAchievements(user), now)
		return err
	})
	if err != nil {
		s.discardBlobs(photoKeys(photos))
		return nil, s.mapError(err, "report not found", "failed to create report")
	}

	report.Photos = photos
	report.Comments = []models.ReportComment{}

	s.metrics.ReportCreated(report.Category, report.Status, len(matches) > 0)
	s.metrics.AchievementsUnlocked(unlocked)
	s.emit(models.EventReportCreated, models.ReportCreatedPayload{
		ReportID:    report.ID,
		UserID:      report.UserID,
		Category:    report.Category,
		Status:      report.Status,
		EcoPoints:   report.EcoPoints,
		Latitude:    report.Latitude,
		Longitude:   report.Longitude,
		DuplicateOf: report.DuplicateOf,
	})
	s.emitAchievements(unlocked)
	s.invalidate(ctx)

	s.logger.Info("report created",
		zap.String("report_id", report.ID),
		zap.String("category", string(report.Category)),
		zap.String("status", string(report.Status)),
		zap.Int("eco_points", report.EcoPoints),
		zap.Int("nearby_matches", len(matches)),
	)

	return &dto.CreateReportResponse{
		Report:     report,
		Duplicates: visibleMatches(matches, actor),
		Unlocked:   unlocked,
	}, nil
}

// UpdateStatus applies a workflow transition under a row lock. The first move
// into RESOLVED or VERIFIED credits the report's points to its owner in the
// same transaction.
func (s *ReportService) UpdateStatus(ctx context.Context, actor models.Actor, reportID string, req dto.UpdateStatusRequest) (*dto.UpdateStatusResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid status payload")
	}
	to, _ := models.ParseStatus(req.Status)
	if req.DuplicateOf != nil {
		if to != models.StatusDuplicate {
			return nil, appErrors.Validation("duplicate_of only applies to DUPLICATE")
		}
		if *req.DuplicateOf == reportID {
			return nil, appErrors.Validation("a report cannot duplicate itself")
		}
		if _, err := s.reports.FindByID(ctx, *req.DuplicateOf); err != nil {
			return nil, s.mapError(err, "original report not found", "failed to load original report")
		}
	}

	now := s.now().UTC()
	var report *models.Report
	var change models.ReportStatusChange
	err := s.store.WithinTx(ctx, func(tx repository.LifecycleTx) error {
		r, err := tx.LockReport(ctx, reportID)
		if err != nil {
			return err
		}
		from := r.Status
		if err := ApplyTransition(r, to, req.Notes, now); err != nil {
			return err
		}
		if req.DuplicateOf != nil {
			original := *req.DuplicateOf
			r.DuplicateOf = &original
		}
		if req.AdminNotes != nil {
			r.AdminNotes = trimmedOrNil(req.AdminNotes)
		}

		change = models.ReportStatusChange{ReportID: r.ID, UserID: r.UserID, From: from, To: to, ChangedAt: now}
		if to.ResolvedOrLater() && r.PointsCreditedAt == nil {
			user, err := tx.LockUser(ctx, r.UserID)
			if err != nil {
				return err
			}
			change.LevelBefore = user.Level
			CreditUser(user, r.EcoPoints)
			if err := tx.UpdateUserProgress(ctx, user); err != nil {
				return err
			}
			r.PointsCreditedAt = &now
			change.PointsCredit = r.EcoPoints
			change.LevelAfter = user.Level

			change.Unlocked, err = unlockAchievements(ctx, tx, user.ID, creditAchievements(user), now)
			if err != nil {
				return err
			}
		}
		if err := tx.UpdateReportWorkflow(ctx, r); err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "report not found", "failed to update report status")
	}

	s.metrics.StatusChanged(change.From, change.To, change.PointsCredit)
	s.metrics.AchievementsUnlocked(change.Unlocked)
	s.emit(models.EventReportStatusChanged, change)
	s.emitAchievements(change.Unlocked)
	s.invalidate(ctx)

	s.logger.Info("report status changed",
		zap.String("report_id", reportID),
		zap.String("actor_id", actor.ID),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)),
		zap.Int("points_credited", change.PointsCredit),
	)

	if err := s.loadCollections(ctx, report, actor); err != nil {
		return nil, err
	}
	return &dto.UpdateStatusResponse{Report: report, Change: change}, nil
}

// AttachPhoto uploads and appends a photo. It becomes primary only when the
// report has no primary photo yet. Report points are not changed.
func (s *ReportService) AttachPhoto(ctx context.Context, actor models.Actor, reportID string, upload dto.PhotoUpload) (*models.ReportPhoto, error) {
	existing, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, s.mapError(err, "report not found", "failed to load report")
	}
	if !actor.IsAdmin() && !actor.Owns(existing.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the reporter can add photos")
	}

	photos, err := s.storePhotos(ctx, reportID, []dto.PhotoUpload{upload}, s.now().UTC())
	if err != nil {
		return nil, err
	}
	photo := photos[0]

	err = s.store.WithinTx(ctx, func(tx repository.LifecycleTx) error {
		if _, err := tx.LockReport(ctx, reportID); err != nil {
			return err
		}
		total, primary, err := tx.PhotoCounts(ctx, reportID)
		if err != nil {
			return err
		}
		if total >= maxPhotosPerReport {
			return appErrors.Validation(fmt.Sprintf("at most %d photos per report", maxPhotosPerReport))
		}
		photo.IsPrimary = primary == 0
		return tx.InsertPhoto(ctx, &photo)
	})
	if err != nil {
		s.discardBlobs([]string{photo.StorageKey})
		return nil, s.mapError(err, "report not found", "failed to attach photo")
	}
	return &photo, nil
}

// AddComment appends a comment. Comments by admins are flagged as such.
func (s *ReportService) AddComment(ctx context.Context, actor models.Actor, reportID string, req dto.AddCommentRequest) (*models.ReportComment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid comment payload")
	}

	comment := &models.ReportComment{
		ID:             uuid.NewString(),
		ReportID:       reportID,
		UserID:         actor.ID,
		Content:        req.Content,
		IsAdminComment: actor.IsAdmin(),
		IsPublic:       true,
		CreatedAt:      s.now().UTC(),
	}
	if req.IsPublic != nil {
		comment.IsPublic = *req.IsPublic
	}

	err := s.store.WithinTx(ctx, func(tx repository.LifecycleTx) error {
		report, err := tx.LockReport(ctx, reportID)
		if err != nil {
			return err
		}
		if !canView(report, actor) {
			return sql.ErrNoRows
		}
		return tx.InsertComment(ctx, comment)
	})
	if err != nil {
		return nil, s.mapError(err, "report not found", "failed to add comment")
	}
	return comment, nil
}

// Get returns a report with its photos and the comments visible to actor.
func (s *ReportService) Get(ctx context.Context, actor models.Actor, id string) (*models.Report, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, "report not found", "failed to load report")
	}
	if !canView(report, actor) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	if err := s.loadCollections(ctx, report, actor); err != nil {
		return nil, err
	}
	return report, nil
}

// List returns paginated reports. Non-admins see public reports plus their own.
func (s *ReportService) List(ctx context.Context, actor models.Actor, filter models.ReportFilter) ([]models.Report, *models.Pagination, error) {
	if !actor.IsAdmin() && (filter.UserID == "" || !actor.Owns(filter.UserID)) {
		filter.PublicOnly = true
	}
	reports, total, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	for i := range reports {
		redactReport(&reports[i], actor)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return reports, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Recent lists reports created at or after since, newest first.
func (s *ReportService) Recent(ctx context.Context, actor models.Actor, since time.Time, filter models.ReportFilter) ([]models.Report, *models.Pagination, error) {
	since = since.UTC()
	filter.From = &since
	filter.SortBy = "created_at"
	filter.SortOrder = "DESC"
	return s.List(ctx, actor, filter)
}

// Critical lists reports with high or critical priority.
func (s *ReportService) Critical(ctx context.Context, actor models.Actor, filter models.ReportFilter) ([]models.Report, *models.Pagination, error) {
	filter.MinPriority = models.PriorityHigh
	if filter.SortBy == "" {
		filter.SortBy = "priority"
	}
	return s.List(ctx, actor, filter)
}

// RecentlyResolved lists public reports resolved since the given time.
func (s *ReportService) RecentlyResolved(ctx context.Context, actor models.Actor, since time.Time, limit int) ([]models.Report, error) {
	reports, err := s.reports.RecentlyResolved(ctx, since.UTC(), limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resolved reports")
	}
	for i := range reports {
		redactReport(&reports[i], actor)
	}
	return reports, nil
}

// Nearby returns reports within a radius of a point, nearest first.
func (s *ReportService) Nearby(ctx context.Context, actor models.Actor, q dto.NearbyQuery) ([]models.ReportMatch, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Invalid(err, "invalid nearby query")
	}
	if !geo.Valid(q.Latitude, q.Longitude) {
		return nil, appErrors.Validation("coordinates out of range")
	}
	radius := q.RadiusMeters
	if radius <= 0 {
		radius = defaultNearbyRadius
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultNearbyLimit
	}
	query := models.ProximityQuery{
		Latitude:     q.Latitude,
		Longitude:    q.Longitude,
		RadiusMeters: radius,
		PublicOnly:   !actor.IsAdmin(),
		ViewerID:     actor.ID,
		NearestFirst: true,
		// Box corners fall outside the circle, so fetch extra candidates.
		Limit: limit * 2,
	}
	if q.Category != "" {
		query.Category, _ = models.ParseCategory(q.Category)
	}

	candidates, err := s.reports.FindNear(ctx, query)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search nearby reports")
	}
	confirmed := confirmWithinRadius(candidates, query)
	matches := confirmed[:0]
	for _, m := range confirmed {
		if canView(&m.Report, actor) {
			matches = append(matches, m)
		}
	}
	sortByDistance(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	for i := range matches {
		redactReport(&matches[i].Report, actor)
	}
	return matches, nil
}

// MapFeatures renders visible reports matching filter as a GeoJSON
// FeatureCollection of points.
func (s *ReportService) MapFeatures(ctx context.Context, actor models.Actor, filter models.ReportFilter) (*geojson.FeatureCollection, error) {
	if !actor.IsAdmin() {
		filter.PublicOnly = true
	}
	reports, err := s.reports.ForExport(ctx, filter, maxMapFeatures)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load map reports")
	}

	fc := geojson.NewFeatureCollection()
	for i := range reports {
		r := &reports[i]
		redactReport(r, actor)
		feature := geojson.NewPointFeature([]float64{r.Longitude, r.Latitude})
		feature.ID = r.ID
		feature.SetProperty("title", r.Title)
		feature.SetProperty("category", string(r.Category))
		feature.SetProperty("status", string(r.Status))
		feature.SetProperty("priority", r.Priority)
		feature.SetProperty("eco_points", r.EcoPoints)
		feature.SetProperty("created_at", r.CreatedAt.Format(time.RFC3339))
		if meta, ok := r.Category.Metadata(); ok {
			feature.SetProperty("color", meta.Color)
			feature.SetProperty("icon", meta.Icon)
		}
		fc.AddFeature(feature)
	}
	return fc, nil
}

// Delete removes a report together with its photos and comments. Stored
// blobs are removed after the transaction commits.
func (s *ReportService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins can delete reports")
	}
	var keys []string
	err := s.store.WithinTx(ctx, func(tx repository.LifecycleTx) error {
		if _, err := tx.LockReport(ctx, id); err != nil {
			return err
		}
		var err error
		if keys, err = tx.ListPhotoKeysByReport(ctx, id); err != nil {
			return err
		}
		return tx.DeleteReport(ctx, id)
	})
	if err != nil {
		return s.mapError(err, "report not found", "failed to delete report")
	}

	s.discardBlobs(keys)
	s.emit(models.EventReportDeleted, map[string]string{"report_id": id, "actor_id": actor.ID})
	s.invalidate(ctx)
	s.logger.Info("report deleted", zap.String("report_id", id), zap.String("actor_id", actor.ID), zap.Int("photos", len(keys)))
	return nil
}

func (s *ReportService) lockActiveUser(ctx context.Context, tx repository.LifecycleTx, userID string) (*models.User, error) {
	user, err := tx.LockUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, err
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	return user, nil
}

// storePhotos inspects and uploads each file. On any failure the blobs
// already written are removed.
func (s *ReportService) storePhotos(ctx context.Context, reportID string, uploads []dto.PhotoUpload, now time.Time) ([]models.ReportPhoto, error) {
	photos := make([]models.ReportPhoto, 0, len(uploads))
	fail := func(err error) ([]models.ReportPhoto, error) {
		s.discardBlobs(photoKeys(photos))
		return nil, err
	}

	for i, up := range uploads {
		if len(up.Data) == 0 {
			return fail(appErrors.Validation(fmt.Sprintf("photo %q is empty", up.Filename)))
		}
		meta, err := photometa.Inspect(up.Data)
		if err != nil {
			return fail(appErrors.Validation(fmt.Sprintf("photo %q is not a supported image", up.Filename)))
		}

		photoID := uuid.NewString()
		filename := photoID + extensionFor(meta.Format)
		key := path.Join("reports", reportID, filename)
		info, err := s.blobs.Upload(ctx, key, up.Data, "image/"+meta.Format)
		if err != nil {
			if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) {
				return fail(appErrors.Validation(fmt.Sprintf("photo %q rejected: %v", up.Filename, err)))
			}
			return fail(appErrors.Storage(err, "failed to upload photo"))
		}

		width, height := meta.Width, meta.Height
		photos = append(photos, models.ReportPhoto{
			ID:               photoID,
			ReportID:         reportID,
			StorageKey:       key,
			Filename:         filename,
			OriginalFilename: path.Base(strings.ReplaceAll(up.Filename, "\\", "/")),
			FileURL:          info.URL,
			FileSize:         info.Size,
			ContentType:      info.ContentType,
			Width:            &width,
			Height:           &height,
			Description:      trimmedOrNil(up.Description),
			TakenAt:          meta.TakenAt,
			CreatedAt:        now.Add(time.Duration(i) * time.Microsecond),
		})
	}
	return photos, nil
}

func (s *ReportService) loadCollections(ctx context.Context, report *models.Report, actor models.Actor) error {
	photos, err := s.reports.ListPhotos(ctx, report.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load photos")
	}
	for i := range photos {
		if url, err := s.blobs.URL(photos[i].StorageKey); err == nil {
			photos[i].FileURL = url
		}
	}
	includePrivate := actor.IsAdmin() || actor.Owns(report.UserID)
	comments, err := s.reports.ListComments(ctx, report.ID, includePrivate)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comments")
	}
	if photos == nil {
		photos = []models.ReportPhoto{}
	}
	if comments == nil {
		comments = []models.ReportComment{}
	}
	report.Photos = photos
	report.Comments = comments
	redactReport(report, actor)
	return nil
}

func (s *ReportService) discardBlobs(keys []string) {
	removeBlobs(s.blobs, keys, s.logger)
}

type blobRemover interface {
	Delete(ctx context.Context, key string) error
}

// removeBlobs deletes stored files on a detached context so cleanup still
// runs after the request is cancelled. Failures are logged.
func removeBlobs(blobs blobRemover, keys []string, logger *zap.Logger) {
	if len(keys) == 0 || blobs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := blobs.Delete(ctx, key); err != nil {
			logger.Warn("failed to remove photo blob", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *ReportService) emit(eventType models.EventType, payload interface{}) {
	if s.events != nil {
		s.events.Emit(eventType, payload)
	}
}

func (s *ReportService) emitAchievements(unlocked []models.Achievement) {
	for _, a := range unlocked {
		s.emit(models.EventAchievementUnlocked, a)
	}
}

func (s *ReportService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAggregates(ctx)
	}
}

// mapError converts store errors into typed errors. Typed errors pass through.
func (s *ReportService) mapError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func canView(r *models.Report, actor models.Actor) bool {
	return r.IsPublic || actor.IsAdmin() || actor.Owns(r.UserID)
}

// redactReport hides the reporter of anonymous reports and admin notes from
// everyone but the reporter and admins.
func redactReport(r *models.Report, actor models.Actor) {
	if actor.IsAdmin() || actor.Owns(r.UserID) {
		return
	}
	r.AdminNotes = nil
	if r.Anonymous {
		r.UserID = ""
	}
}

func visibleMatches(matches []models.ReportMatch, actor models.Actor) []models.ReportMatch {
	out := make([]models.ReportMatch, 0, len(matches))
	for _, m := range matches {
		if !canView(&m.Report, actor) {
			continue
		}
		redactReport(&m.Report, actor)
		out = append(out, m)
	}
	return out
}

func photoKeys(photos []models.ReportPhoto) []string {
	keys := make([]string, 0, len(photos))
	for _, p := range photos {
		keys = append(keys, p.StorageKey)
	}
	return keys
}

func extensionFor(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png":
		return ".png"
	case "webp":
		return ".webp"
	default:
		return ""
	}
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
