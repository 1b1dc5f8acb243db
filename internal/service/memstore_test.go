package service

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eco-report-api/internal/models"
	"github.com/noah-isme/eco-report-api/internal/repository"
	"github.com/noah-isme/eco-report-api/pkg/storage"
)

// memStore is an in-memory lifecycle store. A failing transaction restores
// the state captured when it began.
type memStore struct {
	mu           sync.Mutex
	reports      map[string]models.Report
	users        map[string]models.User
	photos       map[string][]models.ReportPhoto
	comments     map[string][]models.ReportComment
	achievements map[string][]models.Achievement
	lockedCells  [][]int64
}

func newMemStore(users ...models.User) *memStore {
	s := &memStore{
		reports:      map[string]models.Report{},
		users:        map[string]models.User{},
		photos:       map[string][]models.ReportPhoto{},
		comments:     map[string][]models.ReportComment{},
		achievements: map[string][]models.Achievement{},
	}
	for _, u := range users {
		if u.Level == "" {
			u.Level = models.LevelFor(u.EcoPoints)
		}
		s.users[u.ID] = u
	}
	return s
}

type memSnapshot struct {
	reports      map[string]models.Report
	users        map[string]models.User
	photos       map[string][]models.ReportPhoto
	comments     map[string][]models.ReportComment
	achievements map[string][]models.Achievement
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		reports:      make(map[string]models.Report, len(s.reports)),
		users:        make(map[string]models.User, len(s.users)),
		photos:       make(map[string][]models.ReportPhoto, len(s.photos)),
		comments:     make(map[string][]models.ReportComment, len(s.comments)),
		achievements: make(map[string][]models.Achievement, len(s.achievements)),
	}
	for k, v := range s.reports {
		snap.reports[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.photos {
		snap.photos[k] = append([]models.ReportPhoto(nil), v...)
	}
	for k, v := range s.comments {
		snap.comments[k] = append([]models.ReportComment(nil), v...)
	}
	for k, v := range s.achievements {
		snap.achievements[k] = append([]models.Achievement(nil), v...)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.reports = snap.reports
	s.users = snap.users
	s.photos = snap.photos
	s.comments = snap.comments
	s.achievements = snap.achievements
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx repository.LifecycleTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) user(id string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *memStore) report(id string) (models.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	return r, ok
}

func (s *memStore) near(q models.ProximityQuery) []models.Report {
	var out []models.Report
	for _, r := range s.reports {
		if q.Category != "" && r.Category != q.Category {
			continue
		}
		if !q.Since.IsZero() && r.CreatedAt.Before(q.Since) {
			continue
		}
		if q.PublicOnly && !r.IsPublic && (q.ViewerID == "" || r.UserID != q.ViewerID) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// reportReader

func (s *memStore) FindByID(ctx context.Context, id string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (s *memStore) ListPhotos(ctx context.Context, reportID string) ([]models.ReportPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ReportPhoto(nil), s.photos[reportID]...), nil
}

func (s *memStore) ListComments(ctx context.Context, reportID string, includePrivate bool) ([]models.ReportComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReportComment
	for _, c := range s.comments[reportID] {
		if c.IsPublic || includePrivate {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) FindNear(ctx context.Context, q models.ProximityQuery) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.near(q), nil
}

func (s *memStore) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Report
	for _, r := range s.reports {
		if filter.PublicOnly && !r.IsPublic {
			continue
		}
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.MinPriority > 0 && r.Priority < filter.MinPriority {
			continue
		}
		if filter.From != nil && r.CreatedAt.Before(*filter.From) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (s *memStore) RecentlyResolved(ctx context.Context, since time.Time, limit int) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Report
	for _, r := range s.reports {
		if r.ResolvedAt != nil && !r.ResolvedAt.Before(since) && r.IsPublic {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) ForExport(ctx context.Context, filter models.ReportFilter, limit int) ([]models.Report, error) {
	reports, _, err := s.List(ctx, filter)
	if len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, err
}

type memTx struct {
	s *memStore
}

func (t *memTx) LockCells(ctx context.Context, cells []int64) error {
	t.s.lockedCells = append(t.s.lockedCells, append([]int64(nil), cells...))
	return nil
}

func (t *memTx) FindNear(ctx context.Context, q models.ProximityQuery) ([]models.Report, error) {
	return t.s.near(q), nil
}

func (t *memTx) InsertReport(ctx context.Context, report *models.Report) error {
	stored := *report
	stored.Photos, stored.Comments = nil, nil
	t.s.reports[report.ID] = stored
	return nil
}

func (t *memTx) LockReport(ctx context.Context, id string) (*models.Report, error) {
	r, ok := t.s.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (t *memTx) UpdateReportWorkflow(ctx context.Context, report *models.Report) error {
	if _, ok := t.s.reports[report.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *report
	stored.Photos, stored.Comments = nil, nil
	t.s.reports[report.ID] = stored
	return nil
}

func (t *memTx) LockUser(ctx context.Context, id string) (*models.User, error) {
	u, ok := t.s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (t *memTx) UpdateUserProgress(ctx context.Context, user *models.User) error {
	if _, ok := t.s.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	t.s.users[user.ID] = *user
	return nil
}

func (t *memTx) PhotoCounts(ctx context.Context, reportID string) (int, int, error) {
	primary := 0
	for _, p := range t.s.photos[reportID] {
		if p.IsPrimary {
			primary++
		}
	}
	return len(t.s.photos[reportID]), primary, nil
}

func (t *memTx) InsertPhoto(ctx context.Context, photo *models.ReportPhoto) error {
	t.s.photos[photo.ReportID] = append(t.s.photos[photo.ReportID], *photo)
	return nil
}

func (t *memTx) InsertComment(ctx context.Context, comment *models.ReportComment) error {
	t.s.comments[comment.ReportID] = append(t.s.comments[comment.ReportID], *comment)
	return nil
}

func (t *memTx) ListAchievementCodes(ctx context.Context, userID string) ([]models.AchievementCode, error) {
	var codes []models.AchievementCode
	for _, a := range t.s.achievements[userID] {
		codes = append(codes, a.Code)
	}
	return codes, nil
}

func (t *memTx) InsertAchievement(ctx context.Context, achievement *models.Achievement) (bool, error) {
	for _, a := range t.s.achievements[achievement.UserID] {
		if a.Code == achievement.Code {
			return false, nil
		}
	}
	t.s.achievements[achievement.UserID] = append(t.s.achievements[achievement.UserID], *achievement)
	return true, nil
}

func (t *memTx) ListPhotoKeysByReport(ctx context.Context, reportID string) ([]string, error) {
	var keys []string
	for _, p := range t.s.photos[reportID] {
		keys = append(keys, p.StorageKey)
	}
	return keys, nil
}

func (t *memTx) ListPhotoKeysByUser(ctx context.Context, userID string) ([]string, error) {
	var keys []string
	for id, r := range t.s.reports {
		if r.UserID != userID {
			continue
		}
		for _, p := range t.s.photos[id] {
			keys = append(keys, p.StorageKey)
		}
	}
	return keys, nil
}

func (t *memTx) DeleteReport(ctx context.Context, id string) error {
	if _, ok := t.s.reports[id]; !ok {
		return sql.ErrNoRows
	}
	delete(t.s.reports, id)
	delete(t.s.photos, id)
	delete(t.s.comments, id)
	for k, r := range t.s.reports {
		if r.DuplicateOf != nil && *r.DuplicateOf == id {
			r.DuplicateOf = nil
			t.s.reports[k] = r
		}
	}
	return nil
}

func (t *memTx) DeleteUser(ctx context.Context, id string) error {
	if _, ok := t.s.users[id]; !ok {
		return sql.ErrNoRows
	}
	for rid, r := range t.s.reports {
		if r.UserID == id {
			if err := t.DeleteReport(ctx, rid); err != nil {
				return err
			}
		}
	}
	for rid, list := range t.s.comments {
		kept := list[:0]
		for _, c := range list {
			if c.UserID != id {
				kept = append(kept, c)
			}
		}
		t.s.comments[rid] = kept
	}
	delete(t.s.achievements, id)
	delete(t.s.users, id)
	return nil
}

type memBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	uploadErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (b *memBlobs) Upload(ctx context.Context, key string, data []byte, contentType string) (*storage.BlobInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploadErr != nil {
		return nil, b.uploadErr
	}
	b.objects[key] = data
	return &storage.BlobInfo{Key: key, URL: "/files/" + key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (b *memBlobs) URL(key string) (string, error) {
	return "/files/signed/" + key, nil
}

func (b *memBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

type memEmitter struct {
	mu     sync.Mutex
	events []models.EventType
}

func (e *memEmitter) Emit(eventType models.EventType, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, eventType)
}

func (e *memEmitter) types() []models.EventType {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.EventType(nil), e.events...)
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) InvalidateAggregates(ctx context.Context) {
	c.calls++
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
