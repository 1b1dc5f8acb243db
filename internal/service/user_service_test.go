package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/eco-report-api/internal/dto"
	"github.com/noah-isme/eco-report-api/internal/models"
	"github.com/noah-isme/eco-report-api/internal/repository"
	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
)

type mockUserRepo struct {
	users        map[string]*models.User
	listUsers    []models.User
	listCount    int
	listErr      error
	achievements map[string][]models.Achievement
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listUsers, m.listCount, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Active = active
	return nil
}

func (m *mockUserRepo) ListByUser(ctx context.Context, userID string) ([]models.Achievement, error) {
	return m.achievements[userID], nil
}

func newUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, repo, newMemStore(), newMemBlobs(), nil, validator.New(), zap.NewNop())
}

func TestUserServiceList(t *testing.T) {
	repo := &mockUserRepo{listUsers: []models.User{{ID: "1", Email: "a@example.com"}}, listCount: 1}
	svc := newUserService(repo)
	users, pagination, err := svc.List(context.Background(), models.UserFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 10, pagination.PageSize)
}

func TestUserServiceRegister(t *testing.T) {
	repo := &mockUserRepo{users: make(map[string]*models.User)}
	svc := newUserService(repo)

	user, err := svc.Register(context.Background(), dto.RegisterRequest{Name: " Rina ", Email: " RINA@EXAMPLE.COM", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "rina@example.com", user.Email)
	assert.Equal(t, "Rina", user.Name)
	assert.Equal(t, models.RoleReporter, user.Role)
	assert.Equal(t, models.LevelExplorer, user.Level)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))

	_, err = svc.Register(context.Background(), dto.RegisterRequest{Name: "Rina", Email: "rina@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Register(context.Background(), dto.RegisterRequest{Name: "R", Email: "bad", Password: "short"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserServiceProfile(t *testing.T) {
	repo := &mockUserRepo{
		users: map[string]*models.User{"1": {ID: "1", Name: "Rina", EcoPoints: 120, Level: models.LevelDefender}},
		achievements: map[string][]models.Achievement{
			"1": {{Code: models.AchievementFirstReport}},
		},
	}
	svc := newUserService(repo)

	profile, err := svc.Profile(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, profile.Achievements, 1)
	require.NotNil(t, profile.NextLevel)
	assert.Equal(t, models.LevelProtector, *profile.NextLevel)
	assert.Equal(t, 380, profile.PointsToNext)

	repo.users["2"] = &models.User{ID: "2", EcoPoints: 1500, Level: models.LevelGuardian}
	profile, err = svc.Profile(context.Background(), "2")
	require.NoError(t, err)
	assert.Nil(t, profile.NextLevel)
	assert.NotNil(t, profile.Achievements)

	_, err = svc.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserServiceUpdateProfile(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"1": {ID: "1", Name: "Old", Active: true}}}
	svc := newUserService(repo)
	location := " Jakarta "

	user, err := svc.UpdateProfile(context.Background(), models.Actor{ID: "1", Role: models.RoleReporter}, "1", dto.UpdateProfileRequest{Name: "New", Location: &location})
	require.NoError(t, err)
	assert.Equal(t, "New", user.Name)
	require.NotNil(t, user.Location)
	assert.Equal(t, "Jakarta", *user.Location)

	_, err = svc.UpdateProfile(context.Background(), models.Actor{ID: "2", Role: models.RoleReporter}, "1", dto.UpdateProfileRequest{Name: "Hacker"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestUserServiceSetActive(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"1": {ID: "1", Active: true}}}
	svc := newUserService(repo)
	adminActor := models.Actor{ID: "a", Role: models.RoleAdmin}

	require.NoError(t, svc.SetActive(context.Background(), adminActor, "1", false))
	assert.False(t, repo.users["1"].Active)

	assert.ErrorIs(t, svc.SetActive(context.Background(), models.Actor{ID: "1", Role: models.RoleReporter}, "1", true), appErrors.ErrForbidden)
	assert.ErrorIs(t, svc.SetActive(context.Background(), adminActor, "a", false), appErrors.ErrValidation)
	assert.ErrorIs(t, svc.SetActive(context.Background(), adminActor, "missing", true), appErrors.ErrNotFound)
}

func TestUserServiceDeleteCascades(t *testing.T) {
	f := newReportFixture(t, defaultReportConfig())
	ctx := context.Background()
	own := f.create(t, reporter, createRequest("TRASH", baseLat, baseLon),
		dto.PhotoUpload{Filename: "a.png", Data: pngBytes(t)}).Report.ID
	other := f.create(t, neighbor, createRequest("NOISE", baseLat, baseLon)).Report.ID
	_, err := f.svc.AddComment(ctx, reporter, other, dto.AddCommentRequest{Content: "Same here"})
	require.NoError(t, err)

	repo := &mockUserRepo{users: map[string]*models.User{}}
	cache := &countingInvalidator{}
	svc := NewUserService(repo, repo, f.store, f.blobs, cache, nil, nil)

	assert.ErrorIs(t, svc.Delete(ctx, neighbor, reporter.ID), appErrors.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, reporter, reporter.ID))
	_, ok := f.store.report(own)
	assert.False(t, ok)
	_, ok = f.store.report(other)
	assert.True(t, ok)
	assert.Empty(t, f.store.comments[other])
	assert.Empty(t, f.store.achievements[reporter.ID])
	assert.Equal(t, 0, f.blobs.count())
	assert.Equal(t, 1, cache.calls)

	assert.ErrorIs(t, svc.Delete(ctx, admin, reporter.ID), appErrors.ErrNotFound)
}
