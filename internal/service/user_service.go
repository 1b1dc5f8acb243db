package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/eco-report-api/internal/dto"
	"github.com/noah-isme/eco-report-api/internal/models"
	"github.com/noah-isme/eco-report-api/internal/repository"
	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id string, active bool) error
}

type achievementReader interface {
	ListByUser(ctx context.Context, userID string) ([]models.Achievement, error)
}

// UserService handles registration, profiles and account removal.
type UserService struct {
	repo         userRepository
	achievements achievementReader
	store        lifecycleStore
	blobs        blobRemover
	cache        aggregateInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, achievements achievementReader, store lifecycleStore, blobs blobRemover, cache aggregateInvalidator, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{
		repo:         repo,
		achievements: achievements,
		store:        store,
		blobs:        blobs,
		cache:        cache,
		validator:    validate,
		logger:       logger,
		now:          time.Now,
	}
}

// Register creates a reporter account.
func (s *UserService) Register(ctx context.Context, req dto.RegisterRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid registration payload")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Location:     trimmedOrNil(req.Location),
		Level:        models.LevelFor(0),
		Role:         models.RoleReporter,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	pagination := &models.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}

	return users, pagination, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Profile returns the user with unlocked badges and progress to the next level.
func (s *UserService) Profile(ctx context.Context, id string) (*dto.UserProfile, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	achievements, err := s.achievements.ListByUser(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load achievements")
	}
	if achievements == nil {
		achievements = []models.Achievement{}
	}

	profile := &dto.UserProfile{User: user, Achievements: achievements}
	if next, ok := nextLevel(user.EcoPoints); ok {
		profile.NextLevel = &next.Level
		profile.PointsToNext = next.MinPoints - user.EcoPoints
	}
	return profile, nil
}

// UpdateProfile changes the editable profile fields. Users may only edit
// themselves unless they are admins.
func (s *UserService) UpdateProfile(ctx context.Context, actor models.Actor, id string, req dto.UpdateProfileRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid profile payload")
	}
	if !actor.IsAdmin() && !actor.Owns(id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot edit another user's profile")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = req.Name
	user.Location = trimmedOrNil(req.Location)
	user.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return user, nil
}

// SetActive enables or disables an account. Admins cannot disable themselves.
func (s *UserService) SetActive(ctx context.Context, actor models.Actor, id string, active bool) error {
	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins can change account state")
	}
	if !active && actor.Owns(id) {
		return appErrors.Validation("admins cannot deactivate themselves")
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account state")
	}
	s.logger.Info("user active flag changed", zap.String("user_id", id), zap.Bool("active", active), zap.String("actor_id", actor.ID))
	return nil
}

// Delete removes a user with their reports, photos, comments and badges.
// Stored photo files are removed once the transaction commits.
func (s *UserService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if !actor.IsAdmin() && !actor.Owns(id) {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete another user")
	}

	var keys []string
	err := s.store.WithinTx(ctx, func(tx repository.LifecycleTx) error {
		if _, err := tx.LockUser(ctx, id); err != nil {
			return err
		}
		var err error
		if keys, err = tx.ListPhotoKeysByUser(ctx, id); err != nil {
			return err
		}
		return tx.DeleteUser(ctx, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	removeBlobs(s.blobs, keys, s.logger)
	if s.cache != nil {
		s.cache.InvalidateAggregates(ctx)
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", actor.ID), zap.Int("photos", len(keys)))
	return nil
}

// nextLevel returns the lowest tier above points.
func nextLevel(points int) (models.LevelThreshold, bool) {
	levels := models.Levels()
	for i := len(levels) - 1; i >= 0; i-- {
		if levels[i].MinPoints > points {
			return levels[i], true
		}
	}
	return models.LevelThreshold{}, false
}
