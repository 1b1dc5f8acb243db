package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eco-report-api/internal/dto"
	"github.com/noah-isme/eco-report-api/internal/models"
	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
	"github.com/noah-isme/eco-report-api/pkg/response"
)

type userService interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Profile(ctx context.Context, id string) (*dto.UserProfile, error)
	UpdateProfile(ctx context.Context, actor models.Actor, id string, req dto.UpdateProfileRequest) (*models.User, error)
	SetActive(ctx context.Context, actor models.Actor, id string, active bool) error
	Delete(ctx context.Context, actor models.Actor, id string) error
}

// UserHandler handles account endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Description List users with pagination and filtering
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param role query string false "Role filter"
// @Param level query string false "Level filter"
// @Param active query bool false "Active filter"
// @Param search query string false "Search term"
// @Param sort_by query string false "Sort by"
// @Param sort_order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(strings.ToUpper(role))
		filter.Role = &r
	}
	if level := c.Query("level"); level != "" {
		l := models.Level(strings.ToUpper(level))
		filter.Level = &l
	}
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filter.Active = &val
		}
	}

	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, pagination)
}

// Me godoc
// @Summary Current user profile
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.profile(c, actor.ID)
}

// Get godoc
// @Summary Public profile with achievements
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	h.profile(c, c.Param("id"))
}

func (h *UserHandler) profile(c *gin.Context, id string) {
	profile, err := h.service.Profile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	actor := actorFromContext(c)
	if !actor.IsAdmin() && !actor.Owns(id) && profile.User != nil {
		redacted := *profile.User
		redacted.Email = ""
		redacted.LastLogin = nil
		profile.User = &redacted
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateMe godoc
// @Summary Update current user profile
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body dto.UpdateProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.update(c, actor, actor.ID)
}

// Update godoc
// @Summary Update a user profile
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.UpdateProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.update(c, actor, c.Param("id"))
}

func (h *UserHandler) update(c *gin.Context, actor models.Actor, id string) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid profile payload"))
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// SetActive godoc
// @Summary Activate or deactivate a user
// @Tags Users
// @Accept json
// @Param id path string true "User ID"
// @Param payload body map[string]bool true "Active flag"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /users/{id}/active [patch]
func (h *UserHandler) SetActive(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var payload struct {
		Active *bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, invalidPayload(err, "invalid payload"))
		return
	}
	if payload.Active == nil {
		response.Error(c, appErrors.Validation("active is required"))
		return
	}
	if err := h.service.SetActive(c.Request.Context(), actor, c.Param("id"), *payload.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a user with their reports
// @Tags Users
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	actor, err := requireActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
