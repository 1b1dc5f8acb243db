package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/eco-report-api/internal/models"
	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
	"github.com/noah-isme/eco-report-api/pkg/logger"
)

type staticValidator map[string]*models.JWTClaims

func (v staticValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var tokens = staticValidator{
	"reporter": {UserID: "user-1", Role: models.RoleReporter},
	"admin":    {UserID: "admin-1", Role: models.RoleAdmin},
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTRequiresValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWT(tokens), func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		assert.True(t, ok)
		c.String(http.StatusOK, actor.ID+"|"+c.GetString(logger.UserIDKey))
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "bogus").Code)

	rec := serve(r, http.MethodGet, "/me", "reporter")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1|user-1", rec.Body.String())
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/reports", OptionalJWT(tokens), func(c *gin.Context) {
		actor, _ := ActorFromContext(c)
		c.String(http.StatusOK, string(actor.Role))
	})

	assert.Equal(t, "", serve(r, http.MethodGet, "/reports", "").Body.String())
	assert.Equal(t, "", serve(r, http.MethodGet, "/reports", "bogus").Body.String())
	assert.Equal(t, "ADMIN", serve(r, http.MethodGet, "/reports", "admin").Body.String())
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.PATCH("/reports/:id/status", JWT(tokens), RequireAdmin(), ok)
	r.DELETE("/users/:id", JWT(tokens), RequireRolesOrSelf(models.RoleAdmin), ok)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPatch, "/reports/r-1/status", "reporter").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPatch, "/reports/r-1/status", "admin").Code)

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/users/user-1", "reporter").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodDelete, "/users/user-2", "reporter").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/users/user-2", "admin").Code)
}

func TestRequireRolesWithoutJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/admin", "").Code)
}

func TestPublicCacheHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/catalog", PublicCache(time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, http.MethodGet, "/catalog", "")
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
}
