package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eco-report-api/internal/models"
	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestJSONWrapsDataAndPagination(t *testing.T) {
	c, w := newContext()
	JSON(c, http.StatusOK, []string{"a"}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, map[string]interface{}{"cache_hit": true})

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.JSONEq(t, `["a"]`, string(body["data"]))
	assert.Contains(t, body, "pagination")
	assert.JSONEq(t, `{"cache_hit":true}`, string(body["meta"]))
	assert.NotContains(t, body, "error")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestJSONKeepsExistingCachePolicy(t *testing.T) {
	c, w := newContext()
	c.Header("Cache-Control", "public, max-age=60")
	JSON(c, http.StatusOK, "ok", nil)
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
}

func TestErrorHidesCause(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Len(t, c.Errors, 1)

	c, w = newContext()
	Error(c, appErrors.Clone(appErrors.ErrNotFound, "report not found"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"report not found","status":404}}`, w.Body.String())
}
