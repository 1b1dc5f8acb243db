package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eco-report-api/internal/middleware"
	"github.com/noah-isme/eco-report-api/internal/models"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *envelopeError         `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	reporterClaims = &models.JWTClaims{UserID: "user-1", Role: models.RoleReporter}
	adminClaims    = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
)

// newTestContext builds a gin context for a direct handler call. A nil claims
// value leaves the request anonymous.
func newTestContext(method, target string, body io.Reader, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, body)
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

// serve runs handler and flushes the status line the way gin does once the
// handler chain returns, so status-only responses reach the recorder.
func serve(c *gin.Context, handler gin.HandlerFunc) {
	handler(c)
	c.Writer.WriteHeaderNow()
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(payload)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func withJSON(c *gin.Context) {
	c.Request.Header.Set("Content-Type", "application/json")
}


func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}

func pngFixture(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
