package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eco-report-api/pkg/config"
	"github.com/noah-isme/eco-report-api/pkg/storage"
)

func TestFileHandlerServesSignedBlob(t *testing.T) {
	store, err := storage.NewLocalBlobStore(config.StorageConfig{
		Dir:             t.TempDir(),
		PublicBaseURL:   "http://localhost/files",
		SignedURLSecret: "test-secret",
		SignedURLTTL:    time.Hour,
		MaxFileSize:     1 << 20,
		AllowedMIMEs:    []string{"image/png"},
	})
	require.NoError(t, err)

	info, err := store.Upload(context.Background(), "reports/r-1/p-1.png", pngFixture(t), "image/png")
	require.NoError(t, err)
	token := strings.TrimPrefix(info.URL, "http://localhost/files/")

	h := NewFileHandler(store)
	c, rec := newTestContext(http.MethodGet, "/files/"+token, nil, nil)
	c.Params = append(c.Params, ginParam("token", token))
	h.Serve(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngFixture(t), rec.Body.Bytes())

	c, rec = newTestContext(http.MethodGet, "/files/forged", nil, nil)
	c.Params = append(c.Params, ginParam("token", "forged"))
	h.Serve(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
