package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eco-report-api/pkg/config"
)

func newTestStore(t *testing.T) *LocalBlobStore {
	t.Helper()
	store, err := NewLocalBlobStore(config.StorageConfig{
		Dir:             t.TempDir(),
		PublicBaseURL:   "/api/v1/files/",
		SignedURLSecret: "secret",
		SignedURLTTL:    time.Hour,
		MaxFileSize:     16,
		AllowedMIMEs:    []string{"image/png", "text/plain"},
	})
	require.NoError(t, err)
	return store
}

func TestLocalBlobStoreUploadOpenDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	info, err := store.Upload(ctx, "reports/r-1/a.txt", []byte("hello"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "text/plain", info.ContentType)
	assert.True(t, strings.HasPrefix(info.URL, "/api/v1/files/"))

	token := strings.TrimPrefix(info.URL, "/api/v1/files/")
	key, err := store.ResolveToken(token)
	require.NoError(t, err)
	assert.Equal(t, "reports/r-1/a.txt", key)

	f, err := store.Open(key)
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "hello", string(body))

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(key)
	assert.Error(t, err)
}

func TestLocalBlobStoreRejections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upload(ctx, "a.bin", []byte("0123456789abcdefXYZ"), "text/plain")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = store.Upload(ctx, "a.gif", []byte("GIF89a"), "image/gif")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = store.Upload(ctx, "../escape.txt", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
