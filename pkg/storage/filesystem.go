package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/noah-isme/eco-report-api/pkg/config"
)

var (
	// ErrUnsupportedType is returned when the blob's MIME type is not allowed.
	ErrUnsupportedType = errors.New("unsupported content type")
	// ErrTooLarge is returned when the blob exceeds the configured size limit.
	ErrTooLarge = errors.New("file too large")
	// ErrInvalidKey is returned for keys escaping the base directory.
	ErrInvalidKey = errors.New("invalid blob key")
)

// BlobInfo describes a stored photo.
type BlobInfo struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// LocalBlobStore persists blobs on disk and serves them through signed URLs.
type LocalBlobStore struct {
	baseDir       string
	publicBaseURL string
	maxSize       int64
	allowed       map[string]struct{}
	signer        *SignedURLSigner
}

// NewLocalBlobStore ensures the base directory exists and returns a handle.
func NewLocalBlobStore(cfg config.StorageConfig) (*LocalBlobStore, error) {
	baseDir := cfg.Dir
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mime := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(mime)] = struct{}{}
	}
	return &LocalBlobStore{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxSize:       cfg.MaxFileSize,
		allowed:       allowed,
		signer:        NewSignedURLSigner(cfg.SignedURLSecret, cfg.SignedURLTTL),
	}, nil
}

// Upload validates and writes data under key, returning its public URL.
// An empty contentType is sniffed from the payload.
func (s *LocalBlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) (*BlobInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if len(s.allowed) > 0 {
		if _, ok := s.allowed[contentType]; !ok {
			return nil, ErrUnsupportedType
		}
	}

	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare blob directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write blob: %w", err)
	}

	url, err := s.URL(key)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return &BlobInfo{Key: key, URL: url, ContentType: contentType, Size: int64(len(data))}, nil
}

// URL returns a freshly signed download URL for key.
func (s *LocalBlobStore) URL(key string) (string, error) {
	token, _, err := s.signer.Generate(key)
	if err != nil {
		return "", fmt.Errorf("sign blob url: %w", err)
	}
	return s.publicBaseURL + "/" + token, nil
}

// ResolveToken validates a download token and returns the blob key.
func (s *LocalBlobStore) ResolveToken(token string) (string, error) {
	key, _, err := s.signer.Parse(token)
	return key, err
}

// Open returns a read-only handle for the stored blob.
func (s *LocalBlobStore) Open(key string) (*os.File, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return file, nil
}

// Delete removes a stored blob if present.
func (s *LocalBlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *LocalBlobStore) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.baseDir, clean), nil
}
