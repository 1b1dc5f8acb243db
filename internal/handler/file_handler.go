package handler

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
	"github.com/noah-isme/eco-report-api/pkg/response"
)

type blobFiles interface {
	ResolveToken(token string) (string, error)
	Open(key string) (*os.File, error)
}

// FileHandler serves photos behind signed tokens.
type FileHandler struct {
	store blobFiles
}

// NewFileHandler constructs the handler.
func NewFileHandler(store blobFiles) *FileHandler {
	return &FileHandler{store: store}
}

// Serve godoc
// @Summary Download a stored photo
// @Tags Files
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Serve(c *gin.Context) {
	key, err := h.store.ResolveToken(c.Param("token"))
	if err != nil {
		// expired and forged tokens are indistinguishable from missing files
		response.Error(c, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "file not found"))
		return
	}
	file, err := h.store.Open(key)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "file not found"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to stat file"))
		return
	}
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
