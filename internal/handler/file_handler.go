package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siap-api/internal/service"
	"github.com/noah-isme/siap-api/pkg/response"
)

type signedFileOpener interface {
	OpenSigned(ctx context.Context, token string) (*service.FileDownload, error)
}

// FileHandler redeems signed file links without a bearer token.
type FileHandler struct {
	service signedFileOpener
}

// NewFileHandler constructs the handler.
func NewFileHandler(svc signedFileOpener) *FileHandler {
	return &FileHandler{service: svc}
}

// Signed godoc
// @Summary Open a file through a signed link
// @Tags Files
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Signed(c *gin.Context) {
	download, err := h.service.OpenSigned(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, download, download.Disposition)
}
