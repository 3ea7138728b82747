package handler

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siap-api/internal/middleware"
	"github.com/noah-isme/siap-api/internal/models"
	"github.com/noah-isme/siap-api/internal/service"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
	"github.com/noah-isme/siap-api/pkg/storage"
)

const multipartMemory = 8 << 20

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

// parseMultipart reads the form body once, capping it at maxBody bytes.
// Plain form bodies are accepted as well.
func parseMultipart(c *gin.Context, maxBody int64) error {
	if maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBody)
	}
	err := c.Request.ParseMultipartForm(multipartMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return appErrors.Wrap(err, appErrors.ErrFileTooLarge.Code, appErrors.ErrFileTooLarge.Status, appErrors.ErrFileTooLarge.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Format formulir tidak valid.")
}

// formFile returns the first file sent under any of fields, or nil when none
// was sent. The returned closer must be called once the upload is consumed.
func formFile(c *gin.Context, fields ...string) (*service.FileUpload, func(), error) {
	noop := func() {}
	if c.Request.MultipartForm == nil {
		return nil, noop, nil
	}
	var header *multipart.FileHeader
	for _, field := range fields {
		if files := c.Request.MultipartForm.File[field]; len(files) > 0 {
			header = files[0]
			break
		}
	}
	if header == nil {
		return nil, noop, nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, noop, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Gagal membaca file unggahan.")
	}
	return &service.FileUpload{Filename: header.Filename, Size: header.Size, Content: file}, func() { _ = file.Close() }, nil
}

// optionalPostForm distinguishes an absent field from an empty one.
func optionalPostForm(c *gin.Context, field string) *string {
	value, ok := c.GetPostForm(field)
	if !ok {
		return nil
	}
	return &value
}

func postFormBool(c *gin.Context, field string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.PostForm(field)))
	return err == nil && v
}

func serveFile(c *gin.Context, download *service.FileDownload, disposition string) {
	defer download.File.Close() //nolint:errcheck
	if disposition != storage.DispositionAttachment {
		disposition = storage.DispositionInline
	}
	c.Header("Cache-Control", "private, no-store")
	c.Header("X-Content-Type-Options", "nosniff")
	headers := map[string]string{
		"Content-Disposition": mime.FormatMediaType(disposition, map[string]string{"filename": download.Filename}),
	}
	c.DataFromReader(http.StatusOK, download.Size, download.ContentType, download.File, headers)
}
