package handler

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/noah-isme/siap-api/internal/dto"
	"github.com/noah-isme/siap-api/internal/models"
	"github.com/noah-isme/siap-api/internal/service"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
	"github.com/noah-isme/siap-api/pkg/response"
	"github.com/noah-isme/siap-api/pkg/storage"
)

type documentService interface {
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateDocumentRequest, uploads service.DocumentUploads, meta service.RequestMeta) (*models.Document, error)
	UpdateWorkflow(ctx context.Context, actor *models.JWTClaims, id string, req dto.WorkflowUpdateRequest, uploads service.WorkflowUploads, meta service.RequestMeta) (*models.Document, error)
	Respond(ctx context.Context, actor *models.JWTClaims, id string, keterangan string, upload *service.FileUpload, meta service.RequestMeta) (*models.Document, error)
	DeleteResponse(ctx context.Context, actor *models.JWTClaims, responseID string, meta service.RequestMeta) (*models.Document, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string, meta service.RequestMeta) error
	List(ctx context.Context, actor *models.JWTClaims, query dto.DocumentListQuery) ([]models.Document, *models.Pagination, error)
	Unresponded(ctx context.Context, actor *models.JWTClaims, query dto.DocumentListQuery) ([]models.Document, *models.Pagination, error)
	Recent(ctx context.Context, actor *models.JWTClaims, limit int) ([]models.Document, error)
	OpenFile(ctx context.Context, actor *models.JWTClaims, id, fileType string) (*service.FileDownload, error)
	CreateSignedLink(ctx context.Context, actor *models.JWTClaims, id, fileType, mode string) (*service.SignedLink, error)
}

type documentExporter interface {
	Export(ctx context.Context, actor *models.JWTClaims, query dto.DocumentListQuery, format service.ExportFormat) (*service.ExportResult, error)
}

var exportFormats = map[string]service.ExportFormat{
	"excel": service.ExportFormatXLSX,
	"xlsx":  service.ExportFormatXLSX,
	"csv":   service.ExportFormatCSV,
	"pdf":   service.ExportFormatPDF,
}

// DocumentHandler exposes the letter archive endpoints.
type DocumentHandler struct {
	service  documentService
	exporter documentExporter
	maxBody  int64
}

// NewDocumentHandler constructs the handler. maxBody caps whole multipart
// request bodies; individual files are capped by the service.
func NewDocumentHandler(svc documentService, exporter documentExporter, maxBody int64) *DocumentHandler {
	return &DocumentHandler{service: svc, exporter: exporter, maxBody: maxBody}
}

// Create godoc
// @Summary Archive a letter
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param tipe_surat formData string true "Surat Masuk or Surat Keluar"
// @Param jenis_surat formData string true "ST, STR, Biasa, Sprin or Nota Dinas"
// @Param nomor_surat formData string true "Letter number"
// @Param perihal formData string true "Subject"
// @Param pengirim formData string false "Sender, required for Surat Masuk"
// @Param tanggal_surat formData string false "Letter date (YYYY-MM-DD)"
// @Param isi_disposisi formData string false "Disposition text"
// @Param response_keterangan formData string false "Follow-up text"
// @Param originalDocument formData file true "Letter scan"
// @Param responseDocument formData file false "Follow-up attachment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := parseMultipart(c, h.maxBody); err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateDocumentRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, appErrors.ErrValidation.Message))
		return
	}

	original, closeOriginal, err := formFile(c, "originalDocument", "lampiran_surat")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeOriginal()
	followUp, closeFollowUp, err := formFile(c, "responseDocument")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFollowUp()

	doc, err := h.service.Create(c.Request.Context(), claims, req, service.DocumentUploads{Original: original, Response: followUp}, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Dokumen berhasil ditambahkan.", doc)
}

// List godoc
// @Summary List archived letters
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param searchTerm query string false "Matches nomor surat, perihal or pengirim"
// @Param month query int false "Month (1-12)"
// @Param year query int false "Year"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	h.list(c, h.service.List)
}

// Unresponded godoc
// @Summary List incoming letters awaiting follow-up
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param searchTerm query string false "Matches nomor surat, perihal or pengirim"
// @Param month query int false "Month (1-12)"
// @Param year query int false "Year"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /documents/unresponded [get]
func (h *DocumentHandler) Unresponded(c *gin.Context) {
	h.list(c, h.service.Unresponded)
}

type listFunc func(ctx context.Context, actor *models.JWTClaims, query dto.DocumentListQuery) ([]models.Document, *models.Pagination, error)

func (h *DocumentHandler) list(c *gin.Context, fn listFunc) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query, ok := bindListQuery(c)
	if !ok {
		return
	}
	docs, pagination, err := fn(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, pagination)
}

// Recent godoc
// @Summary Newest archived letters
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of letters (default 5, max 20)"
// @Success 200 {object} response.Envelope
// @Router /documents/recent [get]
func (h *DocumentHandler) Recent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	docs, err := h.service.Recent(c.Request.Context(), claims, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Export godoc
// @Summary Export the filtered archive
// @Tags Documents
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format path string true "excel, csv or pdf"
// @Param searchTerm query string false "Matches nomor surat, perihal or pengirim"
// @Param month query int false "Month (1-12)"
// @Param year query int false "Year"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /documents/export/{format} [get]
func (h *DocumentHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format, ok := exportFormats[c.Param("format")]
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Format ekspor tidak didukung."))
		return
	}
	query, ok := bindListQuery(c)
	if !ok {
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), claims, query, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType(storage.DispositionAttachment, map[string]string{"filename": result.Filename}))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// Preview godoc
// @Summary Show a stored file inline
// @Tags Documents
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Param fileType query string false "original, disposition or response"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/preview [get]
func (h *DocumentHandler) Preview(c *gin.Context) {
	h.file(c, storage.DispositionInline)
}

// Download godoc
// @Summary Download a stored file
// @Tags Documents
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Param fileType query string false "original, disposition or response"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	h.file(c, storage.DispositionAttachment)
}

func (h *DocumentHandler) file(c *gin.Context, disposition string) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	download, err := h.service.OpenFile(c.Request.Context(), claims, c.Param("id"), c.Query("fileType"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, download, disposition)
}

// Link godoc
// @Summary Issue a signed file link
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Param fileType query string false "original, disposition or response"
// @Param mode query string false "inline or attachment"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id}/link [get]
func (h *DocumentHandler) Link(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	link, err := h.service.CreateSignedLink(c.Request.Context(), claims, c.Param("id"), c.Query("fileType"), c.Query("mode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Respond godoc
// @Summary Record a follow-up on an incoming letter
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Param response_keterangan formData string false "Follow-up text"
// @Param responseDocument formData file false "Follow-up attachment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /documents/{id}/respond [put]
func (h *DocumentHandler) Respond(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := parseMultipart(c, h.maxBody); err != nil {
		response.Error(c, err)
		return
	}
	upload, closeUpload, err := formFile(c, "responseDocument")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeUpload()

	doc, err := h.service.Respond(c.Request.Context(), claims, c.Param("id"), c.PostForm("response_keterangan"), upload, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Tindak lanjut berhasil disimpan.", doc)
}

// UpdateWorkflow godoc
// @Summary Update disposition and follow-up
// @Description Present text fields overwrite the stored value and an empty value clears it. Absent fields are kept.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Param isi_disposisi formData string false "Disposition text"
// @Param response_keterangan formData string false "Follow-up text"
// @Param dispositionAttachment formData file false "Disposition attachment"
// @Param responseDocument formData file false "Follow-up attachment"
// @Param deleteDispositionAttachment formData bool false "Remove the disposition attachment"
// @Param deleteResponseDocument formData bool false "Remove the follow-up attachment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /documents/{id}/disposition-followup [put]
func (h *DocumentHandler) UpdateWorkflow(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := parseMultipart(c, h.maxBody); err != nil {
		response.Error(c, err)
		return
	}
	disposition, closeDisposition, err := formFile(c, "dispositionAttachment")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeDisposition()
	followUp, closeFollowUp, err := formFile(c, "responseDocument")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFollowUp()

	req := dto.WorkflowUpdateRequest{
		IsiDisposisi:                optionalPostForm(c, "isi_disposisi"),
		ResponseKeterangan:          optionalPostForm(c, "response_keterangan"),
		DeleteDispositionAttachment: postFormBool(c, "deleteDispositionAttachment"),
		DeleteResponseDocument:      postFormBool(c, "deleteResponseDocument"),
	}
	doc, err := h.service.UpdateWorkflow(c.Request.Context(), claims, c.Param("id"), req, service.WorkflowUploads{Disposition: disposition, Response: followUp}, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Disposisi dan tindak lanjut berhasil diperbarui.", doc)
}

// DeleteResponse godoc
// @Summary Remove a follow-up attachment
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param responseId path string true "Stored follow-up file name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/responses/{responseId} [delete]
func (h *DocumentHandler) DeleteResponse(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doc, err := h.service.DeleteResponse(c.Request.Context(), claims, c.Param("responseId"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Lampiran tindak lanjut berhasil dihapus.", doc)
}

// Delete godoc
// @Summary Delete a letter and its files
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Dokumen berhasil dihapus.", nil)
}

func bindListQuery(c *gin.Context) (dto.DocumentListQuery, bool) {
	var query dto.DocumentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Parameter pencarian tidak valid."))
		return query, false
	}
	return query, true
}
