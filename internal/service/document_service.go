package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siap-api/internal/dto"
	"github.com/noah-isme/siap-api/internal/models"
	"github.com/noah-isme/siap-api/pkg/database"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
	"github.com/noah-isme/siap-api/pkg/storage"
)

// Directories below the upload root, one per file slot.
const (
	originalDir    = "documents"
	dispositionDir = "dispositions"
	responseDir    = "responses"
)

const (
	defaultPageSize   = 10
	maxPageSize       = 100
	defaultRecentSize = 5
	maxRecentSize     = 20
)

var (
	errDocumentNotFound   = appErrors.Clone(appErrors.ErrNotFound, "Dokumen tidak ditemukan.")
	errRestrictedDocument = appErrors.Clone(appErrors.ErrForbidden, "Anda tidak memiliki izin untuk mengakses dokumen STR.")
	errFileNotFound       = appErrors.Clone(appErrors.ErrNotFound, "File lampiran tidak ditemukan di server.")
	errUnsupportedFile    = appErrors.Clone(appErrors.ErrValidation, "Tipe file tidak didukung. Hanya PDF, JPG, dan PNG yang diizinkan.")
	errOutgoingFollowUp   = appErrors.Clone(appErrors.ErrValidation, "Tindak lanjut hanya berlaku untuk Surat Masuk.")
)

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

type documentStore interface {
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error)
	Recent(ctx context.Context, limit int, excludeRestricted bool) ([]models.Document, error)
	FindByID(ctx context.Context, id string) (*models.Document, error)
	FindByResponsePath(ctx context.Context, path string) (*models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	UpdateWorkflow(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
}

type documentFileStorage interface {
	SaveStream(name string, r io.Reader) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type fileLinkSigner interface {
	Generate(resourceID, relPath, disposition string) (string, time.Time, error)
	Parse(token string) (storage.SignedFile, error)
}

type fileCleaner interface {
	Remove(paths ...string)
}

type statsInvalidator interface {
	Invalidate(ctx context.Context)
}

// FileUpload is one multipart file handed to the service.
type FileUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// DocumentUploads carries the files of a new document.
type DocumentUploads struct {
	Original *FileUpload
	Response *FileUpload
}

// WorkflowUploads carries replacement attachments.
type WorkflowUploads struct {
	Disposition *FileUpload
	Response    *FileUpload
}

// FileDownload bundles an open stored file with its presentation metadata.
type FileDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	Size        int64
	Disposition string
}

// SignedLink is a short-lived URL to a stored file.
type SignedLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentServiceConfig holds upload limits and link settings.
type DocumentServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
	// Location picks the month_year bucket of an undated letter. It must be
	// the location StatsService uses.
	Location *time.Location
}

// DocumentServiceParams groups the dependencies of DocumentService.
type DocumentServiceParams struct {
	Repo      documentStore
	Storage   documentFileStorage
	Signer    fileLinkSigner
	Janitor   fileCleaner
	Stats     statsInvalidator
	Audit     auditLogger
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    DocumentServiceConfig
}

// DocumentService implements document ingestion, the disposition and
// follow-up workflow, and retrieval of documents and their files.
type DocumentService struct {
	repo      documentStore
	storage   documentFileStorage
	signer    fileLinkSigner
	janitor   fileCleaner
	stats     statsInvalidator
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       DocumentServiceConfig
	mimeSet   map[string]struct{}
	now       func() time.Time
}

// NewDocumentService constructs the service with defaults.
func NewDocumentService(params DocumentServiceParams) *DocumentService {
	cfg := params.Config
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 2 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"application/pdf", "image/jpeg", "image/png"}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}
	cfg.Location = filingLocation(cfg.Location)
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &DocumentService{
		repo:      params.Repo,
		storage:   params.Storage,
		signer:    params.Signer,
		janitor:   params.Janitor,
		stats:     params.Stats,
		audit:     params.Audit,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
		now:       time.Now,
	}
}

// Create validates, stores and records a new letter.
func (s *DocumentService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateDocumentRequest, uploads DocumentUploads, meta RequestMeta) (*models.Document, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validateCreate(req, uploads); err != nil {
		return nil, err
	}
	for _, u := range []*FileUpload{uploads.Original, uploads.Response} {
		if err := s.inspectUpload(u); err != nil {
			return nil, err
		}
	}

	var staged []string
	originalPath, err := s.stage(originalDir, uploads.Original)
	if err != nil {
		return nil, err
	}
	staged = append(staged, originalPath)

	now := s.now().In(s.cfg.Location)
	tanggal := parseTanggal(req.TanggalSurat)
	doc := models.Document{
		ID:               uuid.NewString(),
		TipeSurat:        req.TipeSurat,
		JenisSurat:       req.JenisSurat,
		NomorSurat:       strings.TrimSpace(req.NomorSurat),
		Perihal:          strings.TrimSpace(req.Perihal),
		TanggalSurat:     tanggal,
		StoragePath:      originalPath,
		OriginalFilename: filepath.Base(uploads.Original.Filename),
		UploaderUserID:   actor.UserID,
		UploadTimestamp:  now.UTC(),
		MonthYear:        models.MonthYear(tanggal, now),
	}
	if req.TipeSurat == models.TipeSuratMasuk {
		pengirim := strings.TrimSpace(req.Pengirim)
		doc.Pengirim = &pengirim
	}

	var patch models.WorkflowPatch
	if req.TipeSurat == models.TipeSuratMasuk {
		patch.IsiDisposisi = &req.IsiDisposisi
		patch.ResponseKeterangan = &req.ResponseKeterangan
	}
	if uploads.Response != nil {
		responsePath, err := s.stage(responseDir, uploads.Response)
		if err != nil {
			s.discard(staged)
			return nil, err
		}
		staged = append(staged, responsePath)
		patch.ResponseAttachment = &models.Attachment{Path: responsePath, Filename: filepath.Base(uploads.Response.Filename), UploadedAt: now.UTC()}
	}
	doc, _ = models.ApplyWorkflowPatch(doc, patch)

	if err := s.repo.Create(ctx, &doc); err != nil {
		s.discard(staged)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Terjadi kesalahan pada server saat menambahkan dokumen.")
	}

	s.afterMutation(ctx, actor, models.AuditActionDocumentCreate, doc.ID, map[string]string{
		"tipe_surat":  doc.TipeSurat,
		"jenis_surat": doc.JenisSurat,
		"nomor_surat": doc.NomorSurat,
	}, meta)
	return &doc, nil
}

// UpdateWorkflow applies disposition and follow-up changes to a letter.
func (s *DocumentService) UpdateWorkflow(ctx context.Context, actor *models.JWTClaims, id string, req dto.WorkflowUpdateRequest, uploads WorkflowUploads, meta RequestMeta) (*models.Document, error) {
	doc, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	patch := models.WorkflowPatch{
		IsiDisposisi:                req.IsiDisposisi,
		ResponseKeterangan:          req.ResponseKeterangan,
		DeleteDispositionAttachment: req.DeleteDispositionAttachment,
		DeleteResponseAttachment:    req.DeleteResponseDocument,
	}
	if doc.TipeSurat == models.TipeSuratKeluar && (req.ResponseKeterangan != nil || req.DeleteResponseDocument || uploads.Response != nil) {
		return nil, errOutgoingFollowUp
	}
	if patch.IsEmpty() && uploads.Disposition == nil && uploads.Response == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Tidak ada perubahan yang dikirim.")
	}
	for _, u := range []*FileUpload{uploads.Disposition, uploads.Response} {
		if err := s.inspectUpload(u); err != nil {
			return nil, err
		}
	}

	var staged []string
	now := s.now().UTC()
	if uploads.Disposition != nil {
		p, err := s.stage(dispositionDir, uploads.Disposition)
		if err != nil {
			return nil, err
		}
		staged = append(staged, p)
		patch.DispositionAttachment = &models.Attachment{Path: p, Filename: filepath.Base(uploads.Disposition.Filename), UploadedAt: now}
	}
	if uploads.Response != nil {
		p, err := s.stage(responseDir, uploads.Response)
		if err != nil {
			s.discard(staged)
			return nil, err
		}
		staged = append(staged, p)
		patch.ResponseAttachment = &models.Attachment{Path: p, Filename: filepath.Base(uploads.Response.Filename), UploadedAt: now}
	}

	return s.commitPatch(ctx, actor, doc, patch, staged, models.AuditActionDocumentWorkflow, meta)
}

// Respond attaches a follow-up to an incoming letter.
func (s *DocumentService) Respond(ctx context.Context, actor *models.JWTClaims, id string, keterangan string, upload *FileUpload, meta RequestMeta) (*models.Document, error) {
	keterangan = strings.TrimSpace(keterangan)
	if keterangan == "" && upload == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Keterangan atau file tindak lanjut wajib diisi.")
	}
	doc, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if doc.TipeSurat != models.TipeSuratMasuk {
		return nil, errOutgoingFollowUp
	}
	if err := s.inspectUpload(upload); err != nil {
		return nil, err
	}

	var patch models.WorkflowPatch
	if keterangan != "" {
		patch.ResponseKeterangan = &keterangan
	}
	var staged []string
	if upload != nil {
		p, err := s.stage(responseDir, upload)
		if err != nil {
			return nil, err
		}
		staged = append(staged, p)
		patch.ResponseAttachment = &models.Attachment{Path: p, Filename: filepath.Base(upload.Filename), UploadedAt: s.now().UTC()}
	}

	return s.commitPatch(ctx, actor, doc, patch, staged, models.AuditActionDocumentWorkflow, meta)
}

// DeleteResponse removes the follow-up file named responseID and keeps the
// follow-up text.
func (s *DocumentService) DeleteResponse(ctx context.Context, actor *models.JWTClaims, responseID string, meta RequestMeta) (*models.Document, error) {
	notFound := appErrors.Clone(appErrors.ErrNotFound, "File tindak lanjut tidak ditemukan.")
	name := strings.TrimSpace(responseID)
	if name == "" || name == "." || name == ".." || path.Base(name) != name || filepath.Base(name) != name {
		return nil, notFound
	}

	doc, err := s.repo.FindByResponsePath(ctx, path.Join(responseDir, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if doc.IsRestricted() && !isAdmin(actor) {
		return nil, errRestrictedDocument
	}

	return s.commitPatch(ctx, actor, doc, models.WorkflowPatch{DeleteResponseAttachment: true}, nil, models.AuditActionResponseDelete, meta)
}

// Delete removes a document row and then its stored files.
func (s *DocumentService) Delete(ctx context.Context, actor *models.JWTClaims, id string, meta RequestMeta) error {
	if !isAdmin(actor) {
		return appErrors.Clone(appErrors.ErrForbidden, "Hanya admin yang dapat menghapus dokumen.")
	}
	doc, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if database.IsMissingRow(err) {
			return errDocumentNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	s.cleanup(doc.Files())
	s.afterMutation(ctx, actor, models.AuditActionDocumentDelete, id, map[string]string{"nomor_surat": doc.NomorSurat}, meta)
	return nil
}

// List returns a page of documents visible to actor.
func (s *DocumentService) List(ctx context.Context, actor *models.JWTClaims, query dto.DocumentListQuery) ([]models.Document, *models.Pagination, error) {
	return s.list(ctx, actor, query, false)
}

// Unresponded returns incoming letters still awaiting a follow-up.
func (s *DocumentService) Unresponded(ctx context.Context, actor *models.JWTClaims, query dto.DocumentListQuery) ([]models.Document, *models.Pagination, error) {
	return s.list(ctx, actor, query, true)
}

// Recent returns the newest documents visible to actor.
func (s *DocumentService) Recent(ctx context.Context, actor *models.JWTClaims, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = defaultRecentSize
	}
	if limit > maxRecentSize {
		limit = maxRecentSize
	}
	start := time.Now()
	docs, err := s.repo.Recent(ctx, limit, !isAdmin(actor))
	s.metrics.ObserveDBQuery("documents_recent", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// OpenFile opens one file slot of a document for preview or download.
func (s *DocumentService) OpenFile(ctx context.Context, actor *models.JWTClaims, id, fileType string) (*FileDownload, error) {
	doc, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	ft, ok := models.ParseFileType(fileType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Tipe file tidak valid.")
	}
	relPath, filename, ok := doc.File(ft)
	if !ok {
		return nil, errFileNotFound
	}
	return s.open(relPath, filename)
}

// CreateSignedLink issues a short-lived link to one file slot of a document.
func (s *DocumentService) CreateSignedLink(ctx context.Context, actor *models.JWTClaims, id, fileType, mode string) (*SignedLink, error) {
	doc, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	ft, ok := models.ParseFileType(fileType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Tipe file tidak valid.")
	}
	relPath, _, ok := doc.File(ft)
	if !ok {
		return nil, errFileNotFound
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, relPath, mode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return &SignedLink{URL: strings.TrimRight(s.cfg.APIPrefix, "/") + "/files/" + token, ExpiresAt: expiresAt}, nil
}

// OpenSigned redeems a signed link. The link only works while the document
// still references the signed path.
func (s *DocumentService) OpenSigned(ctx context.Context, token string) (*FileDownload, error) {
	signed, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "Tautan file tidak valid atau sudah kedaluwarsa.")
	}
	doc, err := s.find(ctx, signed.ResourceID)
	if err != nil {
		return nil, err
	}
	for _, ft := range []models.FileType{models.FileTypeOriginal, models.FileTypeDisposition, models.FileTypeResponse} {
		relPath, filename, ok := doc.File(ft)
		if ok && relPath == signed.Path {
			download, err := s.open(relPath, filename)
			if err != nil {
				return nil, err
			}
			download.Disposition = signed.Disposition
			return download, nil
		}
	}
	return nil, errFileNotFound
}

func (s *DocumentService) list(ctx context.Context, actor *models.JWTClaims, query dto.DocumentListQuery, unresponded bool) ([]models.Document, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, validationError(err)
	}
	filter := listFilter(actor, query)
	filter.UnrespondedOnly = unresponded
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	start := time.Now()
	docs, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("documents_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *DocumentService) validateCreate(req dto.CreateDocumentRequest, uploads DocumentUploads) error {
	if uploads.Original == nil {
		return appErrors.Clone(appErrors.ErrValidation, "Lampiran surat wajib diisi.")
	}
	req.NomorSurat = strings.TrimSpace(req.NomorSurat)
	req.Perihal = strings.TrimSpace(req.Perihal)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Field Tipe Surat, Jenis Surat, Nomor Surat, dan Perihal wajib diisi.")
	}
	if !models.IsValidTipeSurat(req.TipeSurat) {
		return appErrors.Clone(appErrors.ErrValidation, "Tipe Surat tidak valid.")
	}
	if !models.IsValidJenisSurat(req.JenisSurat) {
		return appErrors.Clone(appErrors.ErrValidation, "Jenis Surat tidak valid.")
	}
	if req.TipeSurat == models.TipeSuratMasuk && strings.TrimSpace(req.Pengirim) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "Untuk Surat Masuk, Pengirim wajib diisi.")
	}
	if req.TipeSurat == models.TipeSuratKeluar && (strings.TrimSpace(req.ResponseKeterangan) != "" || uploads.Response != nil) {
		return errOutgoingFollowUp
	}
	return nil
}

// inspectUpload checks extension, size and sniffed content type. A nil
// upload is accepted.
func (s *DocumentService) inspectUpload(u *FileUpload) error {
	if u == nil {
		return nil
	}
	if u.Content == nil {
		return appErrors.Clone(appErrors.ErrValidation, "File tidak dapat dibaca.")
	}
	if u.Size > s.cfg.MaxFileSize {
		return s.tooLarge()
	}
	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(u.Filename))]; !ok {
		return errUnsupportedFile
	}

	header := make([]byte, 512)
	n, err := io.ReadFull(u.Content, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if _, err := u.Content.Seek(0, io.SeekStart); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if n == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "File kosong.")
	}
	detected, _, _ := mime.ParseMediaType(http.DetectContentType(header[:n]))
	if _, ok := s.mimeSet[strings.ToLower(detected)]; !ok {
		return errUnsupportedFile
	}
	return nil
}

// stage writes u below dir under a fresh name and returns the relative path.
func (s *DocumentService) stage(dir string, u *FileUpload) (string, error) {
	rel := path.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(u.Filename)))
	written, err := s.storage.SaveStream(rel, io.LimitReader(u.Content, s.cfg.MaxFileSize+1))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Gagal menyimpan file.")
	}
	if written > s.cfg.MaxFileSize {
		s.discard([]string{rel})
		return "", s.tooLarge()
	}
	s.metrics.RecordUpload(dir)
	return rel, nil
}

// discard removes staged files synchronously after a failed write.
func (s *DocumentService) discard(paths []string) {
	for _, p := range paths {
		if err := s.storage.Delete(p); err != nil {
			s.logger.Warn("failed to remove staged file", zap.String("path", p), zap.Error(err))
		}
	}
}

// cleanup hands files no row references anymore to the janitor.
func (s *DocumentService) cleanup(paths []string) {
	if len(paths) == 0 {
		return
	}
	if s.janitor == nil {
		s.discard(paths)
		return
	}
	s.janitor.Remove(paths...)
}

func (s *DocumentService) commitPatch(ctx context.Context, actor *models.JWTClaims, doc *models.Document, patch models.WorkflowPatch, staged []string, action string, meta RequestMeta) (*models.Document, error) {
	next, obsolete := models.ApplyWorkflowPatch(*doc, patch)
	if err := s.repo.UpdateWorkflow(ctx, &next); err != nil {
		s.discard(staged)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errDocumentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	s.cleanup(obsolete)
	s.afterMutation(ctx, actor, action, next.ID, map[string]interface{}{
		"has_responded":        next.HasResponded,
		"disposition_attached": next.DispositionAttachmentPath != nil,
		"response_attached":    next.ResponseStoragePath != nil,
	}, meta)
	return &next, nil
}

func (s *DocumentService) afterMutation(ctx context.Context, actor *models.JWTClaims, action, id string, values interface{}, meta RequestMeta) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
	emitAudit(ctx, s.audit, s.logger, actorID(actor), action, "documents", id, values, meta)
}

func (s *DocumentService) find(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if database.IsMissingRow(err) {
			return nil, errDocumentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return doc, nil
}

func (s *DocumentService) findVisible(ctx context.Context, actor *models.JWTClaims, id string) (*models.Document, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.IsRestricted() && !isAdmin(actor) {
		return nil, errRestrictedDocument
	}
	return doc, nil
}

func (s *DocumentService) open(relPath, filename string) (*FileDownload, error) {
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrInvalidPath) {
			return nil, errFileNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if filename == "" {
		filename = filepath.Base(relPath)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(relPath)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &FileDownload{File: file, Filename: filename, ContentType: contentType, Size: info.Size()}, nil
}

func (s *DocumentService) tooLarge() error {
	return appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("Ukuran file melebihi batas %s.", humanSize(s.cfg.MaxFileSize)))
}

func listFilter(actor *models.JWTClaims, query dto.DocumentListQuery) models.DocumentFilter {
	return models.DocumentFilter{
		SearchTerm:        strings.TrimSpace(query.SearchTerm),
		Month:             query.Month,
		Year:              query.Year,
		ExcludeRestricted: !isAdmin(actor),
		Page:              query.Page,
		PageSize:          query.Limit,
	}
}

func parseTanggal(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	return fmt.Sprintf("%d KB", n/1024)
}

func isAdmin(actor *models.JWTClaims) bool {
	return actor != nil && actor.IsAdmin
}
