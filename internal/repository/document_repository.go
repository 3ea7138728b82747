package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siap-api/internal/models"
)

var documentColumns = []string{
	"d.document_id", "d.tipe_surat", "d.jenis_surat", "d.nomor_surat", "d.perihal", "d.pengirim",
	"d.tanggal_surat", "d.storage_path", "d.original_filename", "d.uploader_user_id", "d.upload_timestamp",
	"d.month_year", "d.isi_disposisi", "d.disposition_attachment_path", "d.disposition_attachment_filename",
	"d.response_keterangan", "d.response_storage_path", "d.response_original_filename",
	"d.response_upload_timestamp", "d.has_responded",
	"u.nama AS uploader_nama", "u.nrp AS uploader_nrp",
}

// DocumentRepository persists archived letters.
type DocumentRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

// NewDocumentRepository creates a new instance of DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// List returns one page of documents matching filter plus the total count.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, int, error) {
	countSQL, countArgs, err := applyDocumentFilter(r.sb.Select("COUNT(*)").From("documents d"), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count documents: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}

	query := applyDocumentFilter(r.selectDocuments(), filter).
		OrderBy("d.upload_timestamp DESC").
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size))

	docs, err := r.selectMany(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	return docs, total, nil
}

// ListAll returns every document matching filter, newest first.
func (r *DocumentRepository) ListAll(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	query := applyDocumentFilter(r.selectDocuments(), filter).OrderBy("d.upload_timestamp DESC")
	docs, err := r.selectMany(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all documents: %w", err)
	}
	return docs, nil
}

// Recent returns the newest documents.
func (r *DocumentRepository) Recent(ctx context.Context, limit int, excludeRestricted bool) ([]models.Document, error) {
	query := applyDocumentFilter(r.selectDocuments(), models.DocumentFilter{ExcludeRestricted: excludeRestricted}).
		OrderBy("d.upload_timestamp DESC").
		Limit(uint64(limit))
	docs, err := r.selectMany(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("recent documents: %w", err)
	}
	return docs, nil
}

// FindByID returns one document.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	return r.findOne(ctx, sq.Eq{"d.document_id": id}, "find document by id")
}

// FindByResponsePath returns the document whose follow-up file is path.
func (r *DocumentRepository) FindByResponsePath(ctx context.Context, path string) (*models.Document, error) {
	return r.findOne(ctx, sq.Eq{"d.response_storage_path": path}, "find document by response path")
}

// Create inserts a new document.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadTimestamp.IsZero() {
		doc.UploadTimestamp = time.Now().UTC()
	}

	const query = `INSERT INTO documents (document_id, tipe_surat, jenis_surat, nomor_surat, perihal, pengirim, tanggal_surat, storage_path, original_filename, uploader_user_id, upload_timestamp, month_year, isi_disposisi, disposition_attachment_path, disposition_attachment_filename, response_keterangan, response_storage_path, response_original_filename, response_upload_timestamp, has_responded) VALUES (:document_id, :tipe_surat, :jenis_surat, :nomor_surat, :perihal, :pengirim, :tanggal_surat, :storage_path, :original_filename, :uploader_user_id, :upload_timestamp, :month_year, :isi_disposisi, :disposition_attachment_path, :disposition_attachment_filename, :response_keterangan, :response_storage_path, :response_original_filename, :response_upload_timestamp, :has_responded)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// UpdateWorkflow writes the disposition and follow-up columns of doc.
func (r *DocumentRepository) UpdateWorkflow(ctx context.Context, doc *models.Document) error {
	const query = `UPDATE documents SET isi_disposisi = :isi_disposisi, disposition_attachment_path = :disposition_attachment_path, disposition_attachment_filename = :disposition_attachment_filename, response_keterangan = :response_keterangan, response_storage_path = :response_storage_path, response_original_filename = :response_original_filename, response_upload_timestamp = :response_upload_timestamp, has_responded = :has_responded WHERE document_id = :document_id`
	res, err := r.db.NamedExecContext(ctx, query, doc)
	if err != nil {
		return fmt.Errorf("update document workflow: %w", err)
	}
	return expectOneRow(res, "update document workflow")
}

// Delete removes the document row.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE document_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return expectOneRow(res, "delete document")
}

func (r *DocumentRepository) selectDocuments() sq.SelectBuilder {
	return r.sb.Select(documentColumns...).
		From("documents d").
		LeftJoin("users u ON u.user_id = d.uploader_user_id")
}

func (r *DocumentRepository) selectMany(ctx context.Context, query sq.SelectBuilder) ([]models.Document, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0)
	if err := r.db.SelectContext(ctx, &docs, sqlStr, args...); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *DocumentRepository) findOne(ctx context.Context, where sq.Sqlizer, op string) (*models.Document, error) {
	sqlStr, args, err := r.selectDocuments().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", op, err)
	}
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, sqlStr, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &doc, nil
}

// applyDocumentFilter adds the listing predicates shared by list, export and
// unresponded queries.
func applyDocumentFilter(b sq.SelectBuilder, f models.DocumentFilter) sq.SelectBuilder {
	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		like := "%" + term + "%"
		b = b.Where(sq.Or{
			sq.ILike{"d.nomor_surat": like},
			sq.ILike{"d.perihal": like},
			sq.ILike{"d.pengirim": like},
		})
	}
	if bucket, exact := f.MonthYearBucket(); bucket != "" {
		if exact {
			b = b.Where(sq.Eq{"d.month_year": bucket})
		} else {
			b = b.Where(sq.Like{"d.month_year": bucket + "-%"})
		}
	}
	if f.ExcludeRestricted {
		b = b.Where(sq.NotEq{"d.jenis_surat": models.JenisSTR})
	}
	if f.UnrespondedOnly {
		b = b.Where(sq.Eq{"d.tipe_surat": models.TipeSuratMasuk}).Where(sq.Eq{"d.has_responded": false})
	}
	return b
}

func expectOneRow(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
