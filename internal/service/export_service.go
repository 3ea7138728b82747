package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/siap-api/internal/dto"
	"github.com/noah-isme/siap-api/internal/models"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
	"github.com/noah-isme/siap-api/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
)

var exportHeaders = []string{
	"No",
	"Nomor Surat",
	"Tipe Surat",
	"Jenis Surat",
	"Perihal",
	"Pengirim",
	"Isi Disposisi",
	"Tindak Lanjut",
	"Status",
	"Tanggal Upload",
	"Diunggah Oleh",
	"NRP Pengunggah",
	"Nama File",
}

var exportContentTypes = map[ExportFormat]string{
	ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	ExportFormatCSV:  "text/csv; charset=utf-8",
	ExportFormatPDF:  "application/pdf",
}

type exportDocumentLister interface {
	ListAll(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
}

// ExportResult is a rendered archive listing ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the filtered archive listing into files.
type ExportService struct {
	repo      exportDocumentLister
	xlsx      xlsxRenderer
	csv       csvRenderer
	pdf       pdfRenderer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// ExportServiceParams wires an ExportService. Nil renderers fall back to the
// pkg/export implementations.
type ExportServiceParams struct {
	Repo      exportDocumentLister
	XLSX      xlsxRenderer
	CSV       csvRenderer
	PDF       pdfRenderer
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger

	// Location renders upload times and the file name stamp; it must match
	// DocumentServiceConfig.Location.
	Location *time.Location
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	xlsx := params.XLSX
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	csv := params.CSV
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:      params.Repo,
		xlsx:      xlsx,
		csv:       csv,
		pdf:       pdf,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		location:  filingLocation(params.Location),
		now:       time.Now,
	}
}

// Export renders every document matching query that actor may see.
func (s *ExportService) Export(ctx context.Context, actor *models.JWTClaims, query dto.DocumentListQuery, format ExportFormat) (*ExportResult, error) {
	contentType, ok := exportContentTypes[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Format ekspor tidak didukung.")
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err)
	}

	filter := listFilter(actor, query)
	filter.Page, filter.PageSize = 0, 0

	start := time.Now()
	docs, err := s.repo.ListAll(ctx, filter)
	s.metrics.ObserveDBQuery("documents_export", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Terjadi kesalahan pada server saat mengekspor dokumen.")
	}
	if len(docs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Tidak ada dokumen untuk diekspor berdasarkan filter yang diberikan.")
	}

	dataset := s.buildDataset(docs)
	var data []byte
	switch format {
	case ExportFormatXLSX:
		data, err = s.xlsx.Render(dataset, "Arsip Surat")
	case ExportFormatCSV:
		data, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		data, err = s.pdf.Render(dataset, exportTitle(query))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Terjadi kesalahan pada server saat mengekspor dokumen.")
	}

	s.logger.Info("documents exported",
		zap.String("format", string(format)),
		zap.Int("rows", len(docs)),
		zap.String("user_id", actorID(actor)),
	)

	return &ExportResult{
		Filename:    fmt.Sprintf("arsip_surat_%s.%s", s.now().In(s.location).Format("20060102_150405"), format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (s *ExportService) buildDataset(docs []models.Document) export.Dataset {
	rows := make([]map[string]string, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		rows = append(rows, map[string]string{
			"No":             strconv.Itoa(i + 1),
			"Nomor Surat":    doc.NomorSurat,
			"Tipe Surat":     doc.TipeSurat,
			"Jenis Surat":    doc.JenisSurat,
			"Perihal":        doc.Perihal,
			"Pengirim":       valueOrDash(doc.Pengirim),
			"Isi Disposisi":  valueOrDash(doc.IsiDisposisi),
			"Tindak Lanjut":  valueOrDash(doc.ResponseKeterangan),
			"Status":         responseStatus(doc),
			"Tanggal Upload": doc.UploadTimestamp.In(s.location).Format("02-01-2006 15:04"),
			"Diunggah Oleh":  valueOrDash(doc.UploaderNama),
			"NRP Pengunggah": valueOrDash(doc.UploaderNRP),
			"Nama File":      doc.OriginalFilename,
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}

func responseStatus(doc *models.Document) string {
	if doc.TipeSurat == models.TipeSuratKeluar {
		return "-"
	}
	if _, ok := doc.ResponseState().(models.Unresponded); ok {
		return "Belum Ditindaklanjuti"
	}
	return "Sudah Ditindaklanjuti"
}

func exportTitle(query dto.DocumentListQuery) string {
	filter := models.DocumentFilter{Month: query.Month, Year: query.Year}
	bucket, _ := filter.MonthYearBucket()
	if bucket == "" {
		return "Arsip Surat"
	}
	return "Arsip Surat " + bucket
}

func valueOrDash(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "-"
	}
	return *v
}
