package models

import (
	"strings"
	"time"
)

// Letter directions.
const (
	TipeSuratMasuk  = "Surat Masuk"
	TipeSuratKeluar = "Surat Keluar"
)

// Letter categories. JenisSTR is restricted to admins.
const (
	JenisST        = "ST"
	JenisSTR       = "STR"
	JenisBiasa     = "Biasa"
	JenisSprin     = "Sprin"
	JenisNotaDinas = "Nota Dinas"
)

var jenisSurat = []string{JenisST, JenisSTR, JenisBiasa, JenisSprin, JenisNotaDinas}

// IsValidTipeSurat reports whether v names a known letter direction.
func IsValidTipeSurat(v string) bool {
	return v == TipeSuratMasuk || v == TipeSuratKeluar
}

// IsValidJenisSurat reports whether v names a known letter category.
func IsValidJenisSurat(v string) bool {
	for _, j := range jenisSurat {
		if j == v {
			return true
		}
	}
	return false
}

// FileType selects one of the three file slots of a document.
type FileType string

const (
	FileTypeOriginal    FileType = "original"
	FileTypeDisposition FileType = "disposition"
	FileTypeResponse    FileType = "response"
)

// ParseFileType defaults to the original letter when raw is empty.
func ParseFileType(raw string) (FileType, bool) {
	switch FileType(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FileTypeOriginal:
		return FileTypeOriginal, true
	case FileTypeDisposition:
		return FileTypeDisposition, true
	case FileTypeResponse:
		return FileTypeResponse, true
	default:
		return "", false
	}
}

// Document represents an archived letter with its disposition and follow-up.
type Document struct {
	ID                            string     `db:"document_id" json:"document_id"`
	TipeSurat                     string     `db:"tipe_surat" json:"tipe_surat"`
	JenisSurat                    string     `db:"jenis_surat" json:"jenis_surat"`
	NomorSurat                    string     `db:"nomor_surat" json:"nomor_surat"`
	Perihal                       string     `db:"perihal" json:"perihal"`
	Pengirim                      *string    `db:"pengirim" json:"pengirim"`
	TanggalSurat                  *time.Time `db:"tanggal_surat" json:"tanggal_surat"`
	StoragePath                   string     `db:"storage_path" json:"storage_path"`
	OriginalFilename              string     `db:"original_filename" json:"original_filename"`
	UploaderUserID                string     `db:"uploader_user_id" json:"uploader_user_id"`
	UploadTimestamp               time.Time  `db:"upload_timestamp" json:"upload_timestamp"`
	MonthYear                     string     `db:"month_year" json:"month_year"`
	IsiDisposisi                  *string    `db:"isi_disposisi" json:"isi_disposisi"`
	DispositionAttachmentPath     *string    `db:"disposition_attachment_path" json:"disposition_attachment_path"`
	DispositionAttachmentFilename *string    `db:"disposition_attachment_filename" json:"disposition_attachment_filename"`
	ResponseKeterangan            *string    `db:"response_keterangan" json:"response_keterangan"`
	ResponseStoragePath           *string    `db:"response_storage_path" json:"response_storage_path"`
	ResponseOriginalFilename      *string    `db:"response_original_filename" json:"response_original_filename"`
	ResponseUploadTimestamp       *time.Time `db:"response_upload_timestamp" json:"response_upload_timestamp"`
	HasResponded                  bool       `db:"has_responded" json:"has_responded"`
	UploaderNama                  *string    `db:"uploader_nama" json:"uploader_nama,omitempty"`
	UploaderNRP                   *string    `db:"uploader_nrp" json:"uploader_nrp,omitempty"`
}

// IsRestricted reports whether only admins may see the document.
func (d *Document) IsRestricted() bool {
	return d.JenisSurat == JenisSTR
}

// File resolves the stored path and download name of a file slot.
func (d *Document) File(ft FileType) (path, filename string, ok bool) {
	switch ft {
	case FileTypeOriginal:
		return d.StoragePath, d.OriginalFilename, d.StoragePath != ""
	case FileTypeDisposition:
		if d.DispositionAttachmentPath == nil || *d.DispositionAttachmentPath == "" {
			return "", "", false
		}
		return *d.DispositionAttachmentPath, deref(d.DispositionAttachmentFilename), true
	case FileTypeResponse:
		if d.ResponseStoragePath == nil || *d.ResponseStoragePath == "" {
			return "", "", false
		}
		return *d.ResponseStoragePath, deref(d.ResponseOriginalFilename), true
	}
	return "", "", false
}

// Files returns every stored path referenced by the document.
func (d *Document) Files() []string {
	paths := make([]string, 0, 3)
	for _, ft := range []FileType{FileTypeOriginal, FileTypeDisposition, FileTypeResponse} {
		if p, _, ok := d.File(ft); ok {
			paths = append(paths, p)
		}
	}
	return paths
}

// DocumentFilter captures filtering criteria for listing documents.
type DocumentFilter struct {
	SearchTerm        string
	Month             int
	Year              int
	ExcludeRestricted bool
	UnrespondedOnly   bool
	Page              int
	PageSize          int
}

// MonthYearBucket returns the exact bucket or the year prefix selected by
// the filter. exact is false when only the year is set.
func (f DocumentFilter) MonthYearBucket() (value string, exact bool) {
	if f.Year <= 0 {
		return "", false
	}
	if f.Month >= 1 && f.Month <= 12 {
		return time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01"), true
	}
	return time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC).Format("2006"), false
}

// MonthYear computes the YYYY-MM bucket of a letter, falling back to now.
func MonthYear(tanggal *time.Time, now time.Time) string {
	if tanggal != nil && !tanggal.IsZero() {
		return tanggal.Format("2006-01")
	}
	return now.Format("2006-01")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
