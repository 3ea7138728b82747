package dto

// DocumentListQuery carries listing, unresponded and export filters.
type DocumentListQuery struct {
	SearchTerm string `form:"searchTerm"`
	Month      int    `form:"month" validate:"omitempty,min=1,max=12"`
	Year       int    `form:"year" validate:"omitempty,min=1900,max=9999"`
	Page       int    `form:"page" validate:"omitempty,min=1"`
	Limit      int    `form:"limit" validate:"omitempty,min=1"`
}

// CreateDocumentRequest holds the text fields of a document upload.
type CreateDocumentRequest struct {
	TipeSurat          string `form:"tipe_surat" validate:"required"`
	JenisSurat         string `form:"jenis_surat" validate:"required"`
	NomorSurat         string `form:"nomor_surat" validate:"required"`
	Perihal            string `form:"perihal" validate:"required"`
	Pengirim           string `form:"pengirim"`
	TanggalSurat       string `form:"tanggal_surat"`
	IsiDisposisi       string `form:"isi_disposisi"`
	ResponseKeterangan string `form:"response_keterangan"`
}

// WorkflowUpdateRequest holds the text fields of a disposition and
// follow-up update. Nil pointers mean the field was not sent.
type WorkflowUpdateRequest struct {
	IsiDisposisi                *string
	ResponseKeterangan          *string
	DeleteDispositionAttachment bool
	DeleteResponseDocument      bool
}
