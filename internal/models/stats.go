package models

// CurrentMonthCount is the number of documents filed under the current month.
type CurrentMonthCount struct {
	Count int `json:"count"`
}

// MonthlyUpload is one bucket of the rolling twelve month series.
type MonthlyUpload struct {
	MonthYear string `db:"month_year" json:"month_year"`
	Count     int    `db:"count" json:"count"`
}

// MonthlyUploads wraps the rolling series.
type MonthlyUploads struct {
	Stats []MonthlyUpload `json:"stats"`
}

// DocumentSummary aggregates dashboard counters.
type DocumentSummary struct {
	CountThisMonth   int `db:"count_this_month" json:"countThisMonth"`
	TotalDocuments   int `db:"total_documents" json:"totalDocuments"`
	SuratMasukCount  int `db:"surat_masuk_count" json:"suratMasukCount"`
	SuratKeluarCount int `db:"surat_keluar_count" json:"suratKeluarCount"`
	UnrespondedCount int `db:"unresponded_count" json:"unrespondedCount"`
}
