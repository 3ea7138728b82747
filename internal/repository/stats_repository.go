package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siap-api/internal/models"
)

// StatsRepository runs the dashboard aggregate queries. Every query takes an
// excludeRestricted flag that hides STR letters.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new instance of StatsRepository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// CountByMonth counts documents filed under monthYear.
func (r *StatsRepository) CountByMonth(ctx context.Context, monthYear string, excludeRestricted bool) (int, error) {
	const query = `SELECT COUNT(*) FROM documents WHERE month_year = $1 AND ($2 = FALSE OR jenis_surat <> 'STR')`
	var count int
	if err := r.db.GetContext(ctx, &count, query, monthYear, excludeRestricted); err != nil {
		return 0, fmt.Errorf("count documents by month: %w", err)
	}
	return count, nil
}

// MonthlyUploads returns twelve consecutive buckets ending with the month of
// until. Months without uploads are zero-filled.
func (r *StatsRepository) MonthlyUploads(ctx context.Context, until time.Time, excludeRestricted bool) ([]models.MonthlyUpload, error) {
	const query = `SELECT to_char(m.month, 'YYYY-MM') AS month_year, COUNT(d.document_id) AS count
FROM generate_series(date_trunc('month', $1::date) - INTERVAL '11 months', date_trunc('month', $1::date), INTERVAL '1 month') AS m(month)
LEFT JOIN documents d ON d.month_year = to_char(m.month, 'YYYY-MM') AND ($2 = FALSE OR d.jenis_surat <> 'STR')
GROUP BY m.month
ORDER BY m.month`
	stats := make([]models.MonthlyUpload, 0, 12)
	if err := r.db.SelectContext(ctx, &stats, query, until.Format("2006-01-02"), excludeRestricted); err != nil {
		return nil, fmt.Errorf("monthly uploads: %w", err)
	}
	return stats, nil
}

// Summary returns the dashboard counters.
func (r *StatsRepository) Summary(ctx context.Context, monthYear string, excludeRestricted bool) (*models.DocumentSummary, error) {
	const query = `SELECT
	COUNT(*) FILTER (WHERE month_year = $1) AS count_this_month,
	COUNT(*) AS total_documents,
	COUNT(*) FILTER (WHERE tipe_surat = 'Surat Masuk') AS surat_masuk_count,
	COUNT(*) FILTER (WHERE tipe_surat = 'Surat Keluar') AS surat_keluar_count,
	COUNT(*) FILTER (WHERE tipe_surat = 'Surat Masuk' AND has_responded = FALSE) AS unresponded_count
FROM documents
WHERE ($2 = FALSE OR jenis_surat <> 'STR')`
	var summary models.DocumentSummary
	if err := r.db.GetContext(ctx, &summary, query, monthYear, excludeRestricted); err != nil {
		return nil, fmt.Errorf("document summary: %w", err)
	}
	return &summary, nil
}
