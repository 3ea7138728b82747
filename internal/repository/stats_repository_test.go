package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountByMonth(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE month_year = $1")).
		WithArgs("2024-05", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountByMonth(context.Background(), "2024-05", true)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyUploads(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	rows := sqlmock.NewRows([]string{"month_year", "count"})
	for i := 1; i <= 12; i++ {
		rows.AddRow(time.Date(2023, time.Month(6+i-1), 1, 0, 0, 0, 0, time.UTC).Format("2006-01"), 0)
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM generate_series(")).
		WithArgs("2024-05-20", false).
		WillReturnRows(rows)

	stats, err := repo.MonthlyUploads(context.Background(), time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	require.Len(t, stats, 12)
	assert.Equal(t, "2023-06", stats[0].MonthYear)
	assert.Equal(t, "2024-05", stats[11].MonthYear)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummary(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStatsRepository(db)

	mock.ExpectQuery("FILTER").
		WithArgs("2024-05", true).
		WillReturnRows(sqlmock.NewRows([]string{"count_this_month", "total_documents", "surat_masuk_count", "surat_keluar_count", "unresponded_count"}).
			AddRow(2, 10, 6, 4, 3))

	summary, err := repo.Summary(context.Background(), "2024-05", true)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.TotalDocuments)
	assert.Equal(t, 3, summary.UnrespondedCount)

	mock.ExpectQuery("FILTER").WillReturnError(errors.New("db down"))
	_, err = repo.Summary(context.Background(), "2024-05", true)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
