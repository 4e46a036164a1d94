package postgres

import (
	"database/sql"
	"database/sql/driver"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleItem(t *testing.T) *domain.VocabItem {
	t.Helper()
	item, err := domain.NewVocabItem(uuid.New(), "la mariposa", "butterfly", 2.5)
	require.NoError(t, err)
	return item
}

func itemRow(it *domain.VocabItem) []driver.Value {
	var next, last driver.Value
	if it.State.NextReviewAt != nil {
		next = *it.State.NextReviewAt
	}
	if it.LastStudiedAt != nil {
		last = *it.LastStudiedAt
	}
	return []driver.Value{
		it.ID.String(), it.UserID.String(), it.Term, it.Translation, it.Definition, it.Example, it.Category,
		it.State.EaseFactor, int64(it.State.Interval), int64(it.State.Repetitions), next,
		int64(it.TimesStudied), int64(it.TimesCorrect), last, it.CreatedAt, it.UpdatedAt,
	}
}

func itemRows(items ...*domain.VocabItem) *sqlmock.Rows {
	rows := sqlmock.NewRows(itemColumns)
	for _, it := range items {
		rows.AddRow(itemRow(it)...)
	}
	return rows
}

var fixedNow = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
