package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, 30), mock
}

func TestService_Stats(t *testing.T) {
	svc, mock := newService(t)

	oldest := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	newest := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	for range []int{0, 1, 2} {
		mock.ExpectQuery(`SELECT\s+COUNT`).
			WithArgs(30).
			WillReturnRows(sqlmock.NewRows([]string{"count", "filter", "min", "max"}).
				AddRow(120, 45, oldest, newest))
	}

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	require.Len(t, stats.Tables, 3)
	assert.Equal(t, "news_sources", stats.Tables[0].Table)
	assert.Equal(t, 120, stats.Tables[0].Total)
	assert.Equal(t, 45, stats.Tables[0].WithinWindow)
	assert.Equal(t, oldest, *stats.Tables[0].Oldest)
	assert.Equal(t, 30, stats.WindowDays)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), stats.PurgeDate, time.Minute)
}

func TestService_StatsEmptyTable(t *testing.T) {
	svc, mock := newService(t)

	for range []int{0, 1, 2} {
		mock.ExpectQuery(`SELECT\s+COUNT`).
			WillReturnRows(sqlmock.NewRows([]string{"count", "filter", "min", "max"}).
				AddRow(0, 0, nil, nil))
	}

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats.Tables[0].Oldest)
	assert.Nil(t, stats.Tables[0].Newest)
}

func TestService_WriteArchive(t *testing.T) {
	svc, mock := newService(t)

	created := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM news_sources`).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "created_at"}).
			AddRow(1, `Quote "inside", and comma`, created))
	mock.ExpectQuery(`SELECT \* FROM manual_image_production`).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM reels`).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT id, email, name, created_at, updated_at FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "created_at", "updated_at"}).
			AddRow(1, "ed@example.com", nil, created, created))

	var buf bytes.Buffer
	require.NoError(t, svc.WriteArchive(context.Background(), &buf))

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	entries := map[string]string{}
	for _, f := range reader.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[f.Name] = string(content)
	}

	require.Contains(t, entries, "news_sources.csv")
	require.Contains(t, entries, "manual_image_production.csv")
	require.Contains(t, entries, "reels.csv")
	require.Contains(t, entries, "users.csv")
	require.Contains(t, entries, "manifest.json")

	news := entries["news_sources.csv"]
	assert.True(t, strings.HasPrefix(news, "id,title,created_at\n"))
	// CSV quoting: embedded quotes doubled, field wrapped.
	assert.Contains(t, news, `"Quote ""inside"", and comma"`)
	assert.Contains(t, news, "2026-08-20T12:00:00Z")

	// Empty tables still get a header row.
	assert.Equal(t, "id\n", entries["reels.csv"])

	// NULL name exports as empty field.
	assert.Contains(t, entries["users.csv"], "1,ed@example.com,,2026-08-20T12:00:00Z")

	var manifest map[string]any
	require.NoError(t, json.Unmarshal([]byte(entries["manifest.json"]), &manifest))
	assert.Equal(t, float64(30), manifest["window_days"])
	assert.Len(t, manifest["tables"], 4)
}

func TestService_Filename(t *testing.T) {
	svc, _ := newService(t)
	name := svc.Filename()
	assert.True(t, strings.HasPrefix(name, "content-studio-export-"))
	assert.True(t, strings.HasSuffix(name, ".zip"))
}
