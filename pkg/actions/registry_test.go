package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) (*Registry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRegistry(db), mock
}

func TestRegistry_UnknownAction(t *testing.T) {
	reg, _ := newRegistry(t)

	_, err := reg.Execute(context.Background(), "drop_all_tables", nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestRegistry_Has(t *testing.T) {
	reg, _ := newRegistry(t)

	assert.True(t, reg.Has("list_news"))
	assert.True(t, reg.Has("save_reel_data"))
	assert.False(t, reg.Has("list_everything"))
}

func TestRegistry_ListNews(t *testing.T) {
	reg, mock := newRegistry(t)

	created := time.Now()
	mock.ExpectQuery(`SELECT \* FROM news_sources ORDER BY COALESCE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "created_at"}).
			AddRow(1, []byte("Monsoon update"), created).
			AddRow(2, "Market wrap", created))

	rows, err := reg.Execute(context.Background(), "list_news", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Byte-slice columns come back as strings so they serialize as JSON text.
	assert.Equal(t, "Monsoon update", rows[0]["title"])
	assert.Equal(t, int64(1), rows[0]["id"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistry_SaveImageBindsParams(t *testing.T) {
	reg, mock := newRegistry(t)

	mock.ExpectQuery(`INSERT INTO manual_image_production`).
		WithArgs(int64(5), "A title", "post.png", "politics", "http://img", "Riya").
		WillReturnRows(sqlmock.NewRows([]string{"id", "news_source_id", "title"}).
			AddRow(9, 5, "A title"))

	rows, err := reg.Execute(context.Background(), "save_image_data", Params{
		"news_source_id":   int64(5),
		"title":            "A title",
		"image_for_post":   "post.png",
		"catogires":        "politics",
		"image_url":        "http://img",
		"image_owner_name": "Riya",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(9), rows[0]["id"])
}

func TestRegistry_MissingParamsBindAsNull(t *testing.T) {
	reg, mock := newRegistry(t)

	mock.ExpectQuery(`INSERT INTO reels`).
		WithArgs(int64(5), "clip", "http://v", nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	_, err := reg.Execute(context.Background(), "save_reel_data", Params{
		"news_source_id": int64(5),
		"title":          "clip",
		"video_url":      "http://v",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistry_UpdateGeneratedURL(t *testing.T) {
	reg, mock := newRegistry(t)

	mock.ExpectQuery(`UPDATE reels`).
		WithArgs("http://cdn/final.mp4", int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "final_video"}).
			AddRow(1, "http://cdn/final.mp4"))

	rows, err := reg.Execute(context.Background(), "update_reel_generated_url", Params{
		"final_video":    "http://cdn/final.mp4",
		"news_source_id": int64(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/final.mp4", rows[0]["final_video"])
}

func TestRegistry_QueryError(t *testing.T) {
	reg, mock := newRegistry(t)

	mock.ExpectQuery(`SELECT \* FROM reels ORDER BY`).
		WillReturnError(errors.New("connection reset"))

	_, err := reg.Execute(context.Background(), "list_reels", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list_reels")
}
