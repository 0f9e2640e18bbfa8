package channels

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_KnownChannels(t *testing.T) {
	r := NewRegistry(nil)

	assert.True(t, r.Has(News))
	assert.True(t, r.Has(Images))
	assert.True(t, r.Has(Reels))
	assert.False(t, r.Has("videos"))
	assert.False(t, r.Has(""))

	assert.Equal(t, []string{Images, News, Reels}, r.Channels())
}

func TestRegistry_FetchUnknownChannel(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewRegistry(db)
	_, err = r.Fetch(context.Background(), "nope")
	assert.ErrorContains(t, err, "unknown channel")
}

func TestRegistry_FetchRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT \\* FROM news_sources").WillReturnRows(
		sqlmock.NewRows([]string{"id", "title"}).
			AddRow(int64(2), []byte("Second story")).
			AddRow(int64(1), []byte("First story")))

	r := NewRegistry(db)
	rows, err := r.Fetch(context.Background(), News)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0]["id"])
	// []byte columns come back as plain strings so they JSON-encode as text.
	assert.Equal(t, "Second story", rows[0]["title"])
	assert.Equal(t, "First story", rows[1]["title"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistry_FetchQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT \\* FROM reels").WillReturnError(assert.AnError)

	r := NewRegistry(db)
	_, err = r.Fetch(context.Background(), Reels)
	assert.ErrorContains(t, err, "query channel reels")
}
