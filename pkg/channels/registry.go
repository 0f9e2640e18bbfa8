// Package channels defines the closed set of live-data channels and their
// row-fetch queries. A Registry is built once at startup and shared read-only
// by every live session.
package channels

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// Channel identifiers. The set is fixed; subscribing to anything else is
// silently dropped by the session layer.
const (
	News   = "news"
	Images = "images"
	Reels  = "reels"
)

// Row is one fetched record with channel-specific columns. The live layer
// treats rows as opaque; only the dashboard client interprets them.
type Row = map[string]any

// queries maps each channel to its full-row-set SELECT. Fetches are
// side-effect-free reads and may run concurrently from any number of sessions.
var queries = map[string]string{
	News:   `SELECT * FROM news_sources ORDER BY COALESCE(published_date, created_at) DESC`,
	Images: `SELECT * FROM manual_image_production ORDER BY created_at DESC`,
	Reels:  `SELECT * FROM reels ORDER BY created_at DESC`,
}

// Registry resolves channel identifiers to fetch operations against one
// database handle. It is immutable after construction.
type Registry struct {
	db *sql.DB
}

// NewRegistry creates a registry over the given database handle.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// Has reports whether the channel identifier is part of the known set.
func (r *Registry) Has(channel string) bool {
	_, ok := queries[channel]
	return ok
}

// Channels returns the known channel identifiers, sorted.
func (r *Registry) Channels() []string {
	out := make([]string, 0, len(queries))
	for ch := range queries {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Fetch runs the channel's query and returns every row as a generic
// column→value map, preserving query order.
func (r *Registry) Fetch(ctx context.Context, channel string) ([]Row, error) {
	query, ok := queries[channel]
	if !ok {
		return nil, fmt.Errorf("unknown channel %q", channel)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query channel %s: %w", channel, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// scanRows converts a generic result set into column→value maps.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := make([]Row, 0, 16)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			v := values[i]
			// Drivers hand back []byte for text-ish columns; JSON-encode as string.
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
