// Package actions implements the fixed action registry behind the /db-query
// endpoint: every mutation and listing the dashboard performs maps to a named
// action with a parameterized SQL statement. Clients never send SQL.
package actions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnknownAction is returned for an action name not in the registry.
var ErrUnknownAction = errors.New("unknown action")

// Params are the named parameters a client sends with an action. Missing
// keys bind as SQL NULL.
type Params map[string]any

type statement struct {
	sql  string
	args func(p Params) []any
}

// The registry is fixed at compile time. All statements use positional
// parameters; image and reel saves upsert on news_source_id so re-saving a
// production row for the same article updates in place.
var registry = map[string]statement{
	"list_news": {
		sql: `SELECT * FROM news_sources ORDER BY COALESCE(published_date, created_at) DESC`,
	},

	"list_images": {
		sql: `SELECT * FROM manual_image_production ORDER BY created_at DESC`,
	},

	"save_image_data": {
		sql: `INSERT INTO manual_image_production
			(news_source_id, title, image_for_post, catogires, image_url, image_owner_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (news_source_id) DO UPDATE SET
			title            = EXCLUDED.title,
			image_for_post   = EXCLUDED.image_for_post,
			catogires        = EXCLUDED.catogires,
			image_url        = EXCLUDED.image_url,
			image_owner_name = EXCLUDED.image_owner_name,
			updated_at       = now()
		RETURNING *`,
		args: func(p Params) []any {
			return []any{
				p["news_source_id"], p["title"], p["image_for_post"],
				p["catogires"], p["image_url"], p["image_owner_name"],
			}
		},
	},

	"get_image_by_news_id": {
		sql: `SELECT * FROM manual_image_production WHERE news_source_id = $1`,
		args: func(p Params) []any {
			return []any{p["news_source_id"]}
		},
	},

	"update_image_generated_url": {
		sql: `UPDATE manual_image_production
		SET download_link = $1, updated_at = now()
		WHERE news_source_id = $2
		RETURNING *`,
		args: func(p Params) []any {
			return []any{p["download_link"], p["news_source_id"]}
		},
	},

	"list_reels": {
		sql: `SELECT * FROM reels ORDER BY created_at DESC`,
	},

	"save_reel_data": {
		sql: `INSERT INTO reels
			(news_source_id, title, video_url, video_owner_name, video_dimension, reel_cover_image)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (news_source_id) DO UPDATE SET
			title            = EXCLUDED.title,
			video_url        = EXCLUDED.video_url,
			video_owner_name = EXCLUDED.video_owner_name,
			video_dimension  = EXCLUDED.video_dimension,
			reel_cover_image = EXCLUDED.reel_cover_image,
			updated_at       = now()
		RETURNING *`,
		args: func(p Params) []any {
			return []any{
				p["news_source_id"], p["title"], p["video_url"],
				p["video_owner_name"], p["video_dimension"], p["reel_cover_image"],
			}
		},
	},

	"get_reel_by_news_id": {
		sql: `SELECT * FROM reels WHERE news_source_id = $1`,
		args: func(p Params) []any {
			return []any{p["news_source_id"]}
		},
	},

	"update_reel_generated_url": {
		sql: `UPDATE reels
		SET final_video = $1, updated_at = now()
		WHERE news_source_id = $2
		RETURNING *`,
		args: func(p Params) []any {
			return []any{p["final_video"], p["news_source_id"]}
		},
	},
}

// Registry executes named actions against the shared pool.
type Registry struct {
	db *sql.DB
}

// NewRegistry creates the action registry.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// Has reports whether an action name is registered.
func (r *Registry) Has(action string) bool {
	_, ok := registry[action]
	return ok
}

// Execute runs one named action and returns its result rows. Every statement
// in the registry returns rows (listings select, mutations RETURNING).
func (r *Registry) Execute(ctx context.Context, action string, params Params) ([]map[string]any, error) {
	stmt, ok := registry[action]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	var args []any
	if stmt.args != nil {
		if params == nil {
			params = Params{}
		}
		args = stmt.args(params)
	}

	rows, err := r.db.QueryContext(ctx, stmt.sql, args...)
	if err != nil {
		slog.Error("Action query failed", "action", action, "error", err)
		return nil, fmt.Errorf("action %s failed: %w", action, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// scanRows converts a result set into generic JSON-ready maps.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
