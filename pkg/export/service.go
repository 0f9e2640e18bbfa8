// Package export builds the CSV/ZIP data export offered in the dashboard
// settings. Content tables are exported within the retention window (they are
// purged on the same window), users in full.
package export

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"
)

type tableDef struct {
	name     string
	sql      string
	windowed bool // bind the retention window as $1
}

var exportTables = []tableDef{
	{
		name:     "news_sources",
		sql:      `SELECT * FROM news_sources WHERE created_at >= NOW() - make_interval(days => $1) ORDER BY COALESCE(published_date, created_at) DESC`,
		windowed: true,
	},
	{
		name:     "manual_image_production",
		sql:      `SELECT * FROM manual_image_production WHERE created_at >= NOW() - make_interval(days => $1) ORDER BY created_at DESC`,
		windowed: true,
	},
	{
		name:     "reels",
		sql:      `SELECT * FROM reels WHERE created_at >= NOW() - make_interval(days => $1) ORDER BY created_at DESC`,
		windowed: true,
	},
	{
		// Never the password hashes.
		name: "users",
		sql:  `SELECT id, email, name, created_at, updated_at FROM users ORDER BY created_at DESC`,
	},
}

var statTables = []string{"news_sources", "manual_image_production", "reels"}

// TableStats is one table's row counts and date range for the export banner.
type TableStats struct {
	Table        string     `json:"table"`
	Total        int        `json:"total"`
	WithinWindow int        `json:"within_window"`
	Oldest       *time.Time `json:"oldest"`
	Newest       *time.Time `json:"newest"`
}

// Stats summarizes what an export would contain and when data gets purged.
type Stats struct {
	Tables     []TableStats `json:"tables"`
	PurgeDate  time.Time    `json:"purge_date"`
	WindowDays int          `json:"window_days"`
}

// Service runs exports against the shared pool.
type Service struct {
	db         *sql.DB
	windowDays int
}

// NewService creates an export service with the given retention window.
func NewService(db *sql.DB, windowDays int) *Service {
	return &Service{db: db, windowDays: windowDays}
}

// Filename returns the date-tagged archive name for a download started now.
func (s *Service) Filename() string {
	return fmt.Sprintf("content-studio-export-%s.zip", time.Now().Format("2006-01-02"))
}

// Stats returns per-table counts and the upcoming purge horizon.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	out := &Stats{
		PurgeDate:  time.Now().AddDate(0, 0, s.windowDays),
		WindowDays: s.windowDays,
	}

	for _, table := range statTables {
		var ts TableStats
		ts.Table = table
		err := s.db.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT
				COUNT(*),
				COUNT(*) FILTER (WHERE created_at >= NOW() - make_interval(days => $1)),
				MIN(created_at),
				MAX(created_at)
			FROM %s`, table), s.windowDays,
		).Scan(&ts.Total, &ts.WithinWindow, &ts.Oldest, &ts.Newest)
		if err != nil {
			return nil, fmt.Errorf("failed to read stats for %s: %w", table, err)
		}
		out.Tables = append(out.Tables, ts)
	}

	return out, nil
}

// WriteArchive streams a ZIP with one CSV per exported table plus a manifest.
func (s *Service) WriteArchive(ctx context.Context, w io.Writer) error {
	archive := zip.NewWriter(w)

	for _, table := range exportTables {
		entry, err := archive.Create(table.name + ".csv")
		if err != nil {
			return fmt.Errorf("failed to create archive entry %s: %w", table.name, err)
		}

		count, err := s.writeTableCSV(ctx, entry, table)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", table.name, err)
		}
		slog.Info("Exported table", "table", table.name, "rows", count)
	}

	manifest, err := archive.Create("manifest.json")
	if err != nil {
		return fmt.Errorf("failed to create manifest entry: %w", err)
	}
	names := make([]string, 0, len(exportTables))
	for _, t := range exportTables {
		names = append(names, t.name)
	}
	enc := json.NewEncoder(manifest)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any{
		"exported_at": time.Now().UTC().Format(time.RFC3339),
		"window_days": s.windowDays,
		"tables":      names,
	}); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return archive.Close()
}

func (s *Service) writeTableCSV(ctx context.Context, w io.Writer, table tableDef) (int, error) {
	var args []any
	if table.windowed {
		args = append(args, s.windowDays)
	}

	rows, err := s.db.QueryContext(ctx, table.sql, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return 0, err
	}

	count := 0
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	record := make([]string, len(cols))

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return count, err
		}
		for i, v := range values {
			record[i] = formatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return count, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, err
	}

	cw.Flush()
	return count, cw.Error()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
