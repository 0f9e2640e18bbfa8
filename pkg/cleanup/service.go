// Package cleanup enforces the content retention window with a scheduled
// purge job.
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/config"
)

// Child tables first so FK constraints never block the parent delete.
var purgeTables = []string{
	"manual_image_production",
	"reels",
	"news_sources",
}

// Service deletes content rows older than the retention window on a cron
// schedule. Deletes are idempotent and safe to run from multiple replicas.
type Service struct {
	cfg  *config.RetentionConfig
	db   *sql.DB
	cron *cron.Cron
}

// NewService creates a new purge service.
func NewService(cfg *config.RetentionConfig, db *sql.DB) *Service {
	return &Service{
		cfg:  cfg,
		db:   db,
		cron: cron.New(),
	}
}

// Start schedules the purge job. The schedule comes from configuration and
// has already been validated at load time.
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.Purge(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule purge job: %w", err)
	}

	s.cron.Start()
	slog.Info("Data purge job scheduled",
		"schedule", s.cfg.Schedule,
		"retention_days", s.cfg.RetentionDays)
	return nil
}

// Stop stops the scheduler and waits for a running purge to finish.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("Data purge job stopped")
}

// Purge deletes rows older than the retention window from every purgeable
// table. A failure on one table is logged and does not stop the others.
func (s *Service) Purge(ctx context.Context) int64 {
	slog.Info("Starting data purge", "retention_days", s.cfg.RetentionDays)

	var total int64
	for _, table := range purgeTables {
		result, err := s.db.ExecContext(ctx, fmt.Sprintf(
			`DELETE FROM %s WHERE created_at < NOW() - make_interval(days => $1)`,
			table), s.cfg.RetentionDays)
		if err != nil {
			slog.Error("Purge failed for table", "table", table, "error", err)
			continue
		}

		deleted, err := result.RowsAffected()
		if err != nil {
			slog.Warn("Purge row count unavailable", "table", table, "error", err)
			continue
		}
		total += deleted
		slog.Info("Purged table", "table", table, "deleted", deleted)
	}

	slog.Info("Data purge complete", "total_deleted", total)
	return total
}
