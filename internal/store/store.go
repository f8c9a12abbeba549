// Package store publishes the three gold tables to a database as read-only,
// fully-regenerated-per-run snapshots for dashboards and reporting.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/retailpulse/lake-cli/internal/config"
	"github.com/retailpulse/lake-cli/internal/model"
)

// Publisher replaces the published gold tables with a new snapshot. Each
// Publish call deletes the table's previous contents and loads the new rows
// in one transaction.
type Publisher interface {
	Migrate(ctx context.Context) error
	PublishDailyMetrics(ctx context.Context, rows []model.DailyMetrics) error
	PublishTopItems(ctx context.Context, rows []model.TopItem) error
	PublishKolPerformance(ctx context.Context, rows []model.KolRecord) error
	Close() error
}

// NewFromConfig creates the configured Publisher backend.
func NewFromConfig(ctx context.Context, cfg config.StoreConfig) (Publisher, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
