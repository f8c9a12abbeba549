package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/retailpulse/lake-cli/internal/model"
)

// SQLiteStore implements Publisher using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. Parent directories are created as needed.
func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "sqlite: create dir for %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS daily_metrics (
	date        TEXT PRIMARY KEY,
	"view"      INTEGER NOT NULL,
	addtocart   INTEGER NOT NULL,
	transactions INTEGER NOT NULL,
	ctr         REAL,
	cvr         REAL,
	revenue     REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS top_items (
	itemid       TEXT PRIMARY KEY,
	transactions INTEGER NOT NULL,
	price        REAL
);

CREATE TABLE IF NOT EXISTS kol_performance (
	date            TEXT NOT NULL,
	creator_id      TEXT NOT NULL,
	campaign_id     TEXT NOT NULL,
	views           INTEGER NOT NULL,
	addtocart       INTEGER NOT NULL,
	transactions    INTEGER NOT NULL,
	revenue         REAL NOT NULL,
	tier            TEXT NOT NULL,
	engagement_rate REAL NOT NULL,
	category        TEXT NOT NULL,
	ctr             REAL,
	cvr             REAL,
	PRIMARY KEY (date, creator_id)
);

CREATE INDEX IF NOT EXISTS idx_kol_performance_campaign ON kol_performance(campaign_id);
CREATE INDEX IF NOT EXISTS idx_kol_performance_creator ON kol_performance(creator_id);
`

// Migrate creates the published tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PublishDailyMetrics replaces the daily_metrics table.
func (s *SQLiteStore) PublishDailyMetrics(ctx context.Context, rows []model.DailyMetrics) error {
	return s.replace(ctx, "daily_metrics",
		`INSERT INTO daily_metrics (date, "view", addtocart, transactions, ctr, cvr, revenue) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(rows), func(i int) []any {
			r := rows[i]
			return []any{r.Date, r.View, r.AddToCart, r.Transaction, r.CTR, r.CVR, r.Revenue}
		})
}

// PublishTopItems replaces the top_items table.
func (s *SQLiteStore) PublishTopItems(ctx context.Context, rows []model.TopItem) error {
	return s.replace(ctx, "top_items",
		`INSERT INTO top_items (itemid, transactions, price) VALUES (?, ?, ?)`,
		len(rows), func(i int) []any {
			r := rows[i]
			return []any{r.ItemID, r.Transactions, r.Price}
		})
}

// PublishKolPerformance replaces the kol_performance table.
func (s *SQLiteStore) PublishKolPerformance(ctx context.Context, rows []model.KolRecord) error {
	return s.replace(ctx, "kol_performance",
		`INSERT INTO kol_performance (date, creator_id, campaign_id, views, addtocart, transactions, revenue, tier, engagement_rate, category, ctr, cvr)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(rows), func(i int) []any {
			r := rows[i]
			return []any{r.Date, r.CreatorID, r.CampaignID, r.Views, r.AddToCart, r.Transactions,
				r.Revenue, string(r.Tier), r.EngagementRate, r.Category, r.CTR, r.CVR}
		})
}

// replace deletes a table's contents and loads n rows inside one
// transaction, so readers only ever see a complete snapshot.
func (s *SQLiteStore) replace(ctx context.Context, table, insertSQL string, n int, row func(i int) []any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: begin replace %s", table)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return eris.Wrapf(err, "sqlite: clear %s", table)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare insert %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert into %s", table)
		}
	}

	return eris.Wrapf(tx.Commit(), "sqlite: commit replace %s", table)
}
