package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/retailpulse/lake-cli/internal/db"
	"github.com/retailpulse/lake-cli/internal/model"
)

// PostgresStore implements Publisher on a pgx pool, loading rows through
// the COPY protocol.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS daily_metrics (
	date        DATE PRIMARY KEY,
	"view"      BIGINT NOT NULL,
	addtocart   BIGINT NOT NULL,
	transactions BIGINT NOT NULL,
	ctr         DOUBLE PRECISION,
	cvr         DOUBLE PRECISION,
	revenue     DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS top_items (
	itemid       TEXT PRIMARY KEY,
	transactions BIGINT NOT NULL,
	price        DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS kol_performance (
	date            DATE NOT NULL,
	creator_id      TEXT NOT NULL,
	campaign_id     TEXT NOT NULL,
	views           BIGINT NOT NULL,
	addtocart       BIGINT NOT NULL,
	transactions    BIGINT NOT NULL,
	revenue         DOUBLE PRECISION NOT NULL,
	tier            TEXT NOT NULL,
	engagement_rate DOUBLE PRECISION NOT NULL,
	category        TEXT NOT NULL,
	ctr             DOUBLE PRECISION,
	cvr             DOUBLE PRECISION,
	PRIMARY KEY (date, creator_id)
);

CREATE INDEX IF NOT EXISTS idx_kol_performance_campaign ON kol_performance(campaign_id);
CREATE INDEX IF NOT EXISTS idx_kol_performance_creator ON kol_performance(creator_id);
`

// Migrate creates the published tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// PublishDailyMetrics replaces the daily_metrics table.
func (s *PostgresStore) PublishDailyMetrics(ctx context.Context, rows []model.DailyMetrics) error {
	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = []any{r.Date, r.View, r.AddToCart, r.Transaction, floatOrNil(r.CTR), floatOrNil(r.CVR), r.Revenue}
	}
	return db.ReplaceTable(ctx, s.pool, "daily_metrics",
		[]string{"date", "view", "addtocart", "transactions", "ctr", "cvr", "revenue"}, data)
}

// PublishTopItems replaces the top_items table.
func (s *PostgresStore) PublishTopItems(ctx context.Context, rows []model.TopItem) error {
	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = []any{r.ItemID, r.Transactions, floatOrNil(r.Price)}
	}
	return db.ReplaceTable(ctx, s.pool, "top_items", []string{"itemid", "transactions", "price"}, data)
}

// PublishKolPerformance replaces the kol_performance table.
func (s *PostgresStore) PublishKolPerformance(ctx context.Context, rows []model.KolRecord) error {
	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = []any{r.Date, r.CreatorID, r.CampaignID, r.Views, r.AddToCart, r.Transactions,
			r.Revenue, string(r.Tier), r.EngagementRate, r.Category, floatOrNil(r.CTR), floatOrNil(r.CVR)}
	}
	return db.ReplaceTable(ctx, s.pool, "kol_performance",
		[]string{"date", "creator_id", "campaign_id", "views", "addtocart", "transactions",
			"revenue", "tier", "engagement_rate", "category", "ctr", "cvr"}, data)
}

// floatOrNil maps a nil rate pointer to SQL NULL.
func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
