package kol

import (
	"context"
	"math/rand"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/retailpulse/lake-cli/internal/config"
	"github.com/retailpulse/lake-cli/internal/lake"
	"github.com/retailpulse/lake-cli/internal/model"
	"github.com/retailpulse/lake-cli/internal/quality"
)

// Engine reads daily_metrics and writes kol_performance. One explicitly
// seeded random source is threaded through population generation and every
// per-date allocation, so a run is reproducible from (seed, creator count)
// alone.
type Engine struct {
	lake lake.Lake
	cfg  config.KolConfig
	qc   *quality.Collector
}

// NewEngine creates an Engine.
func NewEngine(lk lake.Lake, cfg config.KolConfig, qc *quality.Collector) *Engine {
	return &Engine{lake: lk, cfg: cfg, qc: qc}
}

// Run generates the population and allocates every date of daily_metrics.
func (e *Engine) Run(ctx context.Context) error {
	metrics, err := lake.ReadRows[model.DailyMetrics](e.lake.GoldDailyMetrics())
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(e.cfg.Seed))
	creators := GeneratePopulation(rng, e.cfg.Creators)

	zap.L().Info("kol: population generated",
		zap.Int("creators", len(creators)),
		zap.Int64("seed", e.cfg.Seed),
		zap.Int("dates", len(metrics)),
	)

	var records []model.KolRecord
	for _, day := range metrics {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "kol: cancelled")
		}

		dayRecords, err := AllocateDay(rng, creators, day, e.cfg.NoiseSigma)
		if err != nil {
			// An allocation failure means the conservation invariant broke,
			// which is an algorithm bug, not bad data.
			e.qc.Inc(quality.ResidualTrip)
			return err
		}
		records = append(records, dayRecords...)
	}

	if err := lake.WriteTable(e.lake.GoldKolPerformance(), records); err != nil {
		return err
	}

	zap.L().Info("kol: attribution complete", zap.Int("rows", len(records)))
	return nil
}
