package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/salesradar/salesradar/internal/ranker"
	"github.com/salesradar/salesradar/internal/scoring"
	"github.com/salesradar/salesradar/internal/store"
)

// initStore opens the store named by config. Callers own Close.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// newRanker builds a ranker over st, layering weight overrides from the
// given YAML file (or the configured one) on top of stored weights.
func newRanker(st store.Store, weightsFile string) (*ranker.Ranker, error) {
	opts := []ranker.Option{
		ranker.WithConcurrency(cfg.Scoring.Concurrency),
	}

	path := weightsFile
	if path == "" {
		path = cfg.Scoring.WeightsFile
	}
	if path != "" {
		overrides, err := loadWeightOverrides(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ranker.WithOverrides(overrides))
	}

	return ranker.New(st, opts...), nil
}

func loadWeightOverrides(path string) (scoring.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scoring.Table{}, eris.Wrapf(err, "weights: read %s", path)
	}
	var flat map[string]float64
	if err := yaml.Unmarshal(data, &flat); err != nil {
		return scoring.Table{}, eris.Wrapf(err, "weights: parse %s", path)
	}
	return scoring.FromFlat(flat), nil
}
