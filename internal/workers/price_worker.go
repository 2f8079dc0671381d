package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/internal/adapters/price"
	"github.com/hat3ck/cryptosense/internal/adapters/redis"
	"github.com/hat3ck/cryptosense/internal/prices"
	"github.com/hat3ck/cryptosense/pkg/logger"
)

// PriceWorker periodically pulls market snapshots from every configured
// source and appends them to storage. One broken source does not stop the
// others.
type PriceWorker struct {
	sources      []price.Source
	repo         *prices.Repository
	currencies   []string
	mainCurrency string
	lock         *redis.JobLock
}

// NewPriceWorker creates new price snapshot worker. lock may be nil when
// running a single replica.
func NewPriceWorker(sources []price.Source, repo *prices.Repository, currencies []string, mainCurrency string, lock *redis.JobLock) *PriceWorker {
	return &PriceWorker{
		sources:      sources,
		repo:         repo,
		currencies:   currencies,
		mainCurrency: mainCurrency,
		lock:         lock,
	}
}

// Name returns worker name for logging
func (w *PriceWorker) Name() string {
	return "price_snapshots"
}

// Run executes one snapshot ingestion pass
func (w *PriceWorker) Run(ctx context.Context) error {
	if w.lock != nil {
		acquired, err := w.lock.TryAcquire(ctx)
		if err != nil {
			return err
		}
		if !acquired {
			return nil
		}
		defer func() { _ = w.lock.Release(ctx) }()
	}

	var failed int
	var stored int

	for _, source := range w.sources {
		snapshots, err := source.FetchSnapshots(ctx, w.currencies, w.mainCurrency)
		if err != nil {
			failed++
			logger.Error("Price source fetch failed",
				zap.String("source", source.Name()),
				zap.Error(err))
			continue
		}

		if err := w.repo.InsertSnapshots(ctx, snapshots); err != nil {
			failed++
			logger.Error("Failed to store price snapshots",
				zap.String("source", source.Name()),
				zap.Error(err))
			continue
		}
		stored += len(snapshots)
	}

	if failed == len(w.sources) {
		return fmt.Errorf("all %d price sources failed", len(w.sources))
	}

	logger.Info("Price snapshots stored",
		zap.Int("snapshots", stored),
		zap.Int("sources", len(w.sources)),
		zap.Int("failed_sources", failed))

	return nil
}
