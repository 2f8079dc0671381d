package workers

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/internal/adapters/redis"
	"github.com/hat3ck/cryptosense/internal/labeling"
	"github.com/hat3ck/cryptosense/pkg/logger"
)

// LabelingWorker periodically labels the latest window of Reddit
// discussions. Already labeled pairs are skipped by the conflict-ignore
// insert, so overlapping windows are safe.
type LabelingWorker struct {
	engine        *labeling.Engine
	lookbackHours int
	lock          *redis.JobLock
}

// NewLabelingWorker creates new labeling worker. lock may be nil when
// running a single replica.
func NewLabelingWorker(engine *labeling.Engine, lookbackHours int, lock *redis.JobLock) *LabelingWorker {
	return &LabelingWorker{
		engine:        engine,
		lookbackHours: lookbackHours,
		lock:          lock,
	}
}

// Name returns worker name for logging
func (w *LabelingWorker) Name() string {
	return "sentiment_labeling"
}

// Run executes one labeling pass over the lookback window
func (w *LabelingWorker) Run(ctx context.Context) error {
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

	endUTC := time.Now().UTC().Unix()
	startUTC := endUTC - int64(w.lookbackHours)*3600

	summary, err := w.engine.Run(ctx, "", startUTC, endUTC)
	if err != nil {
		// an empty window is normal between ingestion runs
		if errors.Is(err, labeling.ErrNoDiscussions) {
			logger.Info("No discussions to label in window",
				zap.Int("lookback_hours", w.lookbackHours))
			return nil
		}
		return err
	}

	logger.Info("Labeling pass finished",
		zap.Int("batches", summary.Batches),
		zap.Int("failed_batches", summary.FailedBatches),
		zap.Int64("labels_inserted", summary.LabelsInserted))

	return nil
}
