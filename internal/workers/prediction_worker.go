package workers

import (
	"context"

	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/internal/adapters/redis"
	"github.com/hat3ck/cryptosense/internal/adapters/telegram"
	"github.com/hat3ck/cryptosense/internal/prediction"
	"github.com/hat3ck/cryptosense/pkg/logger"
)

// PredictionWorker periodically runs the full prediction cycle and pushes
// the results to Telegram when alerting is configured
type PredictionWorker struct {
	pipeline *prediction.Pipeline
	notifier *telegram.Notifier
	lock     *redis.JobLock
}

// NewPredictionWorker creates new prediction worker. notifier and lock may
// be nil.
func NewPredictionWorker(pipeline *prediction.Pipeline, notifier *telegram.Notifier, lock *redis.JobLock) *PredictionWorker {
	return &PredictionWorker{
		pipeline: pipeline,
		notifier: notifier,
		lock:     lock,
	}
}

// Name returns worker name for logging
func (w *PredictionWorker) Name() string {
	return "prediction_cycle"
}

// Run executes one prediction cycle
func (w *PredictionWorker) Run(ctx context.Context) error {
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

	records, err := w.pipeline.RunCycle(ctx)
	if err != nil {
		return err
	}

	if w.notifier != nil {
		if err := w.notifier.NotifyPredictions(records); err != nil {
			// alerting is best effort, the predictions are already stored
			logger.Warn("Failed to send prediction alert", zap.Error(err))
		}
	}

	return nil
}
