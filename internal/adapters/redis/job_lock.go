package redis

import (
	"context"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/pkg/logger"
)

// JobLock guards one scheduled job so a single replica runs it at a time.
// The lock is TTL-based; jobs are expected to finish well within the TTL.
type JobLock struct {
	lockManager *redlock.RedLock
	lockName    string
	ttl         time.Duration
	locked      bool
}

// TryAcquire attempts to acquire the job lock using the Redlock algorithm.
// Returns false when another replica holds it.
func (jl *JobLock) TryAcquire(ctx context.Context) (bool, error) {
	expiry, err := jl.lockManager.Lock(ctx, jl.lockName, jl.ttl)
	if err != nil {
		logger.Debug("job lock already held by another replica",
			zap.String("lock_name", jl.lockName),
		)
		return false, nil
	}

	if expiry <= 0 {
		return false, nil
	}

	jl.locked = true
	return true, nil
}

// Release releases the job lock
func (jl *JobLock) Release(ctx context.Context) error {
	if !jl.locked {
		return nil
	}

	if err := jl.lockManager.UnLock(ctx, jl.lockName); err != nil {
		logger.Warn("failed to release job lock (may have expired)",
			zap.String("lock_name", jl.lockName),
			zap.Error(err),
		)
		return err
	}

	jl.locked = false
	return nil
}
