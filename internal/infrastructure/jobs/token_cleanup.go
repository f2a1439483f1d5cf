package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"farmvet-auth.backend/internal/domain/entities"
	"farmvet-auth.backend/pkg/logger"
)

type staleTokenStore interface {
	DeleteStale(ctx context.Context, purpose entities.TokenPurpose, olderThan time.Time) (int64, error)
}

type staleLoginOTPStore interface {
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
}

var cleanupPurposes = []entities.TokenPurpose{
	entities.PurposeEmailVerification,
	entities.PurposePhoneVerification,
	entities.PurposePasswordReset,
}

// TokenCleanupJob removes used tokens and tokens older than the retention window
type TokenCleanupJob struct {
	tokens    staleTokenStore
	loginOTPs staleLoginOTPStore
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stop      chan struct{}
}

func NewTokenCleanupJob(tokens staleTokenStore, loginOTPs staleLoginOTPStore, interval, retention time.Duration) *TokenCleanupJob {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &TokenCleanupJob{
		tokens:    tokens,
		loginOTPs: loginOTPs,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

func (j *TokenCleanupJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting token cleanup job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Token cleanup job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Token cleanup job stopped")
			return
		case <-ticker.C:
			j.cleanup(ctx)
		}
	}
}

func (j *TokenCleanupJob) Stop() {
	close(j.stop)
}

func (j *TokenCleanupJob) cleanup(ctx context.Context) {
	cutoff := j.now().UTC().Add(-j.retention)
	var total int64

	for _, purpose := range cleanupPurposes {
		n, err := j.tokens.DeleteStale(ctx, purpose, cutoff)
		if err != nil {
			logger.Error(ctx, "Error deleting stale tokens", zap.String("purpose", string(purpose)), zap.Error(err))
			continue
		}
		total += n
	}

	n, err := j.loginOTPs.DeleteStale(ctx, cutoff)
	if err != nil {
		logger.Error(ctx, "Error deleting stale login OTPs", zap.Error(err))
	}
	total += n

	if total > 0 {
		logger.Info(ctx, "Deleted stale tokens", zap.Int64("count", total))
	}
}
