package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/inknote/backend/internal/repository"
	"github.com/inknote/backend/pkg/logger"
)

type verificationJanitor struct {
	pendingRepository repository.PendingVerifications
}

func newVerificationJanitor(pendingRepository repository.PendingVerifications) *verificationJanitor {
	return &verificationJanitor{
		pendingRepository: pendingRepository,
	}
}

func (j *verificationJanitor) PurgeExpired(ctx context.Context) error {
	purged, err := j.pendingRepository.DeleteExpired(ctx, time.Now())
	if err != nil {
		return err
	}

	if purged > 0 {
		logger.Info("purged expired pending verifications", zap.Int64("count", purged))
	}

	return nil
}
