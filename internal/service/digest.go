package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DevRickLin/micropost-notify/internal/biz/usecase"
)

// DigestRunner periodically delivers notification digests to subscribed chats
type DigestRunner struct {
	digestUC *usecase.DigestUsecase
	logger   *zap.Logger

	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewDigestRunner creates a new digest runner
func NewDigestRunner(digestUC *usecase.DigestUsecase, interval time.Duration, logger *zap.Logger) *DigestRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &DigestRunner{
		digestUC: digestUC,
		logger:   logger.Named("digest-runner"),
		interval: interval,
	}
}

// Start starts the delivery loop. Calling Start on a running runner is a no-op.
func (r *DigestRunner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop(ctx)
	r.logger.Info("Started", zap.Duration("interval", r.interval))
}

// Stop stops the loop and waits for an in-flight round to finish
func (r *DigestRunner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	r.wg.Wait()
	r.logger.Info("Stopped")
}

func (r *DigestRunner) loop(ctx context.Context) {
	defer r.wg.Done()

	// Initial run
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce delivers one round of digests. Failures are logged and retried next round.
func (r *DigestRunner) RunOnce(ctx context.Context) int {
	if !r.digestUC.IsDeliveryEnabled() {
		return 0
	}

	n, err := r.digestUC.DeliverAll(ctx)
	if err != nil && ctx.Err() == nil {
		r.logger.Warn("Digest round finished with errors", zap.Int("delivered", n), zap.Error(err))
		return n
	}
	if n > 0 {
		r.logger.Debug("Digest round finished", zap.Int("delivered", n))
	}
	return n
}
