package sweeper

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"booking-offer-api/internal/features"
)

// Expirer expires every offer that is stale at now.
type Expirer interface {
	ExpireStaleOffers(ctx context.Context, now time.Time) (int, error)
}

// Sweeper runs the expiry sweep in the background.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	flags    *features.Manager
	logger   *zap.Logger
	now      func() time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a sweeper that runs every interval.
func New(expirer Expirer, interval time.Duration, flags *features.Manager, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		expirer:  expirer,
		interval: interval,
		flags:    flags,
		logger:   logger,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval until Stop is
// called or ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.logger.Info("starting expiry sweeper", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

// Stop stops the sweeper and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping expiry sweeper")
		close(s.stopChan)
	})
	if s.started.Load() {
		<-s.done
	}
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweep runs a single pass and returns the number of offers expired.
func (s *Sweeper) sweep(ctx context.Context) int {
	if s.flags != nil && !s.flags.IsEnabled(features.FeatureExpirySweep) {
		return 0
	}

	n, err := s.expirer.ExpireStaleOffers(ctx, s.now())
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.Int("expired", n), zap.Error(err))
		return n
	}
	if n > 0 {
		s.logger.Info("expiry sweep completed", zap.Int("expired", n))
	}
	return n
}
