package resolver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/gavel/internal/config"
	"github.com/Additional-Code/gavel/internal/service/auction"
)

// Sweeper runs one resolution pass over expired auctions.
type Sweeper interface {
	ResolveExpired(ctx context.Context) (auction.ResolutionSummary, error)
}

// Resolver drives the recurring sweep that finalizes expired auctions. It
// owns no domain logic; each tick calls the auction service, which applies
// the same per-item serialization used for bid acceptance.
type Resolver struct {
	svc      Sweeper
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Resolver with the configured sweep interval.
func New(svc *auction.Service, cfg config.Config, logger *zap.Logger) *Resolver {
	interval := cfg.Auction.ResolveInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Resolver{
		svc:      svc,
		interval: interval,
		logger:   logger,
	}
}

// Module wires the resolver loop into the Fx lifecycle.
var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, r *Resolver) {
		lc.Append(fx.Hook{
			OnStart: r.start,
			OnStop:  r.stop,
		})
	}),
)

func (r *Resolver) start(context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(runCtx)
	}()

	r.logger.Info("auction resolver started", zap.Duration("interval", r.interval))
	return nil
}

func (r *Resolver) stop(ctx context.Context) error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		r.logger.Info("auction resolver stopped")
		return nil
	}
}

func (r *Resolver) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

// sweep runs one resolution pass. Per-item failures are already logged by
// the service; they never stop the scheduler, and the next tick retries
// anything still FOR_SALE.
func (r *Resolver) sweep(ctx context.Context) {
	summary, err := r.svc.ResolveExpired(ctx)
	if err != nil {
		r.logger.Error("resolver sweep finished with errors", zap.Error(err))
	}
	if summary.TotalConsidered == 0 && err == nil {
		return
	}
	r.logger.Info("resolver sweep finished",
		zap.Int("total_considered", summary.TotalConsidered),
		zap.Int("resolved_sold", summary.ResolvedSold),
		zap.Int("resolved_reserve", summary.ResolvedReserve),
	)
}
