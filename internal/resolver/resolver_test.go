package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/gavel/internal/service/auction"
)

type fakeSweeper struct {
	mu      sync.Mutex
	calls   int
	summary auction.ResolutionSummary
	err     error
}

func (f *fakeSweeper) ResolveExpired(context.Context) (auction.ResolutionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.summary, f.err
}

func (f *fakeSweeper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestResolver(svc Sweeper, interval time.Duration) *Resolver {
	return &Resolver{
		svc:      svc,
		interval: interval,
		logger:   zap.NewNop(),
	}
}

func TestResolverTicksTriggerSweeps(t *testing.T) {
	sweeper := &fakeSweeper{summary: auction.ResolutionSummary{TotalConsidered: 1, ResolvedSold: 1}}
	r := newTestResolver(sweeper, 5*time.Millisecond)

	if err := r.start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for sweeper.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 2 sweeps, got %d", sweeper.count())
		}
		time.Sleep(time.Millisecond)
	}

	if err := r.stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestResolverStopsSweeping(t *testing.T) {
	sweeper := &fakeSweeper{}
	r := newTestResolver(sweeper, 5*time.Millisecond)

	if err := r.start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	settled := sweeper.count()
	time.Sleep(25 * time.Millisecond)
	if sweeper.count() != settled {
		t.Fatalf("sweeps continued after stop: %d then %d", settled, sweeper.count())
	}
}

func TestResolverSurvivesSweepErrors(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("storage offline")}
	r := newTestResolver(sweeper, 5*time.Millisecond)

	if err := r.start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for sweeper.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected sweeps to continue after errors, got %d", sweeper.count())
		}
		time.Sleep(time.Millisecond)
	}

	if err := r.stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestResolverStopWithoutStart(t *testing.T) {
	r := newTestResolver(&fakeSweeper{}, time.Second)
	if err := r.stop(context.Background()); err != nil {
		t.Fatalf("stop without start: %v", err)
	}
}
