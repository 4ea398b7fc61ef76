package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"booking-offer-api/internal/features"
)

type countingExpirer struct {
	mu    sync.Mutex
	calls int
	err   error
	ran   chan struct{}
}

func (e *countingExpirer) ExpireStaleOffers(ctx context.Context, now time.Time) (int, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	select {
	case e.ran <- struct{}{}:
	default:
	}
	return 1, e.err
}

func (e *countingExpirer) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func TestSweeper_RunsImmediatelyAndStops(t *testing.T) {
	expirer := &countingExpirer{ran: make(chan struct{}, 1)}
	s := New(expirer, time.Hour, nil, nil)

	s.Start(context.Background())

	select {
	case <-expirer.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected an immediate sweep")
	}

	s.Stop()
	s.Stop()

	if expirer.Calls() != 1 {
		t.Errorf("Expected 1 sweep, got %d", expirer.Calls())
	}
}

func TestSweeper_StopWithoutStart(t *testing.T) {
	s := New(&countingExpirer{}, time.Hour, nil, nil)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a sweeper that never started")
	}
}

func TestSweeper_RespectsFlag(t *testing.T) {
	flags := features.NewManager()
	flags.Defaults(false, false, false, false)

	expirer := &countingExpirer{}
	s := New(expirer, time.Hour, flags, nil)

	if n := s.sweep(context.Background()); n != 0 {
		t.Errorf("Expected no sweep with the flag off, got %d", n)
	}
	if expirer.Calls() != 0 {
		t.Errorf("Expirer called %d times with the flag off", expirer.Calls())
	}

	flags.Set(features.FeatureExpirySweep, true)
	if n := s.sweep(context.Background()); n != 1 {
		t.Errorf("Expected 1 expired, got %d", n)
	}
}

func TestSweeper_ErrorKeepsRunning(t *testing.T) {
	expirer := &countingExpirer{err: errors.New("store down"), ran: make(chan struct{}, 1)}
	s := New(expirer, 10*time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	deadline := time.After(2 * time.Second)
	for expirer.Calls() < 3 {
		select {
		case <-deadline:
			t.Fatalf("Expected repeated sweeps after errors, got %d", expirer.Calls())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	s.Stop()
}
