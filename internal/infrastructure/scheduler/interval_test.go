package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsImmediately(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour)
	ran := make(chan time.Time, 1)

	if err := s.Start(context.Background(), func(trigger time.Time) {
		select {
		case ran <- trigger:
		default:
		}
	}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run at start")
	}
}

func TestIntervalSchedulerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour)
	if err := s.Start(context.Background(), func(time.Time) {}); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestIntervalSchedulerRestartsAfterStop(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour)
	if err := s.Start(context.Background(), func(time.Time) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	ran := make(chan struct{}, 1)
	if err := s.Start(context.Background(), func(time.Time) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer s.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run after restart")
	}
}
