package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/beanpass/internal/config"
)

type fakeService struct {
	name     string
	startErr error
	stopped  atomic.Bool
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeService) Stop(context.Context) error {
	f.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllServicesOnCancel(t *testing.T) {
	api := &fakeService{name: "api"}
	worker := &fakeService{name: "worker"}
	runner := NewRunner(api, worker)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unexpected run error: %v", err)
	}
	if !api.stopped.Load() || !worker.stopped.Load() {
		t.Fatalf("all services should be stopped")
	}
}

func TestRunnerPropagatesStartFailure(t *testing.T) {
	boom := errors.New("listen failed")
	failing := &fakeService{name: "api", startErr: boom}
	healthy := &fakeService{name: "worker"}
	runner := NewRunner(failing, healthy)

	err := runner.Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("want start failure, got %v", err)
	}
	if !healthy.stopped.Load() {
		t.Fatalf("healthy service should be stopped after peer failure")
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("expected error for empty runner")
	}
}

func TestBuildRunnerRejectsUnknownMode(t *testing.T) {
	if _, err := BuildRunner(&config.Config{}, "scheduler"); err == nil {
		t.Fatalf("expected unknown mode error")
	}
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("expected nil config error")
	}
}
