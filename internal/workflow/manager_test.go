package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"renderq/internal/config"
	"renderq/internal/workflow"
)

// blockingSleep parks the worker until the run is cancelled.
func blockingSleep(ctx context.Context, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestManagerRunsLanesUntilCancelled(t *testing.T) {
	queue := newStubQueue(shotA, shotB)
	r := newStubRunner()
	r.compositing[shotA] = true
	r.complete[shotA] = true
	cfg := config.Default()

	workers, err := workflow.NewWorkers(&cfg, workflow.Roles, queue, nil, r, nil, workflow.WithSleeper(blockingSleep))
	if err != nil {
		t.Fatalf("NewWorkers: %v", err)
	}
	manager := workflow.NewManager(nil, workers...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- manager.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		statuses := manager.Statuses()
		if statuses[0].Iterations == 1 && statuses[1].Iterations == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("lanes did not start: %+v", statuses)
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}

	if len(r.buildCalls()) != 0 || len(r.compositeCalls()) != 1 {
		t.Fatalf("builds=%d composites=%d", len(r.buildCalls()), len(r.compositeCalls()))
	}
	statuses := manager.Statuses()
	if statuses[0].Role != workflow.RoleRender || statuses[1].Role != workflow.RoleComposite {
		t.Fatalf("unexpected lane order %+v", statuses)
	}
	if statuses[0].Cursor != shotB || statuses[1].Cursor != shotB {
		t.Fatalf("cursors = %s, %s", statuses[0].Cursor, statuses[1].Cursor)
	}
}

func TestManagerStopsOnWorkerFailure(t *testing.T) {
	healthy, err := workflow.NewWorker(workflow.WorkerConfig{Role: workflow.RoleRender},
		newStubQueue(shotA), newStubRunner(), nil, workflow.WithSleeper(blockingSleep))
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	empty, err := workflow.NewWorker(workflow.WorkerConfig{Role: workflow.RoleComposite},
		newStubQueue(), newStubRunner(), nil)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}

	err = workflow.NewManager(nil, healthy, empty).Run(context.Background())
	if !errors.Is(err, workflow.ErrEmptyQueue) {
		t.Fatalf("expected ErrEmptyQueue, got %v", err)
	}
}

func TestManagerRequiresWorkers(t *testing.T) {
	if err := workflow.NewManager(nil).Run(context.Background()); err == nil {
		t.Fatal("expected error for a manager without workers")
	}
}
