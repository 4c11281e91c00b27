package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
)

func TestTaskTypes(t *testing.T) {
	if TaskTypeProjectCascade != "project:cascade" {
		t.Errorf("TaskTypeProjectCascade = %q, expected %q", TaskTypeProjectCascade, "project:cascade")
	}
	if TaskTypeReconcile != "reconcile:run" {
		t.Errorf("TaskTypeReconcile = %q, expected %q", TaskTypeReconcile, "reconcile:run")
	}
}

func TestNewMaintenanceTask(t *testing.T) {
	task, err := NewMaintenanceTask(&MaintenanceTask{Kind: TaskTypeProjectCascade, ProjectID: 10, RequestedBy: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskTypeProjectCascade {
		t.Errorf("Type() = %q, expected %q", task.Type(), TaskTypeProjectCascade)
	}

	var decoded MaintenanceTask
	if err := json.Unmarshal(task.Payload(), &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded.ProjectID != 10 || decoded.RequestedBy != 2 {
		t.Errorf("unexpected payload %+v", decoded)
	}

	if _, err := NewMaintenanceTask(&MaintenanceTask{Kind: "review:process"}); err == nil {
		t.Error("unknown kinds should be rejected")
	}
}

func TestSyncQueue_IsAsync(t *testing.T) {
	if NewSyncQueue().IsAsync() {
		t.Error("SyncQueue.IsAsync() should return false")
	}
	if !(&AsyncQueue{}).IsAsync() {
		t.Error("AsyncQueue.IsAsync() should return true")
	}
}

func TestSyncQueue_EnqueueWithoutProcessor(t *testing.T) {
	queue := NewSyncQueue()
	if err := queue.Enqueue(&MaintenanceTask{Kind: TaskTypeReconcile}); err != nil {
		t.Errorf("Enqueue without processor should not error, got %v", err)
	}
}

func TestSyncQueue_RunsProcessor(t *testing.T) {
	queue := NewSyncQueue()
	var calls atomic.Int32
	var lastProject atomic.Uint32
	queue.SetProcessor(func(ctx context.Context, task *MaintenanceTask) error {
		calls.Add(1)
		lastProject.Store(uint32(task.ProjectID))
		return nil
	})

	if err := queue.Enqueue(&MaintenanceTask{Kind: TaskTypeProjectCascade, ProjectID: 7}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := queue.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("processor called %d times, expected 1", calls.Load())
	}
	if lastProject.Load() != 7 {
		t.Errorf("processor saw project %d, expected 7", lastProject.Load())
	}
}

func TestSyncQueue_ProcessorErrorIsNotReturned(t *testing.T) {
	queue := NewSyncQueue()
	queue.SetProcessor(func(ctx context.Context, task *MaintenanceTask) error {
		return errors.New("boom")
	})

	if err := queue.Enqueue(&MaintenanceTask{Kind: TaskTypeReconcile}); err != nil {
		t.Errorf("Enqueue should not surface processor errors, got %v", err)
	}
	_ = queue.Close()
}
