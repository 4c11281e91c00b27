package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/carlos-juma/branch.it-IMY220/internal/config"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/hibiken/asynq"
)

const (
	TaskTypeProjectCascade = "project:cascade"
	TaskTypeReconcile      = "reconcile:run"
)

// MaintenanceTask is a background repair job.
type MaintenanceTask struct {
	Kind        string `json:"kind"` // project:cascade, reconcile:run
	ProjectID   uint   `json:"project_id,omitempty"`
	RequestedBy uint   `json:"requested_by,omitempty"`
}

// TaskProcessor handles one maintenance task.
type TaskProcessor func(context.Context, *MaintenanceTask) error

// TaskQueue defines how maintenance tasks are dispatched.
type TaskQueue interface {
	Enqueue(task *MaintenanceTask) error
	// IsAsync reports whether tasks leave the process through Redis.
	IsAsync() bool
	Close() error
}

var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue picks the asynq queue when Redis is enabled and reachable,
// and the in-process queue otherwise.
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

func redisClientOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue implements TaskQueue on asynq.
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := redisClientOpt(cfg)
	client := asynq.NewClient(redisOpt)

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// NewMaintenanceTask encodes task for asynq. The task kind doubles as the
// asynq type name.
func NewMaintenanceTask(task *MaintenanceTask) (*asynq.Task, error) {
	switch task.Kind {
	case TaskTypeProjectCascade, TaskTypeReconcile:
	default:
		return nil, fmt.Errorf("unknown maintenance task %q", task.Kind)
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(task.Kind, payload), nil
}

func (q *AsyncQueue) Enqueue(task *MaintenanceTask) error {
	t, err := NewMaintenanceTask(task)
	if err != nil {
		return err
	}

	info, err := q.client.Enqueue(t,
		asynq.Queue("maintenance"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Task enqueued: id=%s, type=%s", info.ID, task.Kind)
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs tasks in a goroutine of this process.
type SyncQueue struct {
	processor TaskProcessor
	wg        sync.WaitGroup
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

func (q *SyncQueue) SetProcessor(processor TaskProcessor) {
	q.processor = processor
}

func (q *SyncQueue) Enqueue(task *MaintenanceTask) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] no processor set, dropping %s task", task.Kind)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Errorf("[SyncQueue] %s task failed: %v", task.Kind, err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight tasks.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
