package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/pdf-processor/config"
)

const TaskTypeExtract = "pdf:extract"

// Queue names by priority, highest first.
var queues = []string{"critical", "default", "low"}

// Weights used by worker servers.
var QueueWeights = map[string]int{
	"critical": 6,
	"default":  3,
	"low":      1,
}

var (
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskFinished is returned when cancelling a task that already reached a final state.
	ErrTaskFinished = errors.New("task already finished")
)

type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
	CancelTask(ctx context.Context, taskID string) error
	SaveStatus(ctx context.Context, status *TaskStatus) error
}

// Payload describes the uploaded file a task works on.
type Payload struct {
	FileKey  string `json:"fileKey"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Mode     string `json:"mode"`
}

type Task struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Priority  int               `json:"priority"`
	Payload   Payload           `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Task states as stored in Redis.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

type TaskStatus struct {
	TaskID     string    `json:"taskId"`
	Status     string    `json:"status"`
	Progress   float64   `json:"progress"`
	Error      string    `json:"error,omitempty"`
	ResultKey  string    `json:"resultKey,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// Terminal reports whether the task will not change state any more.
func (s *TaskStatus) Terminal() bool {
	switch s.Status {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// AsynqQueue enqueues through asynq and keeps task status in Redis.
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
	cfg       config.QueueConfig
}

// RedisOpt returns the asynq connection options for cfg.
func RedisOpt(cfg config.QueueConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func NewAsynqQueue(cfg config.QueueConfig) *AsynqQueue {
	redisOpt := RedisOpt(cfg)
	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		cfg: cfg,
	}
}

// Ping checks that Redis is reachable.
func (q *AsynqQueue) Ping(ctx context.Context) error {
	if err := q.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis at %s: %w", q.cfg.RedisAddr, err)
	}
	return nil
}

func (q *AsynqQueue) Close() error {
	return errors.Join(q.client.Close(), q.inspector.Close(), q.redis.Close())
}

func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	opts := []asynq.Option{
		asynq.MaxRetry(q.cfg.MaxRetry),
		asynq.Timeout(q.cfg.Timeout),
		asynq.TaskID(task.ID),
		asynq.Queue(queueFor(task.Priority)),
		asynq.Retention(q.cfg.StatusTTL),
	}

	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(task.Type, payload), opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	task.ID = info.ID

	return nil
}

func queueFor(priority int) string {
	switch priority {
	case 1:
		return "critical"
	case 2:
		return "default"
	default:
		return "low"
	}
}

// GetTaskStatus prefers the status written by the service and falls back to asynq's
// own task state.
func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	data, err := q.redis.Get(ctx, statusKey(taskID)).Bytes()
	if err == nil {
		var status TaskStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status: %w", err)
		}
		return &status, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}

	for _, name := range queues {
		info, err := q.inspector.GetTaskInfo(name, taskID)
		if err == nil {
			return convertAsynqStatus(info), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}

// CancelTask removes a queued task, or signals a running one to stop, and records the
// cancellation.
func (q *AsynqQueue) CancelTask(ctx context.Context, taskID string) error {
	status, err := q.GetTaskStatus(ctx, taskID)
	if err != nil {
		return err
	}
	if status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrTaskFinished, taskID, status.Status)
	}

	deleted := false
	for _, name := range queues {
		if err := q.inspector.DeleteTask(name, taskID); err == nil {
			deleted = true
			break
		}
	}
	if !deleted {
		if err := q.inspector.CancelProcessing(taskID); err != nil {
			return fmt.Errorf("failed to cancel task: %w", err)
		}
	}

	status.Status = StateCancelled
	status.FinishedAt = time.Now()
	return q.SaveStatus(ctx, status)
}

func (q *AsynqQueue) SaveStatus(ctx context.Context, status *TaskStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if err := q.redis.Set(ctx, statusKey(status.TaskID), data, q.cfg.StatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}

func statusKey(taskID string) string {
	return fmt.Sprintf("task_status:%s", taskID)
}

func convertAsynqStatus(info *asynq.TaskInfo) *TaskStatus {
	status := &TaskStatus{
		TaskID:    info.ID,
		StartedAt: info.NextProcessAt,
		Error:     info.LastErr,
	}

	switch info.State {
	case asynq.TaskStateActive, asynq.TaskStateRetry:
		status.Status = StateRunning
		status.Progress = 0.5
	case asynq.TaskStateCompleted:
		status.Status = StateCompleted
		status.Progress = 1.0
		status.FinishedAt = info.CompletedAt
	case asynq.TaskStateArchived:
		status.Status = StateFailed
		status.FinishedAt = info.LastFailedAt
	default:
		status.Status = StatePending
	}

	return status
}
