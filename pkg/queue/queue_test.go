package queue

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"

	"github.com/feichai0017/pdf-processor/config"
)

func TestQueueFor(t *testing.T) {
	assert.Equal(t, "critical", queueFor(1))
	assert.Equal(t, "default", queueFor(2))
	assert.Equal(t, "low", queueFor(0))
	assert.Equal(t, "low", queueFor(9))
	for _, name := range queues {
		assert.Contains(t, QueueWeights, name)
	}
}

func TestConvertAsynqStatus(t *testing.T) {
	done := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		state    asynq.TaskState
		want     string
		progress float64
	}{
		{asynq.TaskStatePending, StatePending, 0},
		{asynq.TaskStateScheduled, StatePending, 0},
		{asynq.TaskStateActive, StateRunning, 0.5},
		{asynq.TaskStateRetry, StateRunning, 0.5},
		{asynq.TaskStateCompleted, StateCompleted, 1},
		{asynq.TaskStateArchived, StateFailed, 0},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			status := convertAsynqStatus(&asynq.TaskInfo{
				ID:          "t1",
				State:       tt.state,
				CompletedAt: done,
				LastErr:     "boom",
			})
			assert.Equal(t, "t1", status.TaskID)
			assert.Equal(t, tt.want, status.Status)
			assert.Equal(t, tt.progress, status.Progress)
			assert.Equal(t, "boom", status.Error)
		})
	}
}

func TestTaskStatus_Terminal(t *testing.T) {
	for state, want := range map[string]bool{
		StatePending:   false,
		StateRunning:   false,
		StateCompleted: true,
		StateFailed:    true,
		StateCancelled: true,
	} {
		assert.Equal(t, want, (&TaskStatus{Status: state}).Terminal(), state)
	}
}

func TestRedisOpt(t *testing.T) {
	opt := RedisOpt(configFor("redis:6380", "secret", 2))
	assert.Equal(t, "redis:6380", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.DB)
}

func configFor(addr, password string, db int) config.QueueConfig {
	return config.QueueConfig{RedisAddr: addr, RedisPassword: password, RedisDB: db}
}
