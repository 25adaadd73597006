package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

const (
	streamKey     = "emailagent:tasks"
	workerGroup   = "emailagent:workers"
	delayedSetKey = "emailagent:scheduled"

	taskPrefix     = "emailagent:task:"
	msgKeySuffix   = ":msg"
	consumerPrefix = "worker-"

	// taskTTL bounds how long task records linger after their last update
	taskTTL = 24 * time.Hour

	// abandonAfter is the idle time before another worker may steal a
	// claimed message
	abandonAfter = 5 * time.Minute
)

var _ driven.TaskQueue = (*Queue)(nil)

// Queue is the Redis Streams task queue. A consumer group tracks delivery
// per worker, delayed tasks wait in a sorted set keyed by due time, and
// the full task record lives in a plain key so status survives restarts.
type Queue struct {
	client       *redis.Client
	consumerName string
}

// NewQueue creates a Redis-backed task queue. consumerName must be unique
// per worker instance; when empty a timestamp-derived name is used.
func NewQueue(client *redis.Client, consumerName string) (*Queue, error) {
	if client == nil {
		return nil, errors.New("nil redis client")
	}
	if consumerName == "" {
		consumerName = fmt.Sprintf("%s%d", consumerPrefix, time.Now().UnixNano())
	}

	q := &Queue{client: client, consumerName: consumerName}

	err := q.client.XGroupCreateMkStream(context.Background(), streamKey, workerGroup, "0").Err()
	if err != nil && !isGroupExists(err) {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return q, nil
}

func taskKey(taskID string) string { return taskPrefix + taskID }

func msgKey(taskID string) string { return taskPrefix + taskID + msgKeySuffix }

// streamFields is the slim envelope published to the stream; consumers
// fetch the full record from the task key.
func streamFields(task *domain.Task) map[string]interface{} {
	return map[string]interface{}{
		"task_id":  task.ID,
		"type":     string(task.Type),
		"priority": task.Priority,
	}
}

// enqueueOne stages one task onto the pipeline, routing delayed tasks to
// the sorted set and everything else straight to the stream.
func (q *Queue) enqueueOne(ctx context.Context, pipe redis.Pipeliner, task *domain.Task, now time.Time) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.ID, err)
	}

	pipe.Set(ctx, taskKey(task.ID), data, taskTTL)

	if task.ScheduledFor.After(now) {
		pipe.ZAdd(ctx, delayedSetKey, redis.Z{
			Score:  float64(task.ScheduledFor.Unix()),
			Member: task.ID,
		})
	} else {
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: streamKey, Values: streamFields(task)})
	}

	return nil
}

// Enqueue adds a task to the queue.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return errors.New("nil task")
	}

	pipe := q.client.Pipeline()
	if err := q.enqueueOne(ctx, pipe, task, time.Now()); err != nil {
		return err
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

// EnqueueBatch adds multiple tasks in one round trip.
func (q *Queue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	pipe := q.client.Pipeline()
	now := time.Now()

	for _, task := range tasks {
		if task == nil {
			continue
		}
		if err := q.enqueueOne(ctx, pipe, task, now); err != nil {
			return err
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue batch: %w", err)
	}
	return nil
}

// Dequeue blocks until a task is available or the context ends.
func (q *Queue) Dequeue(ctx context.Context) (*domain.Task, error) {
	return q.DequeueWithTimeout(ctx, 0)
}

// DequeueWithTimeout retrieves the next task, waiting up to timeout seconds.
// A zero timeout blocks indefinitely.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	// Promotion is best effort; a missed cycle just delays the task one poll
	_ = q.promoteDueTasks(ctx)

	if task, err := q.stealAbandoned(ctx); err == nil && task != nil {
		return task, nil
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    workerGroup,
		Consumer: q.consumerName,
		Streams:  []string{streamKey, ">"},
		Count:    1,
		Block:    time.Duration(timeout) * time.Second,
	}).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("read stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}

	msg := streams[0].Messages[0]
	taskID, ok := msg.Values["task_id"].(string)
	if !ok {
		q.client.XAck(ctx, streamKey, workerGroup, msg.ID)
		return nil, nil
	}

	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task record: %w", err)
	}
	if task == nil {
		// Record expired out from under the stream entry
		q.client.XAck(ctx, streamKey, workerGroup, msg.ID)
		return nil, nil
	}

	q.markClaimed(ctx, task, msg.ID)
	return task, nil
}

// markClaimed flips the task to processing and remembers the stream
// message ID so Ack/Nack can settle it later.
func (q *Queue) markClaimed(ctx context.Context, task *domain.Task, msgID string) {
	task.MarkProcessing()
	data, _ := json.Marshal(task)
	q.client.Set(ctx, taskKey(task.ID), data, taskTTL)
	q.client.Set(ctx, msgKey(task.ID), msgID, taskTTL)
}

// Ack settles a task as completed and drops its stream entry.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	msgID, err := q.client.Get(ctx, msgKey(taskID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("get message ID: %w", err)
	}

	pipe := q.client.Pipeline()

	if msgID != "" {
		pipe.XAck(ctx, streamKey, workerGroup, msgID)
		pipe.XDel(ctx, streamKey, msgID)
	}

	if task, err := q.GetTask(ctx, taskID); err == nil && task != nil {
		task.MarkCompleted()
		data, _ := json.Marshal(task)
		pipe.Set(ctx, taskKey(taskID), data, taskTTL)
	}

	pipe.Del(ctx, msgKey(taskID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ack task: %w", err)
	}
	return nil
}

// Nack records a failure. Retryable tasks go back through the delayed set
// with the backoff the domain picked; exhausted tasks are marked failed.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return domain.ErrNotFound
	}

	msgID, _ := q.client.Get(ctx, msgKey(taskID)).Result()

	pipe := q.client.Pipeline()

	if msgID != "" {
		pipe.XAck(ctx, streamKey, workerGroup, msgID)
		pipe.XDel(ctx, streamKey, msgID)
	}

	if task.CanRetry() {
		task.Retry(reason)
		data, _ := json.Marshal(task)
		pipe.Set(ctx, taskKey(taskID), data, taskTTL)
		pipe.ZAdd(ctx, delayedSetKey, redis.Z{
			Score:  float64(task.ScheduledFor.Unix()),
			Member: task.ID,
		})
	} else {
		task.MarkFailed(reason)
		data, _ := json.Marshal(task)
		pipe.Set(ctx, taskKey(taskID), data, taskTTL)
	}

	pipe.Del(ctx, msgKey(taskID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("nack task: %w", err)
	}
	return nil
}

// GetTask retrieves a task record by ID. Missing records return nil, nil.
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	data, err := q.client.Get(ctx, taskKey(taskID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	var task domain.Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &task, nil
}

// scanTasks walks every task record and hands each to fn. fn returning
// false stops the walk.
func (q *Queue) scanTasks(ctx context.Context, fn func(key string, task *domain.Task) bool) error {
	var cursor uint64

	for {
		keys, next, err := q.client.Scan(ctx, cursor, taskPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan tasks: %w", err)
		}

		for _, key := range keys {
			if strings.HasSuffix(key, msgKeySuffix) {
				continue
			}

			data, err := q.client.Get(ctx, key).Result()
			if err != nil {
				continue
			}

			var task domain.Task
			if json.Unmarshal([]byte(data), &task) != nil {
				continue
			}

			if !fn(key, &task) {
				return nil
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// ListTasks retrieves tasks matching the filter. This scans the keyspace,
// so the dashboard is the only expected caller.
func (q *Queue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	var tasks []*domain.Task

	err := q.scanTasks(ctx, func(_ string, task *domain.Task) bool {
		if filter.Status != "" && task.Status != filter.Status {
			return true
		}
		if filter.Type != "" && task.Type != filter.Type {
			return true
		}
		tasks = append(tasks, task)
		return filter.Limit <= 0 || len(tasks) < filter.Limit
	})
	if err != nil {
		return nil, err
	}

	if filter.Offset >= len(tasks) {
		return []*domain.Task{}, nil
	}
	if filter.Offset > 0 {
		tasks = tasks[filter.Offset:]
	}

	return tasks, nil
}

// CancelTask marks a pending task as cancelled.
func (q *Queue) CancelTask(ctx context.Context, taskID string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return domain.ErrNotFound
	}

	switch task.Status {
	case domain.TaskStatusProcessing:
		return errors.New("task already picked up by a worker")
	case domain.TaskStatusCompleted, domain.TaskStatusFailed:
		return errors.New("task already settled")
	}

	pipe := q.client.Pipeline()
	pipe.ZRem(ctx, delayedSetKey, taskID)

	task.Status = domain.TaskStatusFailed
	task.Error = "cancelled"
	task.UpdatedAt = time.Now()
	data, _ := json.Marshal(task)
	pipe.Set(ctx, taskKey(taskID), data, taskTTL)

	_, err = pipe.Exec(ctx)
	return err
}

// PurgeTasks removes settled tasks whose last update is older than the cutoff.
func (q *Queue) PurgeTasks(ctx context.Context, olderThanSeconds int) (int, error) {
	cutoff := time.Now().Add(-time.Duration(olderThanSeconds) * time.Second)
	purged := 0

	err := q.scanTasks(ctx, func(key string, task *domain.Task) bool {
		settled := task.Status == domain.TaskStatusCompleted || task.Status == domain.TaskStatusFailed
		if settled && task.UpdatedAt.Before(cutoff) {
			q.client.Del(ctx, key)
			purged++
		}
		return true
	})

	return purged, err
}

// Stats reports queue depth and outcome counters. Completed and failed
// counts require a keyspace scan, so this is priced for dashboards, not
// hot paths.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	stats := &driven.QueueStats{}

	info, err := q.client.XInfoStream(ctx, streamKey).Result()
	switch {
	case err == nil:
		stats.PendingCount = int64(info.Length)
	case errors.Is(err, redis.Nil) || isStreamMissing(err):
		// Nothing enqueued yet
	default:
		return nil, fmt.Errorf("stream info: %w", err)
	}

	delayed, err := q.client.ZCard(ctx, delayedSetKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("delayed count: %w", err)
	}
	stats.PendingCount += delayed

	if groups, err := q.client.XInfoGroups(ctx, streamKey).Result(); err == nil {
		for _, group := range groups {
			if group.Name == workerGroup {
				stats.ProcessingCount = int64(group.Pending)
				break
			}
		}
	}

	var oldestPending time.Time
	_ = q.scanTasks(ctx, func(_ string, task *domain.Task) bool {
		switch task.Status {
		case domain.TaskStatusCompleted:
			stats.CompletedCount++
		case domain.TaskStatusFailed:
			stats.FailedCount++
		case domain.TaskStatusPending:
			if oldestPending.IsZero() || task.CreatedAt.Before(oldestPending) {
				oldestPending = task.CreatedAt
			}
		}
		return true
	})
	if !oldestPending.IsZero() {
		stats.OldestPendingAge = int64(time.Since(oldestPending).Seconds())
	}

	return stats, nil
}

// Ping checks Redis connectivity.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close is a no-op; the Redis client is shared and owned by the caller.
func (q *Queue) Close() error {
	return nil
}

// promoteDueTasks moves due entries from the delayed set onto the stream.
func (q *Queue) promoteDueTasks(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, delayedSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", time.Now().Unix()),
	}).Result()
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	pipe := q.client.Pipeline()

	for _, taskID := range due {
		task, err := q.GetTask(ctx, taskID)
		if err != nil || task == nil {
			pipe.ZRem(ctx, delayedSetKey, taskID)
			continue
		}

		pipe.XAdd(ctx, &redis.XAddArgs{Stream: streamKey, Values: streamFields(task)})
		pipe.ZRem(ctx, delayedSetKey, taskID)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// stealAbandoned claims a message another worker started but left idle
// past abandonAfter, so a crashed worker's task is not lost.
func (q *Queue) stealAbandoned(ctx context.Context) (*domain.Task, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: streamKey,
		Group:  workerGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
		Idle:   abandonAfter,
	}).Result()
	if err != nil {
		return nil, err
	}

	for _, p := range pending {
		claimed, err := q.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   streamKey,
			Group:    workerGroup,
			Consumer: q.consumerName,
			MinIdle:  abandonAfter,
			Messages: []string{p.ID},
		}).Result()
		if err != nil || len(claimed) == 0 {
			continue
		}

		msg := claimed[0]
		taskID, ok := msg.Values["task_id"].(string)
		if !ok {
			q.discardMessage(ctx, msg.ID)
			continue
		}

		task, err := q.GetTask(ctx, taskID)
		if err != nil || task == nil {
			q.discardMessage(ctx, msg.ID)
			continue
		}

		q.markClaimed(ctx, task, msg.ID)
		return task, nil
	}

	return nil, nil
}

func (q *Queue) discardMessage(ctx context.Context, msgID string) {
	q.client.XAck(ctx, streamKey, workerGroup, msgID)
	q.client.XDel(ctx, streamKey, msgID)
}

func isGroupExists(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func isStreamMissing(err error) bool {
	return err != nil && (err.Error() == "ERR no such key" ||
		err.Error() == "ERR The XINFO subcommand requires the key to exist")
}
