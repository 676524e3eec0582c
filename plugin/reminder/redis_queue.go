package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// addScript queues a job only when its key is not in the sorted set.
var addScript = redis.NewScript(`
if redis.call('ZADD', KEYS[1], 'NX', ARGV[1], ARGV[2]) == 1 then
  redis.call('HSET', KEYS[2], ARGV[2], ARGV[3])
  return 1
end
return 0
`)

// claimScript removes a key from the sorted set and returns its body.
// Only the caller whose ZREM succeeds gets the body.
var claimScript = redis.NewScript(`
if redis.call('ZREM', KEYS[1], ARGV[1]) == 1 then
  local data = redis.call('HGET', KEYS[2], ARGV[1])
  redis.call('HDEL', KEYS[2], ARGV[1])
  return data
end
return false
`)

// RedisQueue is a Queue shared by every bot instance. Job keys live in a
// sorted set scored by due time and job bodies in a hash.
type RedisQueue struct {
	client  *redis.Client
	dueKey  string
	dataKey string
	logger  *slog.Logger
}

// NewRedisQueue creates a queue whose keys start with prefix.
func NewRedisQueue(client *redis.Client, prefix string) *RedisQueue {
	return &RedisQueue{
		client:  client,
		dueKey:  prefix + "jobs:due",
		dataKey: prefix + "jobs:data",
		logger:  slog.Default(),
	}
}

func (q *RedisQueue) Add(ctx context.Context, job *Job) (bool, error) {
	assignJobID(job)

	data, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("marshal job: %w", err)
	}

	added, err := addScript.Run(ctx, q.client, []string{q.dueKey, q.dataKey}, job.DueTs, job.Key(), data).Int()
	if err != nil {
		return false, fmt.Errorf("add job %s: %w", job.Key(), err)
	}
	return added == 1, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, job *Job) error {
	assignJobID(job)

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	key := job.Key()
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.dataKey, key, data)
		pipe.ZAdd(ctx, q.dueKey, redis.Z{Score: float64(job.DueTs), Member: key})
		return nil
	})
	if err != nil {
		return fmt.Errorf("enqueue job %s: %w", key, err)
	}
	return nil
}

func (q *RedisQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]*Job, error) {
	keys, err := q.client.ZRangeByScore(ctx, q.dueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list due jobs: %w", err)
	}

	jobs := make([]*Job, 0, len(keys))
	for _, key := range keys {
		data, err := claimScript.Run(ctx, q.client, []string{q.dueKey, q.dataKey}, key).Text()
		if errors.Is(err, redis.Nil) {
			// Claimed by another worker.
			continue
		}
		if err != nil {
			return jobs, fmt.Errorf("claim job %s: %w", key, err)
		}

		var job Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			q.logger.Warn("dropping malformed job", "key", key, "error", err)
			continue
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.ZCard(ctx, q.dueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return int(n), nil
}
