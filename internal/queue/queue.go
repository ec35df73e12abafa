// Package queue is a Redis list-backed job queue for workout analysis.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"trainingload/internal/analysis"
)

// ErrEmpty is returned by Dequeue when no job arrives before the timeout
var ErrEmpty = errors.New("queue is empty")

// ErrJobNotFound is returned when a job id is unknown
var ErrJobNotFound = errors.New("job not found")

// State is a job's position in its lifecycle
type State string

const (
	StateWaiting   State = "waiting"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Job asks a worker to analyze one stored activity file
type Job struct {
	ID         string        `json:"id"`
	UserID     int64         `json:"userId"`
	FileName   string        `json:"fileName"`
	Mode       analysis.Mode `json:"mode"`
	EnqueuedAt time.Time     `json:"enqueuedAt"`
}

// Status is the stored state of a job
type Status struct {
	Job       Job
	State     State
	Result    string // JSON summary when completed, error text when failed
	UpdatedAt time.Time
}

// Queue pushes and pops jobs on a Redis list
type Queue struct {
	client *redis.Client
	name   string
}

// Connect opens a client from a redis:// URL and checks it with PING
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// New returns a queue stored under the given key prefix
func New(client *redis.Client, name string) *Queue {
	if name == "" {
		name = "workouts"
	}
	return &Queue{client: client, name: name}
}

func (q *Queue) waitKey() string {
	return q.name + ":wait"
}

func (q *Queue) jobKey(id string) string {
	return q.name + ":job:" + id
}

// Enqueue stores the job as waiting and pushes it. A missing id is filled
// with a new UUID; the stored job is returned.
func (q *Queue) Enqueue(ctx context.Context, job Job) (Job, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	data, err := json.Marshal(job)
	if err != nil {
		return Job{}, fmt.Errorf("encoding job: %w", err)
	}

	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.jobKey(job.ID),
			"data", data,
			"state", string(StateWaiting),
			"updated_at", job.EnqueuedAt.Format(time.RFC3339Nano),
		)
		pipe.LPush(ctx, q.waitKey(), job.ID)
		return nil
	})
	if err != nil {
		return Job{}, fmt.Errorf("enqueueing job %s: %w", job.ID, err)
	}
	return job, nil
}

// Dequeue blocks up to timeout for the oldest waiting job and marks it
// active. Timeouts below a second are rounded up by Redis.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (Job, error) {
	res, err := q.client.BRPop(ctx, timeout, q.waitKey()).Result()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrEmpty
	}
	if err != nil {
		return Job{}, fmt.Errorf("popping job: %w", err)
	}
	// res is [key, value]
	id := res[1]

	status, err := q.Status(ctx, id)
	if err != nil {
		return Job{}, err
	}
	if err := q.SetState(ctx, id, StateActive, ""); err != nil {
		return Job{}, err
	}
	return status.Job, nil
}

// Requeue hands a dequeued job back as waiting. It goes to the consuming
// end of the list so it is the next job out.
func (q *Queue) Requeue(ctx context.Context, id string) error {
	n, err := q.client.Exists(ctx, q.jobKey(id)).Result()
	if err != nil {
		return fmt.Errorf("checking job %s: %w", id, err)
	}
	if n == 0 {
		return ErrJobNotFound
	}

	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.jobKey(id),
			"state", string(StateWaiting),
			"updated_at", time.Now().UTC().Format(time.RFC3339Nano),
		)
		pipe.RPush(ctx, q.waitKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("requeueing job %s: %w", id, err)
	}
	return nil
}

// SetState records a job's new state and, for finished jobs, its result
func (q *Queue) SetState(ctx context.Context, id string, state State, result string) error {
	key := q.jobKey(id)

	n, err := q.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("checking job %s: %w", id, err)
	}
	if n == 0 {
		return ErrJobNotFound
	}

	err = q.client.HSet(ctx, key,
		"state", string(state),
		"result", result,
		"updated_at", time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("updating job %s: %w", id, err)
	}
	return nil
}

// Status returns the stored job and its state
func (q *Queue) Status(ctx context.Context, id string) (Status, error) {
	fields, err := q.client.HGetAll(ctx, q.jobKey(id)).Result()
	if err != nil {
		return Status{}, fmt.Errorf("reading job %s: %w", id, err)
	}
	if len(fields) == 0 {
		return Status{}, ErrJobNotFound
	}

	var s Status
	if err := json.Unmarshal([]byte(fields["data"]), &s.Job); err != nil {
		return Status{}, fmt.Errorf("decoding job %s: %w", id, err)
	}
	s.State = State(fields["state"])
	s.Result = fields["result"]
	if t, err := time.Parse(time.RFC3339Nano, fields["updated_at"]); err == nil {
		s.UpdatedAt = t
	} else {
		log.Printf("job %s: bad updated_at %q", id, fields["updated_at"])
	}
	return s, nil
}

// Len returns the number of waiting jobs
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.waitKey()).Result()
}
