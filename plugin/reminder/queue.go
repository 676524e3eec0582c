package reminder

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// Job is a pending delivery of one reminder to one chat.
type Job struct {
	ID         string `json:"id"`
	ReminderID int32  `json:"reminder_id"`
	ChatID     int64  `json:"chat_id"`
	Text       string `json:"text"`
	// RemindTs is the reminder time the job was scheduled for.
	RemindTs int64 `json:"remind_ts"`
	// DueTs is when the job becomes eligible for delivery, in Unix seconds.
	DueTs   int64 `json:"due_ts"`
	Attempt int   `json:"attempt"`
}

// Key identifies the delivery. Enqueueing the same reminder for the same
// time twice replaces the earlier job.
func (j *Job) Key() string {
	return fmt.Sprintf("%d:%d", j.ReminderID, j.RemindTs)
}

// Queue holds jobs until they are due.
type Queue interface {
	// Add adds the job unless one with the same key is queued and
	// reports whether it did.
	Add(ctx context.Context, job *Job) (bool, error)
	// Enqueue adds the job, replacing any job with the same key.
	Enqueue(ctx context.Context, job *Job) error
	// PopDue removes and returns up to limit jobs due at or before now,
	// earliest first. A job is returned to exactly one caller.
	PopDue(ctx context.Context, now time.Time, limit int) ([]*Job, error)
	Len(ctx context.Context) (int, error)
}

func assignJobID(job *Job) {
	if job.ID == "" {
		job.ID = shortuuid.New()
	}
}

// MemoryQueue is a process-local Queue. Its jobs are lost on restart;
// Recovery puts them back.
type MemoryQueue struct {
	jobs map[string]*Job
	mu   sync.Mutex
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		jobs: make(map[string]*Job),
	}
}

func (q *MemoryQueue) Add(_ context.Context, job *Job) (bool, error) {
	assignJobID(job)

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.jobs[job.Key()]; ok {
		return false, nil
	}
	copied := *job
	q.jobs[job.Key()] = &copied
	return true, nil
}

func (q *MemoryQueue) Enqueue(_ context.Context, job *Job) error {
	assignJobID(job)

	q.mu.Lock()
	defer q.mu.Unlock()
	copied := *job
	q.jobs[job.Key()] = &copied
	return nil
}

func (q *MemoryQueue) PopDue(_ context.Context, now time.Time, limit int) ([]*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := now.Unix()
	due := make([]*Job, 0)
	for _, job := range q.jobs {
		if job.DueTs <= cutoff {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].DueTs != due[j].DueTs {
			return due[i].DueTs < due[j].DueTs
		}
		return due[i].ReminderID < due[j].ReminderID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	for _, job := range due {
		delete(q.jobs, job.Key())
	}
	return due, nil
}

func (q *MemoryQueue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs), nil
}
