package jobqueue

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

const (
	DefaultMaxRetries = 3
	// retentionCap bounds the number of finished jobs kept in memory.
	retentionCap = 1000
)

// Handler processes one job's payload. A returned error counts against
// the job's retry budget.
type Handler func(ctx context.Context, data any) (any, error)

type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      Status     `json:"status"`
	Data        any        `json:"data"`
	Result      any        `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	Retries     int        `json:"retries"`
	MaxRetries  int        `json:"maxRetries"`
	Priority    int        `json:"priority"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	seq uint64 // insertion order, tie-break for equal priorities
}

type Options struct {
	Priority   int
	MaxRetries int // defaults to DefaultMaxRetries when zero
}

type Stats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// Queue is a generic in-process job runner: priority-ordered dispatch on a
// fixed tick, bounded concurrency, fixed retry budget per job. State is
// in-memory only; jobs do not survive a restart.
type Queue struct {
	mu            sync.Mutex
	jobs          map[string]*Job
	handlers      map[string]Handler
	processing    map[string]struct{}
	maxConcurrent int
	tick          time.Duration
	nextSeq       uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(maxConcurrent int, tick time.Duration) *Queue {
	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		jobs:          make(map[string]*Job),
		handlers:      make(map[string]Handler),
		processing:    make(map[string]struct{}),
		maxConcurrent: maxConcurrent,
		tick:          tick,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// RegisterHandler associates a job type with its handler. Jobs of an
// unregistered type stay pending until a handler shows up.
func (q *Queue) RegisterHandler(jobType string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
	slog.Debug("Job handler registered", "type", jobType)
}

// Add enqueues a job and returns its ID.
func (q *Queue) Add(jobType string, data any, opts Options) string {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextSeq++
	job := &Job{
		ID:         fmt.Sprintf("%s-%d-%d", jobType, time.Now().UnixNano(), rand.Intn(10000)),
		Type:       jobType,
		Status:     StatusPending,
		Data:       data,
		MaxRetries: maxRetries,
		Priority:   opts.Priority,
		CreatedAt:  time.Now().UTC(),
		seq:        q.nextSeq,
	}
	q.jobs[job.ID] = job

	slog.Debug("Job added", "id", job.ID, "type", jobType, "priority", opts.Priority)

	return job.ID
}

func (q *Queue) Start() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		ticker := time.NewTicker(q.tick)
		defer ticker.Stop()

		for {
			select {
			case <-q.ctx.Done():
				return
			case <-ticker.C:
				q.dispatch()
			}
		}
	}()
}

// Stop halts dispatching and waits for in-flight handlers to finish.
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
}

// dispatch starts as many pending jobs as the concurrency cap allows,
// highest priority first, insertion order on ties.
func (q *Queue) dispatch() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.processing) < q.maxConcurrent {
		job := q.nextPendingLocked()
		if job == nil {
			return
		}

		handler := q.handlers[job.Type]
		now := time.Now().UTC()
		job.Status = StatusProcessing
		job.StartedAt = &now
		q.processing[job.ID] = struct{}{}

		q.wg.Add(1)
		go q.run(job, handler)
	}
}

func (q *Queue) nextPendingLocked() *Job {
	var best *Job
	for _, job := range q.jobs {
		if job.Status != StatusPending {
			continue
		}
		if _, ok := q.handlers[job.Type]; !ok {
			continue
		}
		if best == nil || job.Priority > best.Priority ||
			(job.Priority == best.Priority && job.seq < best.seq) {
			best = job
		}
	}
	return best
}

func (q *Queue) run(job *Job, handler Handler) {
	defer q.wg.Done()

	result, err := handler(q.ctx, job.Data)

	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.processing, job.ID)
	now := time.Now().UTC()

	if err != nil {
		job.Retries++
		if job.Retries < job.MaxRetries {
			// Back to pending for a future tick. No backoff.
			job.Status = StatusPending
			slog.Warn("Job failed, will retry", "id", job.ID, "type", job.Type,
				"retries", job.Retries, "max_retries", job.MaxRetries, "error", err)
		} else {
			job.Status = StatusFailed
			job.Error = err.Error()
			job.CompletedAt = &now
			slog.Error("Job failed permanently", "id", job.ID, "type", job.Type,
				"retries", job.Retries, "error", err)
		}
	} else {
		job.Status = StatusCompleted
		job.Result = result
		job.CompletedAt = &now
		slog.Debug("Job completed", "id", job.ID, "type", job.Type)
	}

	q.cleanupLocked()
}

// cleanupLocked purges finished jobs beyond the retention cap, oldest
// completion first.
func (q *Queue) cleanupLocked() {
	var finished []*Job
	for _, job := range q.jobs {
		if job.Status == StatusCompleted || job.Status == StatusFailed {
			finished = append(finished, job)
		}
	}
	if len(finished) <= retentionCap {
		return
	}

	sort.Slice(finished, func(i, j int) bool {
		ti, tj := finished[i].CompletedAt, finished[j].CompletedAt
		if ti == nil || tj == nil {
			return tj != nil
		}
		return ti.Before(*tj)
	})

	for _, job := range finished[:len(finished)-retentionCap] {
		delete(q.jobs, job.ID)
	}
}

// Cancel removes a job that has not been dispatched yet.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok || job.Status != StatusPending {
		return false
	}
	delete(q.jobs, id)
	return true
}

// Retry resets a terminally failed job to pending with a fresh retry
// budget.
func (q *Queue) Retry(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok || job.Status != StatusFailed {
		return false
	}
	job.Status = StatusPending
	job.Retries = 0
	job.Error = ""
	job.CompletedAt = nil
	return true
}

func (q *Queue) Get(id string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (q *Queue) ListByStatus(status Status) []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	var jobs []Job
	for _, job := range q.jobs {
		if job.Status == status {
			jobs = append(jobs, *job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].seq < jobs[j].seq })
	return jobs
}

func (q *Queue) GetStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := Stats{Total: len(q.jobs)}
	for _, job := range q.jobs {
		switch job.Status {
		case StatusPending:
			stats.Pending++
		case StatusProcessing:
			stats.Processing++
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats
}
