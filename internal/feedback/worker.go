package feedback

import (
	"context"
	"time"
)

const (
	// DefaultMaxAttempts is the attempt count at which an entry is given
	// up on and moved to the failure log.
	DefaultMaxAttempts = 3
	// DefaultMaxAge is the entry age at which it is given up on
	// regardless of attempt count.
	DefaultMaxAge = 24 * time.Hour
	// DefaultRetryInterval is how often the worker wakes up to scan the
	// queue for due entries.
	DefaultRetryInterval = 30 * time.Second
	// maxRetriesPerCycle bounds how many due entries a single tick
	// processes, so one slow submitter can't starve the tick's own
	// deadline.
	maxRetriesPerCycle = 10
)

// WorkerConfig tunes the background retry loop.
type WorkerConfig struct {
	RetryInterval time.Duration
	MaxAttempts   int
	MaxAge        time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	return c
}

// Worker runs the periodic retry loop against a Queue.
type Worker struct {
	queue     *Queue
	submitter Submitter
	cfg       WorkerConfig
}

// NewWorker builds a Worker. submitter must not be nil.
func NewWorker(queue *Queue, submitter Submitter, cfg WorkerConfig) *Worker {
	return &Worker{queue: queue, submitter: submitter, cfg: cfg.withDefaults()}
}

// Run blocks, ticking every cfg.RetryInterval until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.RetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce processes a single cycle: it selects up to maxRetriesPerCycle
// due entries (oldest first), retries each, and either removes it on
// success, reschedules it on a transient failure, or moves it to the
// failure log once it has exhausted its attempts or aged out.
func (w *Worker) RunOnce() {
	w.queue.mu.Lock()
	now := time.Now().UTC()
	due := make([]*Entry, 0, maxRetriesPerCycle)
	for _, e := range w.queue.sortedByAgeLocked() {
		if len(due) >= maxRetriesPerCycle {
			break
		}
		if !e.NextAttempt.After(now) {
			due = append(due, e)
		}
	}
	w.queue.mu.Unlock()

	for _, e := range due {
		w.processOne(e)
	}
}

func (w *Worker) processOne(e *Entry) {
	err := w.submitter.Submit(e.Payload)

	w.queue.mu.Lock()
	defer w.queue.mu.Unlock()

	// The entry may have been removed or replaced between selection and
	// processing (e.g. by a concurrent Enqueue eviction); re-check.
	current, ok := w.queue.entries[e.ID]
	if !ok {
		return
	}

	if err == nil {
		delete(w.queue.entries, current.ID)
		_ = w.queue.persistLocked()
		return
	}

	current.Attempts++
	current.LastError = err.Error()
	current.NextAttempt = time.Now().UTC().Add(backoffForAttempt(current.Attempts))

	if current.Attempts >= w.cfg.MaxAttempts || time.Since(current.CreatedAt) > w.cfg.MaxAge {
		_ = w.queue.appendFailureLocked(current, err.Error())
	}
	_ = w.queue.persistLocked()
}
