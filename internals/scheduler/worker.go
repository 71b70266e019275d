package scheduler

import (
	"log"
	"time"

	"github.com/scrimspace/scrim-server/pkg/jobqueue"
)

type HandlerFunc func(job jobqueue.Job) error

// Worker polls the queue and dispatches due jobs by name. Handlers must be
// idempotent: the queue is at-least-once and retried jobs re-fire whole.
type Worker struct {
	Queue    jobqueue.Queue
	Handlers map[string]HandlerFunc
	// Ready gates execution on the external context (e.g. the amqp
	// connection). While false, due jobs are pushed back untouched.
	Ready         func() bool
	Interval      time.Duration
	RetryDelay    time.Duration
	NotReadyDelay time.Duration
	MaxAttempts   int
}

func NewWorker(q jobqueue.Queue, handlers map[string]HandlerFunc, ready func() bool) *Worker {
	return &Worker{
		Queue:         q,
		Handlers:      handlers,
		Ready:         ready,
		Interval:      time.Second,
		RetryDelay:    30 * time.Second,
		NotReadyDelay: 10 * time.Second,
		MaxAttempts:   5,
	}
}

func (w *Worker) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			w.tick(now)
		}
	}
}

func (w *Worker) tick(now time.Time) {
	jobs, err := w.Queue.ClaimDue(now)
	if err != nil {
		log.Printf("error claiming due jobs: %v", err)
		return
	}

	for _, job := range jobs {
		if w.Ready != nil && !w.Ready() {
			// Re-delay without counting an attempt; the job is not at fault.
			delayed := job
			delayed.RunAt = now.Add(w.NotReadyDelay)
			if err := w.Queue.Requeue(job, delayed); err != nil {
				log.Printf("error re-enqueueing job %s while not ready: %v", job.Key, err)
			}
			continue
		}

		handler, ok := w.Handlers[job.Name]
		if !ok {
			log.Printf("no handler for job %s (%s), dropping", job.Key, job.Name)
			if err := w.Queue.Finish(job); err != nil {
				log.Printf("error dropping job %s: %v", job.Key, err)
			}
			continue
		}

		if err := handler(job); err != nil {
			retry := job
			retry.Attempts++
			if retry.Attempts >= w.MaxAttempts {
				log.Printf("FATAL: job %s (%s) for %s failed after %d attempts: %v",
					job.Key, job.Name, job.Payload, retry.Attempts, err)
				if err := w.Queue.Finish(job); err != nil {
					log.Printf("error dropping job %s: %v", job.Key, err)
				}
				continue
			}
			retry.RunAt = now.Add(w.RetryDelay)
			// Requeue keeps a job the handler itself replaced, so a schedule
			// written mid-run wins over the retry.
			if err := w.Queue.Requeue(job, retry); err != nil {
				log.Printf("error re-enqueueing failed job %s: %v", job.Key, err)
			}
			continue
		}

		if err := w.Queue.Finish(job); err != nil {
			log.Printf("error finishing job %s: %v", job.Key, err)
		}
	}
}
