package notify

import (
	"context"
	"log"
	"time"
)

// Worker drains the outbox on an interval. One worker per process is
// enough; delivery order within a batch follows enqueue order.
type Worker struct {
	Queue       *Queue
	Mailer      Mailer
	Interval    time.Duration
	MaxAttempts int
	BatchSize   int
}

func NewWorker(q *Queue, m Mailer, interval time.Duration, maxAttempts int) *Worker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Worker{Queue: q, Mailer: m, Interval: interval, MaxAttempts: maxAttempts, BatchSize: 20}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain delivers one batch of pending result emails.
func (w *Worker) Drain(ctx context.Context) {
	tasks, err := w.Queue.Pending(ctx, w.BatchSize)
	if err != nil {
		log.Printf("notify: read outbox: %v", err)
		return
	}
	for _, t := range tasks {
		if err := w.Mailer.SendResult(ctx, t.Result); err != nil {
			log.Printf("notify: send result for submission %s (attempt %d): %v", t.SubmissionID, t.Attempts+1, err)
			if err := w.Queue.MarkFailed(ctx, t.ID, err.Error(), w.MaxAttempts); err != nil {
				log.Printf("notify: mark failed: %v", err)
			}
			continue
		}
		if err := w.Queue.MarkSent(ctx, t.ID); err != nil {
			log.Printf("notify: mark sent: %v", err)
		}
	}
}
