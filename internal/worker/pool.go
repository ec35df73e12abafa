package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"trainingload/internal/queue"
)

// Pool runs several processors against one queue
type Pool struct {
	Queue       JobQueue
	Processor   *Processor
	Concurrency int
	PollTimeout time.Duration
}

// Run starts the workers and blocks until ctx is done. A failing job is
// logged and does not stop its worker.
func (p *Pool) Run(ctx context.Context) error {
	n := p.Concurrency
	if n <= 0 {
		n = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		id := i + 1
		g.Go(func() error {
			return p.loop(ctx, id)
		})
	}
	return g.Wait()
}

func (p *Pool) loop(ctx context.Context, id int) error {
	timeout := p.PollTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	log.Printf("worker %d: started", id)
	defer log.Printf("worker %d: stopped", id)

	for {
		if ctx.Err() != nil {
			return nil
		}

		job, err := p.Queue.Dequeue(ctx, timeout)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("worker %d: dequeue: %v", id, err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		log.Printf("worker %d: processing job %s", id, job.ID)
		if _, err := p.Processor.Process(ctx, job); err != nil {
			continue
		}
	}
}
