// Package worker consumes AI job deliveries with a bounded goroutine pool.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/reqmaster/reqmaster/internal/store/rabbitmq"
)

const DefaultMaxAttempts = 3

// Runner executes one job by id. AbandonJob settles a job whose deliveries
// are exhausted so it does not stay pending once dead-lettered.
type Runner interface {
	RunJob(ctx context.Context, jobID string) error
	AbandonJob(ctx context.Context, jobID string, cause error) error
}

// Retrier parks a failed delivery for another attempt.
type Retrier interface {
	Retry(ctx context.Context, d amqp.Delivery) error
}

type Pool struct {
	Runner      Runner
	Retrier     Retrier
	Concurrency int
	MaxAttempts int
}

// Run dispatches deliveries to Concurrency workers until ctx ends or the
// delivery channel closes, then waits for in-flight jobs.
func (p *Pool) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				p.handle(ctx, workerID, d)
			}
		}(i)
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Printf("delivery channel closed")
				return
			}
			select {
			case jobs <- d:
			case <-ctx.Done():
				_ = d.Nack(false, true)
				log.Printf("worker shutting down")
				return
			}
		}
	}
}

func (p *Pool) handle(ctx context.Context, workerID int, d amqp.Delivery) {
	m, err := rabbitmq.DecodeJob(d.Body)
	if err != nil || m.JobID == "" {
		log.Printf("worker=%d bad message: %v", workerID, err)
		_ = d.Nack(false, false)
		return
	}

	start := time.Now()
	err = p.Runner.RunJob(ctx, m.JobID)
	if err == nil {
		if err := d.Ack(false); err != nil {
			log.Printf("worker=%d ack failed job=%s err=%v", workerID, m.JobID, err)
		}
		log.Printf("worker=%d job=%s kind=%s cost=%s", workerID, m.JobID, m.Kind, time.Since(start))
		return
	}

	attempt := rabbitmq.Attempt(d)
	log.Printf("worker=%d job=%s attempt=%d failed cost=%s err=%v", workerID, m.JobID, attempt, time.Since(start), err)

	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if p.Retrier != nil && attempt < maxAttempts {
		rerr := p.Retrier.Retry(ctx, d)
		if rerr == nil {
			_ = d.Ack(false)
			return
		}
		log.Printf("worker=%d retry publish failed job=%s err=%v", workerID, m.JobID, rerr)
	}
	if aerr := p.Runner.AbandonJob(ctx, m.JobID, err); aerr != nil {
		log.Printf("worker=%d abandon failed job=%s err=%v", workerID, m.JobID, aerr)
	}
	// dead-letter to the DLQ
	_ = d.Nack(false, false)
}
