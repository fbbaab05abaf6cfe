package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackLog struct {
	mu      sync.Mutex
	acks    []uint64
	nacks   []uint64
	requeue []bool
}

func (a *ackLog) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks = append(a.acks, tag)
	return nil
}

func (a *ackLog) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks = append(a.nacks, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *ackLog) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type runner struct {
	mu        sync.Mutex
	ran       []string
	abandoned []string
	fail      map[string]error
}

func (r *runner) RunJob(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, id)
	return r.fail[id]
}

func (r *runner) AbandonJob(ctx context.Context, id string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.abandoned = append(r.abandoned, id)
	return nil
}

type retrier struct {
	mu    sync.Mutex
	count int
}

func (r *retrier) Retry(ctx context.Context, d amqp.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	return nil
}

func delivery(acks *ackLog, tag uint64, body string, attempt int32) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: acks,
		DeliveryTag:  tag,
		Body:         []byte(body),
		Headers:      amqp.Table{"x-attempt": attempt},
	}
}

func runPool(t *testing.T, p *Pool, ds ...amqp.Delivery) {
	t.Helper()
	ch := make(chan amqp.Delivery, len(ds))
	for _, d := range ds {
		ch <- d
	}
	close(ch)

	done := make(chan struct{})
	go func() {
		p.Run(context.Background(), ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop")
	}
}

func TestPool_AcksSuccessAndDeadLettersGarbage(t *testing.T) {
	acks := &ackLog{}
	r := &runner{}
	runPool(t, &Pool{Runner: r, Concurrency: 3},
		delivery(acks, 1, `{"job_id":"a","kind":"parse_document"}`, 1),
		delivery(acks, 2, `{"job_id":"b","kind":"parse_document"}`, 1),
		delivery(acks, 3, `not json`, 1),
		delivery(acks, 4, `{"kind":"parse_document"}`, 1),
	)

	assert.ElementsMatch(t, []string{"a", "b"}, r.ran)
	assert.ElementsMatch(t, []uint64{1, 2}, acks.acks)
	assert.ElementsMatch(t, []uint64{3, 4}, acks.nacks)
	assert.Empty(t, r.abandoned)
	for _, rq := range acks.requeue {
		assert.False(t, rq)
	}
}

func TestPool_RetriesThenDeadLetters(t *testing.T) {
	acks := &ackLog{}
	rt := &retrier{}
	r := &runner{fail: map[string]error{"a": errors.New("db down")}}
	runPool(t, &Pool{Runner: r, Retrier: rt, Concurrency: 1, MaxAttempts: 3},
		delivery(acks, 1, `{"job_id":"a"}`, 1),
		delivery(acks, 2, `{"job_id":"a"}`, 3),
	)

	require.Equal(t, 1, rt.count)
	assert.Equal(t, []uint64{1}, acks.acks)
	assert.Equal(t, []uint64{2}, acks.nacks)
	// only the exhausted delivery settles the job
	assert.Equal(t, []string{"a"}, r.abandoned)
}

func TestPool_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan amqp.Delivery)
	done := make(chan struct{})
	go func() {
		(&Pool{Runner: &runner{}, Concurrency: 2}).Run(ctx, ch)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop")
	}
}
