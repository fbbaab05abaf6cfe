package rabbitmq

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const attemptHeader = "x-attempt"

// DefaultRetryDelay is how long a failed job waits in the retry queue.
const DefaultRetryDelay = 10 * time.Second

type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	// amqp channels are not safe for concurrent publishing
	mu sync.Mutex

	RetryDelay time.Duration
}

type JobMessage struct {
	JobID string `json:"job_id"`
	Kind  string `json:"kind"`
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := Declare(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue, RetryDelay: DefaultRetryDelay}, nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *Publisher) PublishJob(ctx context.Context, msg JobMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.publish(ctx, p.queue, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Timestamp:    time.Now(),
		Headers:      amqp.Table{attemptHeader: int32(1)},
	})
}

// Retry parks d in the retry queue; it returns to the main queue after RetryDelay.
func (p *Publisher) Retry(ctx context.Context, d amqp.Delivery) error {
	_, retryQ, _ := Names(p.queue)
	delay := p.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return p.publish(ctx, retryQ, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Body:         d.Body,
		Timestamp:    time.Now(),
		Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
		Headers:      amqp.Table{attemptHeader: int32(Attempt(d) + 1)},
	})
}

func (p *Publisher) publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(cctx,
		"",         // default exchange
		routingKey, // routing key = queue
		false,
		false,
		msg,
	)
}

// Attempt reads the delivery attempt counter; messages without it count as the first attempt.
func Attempt(d amqp.Delivery) int {
	switch v := d.Headers[attemptHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 1
}

// DecodeJob parses a delivery body.
func DecodeJob(body []byte) (JobMessage, error) {
	var m JobMessage
	err := json.Unmarshal(body, &m)
	return m, err
}
