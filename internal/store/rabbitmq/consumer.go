package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer owns the connection a worker reads deliveries from.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewConsumer declares the queue topology and applies QoS so that at most
// prefetch deliveries are unacknowledged at once.
func NewConsumer(url, queue string, prefetch int) (*Consumer, <-chan amqp.Delivery, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	c := &Consumer{conn: conn, ch: ch}

	if err := Declare(ch, queue); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, msgs, nil
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
