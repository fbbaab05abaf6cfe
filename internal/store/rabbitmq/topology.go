package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Names derives the retry and dead-letter queue names from the main queue.
func Names(queue string) (main, retry, dlq string) {
	return queue, queue + ".retry", queue + ".dlq"
}

// Declare sets up the three queues shared by publisher and consumer:
// rejected messages go to the DLQ, expired retry messages go back to main.
func Declare(ch *amqp.Channel, queue string) error {
	mainQ, retryQ, dlqQ := Names(queue)

	if _, err := ch.QueueDeclare(
		dlqQ,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		nil,
	); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(
		retryQ,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": mainQ,
		},
	); err != nil {
		return err
	}

	_, err := ch.QueueDeclare(
		mainQ,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlqQ,
		},
	)
	return err
}
