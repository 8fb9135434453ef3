// Package notify publishes the daily quest-count signal the external
// push-notification scheduler consumes. The signal carries no sync state;
// losing one only delays a reminder, so publish failures are never fatal.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// QueueName is the durable queue the scheduler reads from.
const QueueName = "questCountQueue"

// Signal is the message body published after each quest completion.
type Signal struct {
	UserID              string `json:"userId"`
	TodayCompletedCount int    `json:"todayCompletedCount"`
	Date                string `json:"date"`
}

// Producer publishes quest-count signals. Core treats a nil Producer as
// "notifications disabled".
type Producer interface {
	Publish(signal Signal) error
	Close() error
}

// AMQPProducer publishes signals to a RabbitMQ queue.
type AMQPProducer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

// NewAMQPProducer dials the broker and declares the durable signal queue.
func NewAMQPProducer(url string) (*AMQPProducer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQPProducer{conn: conn, channel: ch, queue: q}, nil
}

// Publish sends one signal as JSON.
func (p *AMQPProducer) Publish(signal Signal) error {
	body, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("failed to encode signal: %w", err)
	}
	err = p.channel.Publish(
		"",           // exchange
		p.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPProducer) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
