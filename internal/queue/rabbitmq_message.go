package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message pairs a decoded Job with the broker delivery it arrived on.
// Consumers must settle every message exactly once via Ack or Nack.
type Message struct {
	job      *Job
	delivery amqp.Delivery
}

func newMessage(job *Job, delivery amqp.Delivery) *Message {
	return &Message{job: job, delivery: delivery}
}

// Job returns the decoded job payload.
func (m *Message) Job() *Job {
	return m.job
}

// Ack marks the message as processed.
func (m *Message) Ack() error {
	return m.delivery.Ack(false)
}

// Nack rejects the message. With requeue false the broker dead-letters it.
func (m *Message) Nack(requeue bool) error {
	return m.delivery.Nack(false, requeue)
}
