package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher pushes ride events to RabbitMQ. Publishing is fire-and-forget
// from the booking flow's point of view: errors are logged and returned
// but callers ignore them, so a broker outage never fails a booking. A
// Publisher with an empty URL is disabled and publishes nothing.
type Publisher struct {
	url string
}

func NewPublisher(url string) *Publisher { return &Publisher{url: url} }

// Enabled reports whether a broker URL is configured.
func (p *Publisher) Enabled() bool { return p != nil && p.url != "" }

// Publish JSON-encodes payload and sends it to the named durable queue.
// A fresh connection per publish keeps the happy path simple; event volume
// here is one message per booking, not a throughput concern.
func (p *Publisher) Publish(ctx context.Context, queueName string, payload any) error {
	if !p.Enabled() {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("publisher: marshal %s failed: %v", queueName, err)
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("publisher: dial failed for %s: %v", queueName, err)
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("publisher: channel open failed for %s: %v", queueName, err)
		return err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("publisher: queue declare %s failed: %v", queueName, err)
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = ch.PublishWithContext(pubCtx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		log.Printf("publisher: publish to %s failed: %v", queueName, err)
	}
	return err
}
