package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartRideConsumer connects to RabbitMQ, declares the ride queues
// (durable) and appends one human-readable line per event to
// logs/rides.log. It runs a reconnect loop with capped backoff and keeps
// the server operating through broker outages; call it in its own
// goroutine.
func StartRideConsumer(url string) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("ride-consumer: dial failed: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn); err != nil {
			log.Printf("ride-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("ride-consumer: set QoS failed: %v", err)
	}

	for _, name := range []string{RideBookedQueue, RideCompletedQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	booked, err := ch.Consume(RideBookedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", RideBookedQueue, err)
	}
	completed, err := ch.Consume(RideCompletedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", RideCompletedQueue, err)
	}

	for {
		select {
		case d, ok := <-booked:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			ack(d, handleBooked(d.Body))
		case d, ok := <-completed:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			ack(d, handleCompleted(d.Body))
		}
	}
}

func ack(d amqp.Delivery, err error) {
	if err != nil {
		log.Printf("ride-consumer: handle message failed: %v", err)
		_ = d.Nack(false, false) // reject without requeue to avoid tight loops
		return
	}
	_ = d.Ack(false)
}

func handleBooked(body []byte) error {
	var ev RideBookedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] Ride booked | ride_id=%s | user_id=%s | driver_id=%s | %s -> %s | fare=%.2f | %.2fkm | eta=%dmin\n",
		ev.BookedAt, ev.RideID, ev.UserID, ev.DriverID, ev.Pickup, ev.Dropoff, ev.Fare, ev.DistanceKm, ev.ETAMinutes)
	return appendLog(line)
}

func handleCompleted(body []byte) error {
	var ev RideCompletedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] Ride completed | ride_id=%s | user_id=%s | driver_id=%s | fare=%.2f\n",
		ev.CompletedAt, ev.RideID, ev.UserID, ev.DriverID, ev.Fare)
	return appendLog(line)
}

func appendLog(line string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "rides.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
