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

	"github.com/iamjiwoo/subway-priority-seat/internal/hub"
	"github.com/iamjiwoo/subway-priority-seat/internal/model"
	"github.com/iamjiwoo/subway-priority-seat/internal/seatmap"
)

// StartSeatStatusConsumer connects to RabbitMQ, declares the
// seat.status.changed queue (durable), and starts consuming messages.
// Each message is appended to logs/seat-status.log in a single-line,
// human-friendly format. An in-memory seat map mirrors the consumed
// stream so that broker redeliveries and reordered duplicates are
// recognised and skipped instead of producing repeat audit lines.
// The function runs a reconnect loop; it keeps running and logs any
// processing errors while rejecting the offending message so the
// server continues operating.  An empty url falls back to
// DefaultBrokerURL.
func StartSeatStatusConsumer(url string) error {
	if url == "" {
		url = DefaultBrokerURL
	}

	mirror := seatmap.New()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("seat-status-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, mirror); err != nil {
			log.Printf("seat-status-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, mirror *seatmap.SeatMap) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("seat-status-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(SeatStatusQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(SeatStatusQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(mirror, d.Body); err != nil {
			log.Printf("seat-status-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(mirror *seatmap.SeatMap, body []byte) error {
	var ev SeatStatusChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if !mirror.Apply(hub.SeatStatusUpdated(mirrorSeat(ev))) {
		// Redelivered or stale duplicate; already audited.
		return nil
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "seat-status.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	resRef := "-"
	if ev.ReservationID != "" {
		resRef = ev.ReservationID
	}

	line := fmt.Sprintf("[%s] Seat status changed | seat=%s | train=%s | car=%d | number=%d | %s -> %s | source=%s | reservation=%s\n",
		ev.OccurredAt, ev.SeatID, ev.TrainNumber, ev.CarNumber, ev.SeatNumber, ev.OldStatus, ev.NewStatus, ev.Source, resRef)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// mirrorSeat projects a queue event onto a seat record for the
// consumer's mirror.  Only the fields the event carries are filled;
// that is enough for the staleness and duplicate checks, which key on
// ID and the occurred-at timestamp.
func mirrorSeat(ev SeatStatusChangedEvent) model.Seat {
	occurred, err := time.Parse(time.RFC3339, ev.OccurredAt)
	if err != nil {
		occurred = time.Now().UTC()
	}
	seat := model.Seat{
		ID:          ev.SeatID,
		TrainNumber: ev.TrainNumber,
		CarNumber:   ev.CarNumber,
		SeatNumber:  ev.SeatNumber,
		Status:      ev.NewStatus,
		UpdatedAt:   occurred,
	}
	if ev.NewStatus == model.SeatReserved && ev.ReservationID != "" {
		rid := ev.ReservationID
		seat.CurrentReservationID = &rid
	}
	return seat
}
