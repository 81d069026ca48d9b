package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer drains BookingQueue and appends one line per event to a log
// file.
type Consumer struct {
	url     string
	logPath string
	log     logrus.FieldLogger
}

// NewConsumer returns a consumer writing to logPath, typically
// logs/booking.log.
func NewConsumer(url, logPath string, log logrus.FieldLogger) *Consumer {
	return &Consumer{url: url, logPath: logPath, log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Broker
// failures are retried with backoff; a message that cannot be handled is
// rejected without requeue.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).Warnf("booking-consumer: dial failed, retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.log.WithError(err).Warn("booking-consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.WithError(err).Warn("booking-consumer: set QoS failed")
	}
	if _, err := declare(ch); err != nil {
		return err
	}
	msgs, err := ch.ConsumeWithContext(ctx, BookingQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.log.WithError(err).Error("booking-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and appends it to the log file.
func (c *Consumer) Handle(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return WriteLine(f, ev)
}

// WriteLine formats ev as a single human-readable log line.
func WriteLine(w io.Writer, ev BookingEvent) error {
	seats := "[" + strings.Join(ev.Seats, ",") + "]"
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | user_id=%d | movie_id=%d | showtime_id=%d | room_id=%d",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.UserID, ev.MovieID, ev.ShowtimeID, ev.RoomID)
	if len(ev.TicketIDs) > 0 {
		ids := make([]string, len(ev.TicketIDs))
		for i, id := range ev.TicketIDs {
			ids[i] = fmt.Sprint(id)
		}
		fmt.Fprintf(&b, " | tickets=[%s]", strings.Join(ids, ","))
	}
	if ev.ReservationID != 0 {
		fmt.Fprintf(&b, " | reservation_id=%d", ev.ReservationID)
	}
	if ev.Code != "" {
		fmt.Fprintf(&b, " | code=%s", ev.Code)
	}
	if ev.OrderID != 0 {
		fmt.Fprintf(&b, " | order_id=%d", ev.OrderID)
	}
	fmt.Fprintf(&b, " | amount=%d | seats=%s\n", ev.Amount, seats)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
