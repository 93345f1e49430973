package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taskflow/internal/models"
	"taskflow/internal/services"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	prefetchCount  = 20
)

// ErrMalformedNotification marks deliveries that can never succeed and are dropped.
var ErrMalformedNotification = errors.New("malformed notification")

// NotificationWorker drains the notification queue and sends the matching emails.
type NotificationWorker struct {
	url    string
	queue  string
	mailer services.Mailer
}

func NewNotificationWorker(url, queue string, mailer services.Mailer) *NotificationWorker {
	return &NotificationWorker{url: url, queue: queue, mailer: mailer}
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff whenever
// the broker connection drops.
func (w *NotificationWorker) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		conn, err := amqp.Dial(w.url)
		if err != nil {
			slog.Warn("notification worker: dial failed", "error", err, "retry_in", backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = initialBackoff

		err = w.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("notification worker: consume loop ended, reconnecting", "error", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (w *NotificationWorker) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		slog.Warn("notification worker: set QoS failed", "error", err)
	}
	if err := services.DeclareNotificationQueue(ch, w.queue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(w.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	slog.Info("notification worker: consuming", "queue", w.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			w.deliver(ctx, d)
		}
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, d amqp.Delivery) {
	err := w.HandleMessage(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrMalformedNotification):
		slog.Error("notification worker: dropping message", "error", err)
		_ = d.Nack(false, false)
	default:
		// one redelivery for transient send failures, then drop
		slog.Error("notification worker: send failed", "error", err, "redelivered", d.Redelivered)
		_ = d.Nack(false, !d.Redelivered)
	}
}

// HandleMessage decodes one event and sends the email it describes.
func (w *NotificationWorker) HandleMessage(ctx context.Context, body []byte) error {
	var event models.NotificationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedNotification, err)
	}
	if event.Email == "" {
		return fmt.Errorf("%w: missing email", ErrMalformedNotification)
	}

	switch event.Type {
	case models.NotificationTypeWelcome:
		err := w.mailer.SendWelcomeEmail(ctx, event.Email, event.Username)
		if err != nil {
			return fmt.Errorf("send welcome email: %w", err)
		}
	case models.NotificationTypePasswordReset:
		if event.Token == "" {
			return fmt.Errorf("%w: password reset without token", ErrMalformedNotification)
		}
		err := w.mailer.SendPasswordResetEmail(ctx, event.Email, event.Username, event.Token)
		if err != nil {
			return fmt.Errorf("send password reset email: %w", err)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedNotification, event.Type)
	}

	slog.InfoContext(ctx, "notification sent", "type", event.Type, "user_id", event.UserID)
	return nil
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
