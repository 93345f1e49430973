package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"taskflow/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NotificationPublisher hands notification events to the delivery pipeline.
type NotificationPublisher interface {
	Publish(ctx context.Context, event models.NotificationEvent) error
}

type amqpPublisher struct {
	url   string
	queue string
}

// NewNotificationPublisher returns a RabbitMQ publisher, or a publisher that only logs
// when no broker URL is configured.
func NewNotificationPublisher(url, queue string) NotificationPublisher {
	if url == "" {
		slog.Info("notification publisher disabled: AMQP_URL not configured")
		return disabledPublisher{}
	}
	return &amqpPublisher{url: url, queue: queue}
}

// DeclareNotificationQueue declares the durable queue shared by publisher and consumer.
func DeclareNotificationQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	return err
}

func (p *amqpPublisher) Publish(ctx context.Context, event models.NotificationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := DeclareNotificationQueue(ch, p.queue); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(event.Type),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

type disabledPublisher struct{}

func (disabledPublisher) Publish(_ context.Context, event models.NotificationEvent) error {
	slog.Debug("dropping notification, publisher disabled", "type", event.Type, "user_id", event.UserID)
	return nil
}

// publishBestEffort sends event without letting a broker failure reach the caller. The
// request context may already be cancelled by the time the handler returns, so the publish
// runs on a detached context with its own timeout.
func publishBestEffort(ctx context.Context, publisher NotificationPublisher, event models.NotificationEvent) {
	if publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := publisher.Publish(pubCtx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish notification", "type", event.Type, "user_id", event.UserID, "error", err)
	}
}
