package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNewNotificationPublisher_DisabledWithoutURL(t *testing.T) {
	p := NewNotificationPublisher("", "taskflow.notifications")
	assert.IsType(t, disabledPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), models.NotificationEvent{Type: models.NotificationTypeWelcome}))
}

func TestPublishBestEffort_DetachesFromRequestContext(t *testing.T) {
	publisher := &MockPublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	publisher.On("Publish", mock.MatchedBy(func(c context.Context) bool {
		_, hasDeadline := c.Deadline()
		return c.Err() == nil && hasDeadline
	}), mock.Anything).Return(errors.New("broker down"))

	publishBestEffort(ctx, publisher, models.NotificationEvent{
		Type:      models.NotificationTypeWelcome,
		UserID:    uuid.New(),
		CreatedAt: time.Now(),
	})
	publisher.AssertExpectations(t)
}
