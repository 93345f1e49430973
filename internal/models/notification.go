package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeWelcome       NotificationType = "welcome"
	NotificationTypePasswordReset NotificationType = "password_reset"
)

// NotificationEvent is the JSON message placed on the notification queue.
type NotificationEvent struct {
	Type      NotificationType `json:"type"`
	UserID    uuid.UUID        `json:"user_id"`
	Email     string           `json:"email"`
	Username  string           `json:"username"`
	Token     string           `json:"token,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
