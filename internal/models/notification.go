package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType categorizes feed entries
type NotificationType string

const (
	NotificationTypeLoginAlert     NotificationType = "login_alert"
	NotificationTypeClientApproved NotificationType = "client_approved"
	NotificationTypeClientRejected NotificationType = "client_rejected"
	NotificationTypeGeneral        NotificationType = "general"
)

// Notification is a per-user feed entry
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
