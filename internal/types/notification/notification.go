package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	TypeChallengeCompleted NotificationType = "challenge_completed"
	TypeLevelUp            NotificationType = "level_up"
)

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	ProfileID string           `json:"profileId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

type CreateNotificationRequest struct {
	ProfileID string           `json:"profileId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
}

type ListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

// DeviceToken is a push registration for one device.
type DeviceToken struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}
