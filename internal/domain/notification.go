package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies what a notification is about. It drives the
// click route the delivery payload carries.
type NotificationType string

const (
	TypeMessage       NotificationType = "message"
	TypeFriendRequest NotificationType = "friend_request"
	TypeSystem        NotificationType = "system"
	TypeLike          NotificationType = "like"
	TypeComment       NotificationType = "comment"
	TypeGeneral       NotificationType = "general"
)

// ValidTypes lists every accepted notification type.
var ValidTypes = []NotificationType{
	TypeMessage, TypeFriendRequest, TypeSystem, TypeLike, TypeComment, TypeGeneral,
}

// Priority controls push urgency on the provider side.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriorities lists every accepted priority.
var ValidPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Status tracks the delivery lifecycle of a stored notification.
type Status string

const (
	// StatusPending is the initial state; no delivery attempt recorded yet.
	StatusPending Status = "pending"
	// StatusSent means the push provider accepted the message.
	StatusSent Status = "sent"
	// StatusNoToken means the recipient has no registered push token.
	StatusNoToken Status = "no_token"
	// StatusFailed means the provider rejected the message or was unreachable.
	StatusFailed Status = "failed"
)

// DefaultTTL is applied when the caller does not supply expiresIn.
const DefaultTTL = 30 * 24 * time.Hour

// Notification is the core entity. After creation only the Delivery Engine
// mutates status/sent/delivery_message_id, and the read/click acknowledgment
// flows mutate read/clicked.
type Notification struct {
	ID                uuid.UUID        `json:"id"`
	FromUserID        string           `json:"from_user_id"`
	FromUserName      string           `json:"from_user_name,omitempty"`
	ToUserID          string           `json:"to_user_id"`
	Title             string           `json:"title"`
	Message           string           `json:"message"`
	Type              NotificationType `json:"type"`
	Priority          Priority         `json:"priority"`
	Platform          string           `json:"platform,omitempty"`
	Read              bool             `json:"read"`
	Clicked           bool             `json:"clicked"`
	Status            Status           `json:"status"`
	Sent              bool             `json:"sent"`
	DeliveryMessageID string           `json:"delivery_message_id,omitempty"`
	// Data carries routing hints (chatId, postId, ...) plus the sender
	// snapshot captured at creation time. Never refreshed afterwards.
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// CreateNotificationInput is the post-validation DTO handed to the store.
type CreateNotificationInput struct {
	FromUserID   string
	FromUserName string
	ToUserID     string
	Title        string
	Message      string
	Type         NotificationType
	Priority     Priority
	Platform     string
	Data         map[string]any
	ExpiresAt    time.Time
}

// DeliveryUpdate is the partial update the Delivery Engine writes back.
// The store refreshes updated_at on every apply.
type DeliveryUpdate struct {
	Status            Status
	Sent              bool
	DeliveryMessageID string
}

// NotificationFilter holds query parameters for listing a user's notifications.
type NotificationFilter struct {
	ToUserID string
	Read     *bool
	Type     NotificationType
	Limit    int
	Offset   int
}

// Stats aggregates per-recipient counters for the stats endpoint.
type Stats struct {
	Total     int64 `json:"total"`
	Unread    int64 `json:"unread"`
	Today     int64 `json:"today"`
	ThisWeek  int64 `json:"thisWeek"`
	ThisMonth int64 `json:"thisMonth"`
}

// Account is the read-only view of a user exposed by the account directory.
type Account struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Active      bool     `json:"active"`
	Admin       bool     `json:"admin"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	PushToken   string   `json:"pushToken"`
}

// PushPayload is the provider-agnostic push message. Every Data value is a
// string; the provider this system targets rejects non-string data values.
type PushPayload struct {
	Token    string
	Title    string
	Body     string
	Priority Priority
	Data     map[string]string
}
