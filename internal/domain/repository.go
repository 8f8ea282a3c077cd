package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the port for notification persistence.
// Implementations live in infrastructure/postgres.
type Repository interface {
	// Create stores a new notification and returns the saved entity.
	// created_at/updated_at are assigned server-side at write time.
	Create(ctx context.Context, input CreateNotificationInput) (*Notification, error)

	// BatchCreate inserts all inputs as one atomic batch (used by bulk
	// fan-out): either every row is written or none is.
	BatchCreate(ctx context.Context, inputs []CreateNotificationInput) ([]*Notification, error)

	// GetByID fetches a single notification.
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)

	// ApplyDelivery writes the delivery outcome fields and refreshes
	// updated_at. Last-write-wins under concurrent calls.
	ApplyDelivery(ctx context.Context, id uuid.UUID, upd DeliveryUpdate) error

	// CountCreatedBySince counts notifications a sender created after
	// the given instant. Backs the authoritative rate-limit variant.
	CountCreatedBySince(ctx context.Context, fromUserID string, since time.Time) (int64, error)

	// ListExpiredIDs returns up to limit ids of records with
	// expires_at before the given instant.
	ListExpiredIDs(ctx context.Context, before time.Time, limit int) ([]uuid.UUID, error)

	// DeleteMany removes the given records as one atomic batch and
	// returns how many were deleted.
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)

	// List fetches notifications addressed to a user.
	List(ctx context.Context, filter NotificationFilter) ([]*Notification, error)

	// MarkRead marks one of the user's notifications as read.
	MarkRead(ctx context.Context, id uuid.UUID, toUserID string) error

	// MarkAllRead marks every unread notification for a user as read.
	MarkAllRead(ctx context.Context, toUserID string) (int64, error)

	// MarkClicked records a click acknowledgment (implies read).
	MarkClicked(ctx context.Context, id uuid.UUID, toUserID string) error

	// CountUnread returns the unread badge count for a user.
	CountUnread(ctx context.Context, toUserID string) (int64, error)

	// Stats returns the recipient's counters with day/week/month
	// boundaries computed in the given location.
	Stats(ctx context.Context, toUserID string, now time.Time) (*Stats, error)
}

// AccountDirectory resolves user accounts from the account-management
// collaborator. Read-only from this service's perspective.
type AccountDirectory interface {
	// GetAccount returns the account or a CodeNotFound error.
	GetAccount(ctx context.Context, id string) (*Account, error)
}

// PushSender submits one payload to the push provider and returns the
// provider-assigned message id. Single attempt, no internal retry.
type PushSender interface {
	Send(ctx context.Context, payload PushPayload) (string, error)
}

// EventPublisher emits a record-created event for every store write so the
// trigger dispatcher can pick it up. Publish failures are logged by the
// caller, never surfaced: the write has already committed.
type EventPublisher interface {
	NotificationCreated(ctx context.Context, n *Notification) error
}

// RateLimiter bounds how many notifications a sender may create inside the
// trailing window. Allow returns a CodeResourceExhausted error when the
// sender is over the threshold; the in-flight request is never counted
// before the check passes.
type RateLimiter interface {
	Allow(ctx context.Context, key string) error
}
