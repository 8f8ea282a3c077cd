package application

import "github.com/campo-social/notification/internal/domain"

// CreateRequest is the synchronous creation entry point's input. Caller
// identity (FromUserID, FromUserName) is supplied out-of-band by the
// authentication middleware, never by the request body.
type CreateRequest struct {
	ToUserID       string            `json:"toUserId"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Type           string            `json:"type,omitempty"`
	Priority       string            `json:"priority,omitempty"`
	AdditionalData map[string]any    `json:"additionalData,omitempty"`
	ExpiresIn      int64             `json:"expiresIn,omitempty"` // seconds
	SenderData     *SenderData       `json:"senderData,omitempty"`
	Platform       string            `json:"platform,omitempty"`

	FromUserID   string `json:"-"`
	FromUserName string `json:"-"`
}

// SenderData is an optional caller-supplied sender snapshot. When absent
// the sender's directory record is resolved instead.
type SenderData struct {
	Name        string   `json:"name,omitempty"`
	Admin       bool     `json:"admin,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// CreateResult is the synchronous creation entry point's output.
type CreateResult struct {
	Success        bool   `json:"success"`
	NotificationID string `json:"notificationId"`
	FcmSent        bool   `json:"fcmSent"`
	FcmMessageID   string `json:"fcmMessageId,omitempty"`
}

// BulkRequest is the bulk fan-out entry point's input.
type BulkRequest struct {
	UserIDs        []string       `json:"userIds"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Type           string         `json:"type,omitempty"`
	AdditionalData map[string]any `json:"additionalData,omitempty"`

	FromUserID   string `json:"-"`
	FromUserName string `json:"-"`
}

// BulkResult is the bulk fan-out entry point's output.
type BulkResult struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// StatsResult wraps domain.Stats for the stats endpoint.
type StatsResult struct {
	Success bool          `json:"success"`
	Stats   *domain.Stats `json:"stats"`
}
