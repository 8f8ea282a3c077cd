package application

import (
	"github.com/campo-social/notification/internal/domain"
)

// maxBulkRecipients caps a single fan-out batch.
const maxBulkRecipients = 1000

// validateCreate checks shape and semantics of a creation request.
// Side-effect-free. Self-notification is allowed on purpose.
func validateCreate(req CreateRequest) error {
	if req.ToUserID == "" || req.Title == "" || req.Message == "" {
		return domain.E(domain.CodeInvalidArgument,
			"missing required fields: toUserId, title, message")
	}
	if req.Type != "" && !validType(domain.NotificationType(req.Type)) {
		return domain.E(domain.CodeInvalidArgument, "invalid type %q", req.Type)
	}
	if req.Priority != "" && !validPriority(domain.Priority(req.Priority)) {
		return domain.E(domain.CodeInvalidArgument, "invalid priority %q", req.Priority)
	}
	return nil
}

// validateBulk checks a fan-out request: 1..1000 recipients, shared
// title/message present, known type.
func validateBulk(req BulkRequest) error {
	if len(req.UserIDs) == 0 {
		return domain.E(domain.CodeInvalidArgument, "userIds must be a non-empty list")
	}
	if len(req.UserIDs) > maxBulkRecipients {
		return domain.E(domain.CodeInvalidArgument,
			"too many recipients: %d (max %d)", len(req.UserIDs), maxBulkRecipients)
	}
	if req.Title == "" || req.Message == "" {
		return domain.E(domain.CodeInvalidArgument, "missing required fields: title, message")
	}
	if req.Type != "" && !validType(domain.NotificationType(req.Type)) {
		return domain.E(domain.CodeInvalidArgument, "invalid type %q", req.Type)
	}
	return nil
}

func validType(t domain.NotificationType) bool {
	for _, v := range domain.ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

func validPriority(p domain.Priority) bool {
	for _, v := range domain.ValidPriorities {
		if p == v {
			return true
		}
	}
	return false
}
