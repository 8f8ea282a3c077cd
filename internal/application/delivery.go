package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/campo-social/notification/internal/domain"
)

// OutcomeKind classifies a delivery attempt.
type OutcomeKind int

const (
	// OutcomeSent: the provider accepted the message.
	OutcomeSent OutcomeKind = iota
	// OutcomeNoToken: the recipient has no registered push token.
	OutcomeNoToken
	// OutcomeFailed: recipient unresolvable/inactive or provider error.
	OutcomeFailed
)

// Outcome is the result of one delivery attempt.
type Outcome struct {
	Kind      OutcomeKind
	MessageID string
	Err       error
}

// DeliveryEngine converts a stored notification into a push payload,
// submits it, and records the result on the record. Safe to invoke more
// than once for the same record: the trigger path is at-least-once and a
// resend is an accepted semantic.
type DeliveryEngine struct {
	repo      domain.Repository
	directory domain.AccountDirectory
	sender    domain.PushSender
}

// NewDeliveryEngine creates a DeliveryEngine.
func NewDeliveryEngine(repo domain.Repository, directory domain.AccountDirectory, sender domain.PushSender) *DeliveryEngine {
	return &DeliveryEngine{repo: repo, directory: directory, sender: sender}
}

// Deliver attempts exactly one provider submission for the notification.
// A recipient that is missing or inactive short-circuits with zero store
// updates: the synchronous path already validated the recipient, and this
// check only guards the trigger path, which skips the validator.
func (e *DeliveryEngine) Deliver(ctx context.Context, n *domain.Notification) Outcome {
	acct, err := e.directory.GetAccount(ctx, n.ToUserID)
	if err != nil {
		log.Warn().Err(err).
			Str("id", n.ID.String()).
			Str("to", n.ToUserID).
			Msg("delivery skipped: recipient unresolvable")
		return Outcome{Kind: OutcomeFailed, Err: err}
	}
	if !acct.Active {
		log.Warn().
			Str("id", n.ID.String()).
			Str("to", n.ToUserID).
			Msg("delivery skipped: recipient inactive")
		return Outcome{Kind: OutcomeFailed, Err: domain.E(domain.CodeFailedPrecondition, "recipient inactive")}
	}

	if acct.PushToken == "" {
		log.Warn().Str("id", n.ID.String()).Str("to", n.ToUserID).Msg("recipient has no push token")
		e.record(ctx, n, domain.DeliveryUpdate{Status: domain.StatusNoToken, Sent: false})
		return Outcome{Kind: OutcomeNoToken}
	}

	payload := BuildPayload(n, acct.PushToken)

	msgID, err := e.sender.Send(ctx, payload)
	if err != nil {
		log.Error().Err(err).Str("id", n.ID.String()).Msg("push submission failed")
		e.record(ctx, n, domain.DeliveryUpdate{Status: domain.StatusFailed, Sent: false})
		return Outcome{Kind: OutcomeFailed, Err: fmt.Errorf("push send: %w", err)}
	}

	e.record(ctx, n, domain.DeliveryUpdate{
		Status:            domain.StatusSent,
		Sent:              true,
		DeliveryMessageID: msgID,
	})

	log.Info().
		Str("id", n.ID.String()).
		Str("message_id", msgID).
		Msg("push delivered")

	return Outcome{Kind: OutcomeSent, MessageID: msgID}
}

// record writes the delivery outcome back; a store failure here cannot
// change the outcome and is only logged.
func (e *DeliveryEngine) record(ctx context.Context, n *domain.Notification, upd domain.DeliveryUpdate) {
	if err := e.repo.ApplyDelivery(ctx, n.ID, upd); err != nil {
		log.Error().Err(err).Str("id", n.ID.String()).Msg("failed to record delivery outcome")
	}
	n.Status = upd.Status
	n.Sent = upd.Sent
	n.DeliveryMessageID = upd.DeliveryMessageID
}

// BuildPayload assembles the provider payload for a notification. All data
// values are coerced to strings before submission.
func BuildPayload(n *domain.Notification, token string) domain.PushPayload {
	data := map[string]string{
		"notificationId":  n.ID.String(),
		"type":            string(n.Type),
		"fromUserId":      n.FromUserID,
		"fromUserName":    n.FromUserName,
		"fromUserIsAdmin": strconv.FormatBool(isAdminSender(n.Data)),
		"priority":        string(n.Priority),
		"route":           Route(n.Type, n.Data),
		"timestamp":       strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
	for k, v := range n.Data {
		data[k] = stringify(v)
	}

	return domain.PushPayload{
		Token:    token,
		Title:    n.Title,
		Body:     n.Message,
		Priority: n.Priority,
		Data:     data,
	}
}

// Route computes the client-side route for a notification click. Pure
// function of (type, context data); unknown types fall back to "/".
func Route(t domain.NotificationType, data map[string]any) string {
	switch t {
	case domain.TypeMessage:
		return "/chat/" + stringField(data, "chatId")
	case domain.TypeFriendRequest:
		return "/friends/requests"
	case domain.TypeLike, domain.TypeComment:
		return "/post/" + stringField(data, "postId")
	case domain.TypeGeneral:
		return "/notifications"
	default:
		return "/"
	}
}

func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	if v, ok := data[key]; ok {
		return stringify(v)
	}
	return ""
}

// stringify coerces an arbitrary data value to its string form.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []string:
		return strings.Join(x, ",")
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ",")
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func isAdminSender(data map[string]any) bool {
	if data == nil {
		return false
	}
	return stringify(data["senderRole"]) == "admin"
}
