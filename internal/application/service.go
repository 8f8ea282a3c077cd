package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/campo-social/notification/internal/domain"
)

// Service holds all notification use-cases.
type Service struct {
	repo      domain.Repository
	directory domain.AccountDirectory
	limiter   domain.RateLimiter
	engine    *DeliveryEngine
	publisher domain.EventPublisher
	loc       *time.Location

	now func() time.Time
}

// NewService creates the application Service. loc is the timezone used for
// the stats day/week/month boundaries and may be nil (UTC).
func NewService(
	repo domain.Repository,
	directory domain.AccountDirectory,
	limiter domain.RateLimiter,
	engine *DeliveryEngine,
	publisher domain.EventPublisher,
	loc *time.Location,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:      repo,
		directory: directory,
		limiter:   limiter,
		engine:    engine,
		publisher: publisher,
		loc:       loc,
		now:       time.Now,
	}
}

// Create runs the synchronous creation flow: validate, rate-limit, resolve
// the recipient, persist, then attempt delivery inline. Validator and rate
// limiter failures abort before any write. A delivery failure after the
// write is recorded on the record, not returned as an error.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.FromUserID == "" {
		return nil, domain.E(domain.CodeUnauthenticated, "caller identity missing")
	}
	if err := validateCreate(req); err != nil {
		return nil, err
	}
	if err := s.limiter.Allow(ctx, req.FromUserID); err != nil {
		return nil, err
	}

	recipient, err := s.directory.GetAccount(ctx, req.ToUserID)
	if err != nil {
		if domain.CodeOf(err) == domain.CodeNotFound {
			return nil, domain.E(domain.CodeNotFound, "recipient %s not found", req.ToUserID)
		}
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}
	if !recipient.Active {
		return nil, domain.E(domain.CodeFailedPrecondition, "recipient %s is inactive", req.ToUserID)
	}

	input := s.buildCreateInput(ctx, req)

	n, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	s.publishCreated(ctx, n)

	log.Info().
		Str("id", n.ID.String()).
		Str("from", n.FromUserID).
		Str("to", n.ToUserID).
		Str("type", string(n.Type)).
		Msg("notification created")

	// Inline delivery attempt. The trigger path fires independently and may
	// resend; that is accepted.
	outcome := s.engine.Deliver(ctx, n)

	res := &CreateResult{Success: true, NotificationID: n.ID.String()}
	if outcome.Kind == OutcomeSent {
		res.FcmSent = true
		res.FcmMessageID = outcome.MessageID
	}
	return res, nil
}

// CreateBulk atomically creates one record per recipient with shared
// title/message/type and a shared expiry. Delivery is left entirely to the
// trigger dispatcher, so bulk delivery failures are invisible to the caller.
func (s *Service) CreateBulk(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	if req.FromUserID == "" {
		return nil, domain.E(domain.CodeUnauthenticated, "caller identity missing")
	}
	if err := validateBulk(req); err != nil {
		return nil, err
	}

	typ := domain.NotificationType(req.Type)
	if typ == "" {
		typ = domain.TypeSystem
	}
	// Broadcast commands always carry a name ("System" at worst), so this
	// skips a directory lookup for senders that may not exist there.
	fromName := req.FromUserName
	if fromName == "" {
		fromName = s.resolveSenderName(ctx, req.FromUserID, "", nil)
	}
	expiresAt := s.now().Add(domain.DefaultTTL)

	inputs := make([]domain.CreateNotificationInput, 0, len(req.UserIDs))
	for _, uid := range req.UserIDs {
		inputs = append(inputs, domain.CreateNotificationInput{
			FromUserID:   req.FromUserID,
			FromUserName: fromName,
			ToUserID:     uid,
			Title:        req.Title,
			Message:      req.Message,
			Type:         typ,
			Priority:     domain.PriorityMedium,
			Data:         req.AdditionalData,
			ExpiresAt:    expiresAt,
		})
	}

	created, err := s.repo.BatchCreate(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("batch create notifications: %w", err)
	}
	for _, n := range created {
		s.publishCreated(ctx, n)
	}

	log.Info().
		Str("from", req.FromUserID).
		Int("count", len(created)).
		Msg("bulk notifications created")

	return &BulkResult{Success: true, Count: len(created)}, nil
}

// Deliver runs one delivery attempt for an already-stored record. This is
// the trigger-path entry point; outcomes are reflected on the record and
// never raised to the event's writer.
func (s *Service) Deliver(ctx context.Context, n *domain.Notification) Outcome {
	return s.engine.Deliver(ctx, n)
}

// Get returns a single notification. A record addressed to someone else
// is reported as not found rather than forbidden.
func (s *Service) Get(ctx context.Context, idStr, userID string) (*domain.Notification, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, domain.E(domain.CodeInvalidArgument, "invalid notification id")
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.ToUserID != userID {
		return nil, domain.E(domain.CodeNotFound, "notification %s not found", idStr)
	}
	return n, nil
}

// Stats returns the caller's notification counters.
func (s *Service) Stats(ctx context.Context, userID string) (*StatsResult, error) {
	stats, err := s.repo.Stats(ctx, userID, s.now().In(s.loc))
	if err != nil {
		return nil, fmt.Errorf("notification stats: %w", err)
	}
	return &StatsResult{Success: true, Stats: stats}, nil
}

// List returns paginated notifications addressed to a user.
func (s *Service) List(ctx context.Context, filter domain.NotificationFilter) ([]*domain.Notification, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.List(ctx, filter)
}

// CountUnread returns the unread badge count for a user.
func (s *Service) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead marks a single notification as read.
func (s *Service) MarkRead(ctx context.Context, idStr, userID string) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return domain.E(domain.CodeInvalidArgument, "invalid notification id")
	}
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead marks every unread notification for a user as read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// MarkClicked records a click acknowledgment.
func (s *Service) MarkClicked(ctx context.Context, idStr, userID string) error {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return domain.E(domain.CodeInvalidArgument, "invalid notification id")
	}
	return s.repo.MarkClicked(ctx, id, userID)
}

// buildCreateInput applies defaults and captures the sender snapshot.
func (s *Service) buildCreateInput(ctx context.Context, req CreateRequest) domain.CreateNotificationInput {
	typ := domain.NotificationType(req.Type)
	if typ == "" {
		typ = domain.TypeGeneral
	}
	prio := domain.Priority(req.Priority)
	if prio == "" {
		prio = domain.PriorityMedium
	}
	platform := req.Platform
	if platform == "" {
		platform = "web"
	}

	expiresAt := s.now().Add(domain.DefaultTTL)
	if req.ExpiresIn > 0 {
		expiresAt = s.now().Add(time.Duration(req.ExpiresIn) * time.Second)
	}

	// Sender snapshot: caller-supplied senderData wins, then the directory
	// record, then token claims. Captured once, never refreshed.
	snapshot := req.SenderData
	if snapshot == nil {
		if acct, err := s.directory.GetAccount(ctx, req.FromUserID); err == nil {
			snapshot = &SenderData{
				Name:        acct.DisplayName,
				Admin:       acct.Admin,
				Role:        acct.Role,
				Permissions: acct.Permissions,
			}
		} else {
			log.Warn().Err(err).Str("user", req.FromUserID).Msg("sender lookup failed, using token claims")
			snapshot = &SenderData{Name: req.FromUserName}
		}
	}

	data := make(map[string]any, len(req.AdditionalData)+2)
	for k, v := range req.AdditionalData {
		data[k] = v
	}
	data["senderRole"] = senderRole(snapshot)
	data["senderPermissions"] = snapshot.Permissions

	return domain.CreateNotificationInput{
		FromUserID:   req.FromUserID,
		FromUserName: s.resolveSenderName(ctx, req.FromUserID, req.FromUserName, snapshot),
		ToUserID:     req.ToUserID,
		Title:        req.Title,
		Message:      req.Message,
		Type:         typ,
		Priority:     prio,
		Platform:     platform,
		Data:         data,
		ExpiresAt:    expiresAt,
	}
}

// resolveSenderName picks the best available display name for the sender.
func (s *Service) resolveSenderName(ctx context.Context, fromUserID, tokenName string, snapshot *SenderData) string {
	if snapshot != nil && snapshot.Name != "" {
		return snapshot.Name
	}
	if snapshot == nil {
		if acct, err := s.directory.GetAccount(ctx, fromUserID); err == nil && acct.DisplayName != "" {
			return acct.DisplayName
		}
	}
	if tokenName != "" {
		return tokenName
	}
	return "User"
}

func senderRole(sd *SenderData) string {
	if sd.Role != "" {
		return sd.Role
	}
	if sd.Admin {
		return "admin"
	}
	return "user"
}

// publishCreated emits a record-created event. Failures are logged only:
// the store write already committed and must not be failed retroactively.
func (s *Service) publishCreated(ctx context.Context, n *domain.Notification) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.NotificationCreated(ctx, n); err != nil {
		log.Error().Err(err).Str("id", n.ID.String()).Msg("failed to publish created event")
	}
}
