package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campo-social/notification/internal/domain"
)

// fakeRepo is an in-memory domain.Repository for service and delivery tests.
type fakeRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*domain.Notification
	now   func() time.Time

	createErr error
	batchErr  error
	applied   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		items: make(map[uuid.UUID]*domain.Notification),
		now:   time.Now,
	}
}

func (r *fakeRepo) materialize(input domain.CreateNotificationInput) *domain.Notification {
	now := r.now()
	return &domain.Notification{
		ID:           uuid.New(),
		FromUserID:   input.FromUserID,
		FromUserName: input.FromUserName,
		ToUserID:     input.ToUserID,
		Title:        input.Title,
		Message:      input.Message,
		Type:         input.Type,
		Priority:     input.Priority,
		Platform:     input.Platform,
		Status:       domain.StatusPending,
		Data:         input.Data,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    input.ExpiresAt,
	}
}

func (r *fakeRepo) Create(_ context.Context, input domain.CreateNotificationInput) (*domain.Notification, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.materialize(input)
	r.items[n.ID] = n
	return n, nil
}

func (r *fakeRepo) BatchCreate(_ context.Context, inputs []domain.CreateNotificationInput) ([]*domain.Notification, error) {
	if r.batchErr != nil {
		return nil, r.batchErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Notification, 0, len(inputs))
	for _, input := range inputs {
		n := r.materialize(input)
		r.items[n.ID] = n
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "notification %s not found", id)
	}
	return n, nil
}

func (r *fakeRepo) ApplyDelivery(_ context.Context, id uuid.UUID, upd domain.DeliveryUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return domain.E(domain.CodeNotFound, "notification %s not found", id)
	}
	r.applied++
	n.Status = upd.Status
	n.Sent = upd.Sent
	n.DeliveryMessageID = upd.DeliveryMessageID
	n.UpdatedAt = r.now()
	return nil
}

func (r *fakeRepo) CountCreatedBySince(_ context.Context, fromUserID string, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.items {
		if n.FromUserID == fromUserID && n.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) ListExpiredIDs(_ context.Context, before time.Time, limit int) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for id, n := range r.items {
		if n.ExpiresAt.Before(before) {
			ids = append(ids, id)
			if len(ids) == limit {
				break
			}
		}
	}
	return ids, nil
}

func (r *fakeRepo) DeleteMany(_ context.Context, ids []uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if _, ok := r.items[id]; ok {
			delete(r.items, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeRepo) List(_ context.Context, f domain.NotificationFilter) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for _, n := range r.items {
		if n.ToUserID == f.ToUserID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeRepo) MarkRead(_ context.Context, id uuid.UUID, toUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.ToUserID != toUserID || n.Read {
		return domain.E(domain.CodeNotFound, "notification not found or already read")
	}
	n.Read = true
	n.UpdatedAt = r.now()
	return nil
}

func (r *fakeRepo) MarkAllRead(_ context.Context, toUserID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var marked int64
	for _, n := range r.items {
		if n.ToUserID == toUserID && !n.Read {
			n.Read = true
			n.UpdatedAt = r.now()
			marked++
		}
	}
	return marked, nil
}

func (r *fakeRepo) MarkClicked(_ context.Context, id uuid.UUID, toUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.ToUserID != toUserID {
		return domain.E(domain.CodeNotFound, "notification not found")
	}
	n.Clicked = true
	n.Read = true
	n.UpdatedAt = r.now()
	return nil
}

func (r *fakeRepo) CountUnread(_ context.Context, toUserID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.items {
		if n.ToUserID == toUserID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) Stats(_ context.Context, toUserID string, now time.Time) (*domain.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	s := &domain.Stats{}
	for _, n := range r.items {
		if n.ToUserID != toUserID {
			continue
		}
		s.Total++
		if !n.Read {
			s.Unread++
		}
		if !n.CreatedAt.Before(startOfDay) {
			s.Today++
		}
	}
	return s, nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *fakeRepo) all() []*domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Notification, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, n)
	}
	return out
}

// fakeDirectory serves accounts from a map; absent ids are CodeNotFound.
type fakeDirectory struct {
	accounts map[string]*domain.Account
	err      error
	calls    int
}

func (d *fakeDirectory) GetAccount(_ context.Context, id string) (*domain.Account, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	acct, ok := d.accounts[id]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "account %s not found", id)
	}
	return acct, nil
}

// fakeSender records payloads and returns a fixed id or error.
type fakeSender struct {
	id       string
	err      error
	calls    int
	payloads []domain.PushPayload
}

func (s *fakeSender) Send(_ context.Context, p domain.PushPayload) (string, error) {
	s.calls++
	s.payloads = append(s.payloads, p)
	if s.err != nil {
		return "", s.err
	}
	return s.id, nil
}

// fakePublisher collects published records.
type fakePublisher struct {
	events []*domain.Notification
	err    error
}

func (p *fakePublisher) NotificationCreated(_ context.Context, n *domain.Notification) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, n)
	return nil
}

// allowLimiter permits everything; denyLimiter refuses everything.
type allowLimiter struct{}

func (allowLimiter) Allow(context.Context, string) error { return nil }

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) error {
	return domain.E(domain.CodeResourceExhausted, "limit exceeded")
}
