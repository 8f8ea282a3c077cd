package application

import (
	"context"
	"testing"
	"time"

	"github.com/campo-social/notification/internal/domain"
)

func activeDirectory() *fakeDirectory {
	return &fakeDirectory{accounts: map[string]*domain.Account{
		"sender": {ID: "sender", DisplayName: "Ana", Active: true, Role: "admin", Permissions: []string{"broadcast"}},
		"rcpt":   {ID: "rcpt", DisplayName: "Bea", Active: true, PushToken: "tok-1"},
	}}
}

func newTestService(repo *fakeRepo, dir *fakeDirectory, sender *fakeSender, limiter domain.RateLimiter, pub *fakePublisher) *Service {
	engine := NewDeliveryEngine(repo, dir, sender)
	return NewService(repo, dir, limiter, engine, pub, time.UTC)
}

func createReq() CreateRequest {
	return CreateRequest{
		ToUserID:   "rcpt",
		Title:      "hello",
		Message:    "world",
		Type:       "message",
		FromUserID: "sender",
		AdditionalData: map[string]any{
			"chatId": "c1",
		},
	}
}

func TestCreate_HappyPath(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	sender := &fakeSender{id: "msg-123"}
	svc := newTestService(repo, activeDirectory(), sender, allowLimiter{}, pub)

	res, err := svc.Create(context.Background(), createReq())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !res.Success || !res.FcmSent || res.FcmMessageID != "msg-123" {
		t.Fatalf("result = %+v", res)
	}
	if repo.count() != 1 {
		t.Fatalf("records = %d, want 1", repo.count())
	}

	n := repo.all()[0]
	if n.CreatedAt.After(n.UpdatedAt) {
		t.Fatal("createdAt must not exceed updatedAt")
	}
	if !n.ExpiresAt.After(n.CreatedAt) {
		t.Fatal("expiresAt must be after createdAt")
	}
	if n.Type != domain.TypeMessage || n.Priority != domain.PriorityMedium || n.Platform != "web" {
		t.Fatalf("defaults not applied: %+v", n)
	}
	if n.Data["senderRole"] != "admin" {
		t.Fatalf("sender snapshot missing: %v", n.Data)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published events = %d, want 1", len(pub.events))
	}
}

func TestCreate_InvalidRequest_NoRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, activeDirectory(), &fakeSender{}, allowLimiter{}, &fakePublisher{})

	for _, req := range []CreateRequest{
		{FromUserID: "sender", Title: "t", Message: "m"},       // no recipient
		{FromUserID: "sender", ToUserID: "rcpt", Message: "m"}, // no title
		{FromUserID: "sender", ToUserID: "rcpt", Title: "t"},   // no message
	} {
		_, err := svc.Create(context.Background(), req)
		if domain.CodeOf(err) != domain.CodeInvalidArgument {
			t.Fatalf("code = %s, want invalid_argument", domain.CodeOf(err))
		}
	}
	if repo.count() != 0 {
		t.Fatalf("records = %d, want 0 (no partial state)", repo.count())
	}
}

func TestCreate_Unauthenticated(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, activeDirectory(), &fakeSender{}, allowLimiter{}, &fakePublisher{})

	req := createReq()
	req.FromUserID = ""
	_, err := svc.Create(context.Background(), req)
	if domain.CodeOf(err) != domain.CodeUnauthenticated {
		t.Fatalf("code = %s, want unauthenticated", domain.CodeOf(err))
	}
}

func TestCreate_RateLimited_NoRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, activeDirectory(), &fakeSender{}, denyLimiter{}, &fakePublisher{})

	_, err := svc.Create(context.Background(), createReq())
	if domain.CodeOf(err) != domain.CodeResourceExhausted {
		t.Fatalf("code = %s, want resource_exhausted", domain.CodeOf(err))
	}
	if repo.count() != 0 {
		t.Fatal("rate-limited request must write nothing")
	}
}

func TestCreate_RecipientMissing(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, activeDirectory(), &fakeSender{}, allowLimiter{}, &fakePublisher{})

	req := createReq()
	req.ToUserID = "ghost"
	_, err := svc.Create(context.Background(), req)
	if domain.CodeOf(err) != domain.CodeNotFound {
		t.Fatalf("code = %s, want not_found", domain.CodeOf(err))
	}
	if repo.count() != 0 {
		t.Fatal("no record for a missing recipient")
	}
}

func TestCreate_RecipientInactive(t *testing.T) {
	repo := newFakeRepo()
	dir := activeDirectory()
	dir.accounts["rcpt"].Active = false
	svc := newTestService(repo, dir, &fakeSender{}, allowLimiter{}, &fakePublisher{})

	_, err := svc.Create(context.Background(), createReq())
	if domain.CodeOf(err) != domain.CodeFailedPrecondition {
		t.Fatalf("code = %s, want failed_precondition", domain.CodeOf(err))
	}
}

func TestCreate_DeliveryFailureNotThrown(t *testing.T) {
	repo := newFakeRepo()
	dir := activeDirectory()
	dir.accounts["rcpt"].PushToken = ""
	svc := newTestService(repo, dir, &fakeSender{}, allowLimiter{}, &fakePublisher{})

	res, err := svc.Create(context.Background(), createReq())
	if err != nil {
		t.Fatalf("delivery problems must not fail the call: %v", err)
	}
	if !res.Success || res.FcmSent {
		t.Fatalf("result = %+v, want success=true fcmSent=false", res)
	}

	n := repo.all()[0]
	if n.Status != domain.StatusNoToken || n.Sent {
		t.Fatalf("record = %+v, want no_token/sent=false", n)
	}
}

func TestCreate_CustomTTL(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, activeDirectory(), &fakeSender{id: "m"}, allowLimiter{}, &fakePublisher{})

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	repo.now = func() time.Time { return base }

	req := createReq()
	req.ExpiresIn = 3600
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("Create: %v", err)
	}

	n := repo.all()[0]
	if want := base.Add(time.Hour); !n.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", n.ExpiresAt, want)
	}
}

func TestCreateBulk_OverLimit_NoRecords(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, activeDirectory(), &fakeSender{}, allowLimiter{}, &fakePublisher{})

	ids := make([]string, 1001)
	for i := range ids {
		ids[i] = "u"
	}
	_, err := svc.CreateBulk(context.Background(), BulkRequest{
		UserIDs: ids, Title: "t", Message: "m", FromUserID: "sender",
	})
	if domain.CodeOf(err) != domain.CodeInvalidArgument {
		t.Fatalf("code = %s, want invalid_argument", domain.CodeOf(err))
	}
	if repo.count() != 0 {
		t.Fatal("over-limit fan-out must create zero records")
	}
}

func TestCreateBulk_MaxBatchSharesExpiry(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, activeDirectory(), &fakeSender{}, allowLimiter{}, pub)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	ids := make([]string, 1000)
	for i := range ids {
		ids[i] = "u"
	}
	res, err := svc.CreateBulk(context.Background(), BulkRequest{
		UserIDs: ids, Title: "t", Message: "m", FromUserID: "sender",
	})
	if err != nil {
		t.Fatalf("CreateBulk: %v", err)
	}
	if res.Count != 1000 || repo.count() != 1000 {
		t.Fatalf("count = %d / records = %d, want 1000", res.Count, repo.count())
	}

	want := base.Add(domain.DefaultTTL)
	for _, n := range repo.all() {
		if !n.ExpiresAt.Equal(want) {
			t.Fatalf("expiresAt = %v, want shared %v", n.ExpiresAt, want)
		}
		if n.Priority != domain.PriorityMedium {
			t.Fatalf("priority = %s, want fixed medium", n.Priority)
		}
		if n.Type != domain.TypeSystem {
			t.Fatalf("type = %s, want default system", n.Type)
		}
	}
	if len(pub.events) != 1000 {
		t.Fatalf("published events = %d, want one per record", len(pub.events))
	}
}

func TestCreateBulk_NoInlineDelivery(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{id: "m"}
	svc := newTestService(repo, activeDirectory(), sender, allowLimiter{}, &fakePublisher{})

	_, err := svc.CreateBulk(context.Background(), BulkRequest{
		UserIDs: []string{"rcpt"}, Title: "t", Message: "m", FromUserID: "sender",
	})
	if err != nil {
		t.Fatalf("CreateBulk: %v", err)
	}
	if sender.calls != 0 {
		t.Fatal("bulk fan-out must leave delivery to the trigger path")
	}
	if n := repo.all()[0]; n.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", n.Status)
	}
}

func TestCreateBulk_NamedSenderSkipsDirectory(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{accounts: map[string]*domain.Account{}}
	svc := newTestService(repo, dir, &fakeSender{}, allowLimiter{}, &fakePublisher{})

	// A broadcast command sender ("system") has no directory record; the
	// supplied name must be used without a lookup.
	res, err := svc.CreateBulk(context.Background(), BulkRequest{
		UserIDs:      []string{"u1", "u2"},
		Title:        "maintenance",
		Message:      "tonight",
		FromUserID:   "system",
		FromUserName: "System",
	})
	if err != nil {
		t.Fatalf("CreateBulk: %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("count = %d, want 2", res.Count)
	}
	if dir.calls != 0 {
		t.Fatalf("directory lookups = %d, want 0", dir.calls)
	}
	for _, n := range repo.all() {
		if n.FromUserName != "System" {
			t.Fatalf("fromUserName = %q, want System", n.FromUserName)
		}
	}
}

func TestGet_OwnRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, activeDirectory(), &fakeSender{id: "m"}, allowLimiter{}, &fakePublisher{})

	res, err := svc.Create(context.Background(), createReq())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := svc.Get(context.Background(), res.NotificationID, "rcpt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n.Title != "hello" {
		t.Fatalf("title = %q", n.Title)
	}
}

func TestGet_OtherUsersRecord_NotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, activeDirectory(), &fakeSender{id: "m"}, allowLimiter{}, &fakePublisher{})

	res, err := svc.Create(context.Background(), createReq())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(context.Background(), res.NotificationID, "someone-else"); domain.CodeOf(err) != domain.CodeNotFound {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestStats(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, activeDirectory(), &fakeSender{id: "m"}, allowLimiter{}, &fakePublisher{})

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), createReq()); err != nil {
			t.Fatalf("seed create: %v", err)
		}
	}

	res, err := svc.Stats(context.Background(), "rcpt")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if res.Stats.Total != 3 || res.Stats.Unread != 3 || res.Stats.Today != 3 {
		t.Fatalf("stats = %+v", res.Stats)
	}
}
