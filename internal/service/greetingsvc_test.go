package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"Lodugramwebserver/internal/domain"
	"Lodugramwebserver/internal/watch"
)

type stubGreetingsStore struct {
	t *testing.T

	insertFunc             func(context.Context, domain.Greeting) error
	listInboxFunc          func(context.Context, string, int) ([]domain.Greeting, error)
	listInboxUnorderedFunc func(context.Context, string, int) ([]domain.Greeting, error)
	markReadFunc           func(context.Context, string, string) error
	unreadCountFunc        func(context.Context, string) (int, error)
}

func (s *stubGreetingsStore) Insert(ctx context.Context, g domain.Greeting) error {
	if s.insertFunc != nil {
		return s.insertFunc(ctx, g)
	}
	s.t.Fatalf("Insert called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubGreetingsStore) ListInbox(ctx context.Context, userID string, limit int) ([]domain.Greeting, error) {
	if s.listInboxFunc != nil {
		return s.listInboxFunc(ctx, userID, limit)
	}
	s.t.Fatalf("ListInbox called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubGreetingsStore) ListInboxUnordered(ctx context.Context, userID string, limit int) ([]domain.Greeting, error) {
	if s.listInboxUnorderedFunc != nil {
		return s.listInboxUnorderedFunc(ctx, userID, limit)
	}
	s.t.Fatalf("ListInboxUnordered called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubGreetingsStore) MarkRead(ctx context.Context, userID, greetingID string) error {
	if s.markReadFunc != nil {
		return s.markReadFunc(ctx, userID, greetingID)
	}
	s.t.Fatalf("MarkRead called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubGreetingsStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	if s.unreadCountFunc != nil {
		return s.unreadCountFunc(ctx, userID)
	}
	s.t.Fatalf("UnreadCount called unexpectedly")
	return 0, errors.New("unexpected call")
}

type stubChecker struct {
	friends bool
	err     error
}

func (s *stubChecker) AreFriends(context.Context, string, string) (bool, error) {
	return s.friends, s.err
}

type stubNotifier struct {
	got chan domain.Greeting
	err error
}

func (s *stubNotifier) NotifyGreeting(_ context.Context, g domain.Greeting) error {
	if s.got != nil {
		s.got <- g
	}
	return s.err
}

func TestGreetingServiceSend(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	from := domain.User{ID: "user-1", Username: "alice"}

	var inserted domain.Greeting
	pub := &recordingPublisher{}
	notified := make(chan domain.Greeting, 1)

	svc := &GreetingService{
		Greetings: &stubGreetingsStore{
			t: t,
			insertFunc: func(_ context.Context, g domain.Greeting) error {
				inserted = g
				return nil
			},
		},
		Friends:   &stubChecker{friends: true},
		Watch:     pub,
		Notifier:  &stubNotifier{got: notified},
		Now:       func() time.Time { return now },
		PickIndex: func(n int) int { return 2 },
	}

	g, err := svc.Send(context.Background(), from, "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantID := "user-1_user-2_" + "1746093600000"
	if g.ID != wantID {
		t.Fatalf("unexpected greeting id: %s (want %s)", g.ID, wantID)
	}
	if g.Message != greetingMessages[2] {
		t.Fatalf("unexpected message: %q", g.Message)
	}
	if g.Read {
		t.Fatalf("greeting must start unread")
	}
	if g.FromUsername != "alice" {
		t.Fatalf("unexpected sender username: %q", g.FromUsername)
	}
	if inserted.ID != g.ID {
		t.Fatalf("insert/result mismatch: %+v vs %+v", inserted, g)
	}
	if !pub.contains(watch.GreetingsTopic("user-2")) {
		t.Fatalf("recipient topic not published: %v", pub.topics)
	}

	select {
	case got := <-notified:
		if got.ID != g.ID {
			t.Fatalf("notifier got wrong greeting: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("notifier was not invoked")
	}
}

func TestGreetingServiceSendRetriesSameMillisecond(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	var inserts []string
	svc := &GreetingService{
		Greetings: &stubGreetingsStore{
			t: t,
			insertFunc: func(_ context.Context, g domain.Greeting) error {
				inserts = append(inserts, g.ID)
				if len(inserts) == 1 {
					return domain.ErrGreetingExists
				}
				return nil
			},
		},
		Friends:   &stubChecker{friends: true},
		Now:       func() time.Time { return now },
		PickIndex: func(int) int { return 0 },
	}

	g, err := svc.Send(context.Background(), domain.User{ID: "user-1", Username: "alice"}, "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inserts) != 2 {
		t.Fatalf("expected one retry, saw %d inserts", len(inserts))
	}
	if inserts[0] != "user-1_user-2_1746093600000" {
		t.Fatalf("unexpected first id: %s", inserts[0])
	}
	if g.ID != "user-1_user-2_1746093600001" {
		t.Fatalf("unexpected retried id: %s", g.ID)
	}
	if !g.CreatedAt.Equal(now.Add(time.Millisecond)) {
		t.Fatalf("created_at not bumped with the id: %v", g.CreatedAt)
	}
}

func TestGreetingServiceSendExhaustedRetriesConflict(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	calls := 0
	svc := &GreetingService{
		Greetings: &stubGreetingsStore{
			t: t,
			insertFunc: func(_ context.Context, _ domain.Greeting) error {
				calls++
				return domain.ErrGreetingExists
			},
		},
		Friends:   &stubChecker{friends: true},
		Now:       func() time.Time { return now },
		PickIndex: func(int) int { return 0 },
	}

	_, err := svc.Send(context.Background(), domain.User{ID: "user-1"}, "user-2")
	if !errors.Is(err, domain.ErrGreetingExists) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if calls != sendAttempts {
		t.Fatalf("expected %d attempts, saw %d", sendAttempts, calls)
	}
}

func TestGreetingServiceSendRequiresFriendship(t *testing.T) {
	svc := &GreetingService{
		Greetings: &stubGreetingsStore{t: t},
		Friends:   &stubChecker{friends: false},
	}

	_, err := svc.Send(context.Background(), domain.User{ID: "user-1"}, "user-2")
	if !errors.Is(err, domain.ErrNotFriends) {
		t.Fatalf("expected not friends, got %v", err)
	}
}

func TestGreetingServiceSendSelf(t *testing.T) {
	svc := &GreetingService{
		Greetings: &stubGreetingsStore{t: t},
		Friends:   &stubChecker{friends: true},
	}

	_, err := svc.Send(context.Background(), domain.User{ID: "user-1"}, "user-1")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGreetingServiceInboxFallbackMatchesOrderedPath(t *testing.T) {
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	g1 := domain.Greeting{ID: "a_b_1", CreatedAt: base}
	g2 := domain.Greeting{ID: "a_b_2", CreatedAt: base.Add(time.Minute)}
	g3 := domain.Greeting{ID: "c_b_9", CreatedAt: base.Add(time.Minute)} // same instant as g2

	ordered := []domain.Greeting{g3, g2, g1}

	svc := &GreetingService{
		Greetings: &stubGreetingsStore{
			t: t,
			listInboxFunc: func(_ context.Context, _ string, limit int) ([]domain.Greeting, error) {
				if limit != domain.InboxLimit {
					t.Fatalf("unexpected limit: %d", limit)
				}
				return nil, domain.ErrOrderUnavailable
			},
			listInboxUnorderedFunc: func(_ context.Context, _ string, _ int) ([]domain.Greeting, error) {
				return []domain.Greeting{g1, g3, g2}, nil
			},
		},
	}

	got, err := svc.Inbox(context.Background(), "user-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(ordered) {
		t.Fatalf("unexpected length: %d", len(got))
	}
	for i := range ordered {
		if got[i].ID != ordered[i].ID {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, ordered[i].ID)
		}
	}
}

func TestGreetingServiceMarkReadPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := &GreetingService{
		Greetings: &stubGreetingsStore{
			t: t,
			markReadFunc: func(_ context.Context, userID, greetingID string) error {
				if userID != "user-2" || greetingID != "g-1" {
					t.Fatalf("unexpected mark read args: %s %s", userID, greetingID)
				}
				return nil
			},
		},
		Watch: pub,
	}

	if err := svc.MarkRead(context.Background(), "user-2", "g-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pub.contains(watch.GreetingsTopic("user-2")) {
		t.Fatalf("recipient topic not published: %v", pub.topics)
	}
}
