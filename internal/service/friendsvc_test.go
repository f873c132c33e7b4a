package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"Lodugramwebserver/internal/domain"
	"Lodugramwebserver/internal/watch"
)

type stubFriendshipsStore struct {
	t *testing.T

	createRequestFunc func(context.Context, string, string, string, string) (string, time.Time, error)
	acceptFunc        func(context.Context, string, string, time.Time) (domain.Friendship, error)
	declineFunc       func(context.Context, string, string, time.Time) error
	listOverviewFunc  func(context.Context, string) (domain.FriendsOverview, error)
	areFriendsFunc    func(context.Context, string, string) (bool, error)
	removeFunc        func(context.Context, string, string) error
}

func (s *stubFriendshipsStore) CreateRequest(ctx context.Context, requesterID, addresseeID, fromUsername, fromPhotoURL string) (string, time.Time, error) {
	if s.createRequestFunc != nil {
		return s.createRequestFunc(ctx, requesterID, addresseeID, fromUsername, fromPhotoURL)
	}
	s.t.Fatalf("CreateRequest called unexpectedly")
	return "", time.Time{}, errors.New("unexpected call")
}

func (s *stubFriendshipsStore) Accept(ctx context.Context, requestID, addresseeID string, when time.Time) (domain.Friendship, error) {
	if s.acceptFunc != nil {
		return s.acceptFunc(ctx, requestID, addresseeID, when)
	}
	s.t.Fatalf("Accept called unexpectedly")
	return domain.Friendship{}, errors.New("unexpected call")
}

func (s *stubFriendshipsStore) Decline(ctx context.Context, requestID, addresseeID string, when time.Time) error {
	if s.declineFunc != nil {
		return s.declineFunc(ctx, requestID, addresseeID, when)
	}
	s.t.Fatalf("Decline called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubFriendshipsStore) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	if s.listOverviewFunc != nil {
		return s.listOverviewFunc(ctx, userID)
	}
	s.t.Fatalf("ListOverview called unexpectedly")
	return domain.FriendsOverview{}, errors.New("unexpected call")
}

func (s *stubFriendshipsStore) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	if s.areFriendsFunc != nil {
		return s.areFriendsFunc(ctx, userA, userB)
	}
	s.t.Fatalf("AreFriends called unexpectedly")
	return false, errors.New("unexpected call")
}

func (s *stubFriendshipsStore) Remove(ctx context.Context, userA, userB string) error {
	if s.removeFunc != nil {
		return s.removeFunc(ctx, userA, userB)
	}
	s.t.Fatalf("Remove called unexpectedly")
	return errors.New("unexpected call")
}

type stubResolver struct {
	t *testing.T

	resolveFunc func(context.Context, string) (domain.User, error)
}

func (s *stubResolver) Resolve(ctx context.Context, username string) (domain.User, error) {
	if s.resolveFunc != nil {
		return s.resolveFunc(ctx, username)
	}
	s.t.Fatalf("Resolve called unexpectedly")
	return domain.User{}, errors.New("unexpected call")
}

type recordingPublisher struct {
	topics []string
}

func (p *recordingPublisher) Publish(topic string) {
	p.topics = append(p.topics, topic)
}

func (p *recordingPublisher) contains(topic string) bool {
	for _, got := range p.topics {
		if got == topic {
			return true
		}
	}
	return false
}

func TestFriendsServiceCreateRequest(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	requester := domain.User{ID: "user-1", Username: "alice", PhotoURL: "https://img.example/a.png"}

	pub := &recordingPublisher{}
	svc := &FriendsService{
		Friendships: &stubFriendshipsStore{
			t: t,
			areFriendsFunc: func(_ context.Context, a, b string) (bool, error) {
				if a != "user-1" || b != "user-2" {
					t.Fatalf("unexpected membership check: %s %s", a, b)
				}
				return false, nil
			},
			createRequestFunc: func(_ context.Context, requesterID, addresseeID, fromUsername, fromPhotoURL string) (string, time.Time, error) {
				if requesterID != "user-1" || addresseeID != "user-2" {
					t.Fatalf("unexpected request pair: %s %s", requesterID, addresseeID)
				}
				if fromUsername != "alice" || fromPhotoURL != "https://img.example/a.png" {
					t.Fatalf("snapshot fields not propagated")
				}
				return "user-1_user-2", now, nil
			},
		},
		Resolver: &stubResolver{
			t: t,
			resolveFunc: func(_ context.Context, username string) (domain.User, error) {
				if username != "bob" {
					t.Fatalf("unexpected username: %s", username)
				}
				return domain.User{ID: "user-2", Username: "bob"}, nil
			},
		},
		Watch: pub,
		Now:   func() time.Time { return now },
	}

	req, err := svc.CreateRequest(context.Background(), requester, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ID != "user-1_user-2" || req.User.ID != "user-2" || req.Status != domain.RequestStatusPending {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !pub.contains(watch.RequestsTopic("user-2")) {
		t.Fatalf("addressee requests topic not published: %v", pub.topics)
	}
}

func TestFriendsServiceCreateRequestSelf(t *testing.T) {
	svc := &FriendsService{
		Friendships: &stubFriendshipsStore{t: t},
		Resolver: &stubResolver{
			t: t,
			resolveFunc: func(_ context.Context, _ string) (domain.User, error) {
				return domain.User{ID: "user-1", Username: "alice"}, nil
			},
		},
	}

	_, err := svc.CreateRequest(context.Background(), domain.User{ID: "user-1", Username: "alice"}, "alice")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFriendsServiceCreateRequestAlreadyFriends(t *testing.T) {
	svc := &FriendsService{
		Friendships: &stubFriendshipsStore{
			t: t,
			areFriendsFunc: func(_ context.Context, _, _ string) (bool, error) {
				return true, nil
			},
		},
		Resolver: &stubResolver{
			t: t,
			resolveFunc: func(_ context.Context, _ string) (domain.User, error) {
				return domain.User{ID: "user-2", Username: "bob"}, nil
			},
		},
	}

	_, err := svc.CreateRequest(context.Background(), domain.User{ID: "user-1"}, "bob")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFriendsServiceAcceptPublishesBothSides(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	pub := &recordingPublisher{}

	svc := &FriendsService{
		Friendships: &stubFriendshipsStore{
			t: t,
			acceptFunc: func(_ context.Context, requestID, addresseeID string, when time.Time) (domain.Friendship, error) {
				if requestID != "user-1_user-2" || addresseeID != "user-2" {
					t.Fatalf("unexpected accept args: %s %s", requestID, addresseeID)
				}
				return domain.Friendship{
					ID:          "user-1_user-2",
					UserLo:      "user-1",
					UserHi:      "user-2",
					RequesterID: "user-1",
					CreatedAt:   when,
				}, nil
			},
		},
		Watch: pub,
		Now:   func() time.Time { return now },
	}

	fs, err := svc.Accept(context.Background(), "user-2", "user-1_user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.ID != "user-1_user-2" {
		t.Fatalf("unexpected friendship: %+v", fs)
	}
	for _, topic := range []string{
		watch.FriendsTopic("user-1"),
		watch.FriendsTopic("user-2"),
		watch.RequestsTopic("user-2"),
		watch.RequestsTopic("user-1"),
	} {
		if !pub.contains(topic) {
			t.Fatalf("missing publish %s, got %v", topic, pub.topics)
		}
	}
}

func TestFriendsServiceRemoveValidatesTarget(t *testing.T) {
	svc := &FriendsService{Friendships: &stubFriendshipsStore{t: t}}

	if err := svc.Remove(context.Background(), "user-1", "user-1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.Remove(context.Background(), "user-1", " "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
