package httpapi

import (
	"context"
	"fmt"
	"testing"
	"time"

	"Lodugramwebserver/internal/domain"
	"Lodugramwebserver/internal/service"
	"Lodugramwebserver/internal/watch"
)

func TestGreetingsFrameUnreadCountBeyondInboxCap(t *testing.T) {
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	inbox := make([]domain.Greeting, domain.InboxLimit)
	for i := range inbox {
		inbox[i] = domain.Greeting{
			ID:        fmt.Sprintf("g%02d", i),
			ToUserID:  "user-1",
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}

	store := &stubGreetingsStore{
		t: t,
		listInboxFunc: func(_ context.Context, userID string, limit int) ([]domain.Greeting, error) {
			if userID != "user-1" || limit != domain.InboxLimit {
				t.Fatalf("unexpected inbox query: %s %d", userID, limit)
			}
			return inbox, nil
		},
		unreadCountFunc: func(_ context.Context, userID string) (int, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			return 60, nil
		},
	}

	api := &api{greetingSvc: &service.GreetingService{Greetings: store}}

	tracker := watch.NewGreetingTracker()
	frame, err := api.greetingsFrame(context.Background(), tracker, "user-1")
	if err != nil {
		t.Fatalf("greetings frame: %v", err)
	}

	if frame.UnreadCount != 60 {
		t.Fatalf("unexpected unread count: %d", frame.UnreadCount)
	}
	if len(frame.Greetings) != domain.InboxLimit {
		t.Fatalf("unexpected inbox size: %d", len(frame.Greetings))
	}
	if len(frame.New) != 0 {
		t.Fatalf("first snapshot should announce nothing, got %d", len(frame.New))
	}
}

func TestGreetingsFrameAnnouncesFreshUnread(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	snapshots := [][]domain.Greeting{
		{{ID: "g1", ToUserID: "user-1", Read: true, CreatedAt: now}},
		{
			{ID: "g2", ToUserID: "user-1", CreatedAt: now.Add(time.Minute)},
			{ID: "g1", ToUserID: "user-1", Read: true, CreatedAt: now},
		},
	}
	counts := []int{0, 1}
	call := 0

	store := &stubGreetingsStore{
		t: t,
		listInboxFunc: func(context.Context, string, int) ([]domain.Greeting, error) {
			return snapshots[call], nil
		},
		unreadCountFunc: func(context.Context, string) (int, error) {
			return counts[call], nil
		},
	}

	api := &api{greetingSvc: &service.GreetingService{Greetings: store}}
	tracker := watch.NewGreetingTracker()

	if _, err := api.greetingsFrame(context.Background(), tracker, "user-1"); err != nil {
		t.Fatalf("first frame: %v", err)
	}

	call = 1
	frame, err := api.greetingsFrame(context.Background(), tracker, "user-1")
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if frame.UnreadCount != 1 {
		t.Fatalf("unexpected unread count: %d", frame.UnreadCount)
	}
	if len(frame.New) != 1 || frame.New[0].ID != "g2" {
		t.Fatalf("unexpected new greetings: %#v", frame.New)
	}
}
