package watch

import (
	"testing"
	"time"

	"Lodugramwebserver/internal/domain"
)

func greeting(id string, read bool) domain.Greeting {
	return domain.Greeting{
		ID:           id,
		FromUserID:   "from",
		ToUserID:     "to",
		FromUsername: "alice",
		Message:      "Hello there! 👋",
		Read:         read,
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestTrackerFirstSnapshotReportsNothing(t *testing.T) {
	tr := NewGreetingTracker()

	fresh := tr.Observe([]domain.Greeting{greeting("g1", false), greeting("g2", false)})
	if len(fresh) != 0 {
		t.Fatalf("first snapshot announced %d greetings, want 0", len(fresh))
	}
}

func TestTrackerReportsNewUnreadOnce(t *testing.T) {
	tr := NewGreetingTracker()
	tr.Observe([]domain.Greeting{greeting("g1", false)})

	fresh := tr.Observe([]domain.Greeting{greeting("g2", false), greeting("g1", false)})
	if len(fresh) != 1 || fresh[0].ID != "g2" {
		t.Fatalf("expected exactly g2, got %v", fresh)
	}

	fresh = tr.Observe([]domain.Greeting{greeting("g2", false), greeting("g1", false)})
	if len(fresh) != 0 {
		t.Fatalf("repeat snapshot re-announced %d greetings", len(fresh))
	}
}

func TestTrackerIgnoresReadGreetings(t *testing.T) {
	tr := NewGreetingTracker()
	tr.Observe(nil)

	fresh := tr.Observe([]domain.Greeting{greeting("g1", true)})
	if len(fresh) != 0 {
		t.Fatalf("read greeting was announced")
	}
}

func TestTrackerSeenSetReplacedWholesale(t *testing.T) {
	tr := NewGreetingTracker()
	tr.Observe([]domain.Greeting{greeting("g1", false)})

	// g1 falls off the snapshot, then reappears: absent from the
	// previous set, so it is announced again.
	tr.Observe([]domain.Greeting{greeting("g2", false)})
	fresh := tr.Observe([]domain.Greeting{greeting("g1", false), greeting("g2", false)})
	if len(fresh) != 1 || fresh[0].ID != "g1" {
		t.Fatalf("expected g1 after falling out of window, got %v", fresh)
	}
}
