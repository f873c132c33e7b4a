package watch

import "testing"

func TestHubPublishWakesAllSubscribers(t *testing.T) {
	h := NewHub()
	a := h.Subscribe(GreetingsTopic("u1"))
	b := h.Subscribe(GreetingsTopic("u1"))
	other := h.Subscribe(GreetingsTopic("u2"))
	defer a.Close()
	defer b.Close()
	defer other.Close()

	h.Publish(GreetingsTopic("u1"))

	select {
	case <-a.C:
	default:
		t.Fatalf("subscriber a not woken")
	}
	select {
	case <-b.C:
	default:
		t.Fatalf("subscriber b not woken")
	}
	select {
	case <-other.C:
		t.Fatalf("subscriber on another topic was woken")
	default:
	}
}

func TestHubPublishesCoalesce(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(FriendsTopic("u1"))
	defer sub.Close()

	h.Publish(FriendsTopic("u1"))
	h.Publish(FriendsTopic("u1"))
	h.Publish(FriendsTopic("u1"))

	<-sub.C
	select {
	case <-sub.C:
		t.Fatalf("expected publishes to coalesce into one wakeup")
	default:
	}
}

func TestHubCloseDetaches(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(RequestsTopic("u1"))
	sub.Close()
	sub.Close() // double close is safe

	h.Publish(RequestsTopic("u1"))

	select {
	case <-sub.C:
		t.Fatalf("closed subscription received a wakeup")
	default:
	}
}

func TestHubSubscriptionIDsUnique(t *testing.T) {
	h := NewHub()
	a := h.Subscribe(FriendsTopic("u1"))
	b := h.Subscribe(FriendsTopic("u1"))
	defer a.Close()
	defer b.Close()

	if a.ID == b.ID {
		t.Fatalf("subscription ids collide: %s", a.ID)
	}
}
