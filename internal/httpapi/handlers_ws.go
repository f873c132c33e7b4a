package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"Lodugramwebserver/internal/domain"
	"Lodugramwebserver/internal/watch"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

type wsFriendsFrame struct {
	Type string                 `json:"type"`
	Data domain.FriendsOverview `json:"data"`
}

type wsGreetingsFrame struct {
	Type        string            `json:"type"`
	Greetings   []domain.Greeting `json:"greetings"`
	UnreadCount int               `json:"unread_count"`
	New         []domain.Greeting `json:"new,omitempty"`
}

// handleWatchSocket streams live state to one client. Wakeups from the
// hub carry no payload; the handler re-queries the full snapshot and
// pushes it, so clients never see partial updates. Which greetings get
// flagged as new is decided per connection by a GreetingTracker.
func (a *api) handleWatchSocket(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	friendsSub := a.hub.Subscribe(watch.FriendsTopic(u.ID))
	defer friendsSub.Close()
	requestsSub := a.hub.Subscribe(watch.RequestsTopic(u.ID))
	defer requestsSub.Close()
	greetingsSub := a.hub.Subscribe(watch.GreetingsTopic(u.ID))
	defer greetingsSub.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	tracker := watch.NewGreetingTracker()

	if err := a.pushFriends(ctx, conn, u.ID); err != nil {
		return
	}
	if err := a.pushGreetings(ctx, conn, tracker, u.ID); err != nil {
		return
	}

	pings := time.NewTicker(wsPingInterval)
	defer pings.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-friendsSub.C:
			if err := a.pushFriends(ctx, conn, u.ID); err != nil {
				return
			}
		case <-requestsSub.C:
			if err := a.pushFriends(ctx, conn, u.ID); err != nil {
				return
			}
		case <-greetingsSub.C:
			if err := a.pushGreetings(ctx, conn, tracker, u.ID); err != nil {
				return
			}
		case <-pings.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func (a *api) pushFriends(ctx context.Context, conn *websocket.Conn, userID string) error {
	overview, err := a.friendsSvc.ListOverview(ctx, userID)
	if err != nil {
		a.logger.Warn("friends snapshot failed", "user_id", userID, "error", err)
		return err
	}
	if overview.Friends == nil {
		overview.Friends = []domain.UserSummary{}
	}
	if overview.Incoming == nil {
		overview.Incoming = []domain.FriendRequest{}
	}
	if overview.Outgoing == nil {
		overview.Outgoing = []domain.FriendRequest{}
	}

	return writeFrame(conn, wsFriendsFrame{Type: "friends", Data: overview})
}

func (a *api) pushGreetings(ctx context.Context, conn *websocket.Conn, tracker *watch.GreetingTracker, userID string) error {
	frame, err := a.greetingsFrame(ctx, tracker, userID)
	if err != nil {
		a.logger.Warn("greetings snapshot failed", "user_id", userID, "error", err)
		return err
	}
	return writeFrame(conn, frame)
}

// greetingsFrame assembles one snapshot push. The unread count comes
// from the store-side counter, not the capped inbox slice, so it stays
// correct past the feed limit.
func (a *api) greetingsFrame(ctx context.Context, tracker *watch.GreetingTracker, userID string) (wsGreetingsFrame, error) {
	greetings, err := a.greetingSvc.Inbox(ctx, userID)
	if err != nil {
		return wsGreetingsFrame{}, err
	}
	if greetings == nil {
		greetings = []domain.Greeting{}
	}

	unread, err := a.greetingSvc.UnreadCount(ctx, userID)
	if err != nil {
		return wsGreetingsFrame{}, err
	}

	return wsGreetingsFrame{
		Type:        "greetings",
		Greetings:   greetings,
		UnreadCount: unread,
		New:         tracker.Observe(greetings),
	}, nil
}

func writeFrame(conn *websocket.Conn, frame any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(frame)
}
