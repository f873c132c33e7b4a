package domain

import "time"

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	PhotoURL string `json:"photo_url,omitempty"`
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusDeclined RequestStatus = "declined"
)

// FriendRequest is a directed request. Its id is the deterministic
// composite requesterID_addresseeID, so a second request for the same
// ordered pair collides instead of duplicating.
type FriendRequest struct {
	ID         string        `json:"id"`
	User       UserSummary   `json:"user"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}

// Friendship is undirected but keyed canonically: the id joins the
// lexicographically smaller and larger user ids, so either party maps
// to the same row. RequesterID records who asked first.
type Friendship struct {
	ID          string    `json:"id"`
	UserLo      string    `json:"-"`
	UserHi      string    `json:"-"`
	RequesterID string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

type FriendsOverview struct {
	Friends  []UserSummary   `json:"friends"`
	Incoming []FriendRequest `json:"incoming_requests"`
	Outgoing []FriendRequest `json:"outgoing_requests"`
}

// FriendRequestID builds the deterministic composite request id.
func FriendRequestID(requesterID, addresseeID string) string {
	return requesterID + "_" + addresseeID
}

// FriendshipID builds the canonical pair id regardless of argument order.
func FriendshipID(userA, userB string) string {
	lo, hi := CanonicalPair(userA, userB)
	return lo + "_" + hi
}

func CanonicalPair(userA, userB string) (lo, hi string) {
	if userA <= userB {
		return userA, userB
	}
	return userB, userA
}
