package domain

import (
	"strconv"
	"time"
)

// InboxLimit caps the recipient-visible greeting feed.
const InboxLimit = 50

type Greeting struct {
	ID           string    `json:"id"`
	FromUserID   string    `json:"from_user_id"`
	ToUserID     string    `json:"to_user_id"`
	FromUsername string    `json:"from_username"`
	Message      string    `json:"message"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
}

// GreetingID builds the composite id senderID_recipientID_millis.
func GreetingID(fromUserID, toUserID string, when time.Time) string {
	return fromUserID + "_" + toUserID + "_" + strconv.FormatInt(when.UnixMilli(), 10)
}
