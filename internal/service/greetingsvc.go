package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"time"

	"Lodugramwebserver/internal/domain"
	"Lodugramwebserver/internal/watch"
)

// The fixed pool a greeting's text is drawn from.
var greetingMessages = []string{
	"Hey there! Hope you're having an amazing day! 🌟",
	"Just wanted to send you some positive vibes! ✨",
	"Thinking of you and hoping your day is wonderful! 💫",
	"Sending you a virtual hug and lots of love! 🤗",
	"You're awesome and I hope you know it! 🌈",
	"Wishing you joy, laughter, and all the good things! 🎉",
	"You make the world a better place! 🌍",
	"Sending you sunshine and smiles! ☀️",
	"Hope your day is as amazing as you are! 🌟",
	"You're doing great and I'm proud of you! 🏆",
	"Sending you good vibes and positive energy! ✨",
	"You're loved and appreciated! 💖",
	"Hope you're having a fantastic day! 🎊",
	"You're incredible and don't forget it! 💪",
	"Sending you warm thoughts and good wishes! 🌸",
}

const sendAttempts = 3

type GreetingsStore interface {
	Insert(ctx context.Context, g domain.Greeting) error
	ListInbox(ctx context.Context, userID string, limit int) ([]domain.Greeting, error)
	ListInboxUnordered(ctx context.Context, userID string, limit int) ([]domain.Greeting, error)
	MarkRead(ctx context.Context, userID, greetingID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type FriendshipChecker interface {
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
}

type GreetingNotifier interface {
	NotifyGreeting(ctx context.Context, g domain.Greeting) error
}

type GreetingService struct {
	Greetings GreetingsStore
	Friends   FriendshipChecker
	Watch     Publisher
	Notifier  GreetingNotifier
	Logger    *slog.Logger
	Now       func() time.Time
	PickIndex func(n int) int
}

// Send appends a greeting with a random message from the pool. Only
// friends can greet each other. The push notification fires after the
// write, off the request path; a delivery failure never fails the send.
func (s *GreetingService) Send(ctx context.Context, from domain.User, toUserID string) (domain.Greeting, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	toUserID = strings.TrimSpace(toUserID)
	if toUserID == "" {
		return domain.Greeting{}, domain.NewValidationError(map[string]string{"to_user_id": "required"})
	}
	if toUserID == from.ID {
		return domain.Greeting{}, domain.NewValidationError(map[string]string{"to_user_id": "cannot greet yourself"})
	}

	friends, err := s.Friends.AreFriends(ctx, from.ID, toUserID)
	if err != nil {
		return domain.Greeting{}, err
	}
	if !friends {
		return domain.Greeting{}, domain.ErrNotFriends
	}

	pick := s.PickIndex
	if pick == nil {
		pick = rand.Intn
	}

	fromUsername := from.Username
	if fromUsername == "" {
		fromUsername = from.DisplayName
	}

	when := s.Now().UTC().Truncate(time.Millisecond)
	g := domain.Greeting{
		FromUserID:   from.ID,
		ToUserID:     toUserID,
		FromUsername: fromUsername,
		Message:      greetingMessages[pick(len(greetingMessages))],
		Read:         false,
	}

	// The id carries a millisecond timestamp, so two sends to the same
	// recipient inside one millisecond collide; bump to the next
	// millisecond and retry.
	var insertErr error
	for attempt := 0; attempt < sendAttempts; attempt++ {
		g.ID = domain.GreetingID(from.ID, toUserID, when)
		g.CreatedAt = when
		insertErr = s.Greetings.Insert(ctx, g)
		if insertErr == nil {
			break
		}
		if !errors.Is(insertErr, domain.ErrGreetingExists) {
			return domain.Greeting{}, insertErr
		}
		when = when.Add(time.Millisecond)
	}
	if insertErr != nil {
		return domain.Greeting{}, insertErr
	}

	s.publish(watch.GreetingsTopic(toUserID))

	if s.Notifier != nil {
		go func(g domain.Greeting) {
			if err := s.Notifier.NotifyGreeting(context.WithoutCancel(ctx), g); err != nil {
				s.logger().Error("greetings: notify failed", "err", err, "greeting_id", g.ID)
			}
		}(g)
	}

	return g, nil
}

// Inbox returns the newest greetings for the recipient. If the store
// cannot serve the ordered query, the unordered result is sorted here
// with the same key, so both paths return identical output.
func (s *GreetingService) Inbox(ctx context.Context, userID string) ([]domain.Greeting, error) {
	out, err := s.Greetings.ListInbox(ctx, userID, domain.InboxLimit)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, domain.ErrOrderUnavailable) {
		return nil, err
	}

	s.logger().Warn("greetings: ordered inbox unavailable, sorting locally", "user_id", userID)
	out, err = s.Greetings.ListInboxUnordered(ctx, userID, domain.InboxLimit)
	if err != nil {
		return nil, err
	}
	SortInbox(out)
	return out, nil
}

// SortInbox orders greetings newest first, ties broken by id
// descending. This must match the store's ordered query exactly.
func SortInbox(greetings []domain.Greeting) {
	sort.SliceStable(greetings, func(i, j int) bool {
		if !greetings[i].CreatedAt.Equal(greetings[j].CreatedAt) {
			return greetings[i].CreatedAt.After(greetings[j].CreatedAt)
		}
		return greetings[i].ID > greetings[j].ID
	})
}

func (s *GreetingService) MarkRead(ctx context.Context, userID, greetingID string) error {
	greetingID = strings.TrimSpace(greetingID)
	if greetingID == "" {
		return domain.NewValidationError(map[string]string{"greeting_id": "required"})
	}

	if err := s.Greetings.MarkRead(ctx, userID, greetingID); err != nil {
		return err
	}

	s.publish(watch.GreetingsTopic(userID))
	return nil
}

func (s *GreetingService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.Greetings.UnreadCount(ctx, userID)
}

func (s *GreetingService) publish(topic string) {
	if s.Watch != nil {
		s.Watch.Publish(topic)
	}
}

func (s *GreetingService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
