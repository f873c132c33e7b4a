package service

import (
	"context"
	"strings"
	"time"

	"Lodugramwebserver/internal/domain"
	"Lodugramwebserver/internal/watch"
)

type FriendshipsStore interface {
	CreateRequest(ctx context.Context, requesterID, addresseeID, fromUsername, fromPhotoURL string) (string, time.Time, error)
	Accept(ctx context.Context, requestID, addresseeID string, when time.Time) (domain.Friendship, error)
	Decline(ctx context.Context, requestID, addresseeID string, when time.Time) error
	ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error)
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
	Remove(ctx context.Context, userA, userB string) error
}

type UsernameResolver interface {
	Resolve(ctx context.Context, username string) (domain.User, error)
}

// Publisher is the watch-hub surface the services need.
type Publisher interface {
	Publish(topic string)
}

type FriendsService struct {
	Friendships FriendshipsStore
	Resolver    UsernameResolver
	Watch       Publisher
	Now         func() time.Time
}

func (s *FriendsService) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	return s.Friendships.ListOverview(ctx, userID)
}

func (s *FriendsService) CreateRequest(ctx context.Context, requester domain.User, targetUsername string) (domain.FriendRequest, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	targetUsername = strings.TrimSpace(targetUsername)
	if targetUsername == "" {
		return domain.FriendRequest{}, domain.NewValidationError(map[string]string{"username": "required"})
	}

	target, err := s.Resolver.Resolve(ctx, targetUsername)
	if err != nil {
		return domain.FriendRequest{}, err
	}
	if target.ID == requester.ID {
		return domain.FriendRequest{}, domain.NewValidationError(map[string]string{"username": "cannot friend yourself"})
	}
	if target.Status == domain.UserStatusDisabled {
		return domain.FriendRequest{}, domain.ErrForbidden
	}

	already, err := s.Friendships.AreFriends(ctx, requester.ID, target.ID)
	if err != nil {
		return domain.FriendRequest{}, err
	}
	if already {
		return domain.FriendRequest{}, domain.NewValidationError(map[string]string{"username": "already friends"})
	}

	id, createdAt, err := s.Friendships.CreateRequest(ctx, requester.ID, target.ID, requester.Username, requester.PhotoURL)
	if err != nil {
		return domain.FriendRequest{}, err
	}

	s.publish(watch.RequestsTopic(target.ID))

	return domain.FriendRequest{
		ID:        id,
		User:      domain.UserSummary{ID: target.ID, Username: target.Username, PhotoURL: target.PhotoURL},
		Status:    domain.RequestStatusPending,
		CreatedAt: createdAt,
	}, nil
}

func (s *FriendsService) Accept(ctx context.Context, addresseeID, requestID string) (domain.Friendship, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	fs, err := s.Friendships.Accept(ctx, requestID, addresseeID, s.Now().UTC().Truncate(time.Millisecond))
	if err != nil {
		return domain.Friendship{}, err
	}

	s.publish(watch.FriendsTopic(fs.UserLo))
	s.publish(watch.FriendsTopic(fs.UserHi))
	s.publish(watch.RequestsTopic(addresseeID))
	s.publish(watch.RequestsTopic(fs.RequesterID))

	return fs, nil
}

func (s *FriendsService) Decline(ctx context.Context, addresseeID, requestID string) error {
	if s.Now == nil {
		s.Now = time.Now
	}

	if err := s.Friendships.Decline(ctx, requestID, addresseeID, s.Now().UTC().Truncate(time.Millisecond)); err != nil {
		return err
	}

	s.publish(watch.RequestsTopic(addresseeID))
	return nil
}

// Remove unfriends the pair. The id is canonical, so either side may
// call this with the other's user id.
func (s *FriendsService) Remove(ctx context.Context, userID, otherUserID string) error {
	otherUserID = strings.TrimSpace(otherUserID)
	if otherUserID == "" || otherUserID == userID {
		return domain.NewValidationError(map[string]string{"user_id": "invalid"})
	}

	if err := s.Friendships.Remove(ctx, userID, otherUserID); err != nil {
		return err
	}

	s.publish(watch.FriendsTopic(userID))
	s.publish(watch.FriendsTopic(otherUserID))
	return nil
}

func (s *FriendsService) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	return s.Friendships.AreFriends(ctx, userA, userB)
}

func (s *FriendsService) publish(topic string) {
	if s.Watch != nil {
		s.Watch.Publish(topic)
	}
}
