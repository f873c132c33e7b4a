package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"Lodugramwebserver/internal/domain"
	"Lodugramwebserver/internal/notifications"
)

type NotificationUsersStore interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	SetDeviceToken(ctx context.Context, userID, token string) error
	ClearDeviceToken(ctx context.Context, userID string) error
	ListDeviceTokens(ctx context.Context) ([]domain.UserDeviceToken, error)
	ClearDeviceTokens(ctx context.Context, userIDs []string) error
}

type PushSender interface {
	Send(ctx context.Context, token string, msg notifications.Message) (string, error)
	Probe(ctx context.Context, token string) error
}

type BroadcastResult struct {
	Success      bool `json:"success"`
	SuccessCount int  `json:"successCount"`
	FailureCount int  `json:"failureCount"`
}

type CleanupResult struct {
	Success      bool `json:"success"`
	CleanedCount int  `json:"cleanedCount"`
}

type NotificationService struct {
	Users  NotificationUsersStore
	Sender PushSender
	Logger *slog.Logger
}

func (s *NotificationService) RegisterToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.NewValidationError(map[string]string{"token": "required"})
	}
	return s.Users.SetDeviceToken(ctx, userID, token)
}

func (s *NotificationService) ClearToken(ctx context.Context, userID string) error {
	return s.Users.ClearDeviceToken(ctx, userID)
}

// SendToUser delivers one push to a specific user's device and returns
// the provider message id.
func (s *NotificationService) SendToUser(ctx context.Context, userID, title, body string, data map[string]string) (string, error) {
	fields := map[string]string{}
	if strings.TrimSpace(userID) == "" {
		fields["user_id"] = "required"
	}
	if strings.TrimSpace(title) == "" {
		fields["title"] = "required"
	}
	if strings.TrimSpace(body) == "" {
		fields["body"] = "required"
	}
	if len(fields) > 0 {
		return "", domain.NewValidationError(fields)
	}

	u, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.DeviceToken == "" {
		return "", domain.ErrNoDeviceToken
	}

	msgID, err := s.Sender.Send(ctx, u.DeviceToken, notifications.Message{
		Data:         data,
		Notification: &notifications.Notification{Title: title, Body: body},
	})
	if err != nil {
		return "", fmt.Errorf("send notification: %w", err)
	}
	return msgID, nil
}

// SendToAll pushes the same message to every registered device and
// reports how many sends succeeded.
func (s *NotificationService) SendToAll(ctx context.Context, title, body string, data map[string]string) (BroadcastResult, error) {
	fields := map[string]string{}
	if strings.TrimSpace(title) == "" {
		fields["title"] = "required"
	}
	if strings.TrimSpace(body) == "" {
		fields["body"] = "required"
	}
	if len(fields) > 0 {
		return BroadcastResult{}, domain.NewValidationError(fields)
	}

	tokens, err := s.Users.ListDeviceTokens(ctx)
	if err != nil {
		return BroadcastResult{}, err
	}
	if len(tokens) == 0 {
		return BroadcastResult{Success: true}, nil
	}

	msg := notifications.Message{
		Data:         data,
		Notification: &notifications.Notification{Title: title, Body: body},
	}

	result := BroadcastResult{Success: true}
	for _, t := range tokens {
		if _, err := s.Sender.Send(ctx, t.Token, msg); err != nil {
			result.FailureCount++
			s.logger().Error("notifications: broadcast send failed", "err", err, "user_id", t.UserID)
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

// NotifyGreeting pushes the greeting text to the recipient's device.
// A recipient without a token gets nothing; that is not an error.
func (s *NotificationService) NotifyGreeting(ctx context.Context, g domain.Greeting) error {
	if g.FromUserID == "" || g.ToUserID == "" || g.Message == "" {
		return nil
	}

	sender, err := s.Users.GetUserByID(ctx, g.FromUserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	name := sender.Username
	if name == "" {
		name = sender.DisplayName
	}
	if name == "" {
		name = "Someone"
	}

	recipient, err := s.Users.GetUserByID(ctx, g.ToUserID)
	if err != nil {
		return err
	}
	if recipient.DeviceToken == "" {
		return nil
	}

	_, err = s.Sender.Send(ctx, recipient.DeviceToken, notifications.Message{
		Data: map[string]string{
			"type":         "greeting",
			"from_user_id": g.FromUserID,
			"to_user_id":   g.ToUserID,
			"greeting_id":  g.ID,
		},
		Notification: &notifications.Notification{
			Title: fmt.Sprintf("Greeting from @%s!", name),
			Body:  g.Message,
		},
	})
	if err != nil {
		if errors.Is(err, notifications.ErrInvalidToken) {
			if clearErr := s.Users.ClearDeviceToken(ctx, g.ToUserID); clearErr != nil {
				s.logger().Error("notifications: clear invalid token failed", "err", clearErr, "user_id", g.ToUserID)
			}
			return nil
		}
		return err
	}
	return nil
}

// CleanupTokens probes every registered token with a silent send and
// clears the ones that fail. Any probe failure counts; a token that is
// merely unreachable today gets re-registered on the next visit.
func (s *NotificationService) CleanupTokens(ctx context.Context) (CleanupResult, error) {
	tokens, err := s.Users.ListDeviceTokens(ctx)
	if err != nil {
		return CleanupResult{}, err
	}

	var stale []string
	for _, t := range tokens {
		if err := s.Sender.Probe(ctx, t.Token); err != nil {
			s.logger().Info("notifications: dropping undeliverable token", "user_id", t.UserID, "err", err)
			stale = append(stale, t.UserID)
		}
	}

	if len(stale) > 0 {
		if err := s.Users.ClearDeviceTokens(ctx, stale); err != nil {
			return CleanupResult{}, err
		}
		s.logger().Info("notifications: token sweep complete", "cleaned", len(stale))
	}

	return CleanupResult{Success: true, CleanedCount: len(stale)}, nil
}

func (s *NotificationService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
