package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"Lodugramwebserver/internal/domain"
)

type UsernamesStore interface {
	Reserve(ctx context.Context, userID, username string) error
	Lookup(ctx context.Context, username string) (domain.UsernameRecord, error)
	Exists(ctx context.Context, username string) (bool, error)
}

type UsernameUsersStore interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
}

const (
	usernameMinLen = 3
	usernameMaxLen = 20

	reserveAttempts = 3
	reserveBackoff  = time.Second
)

type UsernameService struct {
	Usernames UsernamesStore
	Users     UsernameUsersStore
	Logger    *slog.Logger
	Sleep     func(time.Duration)
}

// NormalizeUsername lowercases and trims; usernames are
// case-insensitive everywhere.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return domain.NewValidationError(map[string]string{"username": "must be 3-20 characters"})
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return domain.NewValidationError(map[string]string{"username": "only letters, digits and underscore"})
		}
	}
	return nil
}

func (s *UsernameService) CheckAvailability(ctx context.Context, username string) (bool, error) {
	username = NormalizeUsername(username)
	if err := validateUsername(username); err != nil {
		return false, err
	}

	exists, err := s.Usernames.Exists(ctx, username)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// Reserve claims the username for the user. Transient store failures
// are retried a fixed number of times with a flat one second pause;
// conflicts and ownership errors are returned immediately.
func (s *UsernameService) Reserve(ctx context.Context, userID, username string) error {
	username = NormalizeUsername(username)
	if err := validateUsername(username); err != nil {
		return err
	}

	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 1; attempt <= reserveAttempts; attempt++ {
		err = s.Usernames.Reserve(ctx, userID, username)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrUsernameTaken) ||
			errors.Is(err, domain.ErrUsernameImmutable) ||
			errors.Is(err, domain.ErrNotFound) {
			return err
		}
		s.logger().Warn("username: reserve attempt failed",
			"err", err, "user_id", userID, "attempt", attempt)
		if attempt < reserveAttempts {
			sleep(reserveBackoff)
		}
	}
	return err
}

// Resolve maps a username to its profile. The registry is the source
// of truth; if it misses, fall back to scanning profiles directly so a
// half-written claim still resolves.
func (s *UsernameService) Resolve(ctx context.Context, username string) (domain.User, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return domain.User{}, domain.NewValidationError(map[string]string{"username": "required"})
	}

	rec, err := s.Usernames.Lookup(ctx, username)
	switch {
	case err == nil:
		return s.Users.GetUserByID(ctx, rec.UserID)
	case errors.Is(err, domain.ErrNotFound):
		return s.Users.GetUserByUsername(ctx, username)
	default:
		return domain.User{}, err
	}
}

func (s *UsernameService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
