package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"Lodugramwebserver/internal/auth"
	"Lodugramwebserver/internal/domain"
)

type UsersStore interface {
	CreateUser(ctx context.Context, email, username, passwordHash string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error)
	GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error)
	GetUserByExternalAccount(ctx context.Context, provider, providerID string) (domain.User, error)
	CreateUserWithExternalAccount(ctx context.Context, provider, providerID, email, displayName, photoURL, passwordHash string) (domain.User, error)
	LinkExternalAccount(ctx context.Context, userID, provider, providerID, email string) error
	SetLastLogin(ctx context.Context, userID string, when time.Time) error
	ClearDeviceToken(ctx context.Context, userID string) error
}

type SessionsStore interface {
	CreateSession(ctx context.Context, userID string, expiresAt time.Time, ip, userAgent string) (string, error)
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	RevokeSession(ctx context.Context, sessionID string, when time.Time) error
}

type TokenVerifier func(ctx context.Context, tokenString, expectedAud string) (*auth.ExternalTokenClaims, error)

type AuthService struct {
	Users      UsersStore
	Sessions   SessionsStore
	SessionTTL time.Duration
	Logger     *slog.Logger
	Now        func() time.Time

	GoogleWebClientID   string
	AppleServiceID      string
	VerifyGoogleIDToken TokenVerifier
	VerifyAppleIDToken  TokenVerifier
}

func (s *AuthService) Register(ctx context.Context, email, username, password, ip, userAgent string) (domain.User, string, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(strings.ToLower(username))

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", err
	}

	u, err := s.Users.CreateUser(ctx, email, username, passwordHash)
	if err != nil {
		return domain.User{}, "", err
	}

	sessID, err := s.Sessions.CreateSession(ctx, u.ID, s.Now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}

	return u, sessID, nil
}

func (s *AuthService) Login(ctx context.Context, login, password, ip, userAgent string) (domain.User, string, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	login = strings.TrimSpace(login)

	u, err := s.Users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, "", domain.ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}
	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, "", domain.ErrUserDisabled
	}

	ok, err := auth.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		return domain.User{}, "", err
	}
	if !ok {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	sessID, err := s.Sessions.CreateSession(ctx, u.ID, s.Now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}

	_ = s.Users.SetLastLogin(ctx, u.ID, s.Now())

	return u.User, sessID, nil
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken, ip, userAgent string) (domain.User, string, error) {
	verify := s.VerifyGoogleIDToken
	if verify == nil {
		verify = auth.VerifyGoogleIDToken
	}
	claims, err := verify(ctx, idToken, s.GoogleWebClientID)
	if err != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	return s.loginExternal(ctx, "google", claims, ip, userAgent)
}

func (s *AuthService) LoginWithApple(ctx context.Context, idToken, ip, userAgent string) (domain.User, string, error) {
	verify := s.VerifyAppleIDToken
	if verify == nil {
		verify = auth.VerifyAppleIDToken
	}
	claims, err := verify(ctx, idToken, s.AppleServiceID)
	if err != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	return s.loginExternal(ctx, "apple", claims, ip, userAgent)
}

// loginExternal finds or creates the local profile for a verified
// provider identity. A new profile starts without a username; the
// client prompts for one after first sign-in.
func (s *AuthService) loginExternal(ctx context.Context, provider string, claims *auth.ExternalTokenClaims, ip, userAgent string) (domain.User, string, error) {
	if s.Now == nil {
		s.Now = time.Now
	}
	if claims == nil || claims.Subject == "" {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	u, err := s.Users.GetUserByExternalAccount(ctx, provider, claims.Subject)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		u, err = s.adoptExternalAccount(ctx, provider, claims)
		if err != nil {
			return domain.User{}, "", err
		}
	default:
		return domain.User{}, "", err
	}

	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, "", domain.ErrUserDisabled
	}

	sessID, err := s.Sessions.CreateSession(ctx, u.ID, s.Now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}

	_ = s.Users.SetLastLogin(ctx, u.ID, s.Now())

	return u, sessID, nil
}

func (s *AuthService) adoptExternalAccount(ctx context.Context, provider string, claims *auth.ExternalTokenClaims) (domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(claims.Email))

	if email != "" {
		existing, err := s.Users.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if err := s.Users.LinkExternalAccount(ctx, existing.ID, provider, claims.Subject, email); err != nil {
				return domain.User{}, err
			}
			return existing.User, nil
		case errors.Is(err, domain.ErrNotFound):
		default:
			return domain.User{}, err
		}
	}

	// Unguessable placeholder; these accounts only log in via the
	// provider.
	passwordHash, err := auth.HashPassword(randomSecret())
	if err != nil {
		return domain.User{}, err
	}

	return s.Users.CreateUserWithExternalAccount(ctx, provider, claims.Subject, email, claims.Name, claims.Picture, passwordHash)
}

// Logout revokes the session and drops the device token so a shared
// browser stops receiving this user's pushes.
func (s *AuthService) Logout(ctx context.Context, sessionID, userID string) error {
	if s.Now == nil {
		s.Now = time.Now
	}

	if userID != "" {
		if err := s.Users.ClearDeviceToken(ctx, userID); err != nil {
			s.logger().Error("auth: clear device token on logout failed", "err", err, "user_id", userID)
		}
	}

	return s.Sessions.RevokeSession(ctx, sessionID, s.Now())
}

func (s *AuthService) GetUserForSession(ctx context.Context, sessionID string) (domain.User, error) {
	sess, err := s.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}

	u, err := s.Users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, domain.ErrForbidden
	}

	return u, nil
}

func (s *AuthService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func randomSecret() string {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}
