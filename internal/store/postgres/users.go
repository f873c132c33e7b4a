package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Lodugramwebserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

const userColumns = `id, email, username, display_name, photo_url, device_token, status, created_at, updated_at, last_login_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u           domain.User
		idUUID      pgtype.UUID
		emailText   pgtype.Text
		nameText    pgtype.Text
		tokenText   pgtype.Text
		lastLoginTS pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&emailText,
		&nameText,
		&u.DisplayName,
		&u.PhotoURL,
		&tokenText,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Email = textOrEmpty(emailText)
	u.Username = textOrEmpty(nameText)
	u.DeviceToken = textOrEmpty(tokenText)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	return u, nil
}

func (s *UsersStore) CreateUser(ctx context.Context, email, username, passwordHash string) (domain.User, error) {
	const q = `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, q, nullIfEmpty(email), nullIfEmpty(username), passwordHash))
	if err != nil {
		return domain.User{}, mapUserWriteError(err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetUserByUsername is the resilience fallback for username resolution:
// a direct scan of the profile collection by the username field, used
// when the registry lookup misses.
func (s *UsersStore) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1 LIMIT 1`

	u, err := scanUser(s.pool.QueryRow(ctx, q, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	const q = `
		SELECT ` + userColumns + `, password_hash
		FROM users
		WHERE username = $1 OR (email IS NOT NULL AND email = $1)
		ORDER BY (username = $1) DESC
		LIMIT 1
	`
	return s.getWithPassword(ctx, q, login, "get user by login")
}

func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	const q = `
		SELECT ` + userColumns + `, password_hash
		FROM users
		WHERE email = $1
		LIMIT 1
	`
	return s.getWithPassword(ctx, q, email, "get user by email")
}

func (s *UsersStore) getWithPassword(ctx context.Context, q, arg, op string) (domain.UserWithPassword, error) {
	var (
		u           domain.UserWithPassword
		idUUID      pgtype.UUID
		emailText   pgtype.Text
		nameText    pgtype.Text
		tokenText   pgtype.Text
		lastLoginTS pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, arg).Scan(
		&idUUID,
		&emailText,
		&nameText,
		&u.DisplayName,
		&u.PhotoURL,
		&tokenText,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
		&u.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("%s: %w", op, err)
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Email = textOrEmpty(emailText)
	u.Username = textOrEmpty(nameText)
	u.DeviceToken = textOrEmpty(tokenText)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	return u, nil
}

func (s *UsersStore) GetUserByExternalAccount(ctx context.Context, provider, providerID string) (domain.User, error) {
	const q = `
		SELECT ` + prefixedUserColumns + `
		FROM users u
		JOIN external_accounts ea ON ea.user_id = u.id
		WHERE ea.provider = $1 AND ea.provider_id = $2
	`

	u, err := scanUser(s.pool.QueryRow(ctx, q, provider, providerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by external account: %w", err)
	}
	return u, nil
}

const prefixedUserColumns = `u.id, u.email, u.username, u.display_name, u.photo_url, u.device_token, u.status, u.created_at, u.updated_at, u.last_login_at`

func (s *UsersStore) CreateUserWithExternalAccount(ctx context.Context, provider, providerID, email, displayName, photoURL, passwordHash string) (domain.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("begin create external user: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertUser = `
		INSERT INTO users (email, display_name, photo_url, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	u, err := scanUser(tx.QueryRow(ctx, insertUser, nullIfEmpty(email), displayName, photoURL, passwordHash))
	if err != nil {
		return domain.User{}, mapUserWriteError(err)
	}

	const insertAccount = `
		INSERT INTO external_accounts (user_id, provider, provider_id, email)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insertAccount, u.ID, provider, providerID, email); err != nil {
		return domain.User{}, mapExternalAccountError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.User{}, fmt.Errorf("commit create external user: %w", err)
	}
	return u, nil
}

func (s *UsersStore) LinkExternalAccount(ctx context.Context, userID, provider, providerID, email string) error {
	const q = `
		INSERT INTO external_accounts (user_id, provider, provider_id, email)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.pool.Exec(ctx, q, userID, provider, providerID, email); err != nil {
		return mapExternalAccountError(err)
	}
	return nil
}

func (s *UsersStore) SetLastLogin(ctx context.Context, userID string, when time.Time) error {
	const q = `
		UPDATE users
		SET last_login_at = $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, q, userID, when); err != nil {
		return fmt.Errorf("set last login: %w", err)
	}
	return nil
}

func (s *UsersStore) SetDeviceToken(ctx context.Context, userID, token string) error {
	const q = `
		UPDATE users
		SET device_token = $2, updated_at = now()
		WHERE id = $1
	`
	ct, err := s.pool.Exec(ctx, q, userID, nullIfEmpty(token))
	if err != nil {
		return fmt.Errorf("set device token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UsersStore) ClearDeviceToken(ctx context.Context, userID string) error {
	return s.SetDeviceToken(ctx, userID, "")
}

// ListDeviceTokens enumerates every profile holding a token, for the
// sweep job and for broadcast sends.
func (s *UsersStore) ListDeviceTokens(ctx context.Context) ([]domain.UserDeviceToken, error) {
	const q = `
		SELECT id, device_token
		FROM users
		WHERE device_token IS NOT NULL
		ORDER BY id
	`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list device tokens: %w", err)
	}
	defer rows.Close()

	var out []domain.UserDeviceToken
	for rows.Next() {
		var idUUID pgtype.UUID
		var token string
		if err := rows.Scan(&idUUID, &token); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		out = append(out, domain.UserDeviceToken{UserID: uuidOrEmpty(idUUID), Token: token})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list device tokens: %w", err)
	}
	return out, nil
}

// ClearDeviceTokens nulls the token field for every listed user in a
// single statement, the batched write the sweep job ends with.
func (s *UsersStore) ClearDeviceTokens(ctx context.Context, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	const q = `
		UPDATE users
		SET device_token = NULL, updated_at = now()
		WHERE id = ANY($1)
	`
	if _, err := s.pool.Exec(ctx, q, userIDs); err != nil {
		return fmt.Errorf("clear device tokens: %w", err)
	}
	return nil
}

func mapUserWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		switch pgerr.ConstraintName {
		case "users_username_uq":
			return domain.ErrUsernameTaken
		case "users_email_uq":
			return domain.ErrEmailTaken
		default:
			return fmt.Errorf("unique violation (%s): %w", pgerr.ConstraintName, err)
		}
	}
	return fmt.Errorf("create user: %w", err)
}

func mapExternalAccountError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" && pgerr.ConstraintName == "external_accounts_provider_uq" {
		return domain.ErrExternalAccountExists
	}
	return fmt.Errorf("link external account: %w", err)
}
