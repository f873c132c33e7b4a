package postgres

import (
	"context"
	"errors"
	"fmt"

	"Lodugramwebserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsernamesStore struct {
	pool *pgxpool.Pool
}

func NewUsernamesStore(pool *pgxpool.Pool) *UsernamesStore {
	return &UsernamesStore{pool: pool}
}

// Reserve claims a username: the profile field and the registry row are
// written in one transaction, so a failure cannot leave a profile with
// a username but no registry entry. Usernames are claim-once; a user
// that already holds one gets ErrUsernameImmutable.
func (s *UsernamesStore) Reserve(ctx context.Context, userID, username string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reserve username: %w", err)
	}
	defer tx.Rollback(ctx)

	const updateUser = `
		UPDATE users
		SET username = $2, display_name = $2, updated_at = now()
		WHERE id = $1 AND username IS NULL
	`
	ct, err := tx.Exec(ctx, updateUser, userID, username)
	if err != nil {
		return mapUsernameWriteError(err)
	}
	if ct.RowsAffected() == 0 {
		const check = `SELECT username FROM users WHERE id = $1`
		var existing pgtype.Text
		if err := tx.QueryRow(ctx, check, userID).Scan(&existing); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("reserve username: %w", err)
		}
		return domain.ErrUsernameImmutable
	}

	const insertRecord = `
		INSERT INTO usernames (username, user_id)
		VALUES ($1, $2)
	`
	if _, err := tx.Exec(ctx, insertRecord, username, userID); err != nil {
		return mapUsernameWriteError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reserve username: %w", err)
	}
	return nil
}

func (s *UsernamesStore) Lookup(ctx context.Context, username string) (domain.UsernameRecord, error) {
	const q = `
		SELECT username, user_id, created_at
		FROM usernames
		WHERE username = $1
	`

	var (
		rec      domain.UsernameRecord
		userUUID pgtype.UUID
	)
	err := s.pool.QueryRow(ctx, q, username).Scan(&rec.Username, &userUUID, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UsernameRecord{}, domain.ErrNotFound
		}
		return domain.UsernameRecord{}, fmt.Errorf("lookup username: %w", err)
	}

	rec.UserID = uuidOrEmpty(userUUID)
	return rec, nil
}

func (s *UsernamesStore) Exists(ctx context.Context, username string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM usernames WHERE username = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, q, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("username exists: %w", err)
	}
	return exists, nil
}

func mapUsernameWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		switch pgerr.ConstraintName {
		case "usernames_pkey", "users_username_uq":
			return domain.ErrUsernameTaken
		}
	}
	return fmt.Errorf("reserve username: %w", err)
}
