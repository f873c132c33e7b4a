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

type GreetingsStore struct {
	pool *pgxpool.Pool
}

func NewGreetingsStore(pool *pgxpool.Pool) *GreetingsStore {
	return &GreetingsStore{pool: pool}
}

func (s *GreetingsStore) Insert(ctx context.Context, g domain.Greeting) error {
	const q = `
		INSERT INTO greetings (id, from_user_id, to_user_id, from_username, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, q, g.ID, g.FromUserID, g.ToUserID, g.FromUsername, g.Message, g.Read, g.CreatedAt)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" && pgerr.ConstraintName == "greetings_pkey" {
			return domain.ErrGreetingExists
		}
		return fmt.Errorf("insert greeting: %w", err)
	}
	return nil
}

const greetingColumns = `id, from_user_id, to_user_id, from_username, message, read, created_at`

func scanGreeting(rows pgx.Rows) (domain.Greeting, error) {
	var (
		g        domain.Greeting
		fromUUID pgtype.UUID
		toUUID   pgtype.UUID
	)
	err := rows.Scan(&g.ID, &fromUUID, &toUUID, &g.FromUsername, &g.Message, &g.Read, &g.CreatedAt)
	if err != nil {
		return domain.Greeting{}, err
	}
	g.FromUserID = uuidOrEmpty(fromUUID)
	g.ToUserID = uuidOrEmpty(toUUID)
	return g, nil
}

// ListInbox returns the recipient's newest greetings, most recent
// first, ties broken by id descending.
func (s *GreetingsStore) ListInbox(ctx context.Context, userID string, limit int) ([]domain.Greeting, error) {
	const q = `
		SELECT ` + greetingColumns + `
		FROM greetings
		WHERE to_user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return s.listInbox(ctx, q, userID, limit)
}

// ListInboxUnordered is the fallback read for when ordered queries are
// unavailable; callers sort the result themselves.
func (s *GreetingsStore) ListInboxUnordered(ctx context.Context, userID string, limit int) ([]domain.Greeting, error) {
	const q = `
		SELECT ` + greetingColumns + `
		FROM greetings
		WHERE to_user_id = $1
		LIMIT $2
	`
	return s.listInbox(ctx, q, userID, limit)
}

func (s *GreetingsStore) listInbox(ctx context.Context, q, userID string, limit int) ([]domain.Greeting, error) {
	rows, err := s.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	defer rows.Close()

	var out []domain.Greeting
	for rows.Next() {
		g, err := scanGreeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan greeting: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	return out, nil
}

// MarkRead flags the greeting as read. Only the recipient may flip the
// flag; marking an already-read greeting is a no-op, not an error.
func (s *GreetingsStore) MarkRead(ctx context.Context, userID, greetingID string) error {
	const q = `
		UPDATE greetings
		SET read = TRUE
		WHERE id = $1 AND to_user_id = $2
	`
	ct, err := s.pool.Exec(ctx, q, greetingID, userID)
	if err != nil {
		return fmt.Errorf("mark greeting read: %w", err)
	}
	if ct.RowsAffected() == 0 {
		const exists = `SELECT EXISTS (SELECT 1 FROM greetings WHERE id = $1)`
		var found bool
		if err := s.pool.QueryRow(ctx, exists, greetingID).Scan(&found); err != nil {
			return fmt.Errorf("mark greeting read: %w", err)
		}
		if found {
			return domain.ErrForbidden
		}
		return domain.ErrNotFound
	}
	return nil
}

func (s *GreetingsStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	const q = `
		SELECT count(*)
		FROM greetings
		WHERE to_user_id = $1 AND read = FALSE
	`
	var n int
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}
