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

type FriendshipsStore struct {
	pool *pgxpool.Pool
}

func NewFriendshipsStore(pool *pgxpool.Pool) *FriendshipsStore {
	return &FriendshipsStore{pool: pool}
}

func (s *FriendshipsStore) CreateRequest(ctx context.Context, requesterID, addresseeID, fromUsername, fromPhotoURL string) (string, time.Time, error) {
	id := domain.FriendRequestID(requesterID, addresseeID)

	const q = `
		INSERT INTO friend_requests (id, requester_id, addressee_id, from_username, from_photo_url, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING created_at
	`

	var createdAt time.Time
	err := s.pool.QueryRow(ctx, q, id, requesterID, addresseeID, fromUsername, fromPhotoURL).Scan(&createdAt)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" && pgerr.ConstraintName == "friend_requests_pkey" {
			return "", time.Time{}, domain.ErrFriendRequestExists
		}
		return "", time.Time{}, fmt.Errorf("create friend request: %w", err)
	}

	return id, createdAt, nil
}

// Accept flips the request to accepted and creates the friendship row
// in the same transaction, so a crash cannot leave an accepted request
// with no friendship behind it.
func (s *FriendshipsStore) Accept(ctx context.Context, requestID, addresseeID string, when time.Time) (domain.Friendship, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Friendship{}, fmt.Errorf("begin accept request: %w", err)
	}
	defer tx.Rollback(ctx)

	const resolve = `
		UPDATE friend_requests
		SET status = 'accepted', resolved_at = $3
		WHERE id = $1 AND addressee_id = $2 AND status = 'pending'
		RETURNING requester_id, addressee_id
	`

	var requesterUUID, addresseeUUID pgtype.UUID
	err = tx.QueryRow(ctx, resolve, requestID, addresseeID, when).Scan(&requesterUUID, &addresseeUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Friendship{}, domain.ErrNotFound
		}
		return domain.Friendship{}, fmt.Errorf("accept friend request: %w", err)
	}

	requester := uuidOrEmpty(requesterUUID)
	addressee := uuidOrEmpty(addresseeUUID)
	lo, hi := domain.CanonicalPair(requester, addressee)

	const insert = `
		INSERT INTO friendships (id, user_lo, user_hi, requester_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	friendshipID := domain.FriendshipID(requester, addressee)
	if _, err := tx.Exec(ctx, insert, friendshipID, lo, hi, requester, when); err != nil {
		return domain.Friendship{}, fmt.Errorf("create friendship: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Friendship{}, fmt.Errorf("commit accept request: %w", err)
	}

	return domain.Friendship{
		ID:          friendshipID,
		UserLo:      lo,
		UserHi:      hi,
		RequesterID: requester,
		CreatedAt:   when,
	}, nil
}

func (s *FriendshipsStore) Decline(ctx context.Context, requestID, addresseeID string, when time.Time) error {
	const q = `
		UPDATE friend_requests
		SET status = 'declined', resolved_at = $3
		WHERE id = $1 AND addressee_id = $2 AND status = 'pending'
	`
	ct, err := s.pool.Exec(ctx, q, requestID, addresseeID, when)
	if err != nil {
		return fmt.Errorf("decline friend request: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *FriendshipsStore) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM friendships WHERE id = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, q, domain.FriendshipID(userA, userB)).Scan(&exists); err != nil {
		return false, fmt.Errorf("are friends: %w", err)
	}
	return exists, nil
}

// Remove deletes the canonical row for the pair. Absence is not an
// error; either party may remove.
func (s *FriendshipsStore) Remove(ctx context.Context, userA, userB string) error {
	const q = `DELETE FROM friendships WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, domain.FriendshipID(userA, userB)); err != nil {
		return fmt.Errorf("remove friendship: %w", err)
	}
	return nil
}

func (s *FriendshipsStore) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	friends, err := s.listFriends(ctx, userID)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	incoming, err := s.listIncoming(ctx, userID)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	outgoing, err := s.listOutgoing(ctx, userID)
	if err != nil {
		return domain.FriendsOverview{}, err
	}

	return domain.FriendsOverview{
		Friends:  friends,
		Incoming: incoming,
		Outgoing: outgoing,
	}, nil
}

func (s *FriendshipsStore) listFriends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	// The canonical pair key makes this a single query; no need to
	// merge two directional subscriptions.
	const q = `
		SELECT u.id, u.username, u.photo_url
		FROM friendships f
		JOIN users u ON u.id = CASE
			WHEN f.user_lo = $1 THEN f.user_hi
			ELSE f.user_lo
		END
		WHERE f.user_lo = $1 OR f.user_hi = $1
		ORDER BY u.username ASC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	var out []domain.UserSummary
	for rows.Next() {
		var idUUID pgtype.UUID
		var username pgtype.Text
		var photoURL string
		if err := rows.Scan(&idUUID, &username, &photoURL); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		out = append(out, domain.UserSummary{
			ID:       uuidOrEmpty(idUUID),
			Username: textOrEmpty(username),
			PhotoURL: photoURL,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return out, nil
}

func (s *FriendshipsStore) listIncoming(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	// Incoming requests show the requester's snapshot taken at send
	// time, not the live profile.
	const q = `
		SELECT id, requester_id, from_username, from_photo_url, created_at
		FROM friend_requests
		WHERE status = 'pending' AND addressee_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list incoming requests: %w", err)
	}
	defer rows.Close()

	var out []domain.FriendRequest
	for rows.Next() {
		var (
			id           string
			fromUUID     pgtype.UUID
			fromUsername string
			fromPhotoURL string
			createdAt    time.Time
		)
		if err := rows.Scan(&id, &fromUUID, &fromUsername, &fromPhotoURL, &createdAt); err != nil {
			return nil, fmt.Errorf("scan incoming request: %w", err)
		}
		out = append(out, domain.FriendRequest{
			ID: id,
			User: domain.UserSummary{
				ID:       uuidOrEmpty(fromUUID),
				Username: fromUsername,
				PhotoURL: fromPhotoURL,
			},
			Status:    domain.RequestStatusPending,
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list incoming requests: %w", err)
	}
	return out, nil
}

func (s *FriendshipsStore) listOutgoing(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	const q = `
		SELECT r.id, r.created_at, u.id, u.username, u.photo_url
		FROM friend_requests r
		JOIN users u ON u.id = r.addressee_id
		WHERE r.status = 'pending' AND r.requester_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list outgoing requests: %w", err)
	}
	defer rows.Close()

	var out []domain.FriendRequest
	for rows.Next() {
		var (
			id        string
			createdAt time.Time
			toUUID    pgtype.UUID
			username  pgtype.Text
			photoURL  string
		)
		if err := rows.Scan(&id, &createdAt, &toUUID, &username, &photoURL); err != nil {
			return nil, fmt.Errorf("scan outgoing request: %w", err)
		}
		out = append(out, domain.FriendRequest{
			ID: id,
			User: domain.UserSummary{
				ID:       uuidOrEmpty(toUUID),
				Username: textOrEmpty(username),
				PhotoURL: photoURL,
			},
			Status:    domain.RequestStatusPending,
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list outgoing requests: %w", err)
	}
	return out, nil
}
