package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
	"github.com/custodia-labs/pocketbot/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.UserRecordStore = (*UserRecordStore)(nil)

// UserRecordStore implements driven.UserRecordStore using PostgreSQL.
// The status record lives in bot_users, the authorization record in
// bot_authorizations; columns of bot_authorizations are named after
// domain.AuthField values.
type UserRecordStore struct {
	db  *DB
	now func() time.Time
}

// NewUserRecordStore creates a new UserRecordStore
func NewUserRecordStore(db *DB) *UserRecordStore {
	return &UserRecordStore{db: db, now: time.Now}
}

// Get retrieves both records for a user
func (s *UserRecordStore) Get(ctx context.Context, id domain.UserID) (*domain.UserRecord, error) {
	query := `
		SELECT u.authenticated, u.created_at, u.updated_at,
		       a.pending_message_ref, a.pending_code, a.pending_auth_url,
		       a.access_token, a.username, a.updated_at
		FROM bot_users u
		JOIN bot_authorizations a ON a.user_id = u.user_id
		WHERE u.user_id = $1
	`

	rec := &domain.UserRecord{
		Status:        domain.UserAuthStatus{UserID: id},
		Authorization: domain.AuthorizationRecord{UserID: id},
	}
	var pendingMessageRef, pendingCode, pendingAuthURL, accessToken, username sql.NullString

	err := s.db.QueryRowContext(ctx, query, int64(id)).Scan(
		&rec.Status.Authenticated,
		&rec.Status.CreatedAt,
		&rec.Status.UpdatedAt,
		&pendingMessageRef,
		&pendingCode,
		&pendingAuthURL,
		&accessToken,
		&username,
		&rec.Authorization.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	rec.Authorization.PendingMessageRef = StringPtr(pendingMessageRef)
	rec.Authorization.PendingCode = StringPtr(pendingCode)
	rec.Authorization.PendingAuthURL = StringPtr(pendingAuthURL)
	rec.Authorization.AccessToken = StringPtr(accessToken)
	rec.Authorization.Username = StringPtr(username)
	return rec, nil
}

// Ensure creates both records with defaults if they do not exist
func (s *UserRecordStore) Ensure(ctx context.Context, id domain.UserID) (bool, error) {
	now := s.now()
	var created bool

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO bot_users (user_id, authenticated, created_at, updated_at)
			VALUES ($1, FALSE, $2, $2)
			ON CONFLICT (user_id) DO NOTHING
		`, int64(id), now)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0

		_, err = tx.ExecContext(ctx, `
			INSERT INTO bot_authorizations (user_id, updated_at)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO NOTHING
		`, int64(id), now)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("ensure user %s: %w", id, err)
	}
	return created, nil
}

// SetFields writes authorization fields in a single UPDATE
func (s *UserRecordStore) SetFields(ctx context.Context, id domain.UserID, update domain.FieldUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}

	args := []any{int64(id)}
	var sets []string
	// Storage order keeps the statement text stable.
	for _, field := range domain.AuthFields {
		value, ok := update[field]
		if !ok {
			continue
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", field, len(args)))
	}
	args = append(args, s.now())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	query := "UPDATE bot_authorizations SET " + strings.Join(sets, ", ") + " WHERE user_id = $1"
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set fields for user %s: %w", id, err)
	}
	return requireRow(res, id)
}

// SetAuthenticated updates the authentication flag
func (s *UserRecordStore) SetAuthenticated(ctx context.Context, id domain.UserID, authenticated bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE bot_users SET authenticated = $2, updated_at = $3 WHERE user_id = $1",
		int64(id), authenticated, s.now(),
	)
	if err != nil {
		return fmt.Errorf("set authenticated for user %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Ping checks if the database is reachable
func (s *UserRecordStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func requireRow(res sql.Result, id domain.UserID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
