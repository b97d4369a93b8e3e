package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
	"github.com/custodia-labs/pocketbot/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.UserRecordStore = (*UserRecordStore)(nil)

// Key layout. Each user has two hashes:
//
//	pocketbot:user:<id>:status  authenticated, created_at, updated_at
//	pocketbot:user:<id>:auth    domain.AuthField values, updated_at
//
// A nil authorization field is an absent hash field.
const userPrefix = "pocketbot:user:"

const (
	fieldAuthenticated = "authenticated"
	fieldCreatedAt     = "created_at"
	fieldUpdatedAt     = "updated_at"
)

// UserRecordStore implements driven.UserRecordStore using Redis hashes.
// Writes go through Lua scripts so create-if-absent and update-if-present
// are single round trips.
type UserRecordStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewUserRecordStore creates a new Redis-backed UserRecordStore
func NewUserRecordStore(client redis.UniversalClient) *UserRecordStore {
	return &UserRecordStore{client: client, now: time.Now}
}

func statusKey(id domain.UserID) string { return userPrefix + id.String() + ":status" }
func authKey(id domain.UserID) string   { return userPrefix + id.String() + ":auth" }

// ensureScript creates both hashes unless the status hash exists.
// Returns 1 when created.
var ensureScript = redis.NewScript(`
	if redis.call("exists", KEYS[1]) == 1 then
		if redis.call("exists", KEYS[2]) == 0 then
			redis.call("hset", KEYS[2], "updated_at", ARGV[1])
		end
		return 0
	end
	redis.call("hset", KEYS[1], "authenticated", "0", "created_at", ARGV[1], "updated_at", ARGV[1])
	redis.call("hset", KEYS[2], "updated_at", ARGV[1])
	return 1
`)

// updateScript writes field/value pairs from ARGV into an existing hash.
// Returns 0 when the hash does not exist.
var updateScript = redis.NewScript(`
	if redis.call("exists", KEYS[1]) == 0 then
		return 0
	end
	redis.call("hset", KEYS[1], unpack(ARGV))
	return 1
`)

// Get retrieves both records for a user
func (s *UserRecordStore) Get(ctx context.Context, id domain.UserID) (*domain.UserRecord, error) {
	pipe := s.client.Pipeline()
	statusCmd := pipe.HGetAll(ctx, statusKey(id))
	authCmd := pipe.HGetAll(ctx, authKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	status := statusCmd.Val()
	if len(status) == 0 {
		return nil, domain.ErrNotFound
	}
	auth := authCmd.Val()

	rec := &domain.UserRecord{
		Status: domain.UserAuthStatus{
			UserID:        id,
			Authenticated: status[fieldAuthenticated] == "1",
			CreatedAt:     parseTime(status[fieldCreatedAt]),
			UpdatedAt:     parseTime(status[fieldUpdatedAt]),
		},
		Authorization: domain.AuthorizationRecord{
			UserID:    id,
			UpdatedAt: parseTime(auth[fieldUpdatedAt]),
		},
	}

	for _, field := range domain.AuthFields {
		if v, ok := auth[string(field)]; ok {
			domain.FieldUpdate{field: v}.Apply(&rec.Authorization)
		}
	}
	return rec, nil
}

// Ensure creates both records with defaults if they do not exist
func (s *UserRecordStore) Ensure(ctx context.Context, id domain.UserID) (bool, error) {
	n, err := ensureScript.Run(ctx, s.client, []string{statusKey(id), authKey(id)}, s.timestamp()).Int64()
	if err != nil {
		return false, fmt.Errorf("ensure user %s: %w", id, err)
	}
	return n == 1, nil
}

// SetFields writes authorization fields in a single script call
func (s *UserRecordStore) SetFields(ctx context.Context, id domain.UserID, update domain.FieldUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}

	args := make([]any, 0, 2*len(update)+2)
	for _, field := range domain.AuthFields {
		if v, ok := update[field]; ok {
			args = append(args, string(field), v)
		}
	}
	args = append(args, fieldUpdatedAt, s.timestamp())

	return s.update(ctx, id, authKey(id), args)
}

// SetAuthenticated updates the authentication flag
func (s *UserRecordStore) SetAuthenticated(ctx context.Context, id domain.UserID, authenticated bool) error {
	flag := "0"
	if authenticated {
		flag = "1"
	}
	return s.update(ctx, id, statusKey(id), []any{fieldAuthenticated, flag, fieldUpdatedAt, s.timestamp()})
}

// Ping checks if Redis is reachable
func (s *UserRecordStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *UserRecordStore) update(ctx context.Context, id domain.UserID, key string, args []any) error {
	n, err := updateScript.Run(ctx, s.client, []string{key}, args...).Int64()
	if err != nil {
		return fmt.Errorf("update user %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *UserRecordStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
