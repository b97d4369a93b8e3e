package driven

import (
	"context"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

// UserRecordStore persists the status and authorization records of each user.
// All operations are keyed by a single user; there are no secondary indexes.
type UserRecordStore interface {
	// Get retrieves both records for a user.
	// Returns domain.ErrNotFound if the user has never been seen.
	Get(ctx context.Context, id domain.UserID) (*domain.UserRecord, error)

	// Ensure creates both records with defaults if they do not exist.
	// Returns true if the records were created by this call.
	Ensure(ctx context.Context, id domain.UserID) (created bool, err error)

	// SetFields writes authorization fields in a single operation.
	// Returns domain.ErrNotFound if the user has no records and
	// domain.ErrInvalidInput if the update names an unknown field.
	SetFields(ctx context.Context, id domain.UserID, update domain.FieldUpdate) error

	// SetAuthenticated updates the authentication flag.
	// Returns domain.ErrNotFound if the user has no records.
	SetAuthenticated(ctx context.Context, id domain.UserID, authenticated bool) error

	// Ping checks if the backing store is reachable.
	Ping(ctx context.Context) error
}
