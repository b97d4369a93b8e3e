package domain

import (
	"fmt"
	"strconv"
	"time"
)

// UserID identifies a bot user. It is the Telegram chat ID of the user's
// private chat with the bot.
type UserID int64

// String returns the decimal form used in deep links and store keys.
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID parses a decimal user identity.
func ParseUserID(s string) (UserID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: user id %q", ErrInvalidInput, s)
	}
	return UserID(v), nil
}

// UserAuthStatus is the authentication flag kept for every user.
type UserAuthStatus struct {
	UserID        UserID    `json:"user_id"`
	Authenticated bool      `json:"authenticated"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AuthorizationRecord holds the state of the Pocket authorization flow.
// Pending fields describe the latest login attempt; AccessToken and Username
// are set together once the code has been exchanged.
type AuthorizationRecord struct {
	UserID            UserID    `json:"user_id"`
	PendingMessageRef *string   `json:"pending_message_ref,omitempty"`
	PendingCode       *string   `json:"pending_code,omitempty"`
	PendingAuthURL    *string   `json:"pending_auth_url,omitempty"`
	AccessToken       *string   `json:"-"` // Never serialize
	Username          *string   `json:"username,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// HasPendingAttempt reports whether a login attempt is waiting to be finalized.
func (r *AuthorizationRecord) HasPendingAttempt() bool {
	return r.PendingCode != nil && *r.PendingCode != ""
}

// IsGranted reports whether an access token has been stored.
func (r *AuthorizationRecord) IsGranted() bool {
	return r.AccessToken != nil && r.Username != nil
}

// Validate checks that AccessToken and Username are both set or both unset.
func (r *AuthorizationRecord) Validate() error {
	if (r.AccessToken == nil) != (r.Username == nil) {
		return fmt.Errorf("%w: user %s", ErrInvariantViolation, r.UserID)
	}
	return nil
}

// PendingMessage returns the parsed reference of the message that offered the
// authorization link, if any.
func (r *AuthorizationRecord) PendingMessage() (*MessageRef, bool) {
	if r.PendingMessageRef == nil {
		return nil, false
	}
	ref, err := ParseMessageRef(*r.PendingMessageRef)
	if err != nil {
		return nil, false
	}
	return &ref, true
}

// UserRecord is the pair of records stored for one user.
type UserRecord struct {
	Status        UserAuthStatus
	Authorization AuthorizationRecord
}

// NewUserRecord returns the default records created on first contact.
func NewUserRecord(id UserID, now time.Time) *UserRecord {
	return &UserRecord{
		Status: UserAuthStatus{
			UserID:    id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Authorization: AuthorizationRecord{
			UserID:    id,
			UpdatedAt: now,
		},
	}
}

// AuthState is the position of a user in the authorization flow.
// It is derived from the stored records and never persisted.
type AuthState string

const (
	AuthStateNew             AuthState = "new"
	AuthStateUnauthenticated AuthState = "unauthenticated"
	AuthStatePending         AuthState = "pending"
	AuthStateAuthenticated   AuthState = "authenticated"
)

// State derives the AuthState of a stored record. A nil record is NEW.
func (u *UserRecord) State() AuthState {
	switch {
	case u == nil:
		return AuthStateNew
	case u.Status.Authenticated:
		return AuthStateAuthenticated
	case u.Authorization.HasPendingAttempt():
		return AuthStatePending
	default:
		return AuthStateUnauthenticated
	}
}

// AuthField names a writable field of AuthorizationRecord.
type AuthField string

const (
	FieldPendingMessageRef AuthField = "pending_message_ref"
	FieldPendingCode       AuthField = "pending_code"
	FieldPendingAuthURL    AuthField = "pending_auth_url"
	FieldAccessToken       AuthField = "access_token"
	FieldUsername          AuthField = "username"
)

// AuthFields lists every writable authorization field in storage order.
var AuthFields = []AuthField{
	FieldPendingMessageRef,
	FieldPendingCode,
	FieldPendingAuthURL,
	FieldAccessToken,
	FieldUsername,
}

// IsValid checks if the field is a known authorization field.
func (f AuthField) IsValid() bool {
	for _, known := range AuthFields {
		if f == known {
			return true
		}
	}
	return false
}

// FieldUpdate is a set of authorization fields written in one store call.
type FieldUpdate map[AuthField]string

// Validate rejects empty updates and unknown fields.
func (u FieldUpdate) Validate() error {
	if len(u) == 0 {
		return fmt.Errorf("%w: empty field update", ErrInvalidInput)
	}
	for f := range u {
		if !f.IsValid() {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidInput, f)
		}
	}
	_, hasToken := u[FieldAccessToken]
	_, hasUsername := u[FieldUsername]
	if hasToken != hasUsername {
		return fmt.Errorf("%w: access_token and username must be written together", ErrInvalidInput)
	}
	return nil
}

// Apply writes the update into the record.
func (u FieldUpdate) Apply(r *AuthorizationRecord) {
	for f, v := range u {
		switch f {
		case FieldPendingMessageRef:
			r.PendingMessageRef = &v
		case FieldPendingCode:
			r.PendingCode = &v
		case FieldPendingAuthURL:
			r.PendingAuthURL = &v
		case FieldAccessToken:
			r.AccessToken = &v
		case FieldUsername:
			r.Username = &v
		}
	}
}

// PendingAttempt builds the update that records a new login attempt.
// All three pending fields are overwritten together.
func PendingAttempt(code, authURL string, message MessageRef) FieldUpdate {
	return FieldUpdate{
		FieldPendingCode:       code,
		FieldPendingAuthURL:    authURL,
		FieldPendingMessageRef: message.String(),
	}
}

// GrantedToken builds the update that stores an exchanged access token.
func GrantedToken(accessToken, username string) FieldUpdate {
	return FieldUpdate{
		FieldAccessToken: accessToken,
		FieldUsername:    username,
	}
}
