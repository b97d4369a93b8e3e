package driving

import (
	"context"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

// AuthorizationService is the authorization state machine.
// It reads and writes the user's records and calls Pocket; it never talks to
// the chat transport.
type AuthorizationService interface {
	// Start handles a /start interaction. When the arguments carry an
	// authorization-finished deep link the finalization decision comes first,
	// followed by the landing decision (main menu or login prompt).
	Start(ctx context.Context, req StartRequest) ([]domain.Decision, error)

	// Login handles the login action: it requests a code and records a new
	// pending attempt.
	Login(ctx context.Context, req LoginRequest) (domain.Decision, error)

	// State returns the user's current position in the flow, creating the
	// records on first contact.
	State(ctx context.Context, id domain.UserID) (domain.AuthState, error)
}

// StartRequest is a /start interaction.
type StartRequest struct {
	// UserID is the identity of the current interaction.
	UserID domain.UserID
	// Args is the raw text after the /start command.
	Args string
}

// LoginRequest is a press of the login button.
type LoginRequest struct {
	UserID domain.UserID
	// Message is the message the login button was attached to. It is edited
	// to show the authorization link and deleted once authorization succeeds.
	Message domain.MessageRef
}
