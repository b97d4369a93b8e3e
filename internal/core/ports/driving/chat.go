package driving

import (
	"context"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

// ChatService handles chat interactions end to end: it serializes work per
// user, runs the state machine and renders the result through the Messenger.
type ChatService interface {
	// HandleStart handles a /start command.
	HandleStart(ctx context.Context, cmd StartCommand) error

	// HandleCallback handles an inline keyboard press.
	HandleCallback(ctx context.Context, cb CallbackQuery) error
}

// StartCommand is an incoming /start message.
type StartCommand struct {
	UserID    domain.UserID
	ChatID    int64
	MessageID int
	Args      string
}

// CallbackQuery is an incoming inline keyboard press.
type CallbackQuery struct {
	ID      string
	UserID  domain.UserID
	Message domain.MessageRef
	Data    domain.CallbackData
}
