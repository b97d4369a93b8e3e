package driven

import (
	"context"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

// Messenger sends, edits and deletes chat messages.
type Messenger interface {
	// Send posts a message to a chat and returns its reference.
	Send(ctx context.Context, chatID int64, msg domain.OutgoingMessage) (domain.MessageRef, error)

	// Edit replaces the text and keyboard of an existing message.
	Edit(ctx context.Context, ref domain.MessageRef, msg domain.OutgoingMessage) error

	// Delete removes a message.
	Delete(ctx context.Context, ref domain.MessageRef) error

	// AnswerCallback acknowledges an inline keyboard press.
	// An empty text dismisses the client's loading indicator silently.
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
