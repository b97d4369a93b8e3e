package driven

import (
	"context"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

// PocketClient talks to the Pocket API.
// Failures are reported through domain.Result and never as Go errors.
type PocketClient interface {
	// RequestCode obtains a request token for the user's authorization flow.
	RequestCode(ctx context.Context, id domain.UserID) domain.Result[string]

	// AuthURL builds the page the user visits to approve the request token.
	// It performs no I/O.
	AuthURL(id domain.UserID, code string) string

	// ExchangeCode trades an approved request token for an access token.
	ExchangeCode(ctx context.Context, code string) domain.Result[domain.Token]

	// Retrieve fetches saved items matching the query.
	Retrieve(ctx context.Context, accessToken string, query domain.ListQuery) domain.Result[domain.ListPage]
}
