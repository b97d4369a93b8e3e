package driving

import (
	"context"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

// LibraryService reads an authorized user's saved items.
type LibraryService interface {
	// MyList returns one page of unread items, newest first.
	// Returns domain.ErrNotAuthenticated if the user has not authorized the bot.
	MyList(ctx context.Context, req MyListRequest) (*MyListResponse, error)
}

// MyListRequest selects a page of the user's list.
type MyListRequest struct {
	UserID domain.UserID
	Offset int
}

// MyListResponse is a page of items, or the failure reported by Pocket.
type MyListResponse struct {
	Page    *domain.ListPage
	Failure *domain.Failure
}
