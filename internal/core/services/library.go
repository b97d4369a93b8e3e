package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
	"github.com/custodia-labs/pocketbot/internal/core/ports/driven"
	"github.com/custodia-labs/pocketbot/internal/core/ports/driving"
)

// Ensure libraryService implements LibraryService
var _ driving.LibraryService = (*libraryService)(nil)

// DefaultPageSize is the number of items shown per My List page.
const DefaultPageSize = 5

// LibraryServiceConfig holds configuration for the library service.
type LibraryServiceConfig struct {
	Store    driven.UserRecordStore
	Pocket   driven.PocketClient
	PageSize int
	Logger   *slog.Logger
}

type libraryService struct {
	store    driven.UserRecordStore
	pocket   driven.PocketClient
	pageSize int
	logger   *slog.Logger
}

// NewLibraryService creates a new library service.
func NewLibraryService(cfg LibraryServiceConfig) driving.LibraryService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &libraryService{
		store:    cfg.Store,
		pocket:   cfg.Pocket,
		pageSize: pageSize,
		logger:   logger,
	}
}

// MyList returns a page of the user's unread items, newest first.
func (s *libraryService) MyList(ctx context.Context, req driving.MyListRequest) (*driving.MyListResponse, error) {
	rec, err := s.store.Get(ctx, req.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", req.UserID, err)
	}
	if !rec.Status.Authenticated || !rec.Authorization.IsGranted() {
		return nil, domain.ErrNotAuthenticated
	}

	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	query := domain.ListQuery{
		State:      domain.ItemStateUnread,
		Sort:       domain.SortNewest,
		DetailType: domain.DetailSimple,
		Count:      s.pageSize,
		Offset:     offset,
	}

	result := s.pocket.Retrieve(ctx, *rec.Authorization.AccessToken, query)
	page, ok := result.Get()
	if !ok {
		s.logger.Warn("list retrieval failed", "user_id", req.UserID, "failure", result.Failure.String())
		return &driving.MyListResponse{Failure: result.Failure}, nil
	}

	page.Offset = offset
	page.Count = s.pageSize
	page.HasMore = len(page.Items) >= s.pageSize
	return &driving.MyListResponse{Page: &page}, nil
}
