package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
	"github.com/custodia-labs/pocketbot/internal/core/ports/driven"
	"github.com/custodia-labs/pocketbot/internal/core/ports/driving"
)

// Ensure authorizationService implements AuthorizationService
var _ driving.AuthorizationService = (*authorizationService)(nil)

// AuthorizationServiceConfig holds configuration for the authorization service.
type AuthorizationServiceConfig struct {
	// Store persists the user's status and authorization records.
	Store driven.UserRecordStore

	// Pocket requests and exchanges authorization codes.
	Pocket driven.PocketClient

	Logger *slog.Logger
}

// authorizationService implements the authorization state machine:
// NEW -> UNAUTHENTICATED -> PENDING -> AUTHENTICATED.
//
// Callers must serialize calls per user (see IdentitySerializer); the store
// read-modify-write sequences below assume no concurrent transition for the
// same user.
type authorizationService struct {
	store  driven.UserRecordStore
	pocket driven.PocketClient
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service.
func NewAuthorizationService(cfg AuthorizationServiceConfig) driving.AuthorizationService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &authorizationService{
		store:  cfg.Store,
		pocket: cfg.Pocket,
		logger: logger,
	}
}

// Start handles /start, finalizing authorization when a deep link is present.
func (s *authorizationService) Start(ctx context.Context, req driving.StartRequest) ([]domain.Decision, error) {
	rec, err := s.ensure(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	var decisions []domain.Decision

	link, isLink, linkErr := domain.ParseDeepLink(req.Args)
	if isLink {
		decision, err := s.finalize(ctx, req.UserID, link, linkErr, rec)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, decision)
	}

	return append(decisions, landing(rec)), nil
}

// finalize runs the guards of the finalization transition in order.
// rec is updated in place when authorization succeeds.
func (s *authorizationService) finalize(ctx context.Context, id domain.UserID, link domain.DeepLink, linkErr error, rec *domain.UserRecord) (domain.Decision, error) {
	logger := s.logger.With("user_id", id)
	failed := domain.Decision{Outcome: domain.OutcomeAuthorizationFailed}

	// Guard order: identity, replay, exchange.
	if linkErr != nil {
		logger.Warn("malformed authorization deep link", "error", linkErr)
		return failed, nil
	}
	if link.UserID != id {
		logger.Warn("authorization deep link for another user", "link_user_id", link.UserID)
		return failed, nil
	}

	if rec.Status.Authenticated {
		logger.Info("authorization deep link replayed")
		return domain.Decision{Outcome: domain.OutcomeAlreadyAuthorized}, nil
	}

	if !rec.Authorization.HasPendingAttempt() {
		logger.Warn("authorization deep link without pending code")
		return failed, nil
	}
	code := *rec.Authorization.PendingCode

	result := s.pocket.ExchangeCode(ctx, code)
	token, ok := result.Get()
	if !ok {
		logger.Warn("code exchange failed", "failure", result.Failure.String())
		return failed, nil
	}

	// Token and username first, flag last: a crash in between leaves the
	// user unauthenticated with the pending code intact.
	if err := s.store.SetFields(ctx, id, domain.GrantedToken(token.AccessToken, token.Username)); err != nil {
		return domain.Decision{}, fmt.Errorf("store access token: %w", err)
	}
	if err := s.store.SetAuthenticated(ctx, id, true); err != nil {
		return domain.Decision{}, fmt.Errorf("set authenticated: %w", err)
	}

	domain.GrantedToken(token.AccessToken, token.Username).Apply(&rec.Authorization)
	rec.Status.Authenticated = true

	logger.Info("user authorized", "pocket_username", token.Username)

	decision := domain.Decision{
		Outcome:  domain.OutcomeAuthorized,
		Username: token.Username,
	}
	if ref, ok := rec.Authorization.PendingMessage(); ok {
		decision.DeleteMessage = ref
	}
	return decision, nil
}

// Login starts a new authorization attempt. A repeated login overwrites the
// previous pending attempt.
func (s *authorizationService) Login(ctx context.Context, req driving.LoginRequest) (domain.Decision, error) {
	rec, err := s.ensure(ctx, req.UserID)
	if err != nil {
		return domain.Decision{}, err
	}
	logger := s.logger.With("user_id", req.UserID)

	if rec.Status.Authenticated {
		logger.Info("login requested by authorized user")
		return domain.Decision{Outcome: domain.OutcomeAlreadyAuthorized}, nil
	}

	result := s.pocket.RequestCode(ctx, req.UserID)
	code, ok := result.Get()
	if !ok {
		logger.Warn("request code failed", "failure", result.Failure.String())
		return domain.Decision{Outcome: domain.OutcomeLoginFailed}, nil
	}

	authURL := s.pocket.AuthURL(req.UserID, code)
	if err := s.store.SetFields(ctx, req.UserID, domain.PendingAttempt(code, authURL, req.Message)); err != nil {
		return domain.Decision{}, fmt.Errorf("store pending attempt: %w", err)
	}

	logger.Info("authorization link issued", "message_ref", req.Message.String())
	return domain.Decision{Outcome: domain.OutcomeAuthLink, AuthURL: authURL}, nil
}

// State returns the user's position in the flow.
func (s *authorizationService) State(ctx context.Context, id domain.UserID) (domain.AuthState, error) {
	rec, err := s.ensure(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.State(), nil
}

// ensure applies the first-contact transition and loads the user's records.
func (s *authorizationService) ensure(ctx context.Context, id domain.UserID) (*domain.UserRecord, error) {
	created, err := s.store.Ensure(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", id, err)
	}
	if created {
		s.logger.Info("new user", "user_id", id)
	}

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if err := rec.Authorization.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// landing picks the reply to a plain contact.
func landing(rec *domain.UserRecord) domain.Decision {
	if rec.Status.Authenticated {
		return domain.Decision{Outcome: domain.OutcomeMainMenu}
	}
	return domain.Decision{Outcome: domain.OutcomeLoginPrompt}
}
