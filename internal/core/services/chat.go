package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
	"github.com/custodia-labs/pocketbot/internal/core/ports/driven"
	"github.com/custodia-labs/pocketbot/internal/core/ports/driving"
)

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// ChatServiceConfig holds configuration for the chat service.
type ChatServiceConfig struct {
	Authorization driving.AuthorizationService
	Library       driving.LibraryService
	Messenger     driven.Messenger
	Serializer    *IdentitySerializer
	Logger        *slog.Logger

	// OutcomeObserver is called for every decision rendered. Optional.
	OutcomeObserver func(domain.Outcome)
}

type chatService struct {
	auth       driving.AuthorizationService
	library    driving.LibraryService
	messenger  driven.Messenger
	serializer *IdentitySerializer
	observe    func(domain.Outcome)
	logger     *slog.Logger
}

// NewChatService creates a new chat service.
func NewChatService(cfg ChatServiceConfig) driving.ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	serializer := cfg.Serializer
	if serializer == nil {
		serializer = NewIdentitySerializer(IdentitySerializerConfig{Logger: logger})
	}
	observe := cfg.OutcomeObserver
	if observe == nil {
		observe = func(domain.Outcome) {}
	}
	return &chatService{
		auth:       cfg.Authorization,
		library:    cfg.Library,
		messenger:  cfg.Messenger,
		serializer: serializer,
		observe:    observe,
		logger:     logger,
	}
}

// HandleStart replies to /start with every decision in order.
func (s *chatService) HandleStart(ctx context.Context, cmd driving.StartCommand) error {
	logger := s.logger.With("user_id", cmd.UserID)

	err := s.serializer.Do(ctx, cmd.UserID, func(ctx context.Context) error {
		decisions, err := s.auth.Start(ctx, driving.StartRequest{UserID: cmd.UserID, Args: cmd.Args})
		if err != nil {
			return err
		}
		for _, d := range decisions {
			s.observe(d.Outcome)
			if d.DeleteMessage != nil {
				if err := s.messenger.Delete(ctx, *d.DeleteMessage); err != nil {
					logger.Warn("failed to delete authorization message", "message_ref", d.DeleteMessage.String(), "error", err)
				}
			}
			msg := renderDecision(d)
			msg.ReplyTo = cmd.MessageID
			if _, err := s.messenger.Send(ctx, cmd.ChatID, msg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("start failed", "error", err)
		s.sendError(ctx, cmd.ChatID, cmd.MessageID)
		return err
	}
	return nil
}

// HandleCallback dispatches an inline keyboard press by action.
func (s *chatService) HandleCallback(ctx context.Context, cb driving.CallbackQuery) error {
	logger := s.logger.With("user_id", cb.UserID, "action", cb.Data.Action)

	if err := s.messenger.AnswerCallback(ctx, cb.ID, ""); err != nil {
		logger.Warn("failed to answer callback", "error", err)
	}

	var err error
	switch cb.Data.Action {
	case domain.ActionLogin:
		err = s.login(ctx, cb)
	case domain.ActionMyList:
		err = s.myList(ctx, cb)
	case domain.ActionMainMenu:
		err = s.mainMenu(ctx, cb)
	default:
		logger.Debug("ignoring unknown callback action", "data", cb.Data.String())
		return nil
	}

	if err != nil {
		logger.Error("callback failed", "error", err)
		s.editError(ctx, cb.Message)
		return err
	}
	return nil
}

// login replaces the pressed message with the authorization link.
func (s *chatService) login(ctx context.Context, cb driving.CallbackQuery) error {
	return s.serializer.Do(ctx, cb.UserID, func(ctx context.Context) error {
		d, err := s.auth.Login(ctx, driving.LoginRequest{UserID: cb.UserID, Message: cb.Message})
		if err != nil {
			return err
		}
		s.observe(d.Outcome)
		return s.messenger.Edit(ctx, cb.Message, renderDecision(d))
	})
}

func (s *chatService) myList(ctx context.Context, cb driving.CallbackQuery) error {
	offset := 0
	if cb.Data.Arg != "" {
		n, err := strconv.Atoi(cb.Data.Arg)
		if err != nil {
			s.logger.Debug("invalid list offset", "user_id", cb.UserID, "arg", cb.Data.Arg)
		} else {
			offset = n
		}
	}

	return s.serializer.Do(ctx, cb.UserID, func(ctx context.Context) error {
		resp, err := s.library.MyList(ctx, driving.MyListRequest{UserID: cb.UserID, Offset: offset})
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return s.messenger.Edit(ctx, cb.Message, renderDecision(domain.Decision{Outcome: domain.OutcomeLoginPrompt}))
		}
		if err != nil {
			return err
		}
		if resp.Failure != nil {
			return s.messenger.Edit(ctx, cb.Message, listFailedMessage())
		}
		return s.messenger.Edit(ctx, cb.Message, renderListPage(resp.Page))
	})
}

func (s *chatService) mainMenu(ctx context.Context, cb driving.CallbackQuery) error {
	return s.serializer.Do(ctx, cb.UserID, func(ctx context.Context) error {
		state, err := s.auth.State(ctx, cb.UserID)
		if err != nil {
			return err
		}
		outcome := domain.OutcomeLoginPrompt
		if state == domain.AuthStateAuthenticated {
			outcome = domain.OutcomeMainMenu
		}
		return s.messenger.Edit(ctx, cb.Message, renderDecision(domain.Decision{Outcome: outcome}))
	})
}

// sendError and editError are best effort; the original error is what the
// caller reports.
func (s *chatService) sendError(ctx context.Context, chatID int64, replyTo int) {
	msg := genericErrorMessage()
	msg.ReplyTo = replyTo
	if _, err := s.messenger.Send(context.WithoutCancel(ctx), chatID, msg); err != nil {
		s.logger.Warn("failed to send error message", "chat_id", chatID, "error", err)
	}
}

func (s *chatService) editError(ctx context.Context, ref domain.MessageRef) {
	if err := s.messenger.Edit(context.WithoutCancel(ctx), ref, genericErrorMessage()); err != nil {
		s.logger.Warn("failed to edit error message", "message_ref", ref.String(), "error", err)
	}
}
