package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
	"github.com/custodia-labs/pocketbot/internal/core/ports/driven"
)

// Ensure Messenger implements the interface.
var _ driven.Messenger = (*Messenger)(nil)

// Sender is the part of *tgbotapi.BotAPI used by Messenger.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Messenger implements driven.Messenger over the Telegram Bot API.
// Messages are sent with HTML parse mode.
//
// The Bot API client does not take a context; calls run to completion.
type Messenger struct {
	bot    Sender
	logger *slog.Logger
}

// NewMessenger creates a new Telegram messenger.
func NewMessenger(bot Sender, logger *slog.Logger) *Messenger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Messenger{bot: bot, logger: logger}
}

// Send posts a message and returns its reference.
func (m *Messenger) Send(ctx context.Context, chatID int64, msg domain.OutgoingMessage) (domain.MessageRef, error) {
	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.DisableWebPagePreview = msg.DisableWebPagePreview
	if msg.ReplyTo != 0 {
		cfg.ReplyToMessageID = msg.ReplyTo
		cfg.AllowSendingWithoutReply = true
	}
	if kb := inlineKeyboard(msg.Keyboard); kb != nil {
		cfg.ReplyMarkup = *kb
	}

	sent, err := m.bot.Send(cfg)
	if err != nil {
		return domain.MessageRef{}, fmt.Errorf("send message to chat %d: %w", chatID, err)
	}
	return domain.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// Edit replaces text and keyboard of a sent message.
func (m *Messenger) Edit(ctx context.Context, ref domain.MessageRef, msg domain.OutgoingMessage) error {
	cfg := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, msg.Text)
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.DisableWebPagePreview = msg.DisableWebPagePreview
	cfg.ReplyMarkup = inlineKeyboard(msg.Keyboard)

	if _, err := m.bot.Request(cfg); err != nil {
		if isNotModified(err) {
			m.logger.Debug("message not modified", "message_ref", ref.String())
			return nil
		}
		return fmt.Errorf("edit message %s: %w", ref, err)
	}
	return nil
}

// Delete removes a message.
func (m *Messenger) Delete(ctx context.Context, ref domain.MessageRef) error {
	if _, err := m.bot.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)); err != nil {
		return fmt.Errorf("delete message %s: %w", ref, err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query.
func (m *Messenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if _, err := m.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback %s: %w", callbackID, err)
	}
	return nil
}

func inlineKeyboard(kb *domain.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Label, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action))
			}
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// isNotModified reports the Bot API error for an edit that changes nothing,
// e.g. a user pressing the same button twice.
func isNotModified(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 400 && strings.Contains(apiErr.Message, "message is not modified")
	}
	return false
}
