package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

// fakeSender records Chattables and returns scripted results.
type fakeSender struct {
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	nextID    int
	err       error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requested = append(f.requested, c)
	if f.err != nil {
		return nil, f.err
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestMessenger_Send(t *testing.T) {
	bot := &fakeSender{nextID: 10}
	m := NewMessenger(bot, nil)

	kb := (&domain.Keyboard{}).
		Row(domain.Button{Label: "Login", Action: domain.ActionLogin}).
		Row(domain.Button{Label: "Open", URL: "https://getpocket.com"})

	ref, err := m.Send(context.Background(), 42, domain.OutgoingMessage{
		Text:                  "hello",
		Keyboard:              kb,
		ReplyTo:               5,
		DisableWebPagePreview: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageRef{ChatID: 42, MessageID: 11}, ref)

	require.Len(t, bot.sent, 1)
	cfg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), cfg.ChatID)
	assert.Equal(t, "hello", cfg.Text)
	assert.Equal(t, tgbotapi.ModeHTML, cfg.ParseMode)
	assert.True(t, cfg.DisableWebPagePreview)
	assert.Equal(t, 5, cfg.ReplyToMessageID)

	markup, ok := cfg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 2)
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "login", *markup.InlineKeyboard[0][0].CallbackData)
	require.NotNil(t, markup.InlineKeyboard[1][0].URL)
	assert.Equal(t, "https://getpocket.com", *markup.InlineKeyboard[1][0].URL)
}

func TestMessenger_SendWithoutKeyboard(t *testing.T) {
	bot := &fakeSender{}
	m := NewMessenger(bot, nil)

	_, err := m.Send(context.Background(), 42, domain.OutgoingMessage{Text: "plain"})
	require.NoError(t, err)
	cfg := bot.sent[0].(tgbotapi.MessageConfig)
	assert.Nil(t, cfg.ReplyMarkup)
	assert.Zero(t, cfg.ReplyToMessageID)
}

func TestMessenger_SendError(t *testing.T) {
	bot := &fakeSender{err: &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}}
	m := NewMessenger(bot, nil)

	_, err := m.Send(context.Background(), 42, domain.OutgoingMessage{Text: "x"})
	require.Error(t, err)
	var apiErr *tgbotapi.Error
	assert.True(t, errors.As(err, &apiErr))
}

func TestMessenger_Edit(t *testing.T) {
	bot := &fakeSender{}
	m := NewMessenger(bot, nil)
	ref := domain.MessageRef{ChatID: 42, MessageID: 7}

	err := m.Edit(context.Background(), ref, domain.OutgoingMessage{
		Text:     "Main Menu:",
		Keyboard: (&domain.Keyboard{}).Row(domain.Button{Label: "My List", Action: "my_list"}),
	})
	require.NoError(t, err)

	cfg, ok := bot.requested[0].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), cfg.ChatID)
	assert.Equal(t, 7, cfg.MessageID)
	assert.Equal(t, "Main Menu:", cfg.Text)
	require.NotNil(t, cfg.ReplyMarkup)
	assert.Equal(t, "my_list", *cfg.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
}

func TestMessenger_EditNotModified(t *testing.T) {
	bot := &fakeSender{err: &tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified: specified new message content and reply markup are exactly the same"}}
	m := NewMessenger(bot, nil)

	assert.NoError(t, m.Edit(context.Background(), domain.MessageRef{ChatID: 1, MessageID: 2}, domain.OutgoingMessage{Text: "same"}))

	bot.err = &tgbotapi.Error{Code: 400, Message: "Bad Request: message to edit not found"}
	assert.Error(t, m.Edit(context.Background(), domain.MessageRef{ChatID: 1, MessageID: 2}, domain.OutgoingMessage{Text: "same"}))
}

func TestMessenger_DeleteAndAnswer(t *testing.T) {
	bot := &fakeSender{}
	m := NewMessenger(bot, nil)

	require.NoError(t, m.Delete(context.Background(), domain.MessageRef{ChatID: 42, MessageID: 9}))
	require.NoError(t, m.AnswerCallback(context.Background(), "cb-1", ""))

	del, ok := bot.requested[0].(tgbotapi.DeleteMessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), del.ChatID)
	assert.Equal(t, 9, del.MessageID)

	cb, ok := bot.requested[1].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "cb-1", cb.CallbackQueryID)
}

func TestNewBot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottest-token/getMe") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Pocket","username":"pocket_bot"}}`))
	}))
	defer srv.Close()

	bot, err := NewBot(BotConfig{Token: "test-token", Endpoint: srv.URL + "/bot%s/%s"})
	require.NoError(t, err)
	assert.Equal(t, "pocket_bot", bot.Self.UserName)

	_, err = NewBot(BotConfig{Token: "other", Endpoint: srv.URL + "/bot%s/%s"})
	assert.Error(t, err)
}
