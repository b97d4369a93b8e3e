package telegram

import (
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig holds configuration for the Bot API connection.
type BotConfig struct {
	Token string

	// Endpoint is the Bot API URL template with two %s verbs for the token
	// and the method. Defaults to tgbotapi.APIEndpoint.
	Endpoint string

	// Debug logs every Bot API request and response.
	Debug bool

	HTTPClient *http.Client
}

// NewBot connects to the Bot API and verifies the token with getMe.
func NewBot(cfg BotConfig) (*tgbotapi.BotAPI, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client := cfg.HTTPClient
	if client == nil {
		// Long polling holds requests open for up to the update timeout.
		client = &http.Client{Timeout: 90 * time.Second}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	bot.Debug = cfg.Debug
	return bot, nil
}
