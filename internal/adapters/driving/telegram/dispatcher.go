package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
	"github.com/custodia-labs/pocketbot/internal/core/ports/driving"
)

const (
	defaultConcurrency   = 16
	defaultUpdateTimeout = 60 // seconds, long polling
	defaultHandleTimeout = 2 * time.Minute
)

// UpdateSource is the part of *tgbotapi.BotAPI that delivers updates.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// DispatcherConfig holds configuration for the dispatcher.
type DispatcherConfig struct {
	Source UpdateSource
	Chat   driving.ChatService
	Logger *slog.Logger

	// Concurrency bounds the number of updates handled at once.
	Concurrency int

	// UpdateTimeout is the long polling timeout in seconds.
	UpdateTimeout int

	// HandleTimeout bounds the handling of one update.
	HandleTimeout time.Duration
}

// Dispatcher polls Telegram for updates and hands each one to the chat
// service in its own goroutine. Updates of different users run in parallel;
// the chat service serializes updates of the same user.
type Dispatcher struct {
	source        UpdateSource
	chat          driving.ChatService
	logger        *slog.Logger
	updateTimeout int
	handleTimeout time.Duration
	sem           chan struct{}

	// Internal state
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	handlers sync.WaitGroup
}

// NewDispatcher creates a new update dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	updateTimeout := cfg.UpdateTimeout
	if updateTimeout <= 0 {
		updateTimeout = defaultUpdateTimeout
	}
	handleTimeout := cfg.HandleTimeout
	if handleTimeout <= 0 {
		handleTimeout = defaultHandleTimeout
	}

	return &Dispatcher{
		source:        cfg.Source,
		chat:          cfg.Chat,
		logger:        logger,
		updateTimeout: updateTimeout,
		handleTimeout: handleTimeout,
		sem:           make(chan struct{}, concurrency),
	}
}

// Start begins polling. It returns immediately; updates are handled until
// Stop is called or ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	d.mu.Unlock()

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = d.updateTimeout
	cfg.AllowedUpdates = []string{"message", "callback_query"}
	updates := d.source.GetUpdatesChan(cfg)

	d.logger.Info("dispatcher starting", "concurrency", cap(d.sem))

	go d.loop(ctx, updates)
}

func (d *Dispatcher) loop(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer close(d.doneCh)
	defer d.handlers.Wait()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher context cancelled")
			d.source.StopReceivingUpdates()
			return
		case <-d.stopCh:
			d.logger.Info("dispatcher stop signal received")
			d.source.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			d.dispatch(ctx, update)
		}
	}
}

// dispatch waits for a free slot and handles the update in a new goroutine.
func (d *Dispatcher) dispatch(ctx context.Context, update tgbotapi.Update) {
	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}

	d.handlers.Add(1)
	go func() {
		defer d.handlers.Done()
		defer func() { <-d.sem }()

		// Handlers finish even if the dispatcher is stopping.
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.handleTimeout)
		defer cancel()
		d.handle(hctx, update)
	}()
}

// Stop stops polling and waits for in-flight updates.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	close(d.stopCh)
	d.mu.Unlock()

	<-d.doneCh

	d.mu.Lock()
	d.running = false
	d.mu.Unlock()

	d.logger.Info("dispatcher stopped")
}

// Wait blocks until the dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.doneCh
}

func (d *Dispatcher) handle(ctx context.Context, update tgbotapi.Update) {
	logger := d.logger.With("update_id", update.UpdateID)
	start := time.Now()

	kind, err := d.route(ctx, update)
	if kind == "" {
		logger.Debug("ignoring update")
		updatesTotal.WithLabelValues("ignored", "ok").Inc()
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
		logger.Error("update failed", "kind", kind, "error", err)
	}
	updatesTotal.WithLabelValues(kind, status).Inc()
	updateDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// route converts an update into a chat service call. It returns an empty
// kind for updates the bot does not handle.
func (d *Dispatcher) route(ctx context.Context, update tgbotapi.Update) (string, error) {
	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.Chat == nil || !msg.IsCommand() || msg.Command() != "start" {
			return "", nil
		}
		return "start", d.chat.HandleStart(ctx, driving.StartCommand{
			UserID:    domain.UserID(msg.Chat.ID),
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			Args:      msg.CommandArguments(),
		})

	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil || cb.Message.Chat == nil {
			// Callbacks from inline messages carry no chat.
			return "", nil
		}
		return "callback", d.chat.HandleCallback(ctx, driving.CallbackQuery{
			ID:      cb.ID,
			UserID:  domain.UserID(cb.Message.Chat.ID),
			Message: domain.MessageRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.MessageID},
			Data:    domain.ParseCallbackData(cb.Data),
		})
	}
	return "", nil
}
