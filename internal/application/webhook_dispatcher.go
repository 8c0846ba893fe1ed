package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"shopify-oauth-layer/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler processes webhook events of the topics it accepts.
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// ErrUnhandledTopic is returned by Dispatch when no handler accepts the topic.
var ErrUnhandledTopic = errors.New("no handler for webhook topic")

// WebhookDispatcher routes events to registered handlers.
type WebhookDispatcher struct {
	mu       sync.RWMutex
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates an empty dispatcher
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler. Handlers run in registration order.
func (d *WebhookDispatcher) RegisterHandler(h WebhookHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Dispatch hands the event to every handler accepting its topic.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	d.mu.RLock()
	handlers := make([]WebhookHandler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	handled := false
	var errs []error
	for _, h := range handlers {
		if !h.CanHandle(event.Topic) {
			continue
		}
		handled = true
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if !handled {
		d.logger.Debug().Str("topic", event.Topic).Msg("No handler registered for webhook topic")
		return fmt.Errorf("%w: %s", ErrUnhandledTopic, event.Topic)
	}
	return errors.Join(errs...)
}
