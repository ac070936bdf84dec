package handlers

import (
	"context"
	"time"

	"recorder-notifier/internal/common/logging"
	"recorder-notifier/internal/dedup"
	"recorder-notifier/internal/notify"
)

// defaultDeliveryTimeout bounds a detached delivery when no explicit cap is
// configured.
const defaultDeliveryTimeout = 30 * time.Second

// Notifier delivers rendered notification text to the destination chat.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Handlers holds the dependencies for the HTTP endpoints.
type Handlers struct {
	store           dedup.Store
	notifier        Notifier
	filter          *notify.Filter
	deliveryTimeout time.Duration
	logger          logging.Logger
}

// New creates the endpoint handlers. deliveryTimeout caps one detached
// delivery attempt and must exceed the notifier's own request timeout so it
// never cuts a send short; zero selects a default.
func New(store dedup.Store, notifier Notifier, filter *notify.Filter, deliveryTimeout time.Duration, logger logging.Logger) *Handlers {
	if deliveryTimeout <= 0 {
		deliveryTimeout = defaultDeliveryTimeout
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{
		store:           store,
		notifier:        notifier,
		filter:          filter,
		deliveryTimeout: deliveryTimeout,
		logger:          logger,
	}
}
