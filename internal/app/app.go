// Package app wires the notifier's components together and owns the
// application lifecycle.
package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"recorder-notifier/internal/common/logging"
	"recorder-notifier/internal/config"
	"recorder-notifier/internal/dedup"
	"recorder-notifier/internal/handlers"
	"recorder-notifier/internal/notify"
	"recorder-notifier/internal/telegram"
)

// App holds all the application dependencies
type App struct {
	Config   *config.Config
	Store    dedup.Store
	Notifier handlers.Notifier
	Filter   *notify.Filter
	Handlers *handlers.Handlers
	Logger   logging.Logger

	sweeper *cron.Cron
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "app"}),
	}

	// Initialize components in order of dependency
	if err := app.initializeStore(); err != nil {
		return nil, err
	}

	app.initializeNotifier()
	app.initializeFilter()

	// The delivery cap must exceed the Telegram client timeout so a slow
	// send is cut off by the client, never by the handler.
	deliveryTimeout := cfg.TelegramTimeout + 10*time.Second

	app.Handlers = handlers.New(app.Store, app.Notifier, app.Filter, deliveryTimeout, logging.GetGlobalLogger())

	return app, nil
}

// initializeStore selects and connects the dedup backend. The memory backend
// gets a cron-driven eviction sweep; the Redis backend expires keys on its own.
func (app *App) initializeStore() error {
	switch app.Config.DedupBackend {
	case "redis":
		redisDB, _ := strconv.Atoi(app.Config.RedisDB)
		poolSize, _ := strconv.Atoi(app.Config.RedisPoolSize)

		store, err := dedup.NewRedisStore(&dedup.RedisConfig{
			Address:  app.Config.RedisAddress,
			Password: app.Config.RedisPassword,
			DB:       redisDB,
			PoolSize: poolSize,
		}, app.Config.DedupTTL)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis dedup store: %w", err)
		}

		app.Store = store
		app.Logger.Info("Using Redis dedup backend",
			logging.Field{Key: "address", Value: app.Config.RedisAddress},
			logging.Field{Key: "ttl", Value: app.Config.DedupTTL.String()},
		)
		return nil

	default:
		store := dedup.NewMemoryStore(app.Config.DedupTTL)
		app.Store = store

		app.sweeper = cron.New()
		schedule := fmt.Sprintf("@every %s", app.Config.DedupSweepInterval)
		if _, err := app.sweeper.AddFunc(schedule, func() {
			store.Sweep()
			if n, err := store.Len(context.Background()); err == nil {
				app.Logger.Debug("Dedup eviction sweep completed",
					logging.Field{Key: "tracked_ids", Value: n},
				)
			}
		}); err != nil {
			return fmt.Errorf("failed to schedule dedup sweep: %w", err)
		}

		app.Logger.Info("Using in-memory dedup backend",
			logging.Field{Key: "ttl", Value: app.Config.DedupTTL.String()},
			logging.Field{Key: "sweep_interval", Value: app.Config.DedupSweepInterval.String()},
		)
		return nil
	}
}

// initializeNotifier builds the Telegram client, behind a circuit breaker
// when configured.
func (app *App) initializeNotifier() {
	client := telegram.NewClient(telegram.Config{
		BotToken: app.Config.TelegramBotToken,
		ChatID:   app.Config.TelegramChatID,
		APIBase:  app.Config.TelegramAPIBase,
		Timeout:  app.Config.TelegramTimeout,
	})

	if app.Config.BreakerEnabled {
		app.Notifier = newGuardedNotifier(client, app.Logger)
		app.Logger.Info("Telegram delivery circuit breaker enabled")
	} else {
		app.Notifier = client
	}
}

func (app *App) initializeFilter() {
	app.Filter = notify.NewFilter(
		app.Config.PushFilterEnabled,
		app.Config.PushOnlyEventTypes,
		app.Config.PushOnlyRoomIDs,
	)

	if app.Config.PushFilterEnabled {
		app.Logger.Info("Push filter enabled",
			logging.Field{Key: "event_types", Value: app.Config.PushOnlyEventTypes},
			logging.Field{Key: "room_ids", Value: app.Config.PushOnlyRoomIDs},
		)
	}
}

// StartBackground starts the dedup eviction sweep, if any.
func (app *App) StartBackground() {
	if app.sweeper != nil {
		app.sweeper.Start()
	}
}

// Shutdown stops background work and waits for in-flight sweep runs.
func (app *App) Shutdown(ctx context.Context) error {
	if app.sweeper != nil {
		stopCtx := app.sweeper.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			app.Logger.Warn("Error closing dedup store", logging.Field{Key: "error", Value: err.Error()})
		}
	}
}
