package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danniel-isiah-libor/talos-io/internal/api"
	"github.com/danniel-isiah-libor/talos-io/internal/bypass"
	"github.com/danniel-isiah-libor/talos-io/internal/checkout"
	"github.com/danniel-isiah-libor/talos-io/internal/config"
	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/events"
	"github.com/danniel-isiah-libor/talos-io/internal/notify"
	"github.com/danniel-isiah-libor/talos-io/internal/observability"
	"github.com/danniel-isiah-libor/talos-io/internal/platform/postgres"
	"github.com/danniel-isiah-libor/talos-io/internal/platform/titan"
	"github.com/danniel-isiah-libor/talos-io/internal/redact"
	"github.com/danniel-isiah-libor/talos-io/internal/service/auth"
	"github.com/danniel-isiah-libor/talos-io/internal/store"
)

// application bundles every long-lived component the server wires together.
type application struct {
	cfg    *config.Config
	logger *slog.Logger

	registry  *store.MemoryRegistry
	engine    *checkout.Engine
	sessions  auth.SessionService
	wsHandler *api.WSHandler
	metrics   *observability.Metrics

	archive *postgres.TaskArchive
	pool    *pgxpool.Pool
}

// newApplication builds the full dependency graph from configuration.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	metrics := observability.NewMetrics("talos")

	emitter := events.NewInMemoryEmitter(log)
	registry := store.NewMemoryRegistry(emitter, log)

	wsHandler := api.NewWSHandler(log)
	emitter.RegisterHandler(wsHandler)
	emitter.RegisterHandler(&taskEventCounter{metrics: metrics})

	app := &application{
		cfg:       cfg,
		logger:    log,
		registry:  registry,
		wsHandler: wsHandler,
		metrics:   metrics,
	}

	if cfg.Database.URL != "" {
		if err := postgres.Migrate(cfg.Database.URL, log); err != nil {
			return nil, fmt.Errorf("archive migration failed: %w", err)
		}
		pool, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("archive connection failed: %w", err)
		}
		app.pool = pool
		app.archive = postgres.NewTaskArchive(pool, log)
		emitter.RegisterHandler(app.archive)
		log.Info("task snapshot archive enabled")
	} else {
		log.Info("no database configured, running in memory only")
	}

	timeout := time.Duration(cfg.Titan.TimeoutSeconds) * time.Second
	client := titan.NewClient(cfg.Titan.BaseURL, cfg.Titan.PaymentBaseURL, timeout, log)
	notifier := notify.NewWebhookNotifier(cfg.Notify.WebhookURL, log)

	pipeline := checkout.NewPipeline(registry, client, checkout.SystemClock{}, log, checkout.PipelineOptions{
		Notifier:              notifier,
		Window:                &logWindow{logger: log.With("component", "checkout_window")},
		FreeShippingThreshold: cfg.Checkout.FreeShippingThreshold,
		OnSuccess:             func() { metrics.OrdersPlaced.Inc() },
	})

	coordinator := bypass.NewCoordinator(cfg.Bypass.Doors, registry.IsRunning, bypass.Options{
		Logger: log,
		OnStateChange: func(occupied, queued int) {
			metrics.DoorsOccupied.Set(float64(occupied))
			metrics.QueueDepth.Set(float64(queued))
		},
	})
	harvester := bypass.NewHTTPHarvester(cfg.Titan.BaseURL, timeout, log)

	app.engine = checkout.NewEngine(registry, pipeline, log, checkout.EngineOptions{
		Coordinator:     coordinator,
		Harvester:       harvester,
		OnRunningChange: func(running int) { metrics.RunningTasks.Set(float64(running)) },
	})

	sessions, err := auth.NewSessionService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("session service setup failed: %w", err)
	}
	app.sessions = sessions

	return app, nil
}

// cleanup releases everything in reverse dependency order. Called after the
// HTTP server has drained.
func (app *application) cleanup() {
	app.engine.StopAll()
	if app.archive != nil {
		app.archive.Close()
	}
	if app.pool != nil {
		app.pool.Close()
	}
}

// taskEventCounter feeds registry events into the metrics counter vector.
type taskEventCounter struct {
	metrics *observability.Metrics
}

func (c *taskEventCounter) HandleTaskEvent(event events.TaskEvent) {
	c.metrics.TaskEvents.WithLabelValues(string(event.Type)).Inc()
}

// logWindow stands in for the interactive checkout window: the gateway
// session cookie is surfaced through the event feed and the log rather than
// an embedded browser.
type logWindow struct {
	logger *slog.Logger
}

func (w *logWindow) Launch(ctx context.Context, cookie domain.Cookie, product domain.CartedProduct) {
	w.logger.Info("checkout window ready",
		"product", product.Name,
		"size", product.SizeLabel,
		"cookie_name", cookie.Name,
		"cookie_value", redact.String(cookie.Value))
}
