package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for goose
	"github.com/pressly/goose/v3"

	"github.com/danniel-isiah-libor/talos-io/internal/events"
	"github.com/danniel-isiah-libor/talos-io/internal/redact"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// archiveQueueSize bounds how many unwritten events may pile up before new
// ones are dropped. Dropping is acceptable: the archive is an observability
// aid, not a system of record.
const archiveQueueSize = 256

// execer is the slice of pgxpool.Pool the archive writes through.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Connect opens a pgx connection pool against the given database URL and
// verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Migrate brings the archive schema up to date using the embedded goose
// migrations. It opens its own short-lived database/sql connection because
// goose does not speak the pgx pool API.
func Migrate(databaseURL string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Warn("failed to close migration connection", "error", redact.Error(closeErr))
		}
	}()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run archive migrations: %w", err)
	}

	log.Info("task archive schema up to date")
	return nil
}

// TaskArchive mirrors registry events into the task_snapshots table. It
// implements events.Handler; HandleTaskEvent never blocks the caller, the
// actual writes happen on a single background goroutine.
type TaskArchive struct {
	db     execer
	logger *slog.Logger

	queue     chan events.TaskEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewTaskArchive creates an archive writing through the given pool and starts
// its worker goroutine.
func NewTaskArchive(db execer, log *slog.Logger) *TaskArchive {
	if log == nil {
		log = slog.Default()
	}
	a := &TaskArchive{
		db:     db,
		logger: log.With("component", "task_archive"),
		queue:  make(chan events.TaskEvent, archiveQueueSize),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

// HandleTaskEvent implements events.Handler. A full queue drops the event
// rather than stalling the registry.
func (a *TaskArchive) HandleTaskEvent(event events.TaskEvent) {
	select {
	case a.queue <- event:
	default:
		a.logger.Warn("archive queue full, dropping task event",
			"event_type", event.Type,
			"task_id", event.Task.ID)
	}
}

// Close stops the worker after draining the queued events.
func (a *TaskArchive) Close() {
	a.closeOnce.Do(func() {
		close(a.queue)
	})
	<-a.done
}

func (a *TaskArchive) run() {
	defer close(a.done)
	for event := range a.queue {
		a.apply(context.Background(), event)
	}
}

func (a *TaskArchive) apply(ctx context.Context, event events.TaskEvent) {
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	switch event.Type {
	case events.EventTaskRemoved:
		_, err = a.db.Exec(writeCtx,
			`DELETE FROM task_snapshots WHERE task_id = $1`,
			event.Task.ID)
	default:
		var snapshot []byte
		snapshot, err = snapshotJSON(event)
		if err == nil {
			_, err = a.db.Exec(writeCtx,
				`INSERT INTO task_snapshots (task_id, name, status_id, status_message, snapshot, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 ON CONFLICT (task_id) DO UPDATE
				 SET name = EXCLUDED.name,
				     status_id = EXCLUDED.status_id,
				     status_message = EXCLUDED.status_message,
				     snapshot = EXCLUDED.snapshot,
				     updated_at = EXCLUDED.updated_at`,
				event.Task.ID,
				event.Task.Name,
				int(event.Task.Status.ID),
				event.Task.Status.Message,
				snapshot,
				event.At)
		}
	}

	if err != nil {
		a.logger.Error("failed to archive task event",
			"event_type", event.Type,
			"task_id", event.Task.ID,
			"error", redact.Error(err))
	}
}

// snapshotJSON serializes the task with its credentials and session token
// blanked. The archive outlives the process; secrets must not.
func snapshotJSON(event events.TaskEvent) ([]byte, error) {
	task := event.Task.Clone()
	task.Profile.Password = ""
	task.TransactionData.Token = ""

	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task snapshot: %w", err)
	}
	return data, nil
}
