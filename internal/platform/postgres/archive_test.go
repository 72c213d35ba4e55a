package postgres

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/events"
)

// mockExecer records every statement the archive issues.
type mockExecer struct {
	ExecFn func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	mu    sync.Mutex
	calls []execCall
}

type execCall struct {
	sql  string
	args []any
}

func (m *mockExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	m.calls = append(m.calls, execCall{sql: sql, args: args})
	m.mu.Unlock()

	if m.ExecFn != nil {
		return m.ExecFn(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (m *mockExecer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockExecer) call(i int) execCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

func archiveTestTask(t *testing.T) domain.Task {
	t.Helper()

	task, err := domain.NewTask(
		"archive-test",
		domain.Profile{Email: "buyer@example.com", Password: "hunter2secret"},
		"FY2903",
		[]domain.SizeOption{{Label: "8", AttributeID: "151", Value: "584"}},
		time.Second,
	)
	require.NoError(t, err)
	task.TransactionData.Token = "live-session-token"
	return *task
}

func TestTaskArchive_UpsertsOnUpdate(t *testing.T) {
	t.Parallel()

	db := &mockExecer{}
	archive := NewTaskArchive(db, nil)

	task := archiveTestTask(t)
	archive.HandleTaskEvent(events.NewTaskEvent(events.EventTaskUpdated, task))
	archive.Close()

	require.Equal(t, 1, db.callCount())
	call := db.call(0)
	assert.Contains(t, call.sql, "INSERT INTO task_snapshots")
	assert.Contains(t, call.sql, "ON CONFLICT (task_id) DO UPDATE")
	assert.Equal(t, task.ID, call.args[0])
	assert.Equal(t, "archive-test", call.args[1])
	assert.Equal(t, int(domain.StatusStopped), call.args[2])
}

func TestTaskArchive_SnapshotNeverCarriesSecrets(t *testing.T) {
	t.Parallel()

	db := &mockExecer{}
	archive := NewTaskArchive(db, nil)

	archive.HandleTaskEvent(events.NewTaskEvent(events.EventTaskCreated, archiveTestTask(t)))
	archive.Close()

	require.Equal(t, 1, db.callCount())
	snapshot := string(db.call(0).args[4].([]byte))
	assert.NotContains(t, snapshot, "hunter2secret")
	assert.NotContains(t, snapshot, "live-session-token")
	assert.Contains(t, snapshot, "buyer@example.com")
}

func TestTaskArchive_DeletesOnRemove(t *testing.T) {
	t.Parallel()

	db := &mockExecer{}
	archive := NewTaskArchive(db, nil)

	task := archiveTestTask(t)
	archive.HandleTaskEvent(events.NewTaskEvent(events.EventTaskRemoved, task))
	archive.Close()

	require.Equal(t, 1, db.callCount())
	call := db.call(0)
	assert.True(t, strings.HasPrefix(call.sql, "DELETE FROM task_snapshots"))
	assert.Equal(t, task.ID, call.args[0])
}

func TestTaskArchive_WriteFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	db := &mockExecer{
		ExecFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, assert.AnError
		},
	}
	archive := NewTaskArchive(db, nil)

	// Failed writes must not panic or block later events.
	archive.HandleTaskEvent(events.NewTaskEvent(events.EventTaskCreated, archiveTestTask(t)))
	archive.HandleTaskEvent(events.NewTaskEvent(events.EventTaskUpdated, archiveTestTask(t)))
	archive.Close()

	assert.Equal(t, 2, db.callCount())
}

func TestTaskArchive_FullQueueDropsEvents(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	db := &mockExecer{
		ExecFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			<-release
			return pgconn.CommandTag{}, nil
		},
	}
	archive := NewTaskArchive(db, nil)

	task := archiveTestTask(t)
	done := make(chan struct{})
	go func() {
		// One event occupies the worker, the rest fill the queue; overflow
		// must return immediately instead of blocking.
		for i := 0; i < archiveQueueSize+10; i++ {
			archive.HandleTaskEvent(events.NewTaskEvent(events.EventTaskUpdated, task))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("HandleTaskEvent blocked on a full queue")
	}

	close(release)
	archive.Close()
}
