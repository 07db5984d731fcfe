// Package journal is a sink that stores every message it receives in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/module"
	"github.com/vk/reactgrid/internal/registry"
	"github.com/vk/reactgrid/internal/sm"
)

// DefaultDSN keeps the journal in memory for the lifetime of the module.
const DefaultDSN = ":memory:"

const schema = `CREATE TABLE IF NOT EXISTS journal (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	invocation  TEXT NOT NULL,
	channel     TEXT NOT NULL,
	payload     BLOB NOT NULL,
	recorded_at INTEGER NOT NULL
)`

// Module implements the registry.Module interface for this package.
type Module struct{}

// Journal persists messages delivered to its record input.
type Journal struct {
	db *sql.DB
}

// Open opens the journal database at dsn and creates its table.
func Open(dsn string) (*Journal, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the SQLite handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Declare declares the record input and the count and clear entry points.
func (j *Journal) Declare(b *module.Builder) {
	b.Input("record", j.record)
	b.Entry("count", j.count)
	b.Entry("clear", j.clear)
}

func (j *Journal) record(ctx context.Context, msg sm.Message) sm.Result {
	var invocation, channel string
	if inv, ok := module.InvocationFromContext(ctx); ok {
		invocation, channel = inv.ParentID, inv.Channel
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO journal (invocation, channel, payload, recorded_at) VALUES (?, ?, ?, ?)`,
		invocation, channel, msg.Bytes(), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to record message", "error", err)
		return sm.Failuref("record message: %v", err)
	}
	return sm.Success()
}

func (j *Journal) count(ctx context.Context, _ sm.Message) sm.Result {
	var n int64
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal`).Scan(&n); err != nil {
		ctxlog.FromContext(ctx).Error("Failed to count journal rows", "error", err)
		return sm.Failuref("count journal rows: %v", err)
	}
	if n > math.MaxUint32 {
		n = math.MaxUint32
	}
	return sm.Reply(sm.EncodeUint32LE(uint32(n)))
}

func (j *Journal) clear(ctx context.Context, _ sm.Message) sm.Result {
	res, err := j.db.ExecContext(ctx, `DELETE FROM journal`)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to clear journal", "error", err)
		return sm.Failuref("clear journal: %v", err)
	}
	n, _ := res.RowsAffected()
	ctxlog.FromContext(ctx).Info("Journal cleared", "rows", n)
	return sm.Success()
}

// Register registers the module type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNative("journal", &registry.RegisteredNative{
		Description: "Stores messages received on record in SQLite; count replies with the row count.",
		New: func(settings map[string]string) (module.Definition, error) {
			return Open(settings["dsn"])
		},
	})
}
