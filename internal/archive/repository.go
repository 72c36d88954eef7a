// Package archive stores closed sessions in Postgres.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/cheese-board/internal/session"
)

// Schema creates the table SaveResult writes to.
const Schema = `CREATE TABLE IF NOT EXISTS board_sessions (
    session_id   TEXT PRIMARY KEY,
    white_id     TEXT NOT NULL DEFAULT '',
    black_id     TEXT NOT NULL DEFAULT '',
    placement    TEXT NOT NULL,
    turn         TEXT NOT NULL,
    ply          INTEGER NOT NULL,
    last_outcome TEXT NOT NULL DEFAULT '',
    started_at   TIMESTAMPTZ NOT NULL,
    ended_at     TIMESTAMPTZ NOT NULL,
    duration_ms  BIGINT NOT NULL
)`

const upsertSession = `INSERT INTO board_sessions (
    session_id, white_id, black_id, placement, turn, ply,
    last_outcome, started_at, ended_at, duration_ms
  ) VALUES (
    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
  ) ON CONFLICT (session_id) DO UPDATE SET
    white_id=EXCLUDED.white_id,
    black_id=EXCLUDED.black_id,
    placement=EXCLUDED.placement,
    turn=EXCLUDED.turn,
    ply=EXCLUDED.ply,
    last_outcome=EXCLUDED.last_outcome,
    started_at=EXCLUDED.started_at,
    ended_at=EXCLUDED.ended_at,
    duration_ms=EXCLUDED.duration_ms`

type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// NewRepositoryWithDB wraps an already opened handle.
func NewRepositoryWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// EnsureSchema creates the archive table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, Schema)
	return err
}

// SaveResult upserts a closed session.
func (r *Repository) SaveResult(ctx context.Context, g *session.Game) error {
	if r == nil || r.db == nil || g == nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, upsertSession, rowArgs(g)...)
	return err
}

func rowArgs(g *session.Game) []any {
	duration := g.UpdatedAt.Sub(g.CreatedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}
	return []any{
		g.ID,
		g.WhiteID, g.BlackID,
		g.Placement, g.Turn, g.Ply,
		strings.TrimSpace(g.LastOutcome),
		g.CreatedAt, g.UpdatedAt, duration,
	}
}
