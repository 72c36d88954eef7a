// Package session hosts board engines in Redis so that several callers can
// drive the same game. Each call restores an engine from the stored document,
// applies one interaction and writes the result back under WATCH.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/engine"
	"github.com/park285/cheese-board/internal/obslog"
)

const defaultTTL = 24 * time.Hour

// Archiver receives sessions once they are closed.
type Archiver interface {
	SaveResult(ctx context.Context, g *Game) error
}

type Manager struct {
	rdb      *redis.Client
	ttl      time.Duration
	archiver Archiver
	now      func() time.Time
}

type Option func(*Manager)

// WithTTL overrides the expiry applied to session documents and index sets.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

func NewManager(redisURL string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for session manager")
	}
	ropts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewManagerWithClient(rdb, opts...), nil
}

// NewManagerWithClient wraps an existing client. Close closes it.
func NewManagerWithClient(rdb *redis.Client, opts ...Option) *Manager {
	m := &Manager{rdb: rdb, ttl: defaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// AttachArchiver wires the sink for closed sessions.
func (m *Manager) AttachArchiver(a Archiver) {
	if m != nil {
		m.archiver = a
	}
}

// Ping checks the Redis connection.
func (m *Manager) Ping(ctx context.Context) error {
	if m == nil || m.rdb == nil {
		return fmt.Errorf("session manager not initialized")
	}
	return m.rdb.Ping(ctx).Err()
}

// Create stores a new game in the standard position. An empty player ID
// leaves that side open to anyone.
func (m *Manager) Create(ctx context.Context, whiteID, blackID string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, fmt.Errorf("session manager not initialized")
	}
	whiteID, blackID = strings.TrimSpace(whiteID), strings.TrimSpace(blackID)
	if whiteID != "" && whiteID == blackID {
		return nil, fmt.Errorf("%w: same player on both sides", ErrInvalidArgs)
	}

	now := m.now()
	g := &Game{
		ID:        uuid.NewString(),
		Status:    StatusActive,
		WhiteID:   whiteID,
		BlackID:   blackID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.capture(engine.New())

	if err := m.save(ctx, g); err != nil {
		return nil, err
	}
	if err := m.indexPlayers(ctx, g.ID, g.WhiteID, g.BlackID); err != nil {
		return nil, err
	}
	obslog.L().Info("session_create",
		zap.String("session_id", g.ID),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
	)
	return g, nil
}

// Get loads a session by ID.
func (m *Manager) Get(ctx context.Context, id string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, fmt.Errorf("session manager not initialized")
	}
	g, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrSessionNotFound
	}
	return g, nil
}

// ListByPlayer returns the player's active sessions, most recently updated first.
func (m *Manager) ListByPlayer(ctx context.Context, playerID string) ([]*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, fmt.Errorf("session manager not initialized")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, nil
	}
	ids, err := m.rdb.SMembers(ctx, idxPlayerKey(playerID)).Result()
	if err != nil {
		return nil, err
	}
	var list []*Game
	for _, id := range ids {
		g, gerr := m.get(ctx, id)
		if gerr != nil || g == nil || g.Status != StatusActive {
			continue
		}
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list, nil
}

// Interact applies one square interaction on behalf of playerID. Off-board
// squares fail with board.ErrInvalidSquare before anything is read or written.
func (m *Manager) Interact(ctx context.Context, id, playerID string, sq board.Square) (*Game, engine.Result, error) {
	if m == nil || m.rdb == nil {
		return nil, engine.Result{}, fmt.Errorf("session manager not initialized")
	}
	if err := sq.Validate(); err != nil {
		return nil, engine.Result{}, err
	}
	playerID = strings.TrimSpace(playerID)
	key := sessionKey(id)

	var (
		out *Game
		res engine.Result
	)
	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := m.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if cur.Status != StatusActive {
			return ErrSessionClosed
		}
		st, err := cur.EngineState()
		if err != nil {
			return err
		}
		if seat := cur.SeatFor(st.Turn); seat != "" && seat != playerID {
			return ErrNotYourTurn
		}

		eng, err := engine.Restore(st, engine.WithLogger(obslog.L().With(zap.String("session_id", cur.ID))))
		if err != nil {
			return err
		}
		res, err = eng.Interact(sq)
		if err != nil {
			return err
		}

		cur.capture(eng)
		cur.LastOutcome = string(res.Outcome)
		cur.LastReason = string(res.Reason)
		cur.UpdatedAt = m.now()

		raw, err := json.Marshal(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, m.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		out = cur
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, engine.Result{}, ErrConcurrentUpdate
		}
		return nil, engine.Result{}, err
	}

	obslog.L().Info("session_interact",
		zap.String("session_id", out.ID),
		zap.String("player_id", playerID),
		zap.String("square", sq.String()),
		zap.String("outcome", string(res.Outcome)),
		zap.String("reason", string(res.Reason)),
		zap.String("turn", out.Turn),
		zap.Int("ply", out.Ply),
	)
	return out, res, nil
}

// ClaimSeat binds playerID to the open side c. Claiming a seat the player
// already holds is a no-op.
func (m *Manager) ClaimSeat(ctx context.Context, id string, c board.Color, playerID string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, fmt.Errorf("session manager not initialized")
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" || (c != board.White && c != board.Black) {
		return nil, ErrInvalidArgs
	}
	key := sessionKey(id)
	var out *Game
	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := m.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if cur.Status != StatusActive {
			return ErrSessionClosed
		}
		switch cur.SeatFor(c) {
		case playerID:
			out = cur
			return nil
		case "":
		default:
			return ErrSeatTaken
		}
		if cur.SeatFor(c.Other()) == playerID {
			return fmt.Errorf("%w: same player on both sides", ErrInvalidArgs)
		}
		if c == board.White {
			cur.WhiteID = playerID
		} else {
			cur.BlackID = playerID
		}
		cur.UpdatedAt = m.now()
		raw, err := json.Marshal(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, m.ttl)
			pipe.SAdd(ctx, idxPlayerKey(playerID), cur.ID)
			pipe.Expire(ctx, idxPlayerKey(playerID), m.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		out = cur
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}
	obslog.L().Info("session_seat",
		zap.String("session_id", out.ID),
		zap.String("color", c.String()),
		zap.String("player_id", playerID),
	)
	return out, nil
}

// CloseSession marks the session closed and hands it to the archiver, if any.
// Archive failures are logged and do not undo the close.
func (m *Manager) CloseSession(ctx context.Context, id string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, fmt.Errorf("session manager not initialized")
	}
	key := sessionKey(id)
	var out *Game
	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := m.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if cur.Status != StatusActive {
			return ErrSessionClosed
		}
		cur.Status = StatusClosed
		cur.Selection = nil
		cur.UpdatedAt = m.now()
		raw, err := json.Marshal(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, m.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		out = cur
		return nil
	}, key)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}

	obslog.L().Info("session_close",
		zap.String("session_id", out.ID),
		zap.Int("ply", out.Ply),
		zap.String("turn", out.Turn),
	)
	_ = m.persist(ctx, out)
	return out, nil
}

func (m *Manager) persist(ctx context.Context, g *Game) error {
	if m == nil || m.archiver == nil || g == nil || g.Status != StatusClosed {
		return nil
	}
	if err := m.archiver.SaveResult(ctx, g); err != nil {
		obslog.L().Error("archive_persist_error", zap.String("session_id", g.ID), zap.Error(err))
		return err
	}
	obslog.L().Info("archive_persist", zap.String("session_id", g.ID), zap.Int("ply", g.Ply))
	return nil
}

func (m *Manager) load(ctx context.Context, tx *redis.Tx, key string) (*Game, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (m *Manager) save(ctx context.Context, g *Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return m.rdb.Set(ctx, sessionKey(g.ID), raw, m.ttl).Err()
}

func (m *Manager) get(ctx context.Context, id string) (*Game, error) {
	raw, err := m.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (m *Manager) indexPlayers(ctx context.Context, id string, players ...string) error {
	for _, p := range players {
		if strings.TrimSpace(p) == "" {
			continue
		}
		key := idxPlayerKey(p)
		if err := m.rdb.SAdd(ctx, key, id).Err(); err != nil {
			return err
		}
		// index lives as long as the newest session it points at
		_ = m.rdb.Expire(ctx, key, m.ttl).Err()
	}
	return nil
}

func sessionKey(id string) string        { return "board:session:" + strings.TrimSpace(id) }
func idxPlayerKey(playerID string) string { return "board:index:player:" + strings.TrimSpace(playerID) }

func parseRedisURL(raw string) (*redis.Options, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}
