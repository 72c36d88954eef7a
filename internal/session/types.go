package session

import (
	"fmt"
	"time"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/boardview"
	"github.com/park285/cheese-board/internal/engine"
)

// Status represents a session lifecycle state.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusClosed Status = "CLOSED"
)

// Game is the persisted state of one hosted board. The board itself is kept as
// a FEN placement field.
type Game struct {
	ID        string        `json:"id"`
	Placement string        `json:"placement"`
	Turn      string        `json:"turn"`
	Selection *board.Square `json:"selection,omitempty"`
	Ply       int           `json:"ply"`
	Status    Status        `json:"status"`
	WhiteID   string        `json:"white_id,omitempty"`
	BlackID   string        `json:"black_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	LastOutcome string `json:"last_outcome,omitempty"`
	LastReason  string `json:"last_reason,omitempty"`
}

// EngineState decodes the stored fields into something engine.Restore accepts.
func (g *Game) EngineState() (engine.State, error) {
	b, err := boardview.ParsePlacement(g.Placement)
	if err != nil {
		return engine.State{}, fmt.Errorf("session %s: %w", g.ID, err)
	}
	turn, ok := board.ParseColor(g.Turn)
	if !ok {
		return engine.State{}, fmt.Errorf("session %s: invalid turn %q", g.ID, g.Turn)
	}
	st := engine.State{Board: b, Turn: turn, Ply: g.Ply}
	if g.Selection != nil {
		sq := *g.Selection
		st.Selection = &sq
	}
	return st, nil
}

// Board decodes the stored placement.
func (g *Game) Board() (board.Board, error) {
	return boardview.ParsePlacement(g.Placement)
}

// SeatFor returns the player bound to side c, empty for an open seat.
func (g *Game) SeatFor(c board.Color) string {
	switch c {
	case board.White:
		return g.WhiteID
	case board.Black:
		return g.BlackID
	}
	return ""
}

func (g *Game) capture(e *engine.GameEngine) {
	st := e.State()
	g.Placement = boardview.Placement(st.Board)
	g.Turn = st.Turn.String()
	g.Selection = st.Selection
	g.Ply = st.Ply
}

// Errors
var (
	ErrInvalidArgs      = errf("invalid arguments")
	ErrSessionNotFound  = errf("session not found or expired")
	ErrSessionClosed    = errf("session closed")
	ErrNotYourTurn      = errf("side to move is seated by another player")
	ErrConcurrentUpdate = errf("session changed concurrently")
	ErrSeatTaken        = errf("seat already taken")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
