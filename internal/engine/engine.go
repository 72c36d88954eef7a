// Package engine owns the game state (board, side to move, selection) and
// drives it from square interactions.
//
// A GameEngine is not safe for concurrent use. Hosting layers serialize
// access to each engine.
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/rules"
)

// GameEngine is the single owner of a game's mutable state.
type GameEngine struct {
	board     *board.Board
	turn      board.Color
	selection *board.Square
	ply       int

	logger    *zap.Logger
	observers []Observer
}

// Option configures a GameEngine.
type Option func(*GameEngine)

// WithLogger attaches a logger. Interactions are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(e *GameEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers a callback receiving every interaction result.
func WithObserver(o Observer) Option {
	return func(e *GameEngine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// New returns an engine set up with the standard position and white to move.
func New(opts ...Option) *GameEngine {
	e := &GameEngine{
		board:  board.NewStandard(),
		turn:   board.White,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State is the restorable part of an engine.
type State struct {
	Board     board.Board
	Turn      board.Color
	Selection *board.Square
	Ply       int
}

// Restore builds an engine from a previously captured State. A selection that
// no longer holds a piece of the side to move is dropped.
func Restore(st State, opts ...Option) (*GameEngine, error) {
	if st.Turn != board.White && st.Turn != board.Black {
		return nil, fmt.Errorf("restore: invalid turn %d", st.Turn)
	}
	if st.Ply < 0 {
		return nil, fmt.Errorf("restore: negative ply %d", st.Ply)
	}
	e := New(opts...)
	b := st.Board
	e.board = &b
	e.turn = st.Turn
	e.ply = st.Ply
	if st.Selection != nil {
		sq := *st.Selection
		if err := sq.Validate(); err != nil {
			return nil, fmt.Errorf("restore selection: %w", err)
		}
		if p := b.At(sq); !p.IsEmpty() && p.Color == st.Turn {
			e.selection = &sq
		}
	}
	return e, nil
}

// State captures the engine for persistence.
func (e *GameEngine) State() State {
	st := State{Board: e.board.Snapshot(), Turn: e.turn, Ply: e.ply}
	if e.selection != nil {
		sq := *e.selection
		st.Selection = &sq
	}
	return st
}

// Snapshot returns a copy of the board for renderers.
func (e *GameEngine) Snapshot() board.Board { return e.board.Snapshot() }

// CurrentSelection reports the selected square, if any.
func (e *GameEngine) CurrentSelection() (board.Square, bool) {
	if e.selection == nil {
		return board.Square{}, false
	}
	return *e.selection, true
}

// CurrentTurn returns the side to move.
func (e *GameEngine) CurrentTurn() board.Color { return e.turn }

// Ply returns the number of executed moves.
func (e *GameEngine) Ply() int { return e.ply }

// Interact is the single mutating entry point. It returns an error only for
// off-board squares, in which case the state is untouched.
func (e *GameEngine) Interact(sq board.Square) (Result, error) {
	if err := sq.Validate(); err != nil {
		e.logger.Debug("board_invalid_square", zap.Int("file", sq.File), zap.Int("rank", sq.Rank))
		return Result{}, err
	}

	var res Result
	switch {
	case e.selection != nil && *e.selection == sq:
		res = Result{Outcome: OutcomeDeselected, From: sq, Piece: e.board.At(sq)}
		e.selection = nil
	case e.selection != nil:
		res = e.tryMove(*e.selection, sq)
	default:
		res = e.trySelect(sq)
	}
	res.Turn = e.turn

	e.log(res)
	for _, o := range e.observers {
		o(res)
	}
	return res, nil
}

func (e *GameEngine) trySelect(sq board.Square) Result {
	p := e.board.At(sq)
	switch {
	case p.IsEmpty():
		return Result{Outcome: OutcomeIgnored, Reason: ReasonEmptySquare, From: sq}
	case p.Color != e.turn:
		return Result{Outcome: OutcomeIgnored, Reason: ReasonOpponentPiece, From: sq, Piece: p}
	}
	sel := sq
	e.selection = &sel
	return Result{Outcome: OutcomeSelected, From: sq, Piece: p}
}

func (e *GameEngine) tryMove(origin, dest board.Square) Result {
	p := e.board.At(origin)
	if p.IsEmpty() || p.Color != e.turn {
		// stale selection: drop it rather than trust it
		e.selection = nil
		return Result{Outcome: OutcomeRejected, Reason: ReasonOwnership, From: origin, To: dest, Piece: p}
	}
	if !rules.IsLegalMove(e.board, p, origin, dest) {
		return Result{Outcome: OutcomeRejected, Reason: ReasonIllegalMove, From: origin, To: dest, Piece: p}
	}
	e.executeMove(origin, dest)
	e.selection = nil
	return Result{Outcome: OutcomeMoved, From: origin, To: dest, Piece: p}
}

// executeMove assumes legality was already confirmed.
func (e *GameEngine) executeMove(origin, dest board.Square) {
	p := e.board.At(origin)
	_ = e.board.Set(origin, board.NoPiece)
	_ = e.board.Set(dest, p)
	e.turn = e.turn.Other()
	e.ply++
}

func (e *GameEngine) log(res Result) {
	fields := []zap.Field{
		zap.String("outcome", string(res.Outcome)),
		zap.String("from", res.From.String()),
		zap.String("piece", res.Piece.Tag()),
		zap.String("turn", res.Turn.String()),
		zap.Int("ply", e.ply),
	}
	switch res.Outcome {
	case OutcomeMoved:
		e.logger.Debug("board_move", append(fields, zap.String("to", res.To.String()))...)
	case OutcomeRejected:
		e.logger.Debug("board_reject", append(fields, zap.String("to", res.To.String()), zap.String("reason", string(res.Reason)))...)
	case OutcomeSelected, OutcomeDeselected:
		e.logger.Debug("board_select", fields...)
	default:
		e.logger.Debug("board_ignore", append(fields, zap.String("reason", string(res.Reason)))...)
	}
}
