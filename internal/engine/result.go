package engine

import "github.com/park285/cheese-board/internal/board"

// Outcome classifies what a single interaction did.
type Outcome string

const (
	OutcomeSelected   Outcome = "selected"
	OutcomeDeselected Outcome = "deselected"
	OutcomeMoved      Outcome = "moved"
	OutcomeRejected   Outcome = "rejected"
	OutcomeIgnored    Outcome = "ignored"
)

// Reason qualifies Rejected and Ignored outcomes.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonIllegalMove   Reason = "illegal_move"
	ReasonOwnership     Reason = "ownership_mismatch"
	ReasonEmptySquare   Reason = "empty_square"
	ReasonOpponentPiece Reason = "opponent_piece"
)

// Result reports the effect of Interact. From/To are meaningful for moves and
// rejections; Piece is the selected or moved piece.
type Result struct {
	Outcome Outcome
	Reason  Reason
	From    board.Square
	To      board.Square
	Piece   board.Piece
	Turn    board.Color // side to move after the interaction
}

// Observer is notified after every successful Interact call.
type Observer func(Result)
