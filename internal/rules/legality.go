// Package rules holds the per-piece move-legality predicates.
//
// Predicates are total: malformed input (off-board squares, empty origin,
// origin == dest, tag not matching the origin occupant) is reported as not
// legal rather than as an error.
package rules

import "github.com/park285/cheese-board/internal/board"

// Predicate decides whether piece may move from origin to dest on b.
type Predicate func(b *board.Board, piece board.Piece, origin, dest board.Square) bool

// IsLegalMove dispatches on the kind of piece.
func IsLegalMove(b *board.Board, piece board.Piece, origin, dest board.Square) bool {
	if b == nil || !basicChecks(b, piece, origin, dest) {
		return false
	}
	switch piece.Kind {
	case board.Pawn:
		return pawnMove(b, piece, origin, dest)
	case board.Rook:
		return rookMove(b, origin, dest)
	case board.Knight:
		return knightMove(origin, dest)
	case board.Bishop:
		return bishopMove(b, origin, dest)
	case board.Queen:
		return queenMove(b, origin, dest)
	case board.King:
		return kingMove(origin, dest)
	default:
		return false
	}
}

// PawnMove, RookMove, ... expose the individual predicates with the common
// checks applied.
var (
	PawnMove   Predicate = guarded(board.Pawn)
	RookMove   Predicate = guarded(board.Rook)
	KnightMove Predicate = guarded(board.Knight)
	BishopMove Predicate = guarded(board.Bishop)
	QueenMove  Predicate = guarded(board.Queen)
	KingMove   Predicate = guarded(board.King)
)

func guarded(k board.Kind) Predicate {
	return func(b *board.Board, piece board.Piece, origin, dest board.Square) bool {
		if piece.Kind != k {
			return false
		}
		return IsLegalMove(b, piece, origin, dest)
	}
}

// LegalDestinations lists every square the piece on origin may move to.
func LegalDestinations(b *board.Board, origin board.Square) []board.Square {
	if b == nil {
		return nil
	}
	piece := b.At(origin)
	if piece.IsEmpty() {
		return nil
	}
	var out []board.Square
	for r := 0; r < board.Size; r++ {
		for f := 0; f < board.Size; f++ {
			dest := board.Sq(f, r)
			if IsLegalMove(b, piece, origin, dest) {
				out = append(out, dest)
			}
		}
	}
	return out
}

// basicChecks enforces the rules shared by every piece kind.
func basicChecks(b *board.Board, piece board.Piece, origin, dest board.Square) bool {
	if !origin.Valid() || !dest.Valid() || origin == dest {
		return false
	}
	if piece.IsEmpty() || b.At(origin) != piece {
		return false
	}
	target := b.At(dest)
	return target.IsEmpty() || target.Color != piece.Color
}

// forward is the rank step of a pawn: white moves toward rank 0.
func forward(c board.Color) int {
	if c == board.White {
		return -1
	}
	return 1
}

func startRank(c board.Color) int {
	if c == board.White {
		return board.WhitePawnRank
	}
	return board.BlackPawnRank
}

func pawnMove(b *board.Board, piece board.Piece, origin, dest board.Square) bool {
	dir := forward(piece.Color)
	df := dest.File - origin.File
	dr := dest.Rank - origin.Rank
	target := b.At(dest)

	switch {
	case df == 0 && dr == dir:
		return target.IsEmpty()
	case df == 0 && dr == 2*dir:
		if origin.Rank != startRank(piece.Color) {
			return false
		}
		mid := board.Sq(origin.File, origin.Rank+dir)
		return b.At(mid).IsEmpty() && target.IsEmpty()
	case abs(df) == 1 && dr == dir:
		return !target.IsEmpty() && target.Color != piece.Color
	default:
		return false
	}
}

func rookMove(b *board.Board, origin, dest board.Square) bool {
	if origin.File != dest.File && origin.Rank != dest.Rank {
		return false
	}
	return pathClear(b, origin, dest)
}

func bishopMove(b *board.Board, origin, dest board.Square) bool {
	if abs(dest.File-origin.File) != abs(dest.Rank-origin.Rank) {
		return false
	}
	return pathClear(b, origin, dest)
}

func queenMove(b *board.Board, origin, dest board.Square) bool {
	return rookMove(b, origin, dest) || bishopMove(b, origin, dest)
}

func knightMove(origin, dest board.Square) bool {
	df := abs(dest.File - origin.File)
	dr := abs(dest.Rank - origin.Rank)
	return (df == 1 && dr == 2) || (df == 2 && dr == 1)
}

func kingMove(origin, dest board.Square) bool {
	df := abs(dest.File - origin.File)
	dr := abs(dest.Rank - origin.Rank)
	return df <= 1 && dr <= 1 && df+dr > 0
}

// pathClear walks the straight or diagonal line strictly between origin and
// dest. Callers guarantee the two squares share a line.
func pathClear(b *board.Board, origin, dest board.Square) bool {
	stepF := sign(dest.File - origin.File)
	stepR := sign(dest.Rank - origin.Rank)
	f, r := origin.File+stepF, origin.Rank+stepR
	for f != dest.File || r != dest.Rank {
		if !b.At(board.Sq(f, r)).IsEmpty() {
			return false
		}
		f += stepF
		r += stepR
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
