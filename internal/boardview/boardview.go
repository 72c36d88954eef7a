// Package boardview converts boards to and from the reference chess model
// used for FEN output and text diagrams.
package boardview

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-board/internal/board"
)

// Row order matches board rank indices: index 0 is algebraic rank 8.
var (
	ranks = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	files = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
)

// ToReference builds the reference board holding the same pieces as b.
func ToReference(b board.Board) *nchess.Board {
	m := make(map[nchess.Square]nchess.Piece, 32)
	b.Each(func(sq board.Square, p board.Piece) {
		if rp := referencePiece(p); rp != nchess.NoPiece {
			m[SquareOf(sq)] = rp
		}
	})
	return nchess.NewBoard(m)
}

// FromReference is the inverse of ToReference.
func FromReference(rb *nchess.Board) board.Board {
	var b board.Board
	if rb == nil {
		return b
	}
	boardMap := rb.SquareMap()
	for row, rank := range ranks {
		for col, file := range files {
			p := localPiece(boardMap[nchess.NewSquare(file, rank)])
			if p.IsEmpty() {
				continue
			}
			_ = b.Set(board.Sq(col, row), p)
		}
	}
	return b
}

// SquareOf maps a board square to its reference square. The square must be valid.
func SquareOf(sq board.Square) nchess.Square {
	return nchess.NewSquare(files[sq.File], ranks[sq.Rank])
}

// Placement returns the FEN piece-placement field of b.
func Placement(b board.Board) string {
	return ToReference(b).String()
}

// ParsePlacement decodes a FEN piece-placement field. A full FEN string is
// accepted; only its first field is read.
func ParsePlacement(s string) (board.Board, error) {
	field, _, _ := strings.Cut(strings.TrimSpace(s), " ")
	var rb nchess.Board
	if err := rb.UnmarshalText([]byte(field)); err != nil {
		return board.Board{}, fmt.Errorf("placement %q: %w", field, err)
	}
	return FromReference(&rb), nil
}

// Diagram returns a text drawing of b, white at the bottom.
func Diagram(b board.Board) string {
	return ToReference(b).Draw()
}

// Coordinate returns the algebraic name of sq ("e2"), empty when off board.
func Coordinate(sq board.Square) string {
	if !sq.Valid() {
		return ""
	}
	return SquareOf(sq).String()
}

func referencePiece(p board.Piece) nchess.Piece {
	var c nchess.Color
	switch p.Color {
	case board.White:
		c = nchess.White
	case board.Black:
		c = nchess.Black
	default:
		return nchess.NoPiece
	}
	var t nchess.PieceType
	switch p.Kind {
	case board.Pawn:
		t = nchess.Pawn
	case board.Rook:
		t = nchess.Rook
	case board.Knight:
		t = nchess.Knight
	case board.Bishop:
		t = nchess.Bishop
	case board.Queen:
		t = nchess.Queen
	case board.King:
		t = nchess.King
	default:
		return nchess.NoPiece
	}
	return nchess.NewPiece(t, c)
}

func localPiece(rp nchess.Piece) board.Piece {
	if rp == nchess.NoPiece {
		return board.NoPiece
	}
	c := board.Black
	if rp.Color() == nchess.White {
		c = board.White
	}
	switch rp.Type() {
	case nchess.Pawn:
		return board.NewPiece(c, board.Pawn)
	case nchess.Rook:
		return board.NewPiece(c, board.Rook)
	case nchess.Knight:
		return board.NewPiece(c, board.Knight)
	case nchess.Bishop:
		return board.NewPiece(c, board.Bishop)
	case nchess.Queen:
		return board.NewPiece(c, board.Queen)
	case nchess.King:
		return board.NewPiece(c, board.King)
	}
	return board.NoPiece
}
