package board

var backRank = [Size]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// Home ranks of the standard layout.
const (
	WhiteBackRank = 7
	WhitePawnRank = 6
	BlackPawnRank = 1
	BlackBackRank = 0
)

// Board is an 8x8 occupancy grid. It is a plain container: no legality or
// ownership checks happen here. The zero value is an empty board.
type Board struct {
	squares [Size][Size]Piece // [file][rank]
}

// NewStandard returns a board holding the standard starting position.
func NewStandard() *Board {
	b := &Board{}
	b.InitializeStandardPosition()
	return b
}

// InitializeStandardPosition clears the board and places all 32 pieces.
func (b *Board) InitializeStandardPosition() {
	b.Clear()
	for f := 0; f < Size; f++ {
		b.squares[f][WhitePawnRank] = NewPiece(White, Pawn)
		b.squares[f][BlackPawnRank] = NewPiece(Black, Pawn)
		b.squares[f][WhiteBackRank] = NewPiece(White, backRank[f])
		b.squares[f][BlackBackRank] = NewPiece(Black, backRank[f])
	}
}

// Clear empties every square.
func (b *Board) Clear() {
	b.squares = [Size][Size]Piece{}
}

// Piece returns the occupant of sq, or NoPiece for an empty square.
func (b Board) Piece(sq Square) (Piece, error) {
	if err := sq.Validate(); err != nil {
		return NoPiece, err
	}
	return b.squares[sq.File][sq.Rank], nil
}

// At is the unchecked variant of Piece; off-board squares read as empty.
func (b Board) At(sq Square) Piece {
	if !sq.Valid() {
		return NoPiece
	}
	return b.squares[sq.File][sq.Rank]
}

// Set overwrites the occupant of sq.
func (b *Board) Set(sq Square, p Piece) error {
	if err := sq.Validate(); err != nil {
		return err
	}
	b.squares[sq.File][sq.Rank] = p
	return nil
}

// Snapshot returns an independent copy for renderers.
func (b Board) Snapshot() Board {
	return b
}

// Each calls fn for every occupied square, rank 0 first.
func (b Board) Each(fn func(Square, Piece)) {
	for r := 0; r < Size; r++ {
		for f := 0; f < Size; f++ {
			if p := b.squares[f][r]; !p.IsEmpty() {
				fn(Sq(f, r), p)
			}
		}
	}
}

// Count returns the number of occupied squares.
func (b Board) Count() int {
	n := 0
	b.Each(func(Square, Piece) { n++ })
	return n
}
