package board

import (
	"errors"
	"fmt"
)

// Size is the number of files and ranks on the board.
const Size = 8

// ErrInvalidSquare is returned for coordinates outside [0,7].
var ErrInvalidSquare = errors.New("invalid square")

// Square addresses one cell of the grid. Rank 0 is black's back rank
// (screen coordinates: ranks grow downward toward white).
type Square struct {
	File int `json:"file"`
	Rank int `json:"rank"`
}

// Sq is shorthand for Square{File: file, Rank: rank}.
func Sq(file, rank int) Square { return Square{File: file, Rank: rank} }

// Valid reports whether both components are within the board.
func (s Square) Valid() bool {
	return s.File >= 0 && s.File < Size && s.Rank >= 0 && s.Rank < Size
}

// Validate returns ErrInvalidSquare wrapped with the offending coordinate.
func (s Square) Validate() error {
	if !s.Valid() {
		return fmt.Errorf("%w: (%d,%d)", ErrInvalidSquare, s.File, s.Rank)
	}
	return nil
}

func (s Square) String() string {
	return fmt.Sprintf("(%d,%d)", s.File, s.Rank)
}
