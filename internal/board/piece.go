package board

import "strings"

// Color identifies a side. The zero value is NoColor.
type Color uint8

const (
	NoColor Color = iota
	White
	Black
)

// Other returns the opposing side.
func (c Color) Other() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// ParseColor accepts "white"/"w" and "black"/"b".
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	default:
		return NoColor, false
	}
}

// Kind is the movement class of a piece. The zero value is NoKind.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Rook
	Knight
	Bishop
	Queen
	King
)

var kindNames = [...]string{
	NoKind: "",
	Pawn:   "Pawn",
	Rook:   "Rook",
	Knight: "Knight",
	Bishop: "Bishop",
	Queen:  "Queen",
	King:   "King",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return ""
}

// Piece is a colored occupant. The zero value NoPiece marks an empty square.
type Piece struct {
	Color Color
	Kind  Kind
}

// NoPiece is the empty occupant.
var NoPiece = Piece{}

// NewPiece builds a piece tag.
func NewPiece(c Color, k Kind) Piece { return Piece{Color: c, Kind: k} }

// IsEmpty reports whether p marks an empty square.
func (p Piece) IsEmpty() bool { return p.Kind == NoKind || p.Color == NoColor }

// Tag returns the short text tag ("wPawn", "bKing") used by glyph tables.
func (p Piece) Tag() string {
	if p.IsEmpty() {
		return ""
	}
	prefix := "w"
	if p.Color == Black {
		prefix = "b"
	}
	return prefix + p.Kind.String()
}

func (p Piece) String() string { return p.Tag() }

// ParseTag is the inverse of Tag.
func ParseTag(tag string) (Piece, bool) {
	if len(tag) < 2 {
		return NoPiece, false
	}
	c, ok := ParseColor(tag[:1])
	if !ok {
		return NoPiece, false
	}
	for k := Pawn; k <= King; k++ {
		if kindNames[k] == tag[1:] {
			return NewPiece(c, k), true
		}
	}
	return NoPiece, false
}
