package boarddto

import "time"

type SquareDTO struct {
	File int `json:"file"`
	Rank int `json:"rank"`
}

// PieceDTO is one occupied square. Tag uses the "wPawn" glyph naming.
type PieceDTO struct {
	Square SquareDTO `json:"square"`
	Color  string    `json:"color"`
	Kind   string    `json:"kind"`
	Tag    string    `json:"tag"`
}

type SessionView struct {
	ID          string      `json:"id"`
	Placement   string      `json:"placement"`
	Diagram     string      `json:"diagram,omitempty"`
	Pieces      []PieceDTO  `json:"pieces"`
	Turn        string      `json:"turn"`
	Selection   *SquareDTO  `json:"selection,omitempty"`
	Targets     []SquareDTO `json:"targets,omitempty"`
	Ply         int         `json:"ply"`
	Status      string      `json:"status"`
	WhiteID     string      `json:"white_id,omitempty"`
	BlackID     string      `json:"black_id,omitempty"`
	LastOutcome string      `json:"last_outcome,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
