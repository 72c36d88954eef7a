package httpapi

import (
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/board"
	"github.com/park285/cheese-board/internal/boardview"
	"github.com/park285/cheese-board/internal/engine"
	"github.com/park285/cheese-board/internal/obslog"
	"github.com/park285/cheese-board/internal/rules"
	"github.com/park285/cheese-board/internal/session"
	"github.com/park285/cheese-board/pkg/boarddto"
)

func (s *Server) view(g *session.Game) *boarddto.SessionView {
	if g == nil {
		return nil
	}
	v := &boarddto.SessionView{
		ID:          g.ID,
		Placement:   g.Placement,
		Turn:        g.Turn,
		Ply:         g.Ply,
		Status:      string(g.Status),
		WhiteID:     g.WhiteID,
		BlackID:     g.BlackID,
		LastOutcome: g.LastOutcome,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
		Pieces:      []boarddto.PieceDTO{},
	}
	b, err := g.Board()
	if err != nil {
		obslog.L().Warn("session_placement_corrupt", zap.String("session_id", g.ID), zap.Error(err))
		return v
	}
	b.Each(func(sq board.Square, p board.Piece) {
		v.Pieces = append(v.Pieces, boarddto.PieceDTO{
			Square: squareDTO(sq),
			Color:  p.Color.String(),
			Kind:   p.Kind.String(),
			Tag:    p.Tag(),
		})
	})
	if s.diagram {
		v.Diagram = boardview.Diagram(b)
	}
	if g.Selection != nil && g.Selection.Valid() {
		sel := squareDTO(*g.Selection)
		v.Selection = &sel
		for _, dst := range rules.LegalDestinations(&b, *g.Selection) {
			v.Targets = append(v.Targets, squareDTO(dst))
		}
	}
	return v
}

func squareDTO(sq board.Square) boarddto.SquareDTO {
	return boarddto.SquareDTO{File: sq.File, Rank: sq.Rank}
}

// outcomeMessage renders a human readable line for res. Squares are named
// algebraically ("e2").
func (s *Server) outcomeMessage(res engine.Result) string {
	data := map[string]string{
		"Side":  res.Piece.Color.String(),
		"Piece": res.Piece.Tag(),
		"From":  boardview.Coordinate(res.From),
		"To":    boardview.Coordinate(res.To),
		"Next":  res.Turn.String(),
	}
	msg := s.msgs.RenderOr("outcome."+string(res.Outcome), data, string(res.Outcome))
	if res.Reason != engine.ReasonNone {
		if extra := s.msgs.RenderOr("reason."+string(res.Reason), nil, ""); extra != "" {
			msg += " " + extra
		}
	}
	return msg
}
