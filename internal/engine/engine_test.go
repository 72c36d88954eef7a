package engine

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/park285/cheese-board/internal/board"
)

func interact(t *testing.T, e *GameEngine, file, rank int) Result {
	t.Helper()
	res, err := e.Interact(board.Sq(file, rank))
	if err != nil {
		t.Fatalf("Interact(%d,%d): %v", file, rank, err)
	}
	return res
}

func expectOutcome(t *testing.T, res Result, want Outcome) {
	t.Helper()
	if res.Outcome != want {
		t.Fatalf("outcome = %s (reason %q), want %s", res.Outcome, res.Reason, want)
	}
}

func TestEndToEndScenario(t *testing.T) {
	e := New()
	if e.CurrentTurn() != board.White {
		t.Fatalf("white must move first")
	}

	res := interact(t, e, 4, 6)
	expectOutcome(t, res, OutcomeSelected)
	if sq, ok := e.CurrentSelection(); !ok || sq != board.Sq(4, 6) {
		t.Fatalf("selection = %v,%v", sq, ok)
	}

	res = interact(t, e, 4, 4)
	expectOutcome(t, res, OutcomeMoved)
	snap := e.Snapshot()
	if p := snap.At(board.Sq(4, 4)); p != board.NewPiece(board.White, board.Pawn) {
		t.Fatalf("(4,4) = %s", p)
	}
	if p := snap.At(board.Sq(4, 6)); !p.IsEmpty() {
		t.Fatalf("(4,6) should be empty, got %s", p)
	}
	if e.CurrentTurn() != board.Black || res.Turn != board.Black {
		t.Fatalf("turn should pass to black")
	}
	if _, ok := e.CurrentSelection(); ok {
		t.Fatalf("selection must clear after a move")
	}

	// white pawn can no longer be selected: it's black's move
	before := e.Snapshot()
	res = interact(t, e, 4, 4)
	expectOutcome(t, res, OutcomeIgnored)
	if res.Reason != ReasonOpponentPiece {
		t.Fatalf("reason = %q", res.Reason)
	}
	res = interact(t, e, 4, 4)
	expectOutcome(t, res, OutcomeIgnored)
	if e.Snapshot() != before {
		t.Fatalf("ignored interactions must not mutate the board")
	}
}

func TestIdempotentDeselect(t *testing.T) {
	e := New()
	before := e.Snapshot()
	expectOutcome(t, interact(t, e, 6, 7), OutcomeSelected)
	expectOutcome(t, interact(t, e, 6, 7), OutcomeDeselected)
	if _, ok := e.CurrentSelection(); ok {
		t.Fatalf("expected idle after deselect")
	}
	if e.Snapshot() != before || e.CurrentTurn() != board.White || e.Ply() != 0 {
		t.Fatalf("deselect must not mutate state")
	}
}

func TestIllegalDestinationKeepsSelection(t *testing.T) {
	e := New()
	expectOutcome(t, interact(t, e, 1, 7), OutcomeSelected)

	for _, dest := range []board.Square{board.Sq(1, 5), board.Sq(3, 6), board.Sq(4, 4)} {
		res := interact(t, e, dest.File, dest.Rank)
		expectOutcome(t, res, OutcomeRejected)
		if res.Reason != ReasonIllegalMove {
			t.Fatalf("reason = %q", res.Reason)
		}
		if sq, ok := e.CurrentSelection(); !ok || sq != board.Sq(1, 7) {
			t.Fatalf("selection lost after rejection")
		}
	}
	if e.CurrentTurn() != board.White || e.Ply() != 0 {
		t.Fatalf("rejections must not advance the turn")
	}

	expectOutcome(t, interact(t, e, 2, 5), OutcomeMoved)
}

func TestNonPawnMovesAreValidated(t *testing.T) {
	e := New()
	// rook through its own pawn
	expectOutcome(t, interact(t, e, 0, 7), OutcomeSelected)
	expectOutcome(t, interact(t, e, 0, 3), OutcomeRejected)
	expectOutcome(t, interact(t, e, 0, 7), OutcomeDeselected)
	// queen onto own king
	expectOutcome(t, interact(t, e, 3, 7), OutcomeSelected)
	expectOutcome(t, interact(t, e, 4, 7), OutcomeRejected)
}

func TestIdleInteractionsAreIgnored(t *testing.T) {
	e := New()
	res := interact(t, e, 4, 4)
	expectOutcome(t, res, OutcomeIgnored)
	if res.Reason != ReasonEmptySquare {
		t.Fatalf("reason = %q", res.Reason)
	}
	res = interact(t, e, 4, 1)
	expectOutcome(t, res, OutcomeIgnored)
	if res.Reason != ReasonOpponentPiece {
		t.Fatalf("reason = %q", res.Reason)
	}
	if _, ok := e.CurrentSelection(); ok {
		t.Fatalf("nothing should be selected")
	}
}

func TestOutOfRangeRejected(t *testing.T) {
	e := New()
	expectOutcome(t, interact(t, e, 4, 6), OutcomeSelected)
	before := e.State()

	for _, sq := range []board.Square{board.Sq(8, 0), board.Sq(0, 8), board.Sq(-1, 0), board.Sq(4, -2)} {
		if _, err := e.Interact(sq); !errors.Is(err, board.ErrInvalidSquare) {
			t.Fatalf("Interact(%v) err = %v, want ErrInvalidSquare", sq, err)
		}
	}
	after := e.State()
	if after.Board != before.Board || after.Turn != before.Turn || after.Ply != before.Ply {
		t.Fatalf("invalid square mutated state")
	}
	if sq, ok := e.CurrentSelection(); !ok || sq != board.Sq(4, 6) {
		t.Fatalf("selection changed on invalid square")
	}
}

func TestTurnAlternationAndOccupancy(t *testing.T) {
	e := New()
	moves := [][4]int{
		{4, 6, 4, 4}, // e4
		{0, 1, 0, 2}, // a6
		{6, 7, 5, 5}, // Nf3
		{4, 1, 4, 3}, // e5
		{5, 7, 1, 3}, // Bb5
	}
	for n, mv := range moves {
		expectOutcome(t, interact(t, e, mv[0], mv[1]), OutcomeSelected)
		expectOutcome(t, interact(t, e, mv[2], mv[3]), OutcomeMoved)
		want := board.White
		if (n+1)%2 == 1 {
			want = board.Black
		}
		if e.CurrentTurn() != want {
			t.Fatalf("after move %d turn = %s, want %s", n+1, e.CurrentTurn(), want)
		}
		snap := e.Snapshot()
		if snap.Count() != 32 {
			t.Fatalf("non-capturing move changed piece count: %d", snap.Count())
		}
	}
	if e.Ply() != len(moves) {
		t.Fatalf("ply = %d", e.Ply())
	}

	// axb5 captures the bishop
	expectOutcome(t, interact(t, e, 0, 2), OutcomeSelected)
	expectOutcome(t, interact(t, e, 1, 3), OutcomeMoved)
	snap := e.Snapshot()
	if snap.Count() != 31 {
		t.Fatalf("capture should remove exactly one piece, count=%d", snap.Count())
	}
	if p := snap.At(board.Sq(1, 3)); p != board.NewPiece(board.Black, board.Pawn) {
		t.Fatalf("(1,3) = %s", p)
	}
}

func TestPawnDoubleStepGating(t *testing.T) {
	e := New()
	expectOutcome(t, interact(t, e, 0, 6), OutcomeSelected)
	expectOutcome(t, interact(t, e, 0, 5), OutcomeMoved)
	expectOutcome(t, interact(t, e, 7, 1), OutcomeSelected)
	expectOutcome(t, interact(t, e, 7, 2), OutcomeMoved)

	expectOutcome(t, interact(t, e, 0, 5), OutcomeSelected)
	res := interact(t, e, 0, 3)
	expectOutcome(t, res, OutcomeRejected)
	expectOutcome(t, interact(t, e, 0, 4), OutcomeMoved)
}

func TestRestoreAndStaleSelection(t *testing.T) {
	e := New()
	expectOutcome(t, interact(t, e, 4, 6), OutcomeSelected)
	st := e.State()

	back, err := Restore(st)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if sq, ok := back.CurrentSelection(); !ok || sq != board.Sq(4, 6) {
		t.Fatalf("restored selection = %v,%v", sq, ok)
	}
	expectOutcome(t, interact(t, back, 4, 4), OutcomeMoved)
	if e.Snapshot().At(board.Sq(4, 6)).IsEmpty() {
		t.Fatalf("restored engine must not share the original board")
	}

	st.Turn = board.Black
	dropped, err := Restore(st)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, ok := dropped.CurrentSelection(); ok {
		t.Fatalf("selection of the wrong side should be dropped on restore")
	}

	if _, err := Restore(State{Turn: board.NoColor}); err == nil {
		t.Fatalf("expected error for invalid turn")
	}
	bad := board.Sq(9, 9)
	if _, err := Restore(State{Turn: board.White, Selection: &bad}); !errors.Is(err, board.ErrInvalidSquare) {
		t.Fatalf("expected ErrInvalidSquare, got %v", err)
	}
}

func TestOwnershipMismatchRejected(t *testing.T) {
	e := New()
	expectOutcome(t, interact(t, e, 4, 6), OutcomeSelected)
	// simulate a selection that went stale behind the engine's back
	_ = e.board.Set(board.Sq(4, 6), board.NewPiece(board.Black, board.Pawn))

	res := interact(t, e, 4, 5)
	expectOutcome(t, res, OutcomeRejected)
	if res.Reason != ReasonOwnership {
		t.Fatalf("reason = %q", res.Reason)
	}
	if _, ok := e.CurrentSelection(); ok {
		t.Fatalf("stale selection should be cleared")
	}
	if e.CurrentTurn() != board.White {
		t.Fatalf("turn must not change")
	}
}

func TestObserverAndLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var seen []Outcome
	e := New(
		WithLogger(zap.New(core)),
		WithObserver(func(r Result) { seen = append(seen, r.Outcome) }),
	)
	interact(t, e, 4, 6)
	interact(t, e, 4, 3)
	interact(t, e, 4, 4)
	_, _ = e.Interact(board.Sq(8, 8))

	want := []Outcome{OutcomeSelected, OutcomeRejected, OutcomeMoved}
	if len(seen) != len(want) {
		t.Fatalf("observer saw %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("observer[%d] = %s, want %s", i, seen[i], want[i])
		}
	}
	if n := logs.FilterMessage("board_reject").Len(); n != 1 {
		t.Fatalf("expected one board_reject log, got %d", n)
	}
	if n := logs.FilterMessage("board_move").Len(); n != 1 {
		t.Fatalf("expected one board_move log, got %d", n)
	}
	if n := logs.FilterMessage("board_invalid_square").Len(); n != 1 {
		t.Fatalf("expected one board_invalid_square log, got %d", n)
	}
}
