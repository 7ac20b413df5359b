package chess

import (
	"errors"
	"strings"
	"testing"
)

func playAll(t *testing.T, g *Game, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		if _, err := g.PlayText(mv); err != nil {
			t.Fatalf("PlayText(%s): %v", mv, err)
		}
	}
}

func TestFoolsMate(t *testing.T) {
	g := NewGame()
	playAll(t, g, "f3", "e5", "g4", "Qh4")

	last, ok := g.LastMove()
	if !ok || last.SAN != "Qh4#" {
		t.Fatalf("last SAN = %q, want Qh4#", last.SAN)
	}
	res := g.Result()
	if res.Kind != Checkmate || res.Color != Black {
		t.Fatalf("result = %+v, want checkmate by black", res)
	}
	if w, ok := res.Winner(); !ok || w != Black {
		t.Fatalf("winner = %v/%v, want black", w, ok)
	}
	if got, want := g.FEN(), "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"; got != want {
		t.Fatalf("FEN = %s, want %s", got, want)
	}
	if _, err := g.PlayText("e2e4"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("move after mate err = %v, want ErrGameOver", err)
	}
	if res.PGN() != "0-1" {
		t.Fatalf("PGN token = %s", res.PGN())
	}
}

func TestStalemateDetected(t *testing.T) {
	g := NewGameFromPosition(mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"))
	if res := g.Result(); res.Kind != Stalemate || !res.Draw() {
		t.Fatalf("result = %+v, want stalemate", res)
	}
	if moves := g.LegalMoves(); len(moves) != 0 {
		t.Fatalf("legal moves in finished game: %v", moves)
	}
}

func TestStalemateAfterMove(t *testing.T) {
	g := NewGameFromPosition(mustFEN(t, "7k/8/6K1/8/8/8/8/5Q2 w - - 0 1"))
	playAll(t, g, "Qf7")
	if res := g.Result(); res.Kind != Stalemate {
		t.Fatalf("result = %+v, want stalemate", res)
	}
}

func TestBareKingsAfterCapture(t *testing.T) {
	g := NewGameFromPosition(mustFEN(t, "4k3/8/8/8/8/8/3r4/4K3 w - - 0 1"))
	if g.Result().Over() {
		t.Fatalf("game over before capture: %+v", g.Result())
	}
	playAll(t, g, "Kxd2")
	if res := g.Result(); res.Kind != DrawByInsufficientMaterial {
		t.Fatalf("result = %+v, want insufficient material", res)
	}
}

func TestInsufficientMaterial(t *testing.T) {
	cases := []struct {
		fen  string
		want bool
	}{
		{"8/8/8/8/8/8/8/K6k w - - 0 1", true},
		{"8/8/8/8/8/8/8/KB5k w - - 0 1", true},
		{"8/8/8/8/8/8/8/KN5k w - - 0 1", true},
		{"5b2/8/8/8/8/8/8/K1B4k w - - 0 1", true},
		{"2b5/8/8/8/8/8/8/K1B4k w - - 0 1", false},
		{"8/8/8/8/8/8/8/KNN4k w - - 0 1", false},
		{"8/8/8/8/8/8/P7/K6k w - - 0 1", false},
		{"8/8/8/8/8/8/8/KR5k w - - 0 1", false},
	}
	for _, tc := range cases {
		if got := mustFEN(t, tc.fen).InsufficientMaterial(); got != tc.want {
			t.Fatalf("InsufficientMaterial(%s) = %v, want %v", tc.fen, got, tc.want)
		}
	}
}

func TestFiftyMoveRule(t *testing.T) {
	g := NewGameFromPosition(mustFEN(t, "4k3/8/8/8/8/8/8/R3K3 w - - 98 80"))
	playAll(t, g, "Ra2")
	if g.Result().Over() {
		t.Fatalf("draw declared at halfmove 99: %+v", g.Result())
	}
	playAll(t, g, "Ke7")
	if res := g.Result(); res.Kind != DrawByFiftyMove {
		t.Fatalf("result = %+v, want fifty-move draw", res)
	}
}

func TestHalfmoveClockResets(t *testing.T) {
	g := NewGame()
	playAll(t, g, "Nf3", "Nc6", "Ng1")
	if n := g.Position().HalfmoveClock(); n != 3 {
		t.Fatalf("halfmove after three knight moves = %d, want 3", n)
	}
	playAll(t, g, "e5")
	if n := g.Position().HalfmoveClock(); n != 0 {
		t.Fatalf("halfmove after pawn move = %d, want 0", n)
	}
	if n := g.Position().FullmoveNumber(); n != 3 {
		t.Fatalf("fullmove = %d, want 3", n)
	}
}

func TestThreefoldRepetition(t *testing.T) {
	g := NewGame()
	cycle := []string{"Nf3", "Nf6", "Ng1", "Ng8"}
	playAll(t, g, cycle...)
	playAll(t, g, cycle[:3]...)
	if g.Result().Over() {
		t.Fatalf("draw declared before third occurrence: %+v", g.Result())
	}
	playAll(t, g, cycle[3])
	if res := g.Result(); res.Kind != DrawByRepetition {
		t.Fatalf("result = %+v, want repetition", res)
	}
}

func TestRejectedMoveLeavesGameUnchanged(t *testing.T) {
	g := NewGame()
	before := g.Position()
	if _, err := g.Play(mustSquare(t, "e2"), mustSquare(t, "e5"), NoKind); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("e2e5 err = %v, want ErrIllegalMove", err)
	}
	if _, err := g.PlayText("e7e5"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("black move on white turn err = %v, want ErrIllegalMove", err)
	}
	if g.Position() != before || len(g.History()) != 0 {
		t.Fatalf("rejected move mutated game: %s", g.FEN())
	}
}

func TestPromotionRequiresPiece(t *testing.T) {
	g := NewGameFromPosition(mustFEN(t, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1"))
	_, err := g.Play(mustSquare(t, "a7"), mustSquare(t, "a8"), NoKind)
	if !errors.Is(err, ErrIllegalMove) || !strings.Contains(err.Error(), "promotion") {
		t.Fatalf("bare promotion err = %v", err)
	}
	if _, err := g.Play(mustSquare(t, "a7"), mustSquare(t, "a8"), Queen); err != nil {
		t.Fatalf("a7a8q: %v", err)
	}
	last, _ := g.LastMove()
	if last.SAN != "a8=Q+" {
		t.Fatalf("SAN = %q, want a8=Q+", last.SAN)
	}
}

func TestResignAndTimeout(t *testing.T) {
	g := NewGame()
	playAll(t, g, "e4")
	if err := g.Resign(White); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if w, ok := g.Result().Winner(); !ok || w != Black {
		t.Fatalf("winner after white resigns = %v/%v", w, ok)
	}
	if err := g.Timeout(Black); !errors.Is(err, ErrGameOver) {
		t.Fatalf("timeout after resign err = %v", err)
	}
	if _, err := g.Undo(); !errors.Is(err, ErrGameOver) {
		t.Fatalf("undo after resign err = %v", err)
	}

	g2 := NewGame()
	if err := g2.Timeout(White); err != nil {
		t.Fatalf("Timeout: %v", err)
	}
	if res := g2.Result(); res.Kind != TimeoutLoss || res.PGN() != "0-1" {
		t.Fatalf("timeout result = %+v (%s)", res, res.PGN())
	}
}

func TestUndo(t *testing.T) {
	g := NewGame()
	if _, err := g.Undo(); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("undo on fresh game err = %v", err)
	}
	playAll(t, g, "e4", "e5")
	ply, err := g.Undo()
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if ply.SAN != "e5" || g.Turn() != Black || len(g.History()) != 1 {
		t.Fatalf("after undo: ply=%+v turn=%s history=%d", ply, g.Turn(), len(g.History()))
	}
	if _, err := g.Undo(); err != nil {
		t.Fatalf("second Undo: %v", err)
	}
	if g.Position() != StartPosition() {
		t.Fatalf("undo to start gave %s", g.FEN())
	}

	mate := NewGame()
	playAll(t, mate, "f3", "e5", "g4", "Qh4")
	if _, err := mate.Undo(); err != nil {
		t.Fatalf("undo mate: %v", err)
	}
	if mate.Result().Over() {
		t.Fatalf("result still over after undoing mate: %+v", mate.Result())
	}
}

func TestGamePGN(t *testing.T) {
	g := NewGame()
	playAll(t, g, "f3", "e5", "g4", "Qh4")
	pgn := g.PGN(Tag{Name: "White", Value: "player"}, Tag{Name: "Black", Value: "bot \"hard\""})
	for _, want := range []string{`[White "player"]`, `[Black "bot 'hard'"]`, `[Result "0-1"]`, "1. f3 e5 2. g4 Qh4# 0-1"} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("PGN missing %q:\n%s", want, pgn)
		}
	}
}
