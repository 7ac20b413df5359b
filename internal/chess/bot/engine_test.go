package bot

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine()
	e.SetRandomSeed(7)
	return e
}

func mustFEN(t *testing.T, fen string) chess.Position {
	t.Helper()
	p, err := chess.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return p
}

// randomPositions walks seeded random games and collects positions that
// still have legal moves.
func randomPositions(t *testing.T, n int) []chess.Position {
	t.Helper()
	r := rand.New(rand.NewSource(42))
	out := make([]chess.Position, 0, n)
	for len(out) < n {
		g := chess.NewGame()
		plies := 1 + r.Intn(60)
		for i := 0; i < plies && !g.Result().Over(); i++ {
			moves := g.LegalMoves()
			if _, err := g.Apply(moves[r.Intn(len(moves))]); err != nil {
				t.Fatalf("apply: %v", err)
			}
		}
		if g.Result().Over() {
			continue
		}
		out = append(out, g.Position())
	}
	return out
}

func isLegal(p chess.Position, m chess.Move) bool {
	for _, lm := range p.LegalMoves() {
		if lm == m {
			return true
		}
	}
	return false
}

func TestChooseMoveAlwaysLegal(t *testing.T) {
	e := newTestEngine(t)
	positions := randomPositions(t, 100)
	for _, d := range []Difficulty{Easy, Medium, Hard} {
		for _, p := range positions {
			res := e.ChooseMove(p, d)
			if !isLegal(p, res.Move) {
				t.Fatalf("%s: illegal move %s in %s", d, res.Move, p.FEN())
			}
		}
	}
}

func TestDeterministicForMediumAndHard(t *testing.T) {
	p := chess.StartPosition()
	for _, d := range []Difficulty{Medium, Hard} {
		a := NewEngine().ChooseMove(p, d)
		b := NewEngine().ChooseMove(p, d)
		if a != b {
			t.Fatalf("%s not deterministic: %v vs %v", d, a, b)
		}
	}
}

func TestMediumTakesHangingQueen(t *testing.T) {
	// white rook can take the undefended black queen on d5
	p := mustFEN(t, "4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1")
	res := NewEngine().ChooseMove(p, Medium)
	if res.Move.String() != "d1d5" {
		t.Fatalf("medium chose %s, want d1d5", res.Move)
	}
}

func TestHardAvoidsDefendedCapture(t *testing.T) {
	// Qxd5 wins a pawn at depth 1 but loses the queen to exd5 at depth 2
	p := mustFEN(t, "4k3/8/4p3/3p4/8/8/8/3QK3 w - - 0 1")
	if got := NewEngine().ChooseMove(p, Medium).Move.String(); got != "d1d5" {
		t.Fatalf("medium chose %s, want greedy d1d5", got)
	}
	if got := NewEngine().ChooseMove(p, Hard).Move.String(); got == "d1d5" {
		t.Fatalf("hard fell for the defended pawn")
	}
}

func TestFindsMateInOne(t *testing.T) {
	// back-rank mate with Ra8
	p := mustFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	for _, d := range []Difficulty{Medium, Hard} {
		res := NewEngine().ChooseMove(p, d)
		if res.Move.String() != "a1a8" || res.EvalCP != MateScore {
			t.Fatalf("%s chose %s (%d), want a1a8 mate", d, res.Move, res.EvalCP)
		}
	}
}

func TestStalemateChildScoresZero(t *testing.T) {
	// Nxa1 wins a knight but leaves black stalemated; the quiet Nd4 scores
	// only the center bonus
	fen := "7k/5K1p/7P/8/8/1N6/8/n7 w - - 0 1"
	p := mustFEN(t, fen)
	capture, err := p.Resolve(chess.Move{From: chess.NewSquare(1, 2), To: chess.NewSquare(0, 0)})
	if err != nil {
		t.Fatalf("resolve b3a1: %v", err)
	}
	if got := Evaluate(p.After(capture), chess.White); got != 300 {
		t.Fatalf("static eval after b3a1 = %d, want 300", got)
	}

	res, err := NewEngine().Evaluate(context.Background(), EvaluateRequest{PresetName: "medium", FEN: fen})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for _, c := range res.Candidates {
		if c.Move.String() == "b3a1" && c.EvalCP != 0 {
			t.Fatalf("stalemating capture scored %d, want 0", c.EvalCP)
		}
	}
	if res.Chosen.Move.String() != "b3d4" || res.Chosen.EvalCP != centerBonus {
		t.Fatalf("medium chose %s (%d), want b3d4 (%d)", res.Chosen.Move, res.Chosen.EvalCP, centerBonus)
	}
}

func TestChooseMovePanicsWithoutMoves(t *testing.T) {
	p := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on stalemate position")
		}
	}()
	NewEngine().ChooseMove(p, Easy)
}

func TestEvaluateReplaysMoves(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Evaluate(context.Background(), EvaluateRequest{PresetName: "hard", Moves: []string{"e2e4", "e7e5"}})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Preset.Name != Hard || len(res.Candidates) != 29 || res.Nodes == 0 {
		t.Fatalf("unexpected result: preset=%s candidates=%d nodes=%d", res.Preset.Name, len(res.Candidates), res.Nodes)
	}
	if _, err := e.Evaluate(context.Background(), EvaluateRequest{PresetName: "hard", Moves: []string{"e2e5"}}); !errors.Is(err, chess.ErrIllegalMove) {
		t.Fatalf("bad replay err = %v", err)
	}
	if _, err := e.Evaluate(context.Background(), EvaluateRequest{PresetName: "grandmaster"}); err == nil {
		t.Fatalf("expected unknown preset error")
	}
	mate := "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	if _, err := e.Evaluate(context.Background(), EvaluateRequest{PresetName: "easy", FEN: mate}); !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("mated position err = %v", err)
	}
}

func TestEvaluateHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEngine().Evaluate(ctx, EvaluateRequest{PresetName: "hard"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestStaticEvaluation(t *testing.T) {
	if got := Evaluate(chess.StartPosition(), chess.White); got != 0 {
		t.Fatalf("start eval = %d, want 0", got)
	}
	// white knight on e4 against a bare black king
	p := mustFEN(t, "4k3/8/8/8/4N3/8/8/4K3 w - - 0 1")
	if got := Evaluate(p, chess.White); got != 330 {
		t.Fatalf("white eval = %d, want 330", got)
	}
	if got := Evaluate(p, chess.Black); got != -330 {
		t.Fatalf("black eval = %d, want -330", got)
	}
}

func TestPresets(t *testing.T) {
	names := PresetNames()
	if len(names) != 3 || names[0] != Easy || names[2] != Hard {
		t.Fatalf("PresetNames = %v", names)
	}
	for _, alias := range []string{"beginner", "Intermediate", " advanced "} {
		if _, err := GetPreset(alias); err != nil {
			t.Fatalf("GetPreset(%q): %v", alias, err)
		}
	}
	if err := ValidatePreset(DifficultyPreset{Name: "deep", Depth: 5, Rating: 2000}); err == nil {
		t.Fatalf("expected depth validation error")
	}
}
