package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
)

var ErrNoLegalMoves = errors.New("position has no legal moves")

// Engine chooses moves for the bot side. It holds no per-game state, so one
// Engine serves any number of sessions.
type Engine struct {
	randMu sync.Mutex
	rand   *rand.Rand
}

func NewEngine() *Engine {
	return &Engine{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

type EvaluateRequest struct {
	PresetName string
	// FEN of the start position; empty means the standard start.
	FEN   string
	Moves []string
}

type EvaluateResult struct {
	Preset     DifficultyPreset
	Duration   time.Duration
	Candidates []Candidate
	Chosen     Candidate
	Nodes      int
}

// SearchResult is the chosen move and the score it was selected on.
type SearchResult struct {
	Move   chess.Move
	EvalCP int
}

// Evaluate replays req onto its start position and searches the result with
// the named preset.
func (e *Engine) Evaluate(ctx context.Context, req EvaluateRequest) (EvaluateResult, error) {
	start := time.Now()

	preset, err := GetPreset(req.PresetName)
	if err != nil {
		return EvaluateResult{}, err
	}
	g, err := chess.Replay(req.FEN, req.Moves)
	if err != nil {
		return EvaluateResult{}, err
	}

	res, err := e.search(ctx, g.Position(), preset)
	if err != nil {
		return EvaluateResult{}, err
	}
	res.Duration = time.Since(start)
	return res, nil
}

// ChooseMove picks a move for the side to move in p. Calling it on a position
// without legal moves is a programming error and panics.
func (e *Engine) ChooseMove(p chess.Position, d Difficulty) SearchResult {
	preset, err := GetPreset(string(d))
	if err != nil {
		panic(err)
	}
	res, err := e.search(context.Background(), p, preset)
	if err != nil {
		panic(fmt.Sprintf("bot: choose move on %s: %v", p.FEN(), err))
	}
	return SearchResult{Move: res.Chosen.Move, EvalCP: res.Chosen.EvalCP}
}

func (e *Engine) search(ctx context.Context, p chess.Position, preset DifficultyPreset) (EvaluateResult, error) {
	moves := p.LegalMoves()
	if len(moves) == 0 {
		return EvaluateResult{}, ErrNoLegalMoves
	}
	s := &searcher{ctx: ctx, bot: p.Turn()}

	var candidates []Candidate
	if preset.Depth == 0 {
		candidates = make([]Candidate, len(moves))
		for i, m := range moves {
			candidates[i] = Candidate{Move: m, SAN: p.SAN(m), EvalCP: Evaluate(p.After(m), s.bot), Exact: true}
		}
	} else {
		var err error
		candidates, _, err = s.root(p, moves, preset.Depth)
		if err != nil {
			return EvaluateResult{}, err
		}
	}

	chosen, err := SelectCandidate(preset, candidates, e.random())
	if err != nil {
		return EvaluateResult{}, err
	}
	return EvaluateResult{
		Preset:     preset,
		Candidates: candidates,
		Chosen:     chosen,
		Nodes:      s.nodes,
	}, nil
}

func (e *Engine) random() *rand.Rand {
	e.randMu.Lock()
	seed := e.rand.Int63()
	e.randMu.Unlock()
	return rand.New(rand.NewSource(seed))
}

func (e *Engine) SetRandomSeed(seed int64) {
	e.randMu.Lock()
	e.rand = rand.New(rand.NewSource(seed))
	e.randMu.Unlock()
}
