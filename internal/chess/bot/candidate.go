package bot

import (
	"errors"
	"math/rand"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
)

// Candidate is one root move with the score it was judged on. Exact is false
// when alpha-beta proved the move no better than an earlier one without
// computing its full score; EvalCP is then an upper bound.
type Candidate struct {
	Move   chess.Move
	SAN    string
	EvalCP int
	Exact  bool
}

var errNoCandidates = errors.New("no candidates to choose from")

// SelectCandidate applies the preset's selection policy: a uniform random pick
// for depth 0, otherwise the first candidate with the highest score.
func SelectCandidate(p DifficultyPreset, candidates []Candidate, r *rand.Rand) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, errNoCandidates
	}
	if err := ValidatePreset(p); err != nil {
		return Candidate{}, err
	}
	if p.Depth == 0 {
		return candidates[r.Intn(len(candidates))], nil
	}
	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].EvalCP > candidates[best].EvalCP {
			best = i
		}
	}
	return candidates[best], nil
}
