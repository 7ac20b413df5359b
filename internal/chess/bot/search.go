package bot

import (
	"context"
	"math"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
)

// MateScore is returned for positions where a side has been checkmated.
const MateScore = 100000

const infinity = math.MaxInt32

type searcher struct {
	ctx   context.Context
	bot   chess.Color
	nodes int
}

// terminal scores a position with no legal moves for the side to move.
func (s *searcher) terminal(p chess.Position) int {
	if !p.InCheck() {
		return 0
	}
	if p.Turn() == s.bot {
		return -MateScore
	}
	return MateScore
}

// minimax maximizes for the bot and minimizes for its opponent, pruning once
// beta <= alpha. Mated and stalemated nodes are scored before the depth check.
func (s *searcher) minimax(p chess.Position, depth, alpha, beta int) int {
	s.nodes++
	moves := p.LegalMoves()
	if len(moves) == 0 {
		return s.terminal(p)
	}
	if depth == 0 {
		return Evaluate(p, s.bot)
	}
	if p.Turn() == s.bot {
		best := -infinity
		for _, m := range moves {
			v := s.minimax(p.After(m), depth-1, alpha, beta)
			if v > best {
				best = v
			}
			if best > alpha {
				alpha = best
			}
			if beta <= alpha {
				break
			}
		}
		return best
	}
	best := infinity
	for _, m := range moves {
		v := s.minimax(p.After(m), depth-1, alpha, beta)
		if v < best {
			best = v
		}
		if best < beta {
			beta = best
		}
		if beta <= alpha {
			break
		}
	}
	return best
}

// root searches every legal move to the given total depth and returns the
// candidates in generation order with the index of the best one. Only a
// strictly better score replaces the current best, so ties go to the
// earliest generated move.
func (s *searcher) root(p chess.Position, moves []chess.Move, depth int) ([]Candidate, int, error) {
	candidates := make([]Candidate, 0, len(moves))
	best, bestScore := 0, -infinity
	alpha := -infinity
	for i, m := range moves {
		if err := s.ctx.Err(); err != nil {
			return nil, 0, err
		}
		v := s.minimax(p.After(m), depth-1, alpha, infinity)
		candidates = append(candidates, Candidate{
			Move:   m,
			SAN:    p.SAN(m),
			EvalCP: v,
			Exact:  v > alpha,
		})
		if v > bestScore {
			best, bestScore = i, v
		}
		if v > alpha {
			alpha = v
		}
	}
	return candidates, best, nil
}
