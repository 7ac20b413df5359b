package chess

import (
	"fmt"
	"strings"
)

// Replay rebuilds a game from a start FEN ("" or "startpos" for the standard
// start) and a list of moves in coordinate or SAN form.
func Replay(startFEN string, moves []string) (*Game, error) {
	start := StartPosition()
	if fen := strings.TrimSpace(startFEN); fen != "" && fen != "startpos" {
		p, err := ParseFEN(fen)
		if err != nil {
			return nil, err
		}
		start = p
	}
	g := NewGameFromPosition(start)
	for i, mv := range moves {
		if _, err := g.PlayText(mv); err != nil {
			return nil, fmt.Errorf("replay move %d (%s): %w", i+1, mv, err)
		}
	}
	return g, nil
}
