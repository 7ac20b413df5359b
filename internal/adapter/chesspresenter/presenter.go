package chesspresenter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

// Presenter writes formatted messages and boards to a terminal without
// coupling to the command loop.
type Presenter struct {
	mu        sync.Mutex
	out       io.Writer
	formatter *Formatter
}

func NewPresenter(out io.Writer, formatter *Formatter) *Presenter {
	if formatter == nil {
		formatter = NewFormatter(nil)
	}
	return &Presenter{out: out, formatter: formatter}
}

func (p *Presenter) Formatter() *Formatter { return p.formatter }

// Message writes text followed by a newline; blank text is skipped.
func (p *Presenter) Message(text string) error {
	if p == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintln(p.out, text)
	return err
}

// Board writes message and then the position of state from the player's
// side, marking the last move.
func (p *Presenter) Board(message string, state *chessdto.SessionState) error {
	if p == nil {
		return nil
	}
	if state == nil || state.FEN == "" {
		return p.Message(message)
	}
	perspective, ok := chess.ParseColor(state.PlayerColor)
	if !ok {
		perspective = chess.White
	}
	return p.Message(joinBlocks(message, p.formatter.Board(state.FEN, perspective, lastMoveSquares(state.LastMove)...)))
}

// Online writes an online game's summary and board as seen by color.
func (p *Presenter) Online(g *chessdto.GameState, color chess.Color) error {
	if p == nil || g == nil {
		return nil
	}
	last := ""
	if n := len(g.MovesUCI); n > 0 {
		last = g.MovesUCI[n-1]
	}
	return p.Message(joinBlocks(p.formatter.Online(g, color), p.formatter.Board(g.FEN, color, lastMoveSquares(last)...)))
}

func joinBlocks(blocks ...string) string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			out = append(out, b)
		}
	}
	return strings.Join(out, "\n")
}

func lastMoveSquares(uci string) []string {
	if len(uci) < 4 {
		return nil
	}
	return []string{uci[0:2], uci[2:4]}
}
