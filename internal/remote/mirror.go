package remote

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

var ErrNotSynced = errors.New("mirror has no game state yet")

const statusActive = "ACTIVE"

// Mirror is the client's local copy of an online game. It exists for board
// display and move highlighting only; the server state always wins.
type Mirror struct {
	playerID string

	mu    sync.RWMutex
	state *chessdto.GameState
	game  *chess.Game
}

func NewMirror(playerID string) *Mirror {
	return &Mirror{playerID: strings.TrimSpace(playerID)}
}

// Sync adopts s when it is newer than the mirror or disagrees with it at the
// same version. It reports whether the mirror changed.
func (m *Mirror) Sync(s *chessdto.GameState) (bool, error) {
	if s == nil {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur := m.state; cur != nil && cur.ID == s.ID {
		if s.Version < cur.Version {
			return false, nil
		}
		if s.Version == cur.Version && s.Status == cur.Status && slices.Equal(s.MovesUCI, cur.MovesUCI) {
			m.state = s
			return false, nil
		}
	}
	return true, m.replaceLocked(s)
}

func (m *Mirror) replaceLocked(s *chessdto.GameState) error {
	game, err := chess.Replay(s.StartFEN, s.MovesUCI)
	if err != nil {
		return err
	}
	m.state, m.game = s, game
	return nil
}

// State returns the last adopted server state.
func (m *Mirror) State() *chessdto.GameState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Position returns the mirrored position.
func (m *Mirror) Position() (chess.Position, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.game == nil {
		return chess.Position{}, false
	}
	return m.game.Position(), true
}

// Color returns the mirror owner's side, if they are seated.
func (m *Mirror) Color() (chess.Color, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return chess.White, false
	}
	switch m.playerID {
	case m.state.White.ID:
		return chess.White, true
	case m.state.Black.ID:
		return chess.Black, true
	}
	return chess.White, false
}

// MyTurn reports whether the owner is on move in an active game.
func (m *Mirror) MyTurn() bool {
	c, ok := m.Color()
	if !ok {
		return false
	}
	st := m.State()
	return st.Status == statusActive && st.Turn == c.String()
}

// Highlights lists the local legal moves from square in coordinate form.
func (m *Mirror) Highlights(square string) ([]string, error) {
	sq, err := chess.ParseSquare(square)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.game == nil {
		return nil, ErrNotSynced
	}
	moves := m.game.LegalMovesFrom(sq)
	out := make([]string, len(moves))
	for i, mv := range moves {
		out[i] = mv.String()
	}
	return out, nil
}

// Check validates text against the mirrored position. A failure is a hint;
// the server may still see a different position.
func (m *Mirror) Check(text string) (chess.Move, error) {
	c, seated := m.Color()
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.game == nil {
		return chess.Move{}, ErrNotSynced
	}
	if !seated || m.game.Turn() != c {
		return chess.Move{}, chess.ErrNotYourTurn
	}
	if m.game.Result().Over() {
		return chess.Move{}, chess.ErrGameOver
	}
	return m.game.Position().DecodeMove(text)
}

// Play submits text through c. On success the reply is adopted. On a
// rejection the mirror is replaced by a fresh server read before the
// rejection is returned.
func (m *Mirror) Play(ctx context.Context, c *Client, text string) (*chessdto.GameState, error) {
	st := m.State()
	if st == nil {
		return nil, ErrNotSynced
	}
	next, err := c.SubmitMove(ctx, chessdto.MoveRequest{GameID: st.ID, PlayerID: m.playerID, Move: strings.TrimSpace(text)})
	if err != nil {
		if IsRejection(err, "") {
			if fresh, ferr := c.Game(ctx, st.ID); ferr == nil {
				m.mu.Lock()
				_ = m.replaceLocked(fresh)
				m.mu.Unlock()
			}
		}
		return nil, err
	}
	if _, err := m.Sync(next); err != nil {
		return nil, err
	}
	return next, nil
}

// Resign concedes through c and adopts the final state.
func (m *Mirror) Resign(ctx context.Context, c *Client) (*chessdto.GameState, error) {
	st := m.State()
	if st == nil {
		return nil, ErrNotSynced
	}
	next, err := c.Resign(ctx, st.ID, m.playerID)
	if err != nil {
		return nil, err
	}
	if _, err := m.Sync(next); err != nil {
		return nil, err
	}
	return next, nil
}
