package session

import (
	"time"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/internal/chess/bot"
)

// Snapshot is a read-only view of a session handed to callers.
type Snapshot struct {
	State     State
	FEN       string
	Turn      chess.Color
	InCheck   bool
	Moves     []string
	SANMoves  []string
	LastMove  string
	Result    chess.Result
	Timed     bool
	White     time.Duration
	Black     time.Duration
	LastBot   *bot.SearchResult
	Material  [2]int
	PlyCount  int
	Undoable  bool
	BotToMove bool
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	pos := s.game.Position()
	snap := Snapshot{
		State:    s.state,
		FEN:      pos.FEN(),
		Turn:     pos.Turn(),
		InCheck:  pos.InCheck(),
		Moves:    s.game.Moves(),
		SANMoves: s.game.SANMoves(),
		Result:   s.game.Result(),
		Material: [2]int{pos.Material(chess.White), pos.Material(chess.Black)},
	}
	snap.PlyCount = len(snap.Moves)
	if ply, ok := s.game.LastMove(); ok {
		snap.LastMove = ply.Move.String()
	}
	if s.clock != nil {
		snap.Timed = true
		snap.White = s.clock.Remaining(chess.White)
		snap.Black = s.clock.Remaining(chess.Black)
	}
	if s.lastBot != nil {
		b := *s.lastBot
		snap.LastBot = &b
	}
	kind := snap.Result.Kind
	snap.Undoable = snap.PlyCount > 0 && kind != chess.Resigned && kind != chess.TimeoutLoss
	snap.BotToMove = !snap.Result.Over() && s.cfg.player(pos.Turn()) == Bot
	return snap
}
