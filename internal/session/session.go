package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/internal/chess/bot"
	"github.com/zachsimson/Lockedin-sub000/internal/chess/clock"
)

type StateKind int8

const (
	WaitingForMove StateKind = iota
	Evaluating
	Terminal
)

func (k StateKind) String() string {
	switch k {
	case WaitingForMove:
		return "waiting_for_move"
	case Evaluating:
		return "evaluating"
	case Terminal:
		return "terminal"
	}
	return "unknown"
}

// State is the session's position in its state machine. Side is set while
// waiting or evaluating; Result is set once terminal.
type State struct {
	Kind   StateKind
	Side   chess.Color
	Result chess.Result
}

type Player int8

const (
	Human Player = iota
	Bot
)

type Config struct {
	White      Player
	Black      Player
	Difficulty bot.Difficulty
	// Initial is each side's clock allotment; zero plays untimed.
	Initial time.Duration
	// DeferBot leaves bot turns to PlayBotMove instead of replying inside
	// SubmitMove, so callers can search off their interactive path.
	DeferBot bool
	// StartFEN overrides the standard start position.
	StartFEN string
}

func (c Config) player(side chess.Color) Player {
	if side == chess.White {
		return c.White
	}
	return c.Black
}

// Chooser picks bot moves. *bot.Engine satisfies it.
type Chooser interface {
	ChooseMove(p chess.Position, d bot.Difficulty) bot.SearchResult
}

// Session orchestrates one match: it validates and applies moves, drives the
// clock and lets the bot reply. All methods are safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	cfg     Config
	engine  Chooser
	game    *chess.Game
	clock   *clock.Clock
	state   State
	lastBot *bot.SearchResult
}

// New starts a session. When White is bot-controlled and bot turns are not
// deferred, the bot's first move is played before New returns.
func New(cfg Config, engine Chooser) (*Session, error) {
	return Restore(cfg, engine, Record{})
}

// Record is the persistable form of a session.
type Record struct {
	Moves     []string
	White     time.Duration
	Black     time.Duration
	Result    chess.Result
	HasClocks bool
}

// Restore rebuilds a session from a record produced by Export.
func Restore(cfg Config, engine Chooser, rec Record) (*Session, error) {
	if engine == nil && (cfg.White == Bot || cfg.Black == Bot) {
		return nil, fmt.Errorf("session: bot player configured without an engine")
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = bot.Medium
	}
	if _, err := bot.GetPreset(string(cfg.Difficulty)); err != nil {
		return nil, err
	}
	g, err := chess.Replay(cfg.StartFEN, rec.Moves)
	if err != nil {
		return nil, err
	}
	s := &Session{cfg: cfg, engine: engine, game: g}
	if cfg.Initial > 0 {
		if rec.HasClocks {
			s.clock = clock.Restore(rec.White, rec.Black, g.Turn(), false)
		} else {
			s.clock = clock.New(cfg.Initial)
			s.clock.Switch(g.Turn())
		}
	}
	switch rec.Result.Kind {
	case chess.Resigned:
		_ = g.Resign(rec.Result.Color)
	case chess.TimeoutLoss:
		_ = g.Timeout(rec.Result.Color)
	}
	s.settleLocked()
	return s, nil
}

// Export captures the session for persistence.
func (s *Session) Export() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record{Moves: s.game.Moves(), Result: s.game.Result()}
	if s.clock != nil {
		rec.HasClocks = true
		rec.White = s.clock.Remaining(chess.White)
		rec.Black = s.clock.Remaining(chess.Black)
	}
	return rec
}

// settleLocked derives the state from the game after any change and lets a
// non-deferred bot move when it is on turn.
func (s *Session) settleLocked() {
	for {
		res := s.game.Result()
		if res.Over() {
			s.state = State{Kind: Terminal, Result: res}
			if s.clock != nil {
				s.clock.Pause()
			}
			return
		}
		turn := s.game.Turn()
		s.state = State{Kind: WaitingForMove, Side: turn}
		if s.clock != nil {
			s.clock.Switch(turn)
			s.clock.Resume()
		}
		if s.cfg.player(turn) != Bot || s.cfg.DeferBot {
			return
		}
		s.state = State{Kind: Evaluating, Side: turn}
		choice := s.engine.ChooseMove(s.game.Position(), s.cfg.Difficulty)
		if _, err := s.game.Apply(choice.Move); err != nil {
			panic(fmt.Sprintf("session: bot produced rejected move %s: %v", choice.Move, err))
		}
		s.lastBot = &choice
	}
}

// SubmitMove applies a human move. It is accepted only while waiting for the
// moving piece's color and only when that color is human-controlled.
func (s *Session) SubmitMove(m chess.Move) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Kind == Terminal {
		return s.snapshotLocked(), chess.ErrGameOver
	}
	if s.state.Kind != WaitingForMove || s.cfg.player(s.state.Side) != Human {
		return s.snapshotLocked(), chess.ErrNotYourTurn
	}
	if pc := s.game.Position().PieceAt(m.From); !pc.IsEmpty() && pc.Color != s.state.Side {
		return s.snapshotLocked(), chess.ErrNotYourTurn
	}
	waiting := s.state
	s.state = State{Kind: Evaluating, Side: waiting.Side}
	if _, err := s.game.Apply(m); err != nil {
		s.state = waiting
		return s.snapshotLocked(), err
	}
	s.settleLocked()
	return s.snapshotLocked(), nil
}

// SubmitText decodes coordinate or SAN text and submits it.
func (s *Session) SubmitText(text string) (Snapshot, error) {
	s.mu.Lock()
	pos := s.game.Position()
	s.mu.Unlock()
	m, err := pos.DecodeMove(text)
	if err != nil {
		return s.Snapshot(), err
	}
	return s.SubmitMove(m)
}

// PlayBotMove searches and plays the bot's move when bot turns are deferred.
// The search runs without holding the session lock; if the game ended in
// the meantime (resignation, timeout) the result is discarded.
func (s *Session) PlayBotMove(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.state.Kind == Terminal {
		defer s.mu.Unlock()
		return s.snapshotLocked(), chess.ErrGameOver
	}
	if s.state.Kind != WaitingForMove || s.cfg.player(s.state.Side) != Bot {
		defer s.mu.Unlock()
		return s.snapshotLocked(), chess.ErrNotYourTurn
	}
	side := s.state.Side
	pos := s.game.Position()
	plies := len(s.game.Moves())
	s.state = State{Kind: Evaluating, Side: side}
	s.mu.Unlock()

	choice := s.engine.ChooseMove(pos, s.cfg.Difficulty)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		if s.state.Kind == Evaluating {
			s.state = State{Kind: WaitingForMove, Side: side}
		}
		return s.snapshotLocked(), err
	}
	if s.state.Kind != Evaluating || len(s.game.Moves()) != plies {
		return s.snapshotLocked(), chess.ErrGameOver
	}
	if _, err := s.game.Apply(choice.Move); err != nil {
		return s.snapshotLocked(), err
	}
	s.lastBot = &choice
	s.settleLocked()
	return s.snapshotLocked(), nil
}

// Tick advances the clock by elapsed. A timeout ends the game as a loss for
// the running side.
func (s *Session) Tick(elapsed time.Duration) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clock == nil || s.state.Kind == Terminal {
		return s.snapshotLocked()
	}
	if ev := s.clock.Tick(elapsed); ev.Kind == clock.Timeout {
		_ = s.game.Timeout(ev.Side)
		s.settleLocked()
	}
	return s.snapshotLocked()
}

// Resign ends the game with side resigning.
func (s *Session) Resign(side chess.Color) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.game.Resign(side); err != nil {
		return s.snapshotLocked(), err
	}
	s.settleLocked()
	return s.snapshotLocked(), nil
}

// Undo takes back the last human move together with any bot replies after
// it. Resigned and timed-out games cannot be undone.
func (s *Session) Undo() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Kind == Evaluating {
		return s.snapshotLocked(), chess.ErrNotYourTurn
	}
	if _, err := s.game.Undo(); err != nil {
		return s.snapshotLocked(), err
	}
	for len(s.game.Moves()) > 0 && s.cfg.player(s.game.Turn()) == Bot {
		if _, err := s.game.Undo(); err != nil {
			return s.snapshotLocked(), err
		}
	}
	s.lastBot = nil
	s.settleLocked()
	return s.snapshotLocked(), nil
}

// Pause stops the clock, e.g. while the app is in the background.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clock != nil {
		s.clock.Pause()
	}
}

// Resume restarts the clock for an unfinished game.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clock != nil && s.state.Kind != Terminal {
		s.clock.Resume()
	}
}

// LegalMoves returns the legal moves of the side to move, restricted to
// origin when it is a valid square.
func (s *Session) LegalMoves(origin chess.Square) []chess.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	if origin.Valid() {
		return s.game.LegalMovesFrom(origin)
	}
	return s.game.LegalMoves()
}

// PGN renders the game so far.
func (s *Session) PGN(tags ...chess.Tag) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.PGN(tags...)
}

func (s *Session) Config() Config {
	return s.cfg
}
