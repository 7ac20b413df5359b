package pvpchess

import (
	"errors"
	"time"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
)

// Status represents a PvP game lifecycle state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
	StatusResigned Status = "RESIGNED"
	StatusDraw     Status = "DRAW"
	StatusTimeout  Status = "TIMEOUT"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrNotParticipant = errors.New("player is not in this game")
	ErrConflict       = errors.New("concurrent update, retry")
	ErrInvalidArgs    = errors.New("invalid arguments")
)

// Game is the persisted state of a PvP match. The move list is the source of
// truth; FEN, Turn and Result are derived from it on every write.
type Game struct {
	ID        string    `json:"id"`
	StartFEN  string    `json:"start_fen,omitempty"`
	FEN       string    `json:"fen"`
	MovesUCI  []string  `json:"moves_uci"`
	MovesSAN  []string  `json:"moves_san"`
	Turn      string    `json:"turn"`
	Status    Status    `json:"status"`
	Version   int64     `json:"version"`
	WhiteID   string    `json:"white_id"`
	WhiteName string    `json:"white_name"`
	BlackID   string    `json:"black_id"`
	BlackName string    `json:"black_name"`
	Lobby     string    `json:"lobby,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Server clock. Zero InitialMs means untimed.
	InitialMs     int64     `json:"initial_ms,omitempty"`
	WhiteMs       int64     `json:"white_ms,omitempty"`
	BlackMs       int64     `json:"black_ms,omitempty"`
	TurnStartedAt time.Time `json:"turn_started_at"`

	// Result is a chess.ResultKind name; Outcome is "white", "black" or "draw".
	Result  string `json:"result,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Winner  string `json:"winner,omitempty"`
}

func (g *Game) Active() bool { return g.Status == StatusActive }

func (g *Game) Timed() bool { return g.InitialMs > 0 }

// PlayerColor reports the side userID plays in g.
func (g *Game) PlayerColor(userID string) (chess.Color, bool) {
	switch userID {
	case g.WhiteID:
		return chess.White, true
	case g.BlackID:
		return chess.Black, true
	}
	return chess.White, false
}

func (g *Game) playerID(c chess.Color) string {
	if c == chess.White {
		return g.WhiteID
	}
	return g.BlackID
}

// Remaining returns both clocks as of now, charging the side to move for
// the time since its turn started.
func (g *Game) Remaining(now time.Time) (white, black time.Duration) {
	white = time.Duration(g.WhiteMs) * time.Millisecond
	black = time.Duration(g.BlackMs) * time.Millisecond
	if !g.Timed() || !g.Active() || g.TurnStartedAt.IsZero() {
		return white, black
	}
	elapsed := now.Sub(g.TurnStartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	if g.Turn == chess.White.String() {
		white = max(white-elapsed, 0)
	} else {
		black = max(black-elapsed, 0)
	}
	return white, black
}

// ChessResult rebuilds the rules-level result from the stored fields.
func (g *Game) ChessResult() chess.Result {
	kind, ok := chess.ParseResultKind(g.Result)
	if !ok || kind == chess.InProgress {
		return chess.Result{}
	}
	res := chess.Result{Kind: kind}
	winner, _ := chess.ParseColor(g.Outcome)
	switch kind {
	case chess.Checkmate:
		res.Color = winner
	case chess.Resigned, chess.TimeoutLoss:
		res.Color = winner.Other()
	}
	return res
}

// MoveRequest is an online move submission.
type MoveRequest struct {
	GameID    string
	PlayerID  string
	From      string
	To        string
	Promotion string
	// Text, when set, is decoded as coordinate or SAN instead of From/To.
	Text string
}

// NewGameParams describes the two players of a new game. Color is the
// creator's preference: "white", "black" or "random".
type NewGameParams struct {
	CreatorID    string
	CreatorName  string
	OpponentID   string
	OpponentName string
	Color        string
	Lobby        string
	StartFEN     string
}
