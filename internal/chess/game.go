package chess

import "fmt"

type ResultKind int8

const (
	InProgress ResultKind = iota
	Checkmate
	Stalemate
	DrawByRepetition
	DrawByFiftyMove
	DrawByInsufficientMaterial
	Resigned
	TimeoutLoss
)

var resultNames = [...]string{
	InProgress:                 "in_progress",
	Checkmate:                  "checkmate",
	Stalemate:                  "stalemate",
	DrawByRepetition:           "draw_repetition",
	DrawByFiftyMove:            "draw_fifty_move",
	DrawByInsufficientMaterial: "draw_insufficient_material",
	Resigned:                   "resigned",
	TimeoutLoss:                "timeout",
}

func (k ResultKind) String() string {
	if k < 0 || int(k) >= len(resultNames) {
		return "unknown"
	}
	return resultNames[k]
}

// ParseResultKind is the inverse of ResultKind.String.
func ParseResultKind(s string) (ResultKind, bool) {
	for i, name := range resultNames {
		if name == s {
			return ResultKind(i), true
		}
	}
	return InProgress, false
}

// Result classifies a game. Color is the winner for Checkmate and the losing
// side for Resigned and TimeoutLoss; it is unused otherwise.
type Result struct {
	Kind  ResultKind
	Color Color
}

func (r Result) Over() bool {
	return r.Kind != InProgress
}

func (r Result) Draw() bool {
	switch r.Kind {
	case Stalemate, DrawByRepetition, DrawByFiftyMove, DrawByInsufficientMaterial:
		return true
	}
	return false
}

// Winner returns the winning color for decisive results.
func (r Result) Winner() (Color, bool) {
	switch r.Kind {
	case Checkmate:
		return r.Color, true
	case Resigned, TimeoutLoss:
		return r.Color.Other(), true
	}
	return White, false
}

// PGN returns the PGN result token.
func (r Result) PGN() string {
	if w, ok := r.Winner(); ok {
		if w == White {
			return "1-0"
		}
		return "0-1"
	}
	if r.Draw() {
		return "1/2-1/2"
	}
	return "*"
}

func (r Result) String() string {
	switch r.Kind {
	case Checkmate:
		return fmt.Sprintf("checkmate, %s wins", r.Color)
	case Resigned:
		return fmt.Sprintf("%s resigned", r.Color)
	case TimeoutLoss:
		return fmt.Sprintf("%s lost on time", r.Color)
	}
	return r.Kind.String()
}

// Ply is one applied move with its SAN and the position it produced.
type Ply struct {
	Move     Move
	SAN      string
	Position Position
}

// Game tracks one game from its start position. Apply mutates the game in
// place; a rejected move leaves it untouched.
type Game struct {
	start   Position
	current Position
	history []Ply
	result  Result
}

func NewGame() *Game {
	return NewGameFromPosition(StartPosition())
}

// NewGameFromPosition starts tracking at p. A position that is already
// terminal (mate, stalemate, dead draw) yields a finished game.
func NewGameFromPosition(p Position) *Game {
	g := &Game{start: p, current: p}
	g.result = g.classify()
	return g
}

func (g *Game) Position() Position { return g.current }
func (g *Game) StartPosition() Position { return g.start }
func (g *Game) Result() Result { return g.result }
func (g *Game) Turn() Color { return g.current.turn }
func (g *Game) FEN() string { return g.current.FEN() }

func (g *Game) History() []Ply {
	out := make([]Ply, len(g.history))
	copy(out, g.history)
	return out
}

// Moves returns the applied moves in coordinate form.
func (g *Game) Moves() []string {
	out := make([]string, len(g.history))
	for i, ply := range g.history {
		out[i] = ply.Move.String()
	}
	return out
}

// SANMoves returns the applied moves in SAN.
func (g *Game) SANMoves() []string {
	out := make([]string, len(g.history))
	for i, ply := range g.history {
		out[i] = ply.SAN
	}
	return out
}

// LastMove returns the most recent ply, if any.
func (g *Game) LastMove() (Ply, bool) {
	if len(g.history) == 0 {
		return Ply{}, false
	}
	return g.history[len(g.history)-1], true
}

func (g *Game) LegalMoves() []Move {
	if g.result.Over() {
		return nil
	}
	return g.current.LegalMoves()
}

func (g *Game) LegalMovesFrom(sq Square) []Move {
	if g.result.Over() {
		return nil
	}
	return g.current.LegalMovesFrom(sq)
}

// SAN encodes m, a legal move in the current position.
func (g *Game) SAN(m Move) string {
	return g.current.SAN(m)
}

// Apply validates m against the legal move set, applies it, records it in
// the history and re-evaluates the result. It returns the resolved move with
// its flags filled in.
func (g *Game) Apply(m Move) (Move, error) {
	if g.result.Over() {
		return Move{}, ErrGameOver
	}
	resolved, err := g.current.Resolve(m)
	if err != nil {
		return Move{}, err
	}
	san := g.current.SAN(resolved)
	g.current = g.current.play(resolved)
	g.history = append(g.history, Ply{Move: resolved, SAN: san, Position: g.current})
	g.result = g.classify()
	return resolved, nil
}

// Play applies the move from -> to with an optional promotion piece.
func (g *Game) Play(from, to Square, promotion PieceKind) (Move, error) {
	return g.Apply(Move{From: from, To: to, Promotion: promotion})
}

// PlayText applies a move given in coordinate or SAN form.
func (g *Game) PlayText(s string) (Move, error) {
	if g.result.Over() {
		return Move{}, ErrGameOver
	}
	m, err := g.current.DecodeMove(s)
	if err != nil {
		return Move{}, err
	}
	return g.Apply(m)
}

// Resign ends the game with c as the resigning side.
func (g *Game) Resign(c Color) error {
	if g.result.Over() {
		return ErrGameOver
	}
	g.result = Result{Kind: Resigned, Color: c}
	return nil
}

// Timeout ends the game as a loss on time for c.
func (g *Game) Timeout(c Color) error {
	if g.result.Over() {
		return ErrGameOver
	}
	g.result = Result{Kind: TimeoutLoss, Color: c}
	return nil
}

// Undo takes back the last ply. Results from resignation or timeout are final.
func (g *Game) Undo() (Ply, error) {
	if g.result.Kind == Resigned || g.result.Kind == TimeoutLoss {
		return Ply{}, ErrGameOver
	}
	if len(g.history) == 0 {
		return Ply{}, ErrNoHistory
	}
	last := g.history[len(g.history)-1]
	g.history = g.history[:len(g.history)-1]
	if len(g.history) == 0 {
		g.current = g.start
	} else {
		g.current = g.history[len(g.history)-1].Position
	}
	g.result = g.classify()
	return last, nil
}

// Clone returns an independent copy.
func (g *Game) Clone() *Game {
	c := *g
	c.history = append([]Ply(nil), g.history...)
	return &c
}

// classify evaluates the current position in fixed order: checkmate,
// stalemate, fifty-move rule, threefold repetition, insufficient material.
func (g *Game) classify() Result {
	p := g.current
	if !p.HasLegalMove() {
		if p.InCheck() {
			return Result{Kind: Checkmate, Color: p.turn.Other()}
		}
		return Result{Kind: Stalemate}
	}
	if p.halfmove >= 100 {
		return Result{Kind: DrawByFiftyMove}
	}
	if g.repetitions() >= 3 {
		return Result{Kind: DrawByRepetition}
	}
	if p.InsufficientMaterial() {
		return Result{Kind: DrawByInsufficientMaterial}
	}
	return Result{}
}

// repetitions counts occurrences of the current position, including the start.
func (g *Game) repetitions() int {
	k := g.current.key()
	n := 0
	if g.start.key() == k {
		n++
	}
	for _, ply := range g.history {
		if ply.Position.key() == k {
			n++
		}
	}
	return n
}

// InsufficientMaterial reports positions where neither side can ever mate:
// bare kings, a single minor piece, or only bishops all on one square color.
func (p Position) InsufficientMaterial() bool {
	minors := 0
	bishops, lightBishops := 0, 0
	for sq := Square(0); sq < 64; sq++ {
		switch p.board[sq].Kind {
		case Pawn, Rook, Queen:
			return false
		case Knight:
			minors++
		case Bishop:
			minors++
			bishops++
			if sq.Light() {
				lightBishops++
			}
		}
	}
	if minors <= 1 {
		return true
	}
	return bishops == minors && (lightBishops == 0 || lightBishops == bishops)
}
