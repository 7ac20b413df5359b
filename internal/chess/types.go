package chess

import "strings"

type Color int8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ParseColor accepts "white"/"black" and the FEN letters "w"/"b".
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	default:
		return White, false
	}
}

type PieceKind int8

const (
	NoKind PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = [...]byte{0, 'p', 'n', 'b', 'r', 'q', 'k'}

// Letter returns the lowercase FEN letter, or 0 for NoKind.
func (k PieceKind) Letter() byte {
	if k < NoKind || int(k) >= len(kindLetters) {
		return 0
	}
	return kindLetters[k]
}

func (k PieceKind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

func kindFromLetter(b byte) PieceKind {
	switch b {
	case 'p', 'P':
		return Pawn
	case 'n', 'N':
		return Knight
	case 'b', 'B':
		return Bishop
	case 'r', 'R':
		return Rook
	case 'q', 'Q':
		return Queen
	case 'k', 'K':
		return King
	default:
		return NoKind
	}
}

// Piece is a tagged (kind, color) pair. The zero value is an empty square.
type Piece struct {
	Kind  PieceKind
	Color Color
}

func (p Piece) IsEmpty() bool {
	return p.Kind == NoKind
}

// FEN returns the FEN letter: uppercase for white, lowercase for black.
func (p Piece) FEN() byte {
	l := p.Kind.Letter()
	if l == 0 {
		return 0
	}
	if p.Color == White {
		return l - 'a' + 'A'
	}
	return l
}

// Square indexes the board as rank*8+file, so a1 is 0 and h8 is 63.
type Square int8

const NoSquare Square = -1

func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

func (s Square) File() int { return int(s) % 8 }
func (s Square) Rank() int { return int(s) / 8 }

func (s Square) Valid() bool {
	return s >= 0 && s < 64
}

// Light reports whether the square is a light square (h1 is light).
func (s Square) Light() bool {
	return (s.File()+s.Rank())%2 == 1
}

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare parses algebraic square names such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, &ParseError{Kind: "square", Input: s, Reason: "want two characters"}
	}
	f, r := s[0], s[1]
	if f < 'a' || f > 'h' || r < '1' || r > '8' {
		return NoSquare, &ParseError{Kind: "square", Input: s, Reason: "out of range"}
	}
	return NewSquare(int(f-'a'), int(r-'1')), nil
}

// offset returns the square shifted by df files and dr ranks, if still on the board.
func (s Square) offset(df, dr int) (Square, bool) {
	f := s.File() + df
	r := s.Rank() + dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return NoSquare, false
	}
	return NewSquare(f, r), true
}

type CastlingRights uint8

const (
	WhiteKingSide CastlingRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
)

func (c CastlingRights) Has(r CastlingRights) bool {
	return c&r == r
}

func (c CastlingRights) String() string {
	if c == NoCastling {
		return "-"
	}
	var b strings.Builder
	if c.Has(WhiteKingSide) {
		b.WriteByte('K')
	}
	if c.Has(WhiteQueenSide) {
		b.WriteByte('Q')
	}
	if c.Has(BlackKingSide) {
		b.WriteByte('k')
	}
	if c.Has(BlackQueenSide) {
		b.WriteByte('q')
	}
	return b.String()
}

// castlingLoss lists the rights revoked when a move leaves or lands on a square.
var castlingLoss = func() [64]CastlingRights {
	var t [64]CastlingRights
	t[NewSquare(0, 0)] = WhiteQueenSide
	t[NewSquare(7, 0)] = WhiteKingSide
	t[NewSquare(4, 0)] = WhiteKingSide | WhiteQueenSide
	t[NewSquare(0, 7)] = BlackQueenSide
	t[NewSquare(7, 7)] = BlackKingSide
	t[NewSquare(4, 7)] = BlackKingSide | BlackQueenSide
	return t
}()
