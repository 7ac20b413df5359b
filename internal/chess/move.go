package chess

import "strings"

type MoveFlag uint8

const (
	FlagCapture MoveFlag = 1 << iota
	FlagEnPassant
	FlagCastleKingSide
	FlagCastleQueenSide
	FlagDoublePush
)

// Move is meaningful only relative to the position it was generated from.
// Moves built by callers (for example from coordinate text) carry no flags;
// the game resolves them against the legal move list before applying.
type Move struct {
	From      Square
	To        Square
	Promotion PieceKind
	Flags     MoveFlag
}

func (m Move) Has(f MoveFlag) bool {
	return m.Flags&f != 0
}

func (m Move) IsCapture() bool { return m.Has(FlagCapture) }
func (m Move) IsCastle() bool { return m.Has(FlagCastleKingSide | FlagCastleQueenSide) }
func (m Move) IsEnPassant() bool { return m.Has(FlagEnPassant) }

// Same compares origin, destination and promotion, ignoring flags.
func (m Move) Same(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

// String returns the coordinate form, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if !m.From.Valid() || !m.To.Valid() {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if l := m.Promotion.Letter(); l != 0 {
		s += string(l)
	}
	return s
}

// ParseCoordinate parses "e2e4" style moves with an optional promotion letter.
func ParseCoordinate(s string) (Move, error) {
	in := strings.TrimSpace(s)
	if len(in) != 4 && len(in) != 5 {
		return Move{}, &ParseError{Kind: "coordinate", Input: s, Reason: "want 4 or 5 characters"}
	}
	in = strings.ToLower(in)
	from, err := ParseSquare(in[0:2])
	if err != nil {
		return Move{}, &ParseError{Kind: "coordinate", Input: s, Reason: "bad origin square"}
	}
	to, err := ParseSquare(in[2:4])
	if err != nil {
		return Move{}, &ParseError{Kind: "coordinate", Input: s, Reason: "bad destination square"}
	}
	m := Move{From: from, To: to}
	if len(in) == 5 {
		switch k := kindFromLetter(in[4]); k {
		case Knight, Bishop, Rook, Queen:
			m.Promotion = k
		default:
			return Move{}, &ParseError{Kind: "coordinate", Input: s, Reason: "bad promotion piece"}
		}
	}
	return m, nil
}
