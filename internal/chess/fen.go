package chess

import (
	"strconv"
	"strings"
)

// ParseFEN decodes a six-field FEN string. The two move counters may be
// omitted, in which case they default to 0 and 1. Nothing is returned on
// error; a partially decoded position never escapes.
func ParseFEN(s string) (Position, error) {
	fields := strings.Fields(s)
	if len(fields) != 6 && len(fields) != 4 {
		return Position{}, fenError(s, "want 6 fields")
	}
	var p Position
	p.enPassant = NoSquare
	p.fullmove = 1

	if err := parsePlacement(&p, fields[0]); err != nil {
		return Position{}, fenError(s, err.Error())
	}

	switch fields[1] {
	case "w":
		p.turn = White
	case "b":
		p.turn = Black
	default:
		return Position{}, fenError(s, "side to move must be w or b")
	}

	if fields[2] != "-" {
		for i := 0; i < len(fields[2]); i++ {
			var r CastlingRights
			switch fields[2][i] {
			case 'K':
				r = WhiteKingSide
			case 'Q':
				r = WhiteQueenSide
			case 'k':
				r = BlackKingSide
			case 'q':
				r = BlackQueenSide
			default:
				return Position{}, fenError(s, "bad castling field")
			}
			if p.castling.Has(r) {
				return Position{}, fenError(s, "duplicate castling right")
			}
			p.castling |= r
		}
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return Position{}, fenError(s, "bad en-passant square")
		}
		want := 5
		if p.turn == Black {
			want = 2
		}
		if sq.Rank() != want {
			return Position{}, fenError(s, "en-passant square on wrong rank")
		}
		if !p.enPassantConsistent(sq) {
			return Position{}, fenError(s, "en-passant square without a pawn that just advanced two squares")
		}
		p.enPassant = sq
	}

	if len(fields) == 6 {
		half, err := strconv.Atoi(fields[4])
		if err != nil || half < 0 {
			return Position{}, fenError(s, "bad halfmove clock")
		}
		full, err := strconv.Atoi(fields[5])
		if err != nil || full < 1 {
			return Position{}, fenError(s, "bad fullmove number")
		}
		p.halfmove = half
		p.fullmove = full
	}
	if p.Attacked(p.KingSquare(p.turn.Other()), p.turn) {
		return Position{}, fenError(s, "side not to move is in check")
	}
	return p, nil
}

// enPassantConsistent reports whether target could follow an enemy double
// push: target and the pawn's origin are empty and the pawn stands beyond.
func (p Position) enPassantConsistent(target Square) bool {
	dir := -1
	if p.turn == Black {
		dir = 1
	}
	pawnSq, ok := target.offset(0, dir)
	if !ok {
		return false
	}
	origin, ok := target.offset(0, -dir)
	if !ok {
		return false
	}
	pawn := p.board[pawnSq]
	return p.board[target].IsEmpty() && p.board[origin].IsEmpty() &&
		pawn.Kind == Pawn && pawn.Color != p.turn
}

// MustParseFEN is ParseFEN for constants; it panics on malformed input.
func MustParseFEN(s string) Position {
	p, err := ParseFEN(s)
	if err != nil {
		panic(err)
	}
	return p
}

func fenError(input, reason string) error {
	return &ParseError{Kind: "fen", Input: input, Reason: reason}
}

type fenReason string

func (r fenReason) Error() string { return string(r) }

func parsePlacement(p *Position, field string) error {
	ranks := strings.Split(field, "/")
	if len(ranks) != 8 {
		return fenReason("piece placement must have 8 ranks")
	}
	kings := [2]int{}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				if file > 8 {
					return fenReason("rank " + strconv.Itoa(rank+1) + " overflows")
				}
				continue
			}
			kind := kindFromLetter(c)
			if kind == NoKind {
				return fenReason("unknown piece letter " + string(c))
			}
			if file > 7 {
				return fenReason("rank " + strconv.Itoa(rank+1) + " overflows")
			}
			color := White
			if c >= 'a' {
				color = Black
			}
			if kind == Pawn && (rank == 0 || rank == 7) {
				return fenReason("pawn on back rank")
			}
			if kind == King {
				kings[color]++
			}
			p.board[NewSquare(file, rank)] = Piece{Kind: kind, Color: color}
			file++
		}
		if file != 8 {
			return fenReason("rank " + strconv.Itoa(rank+1) + " has " + strconv.Itoa(file) + " files")
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return fenReason("each side needs exactly one king")
	}
	return nil
}

// FEN encodes the position with all six fields.
func (p Position) FEN() string {
	var b strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.board[NewSquare(file, rank)]
			if pc.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteByte(byte('0' + empty))
				empty = 0
			}
			b.WriteByte(pc.FEN())
		}
		if empty > 0 {
			b.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			b.WriteByte('/')
		}
	}
	b.WriteByte(' ')
	if p.turn == White {
		b.WriteByte('w')
	} else {
		b.WriteByte('b')
	}
	b.WriteByte(' ')
	b.WriteString(p.castling.String())
	b.WriteByte(' ')
	b.WriteString(p.enPassant.String())
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(p.halfmove))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(p.fullmove))
	return b.String()
}

func (p Position) String() string {
	return p.FEN()
}
