package chess

import (
	"fmt"
	"strings"
)

// SAN encodes a legal move of p in standard algebraic notation, including
// the check or mate suffix.
func (p Position) SAN(m Move) string {
	var b strings.Builder
	piece := p.board[m.From]
	switch {
	case m.Has(FlagCastleKingSide):
		b.WriteString("O-O")
	case m.Has(FlagCastleQueenSide):
		b.WriteString("O-O-O")
	case piece.Kind == Pawn:
		if m.IsCapture() {
			b.WriteByte(byte('a' + m.From.File()))
			b.WriteByte('x')
		}
		b.WriteString(m.To.String())
		if m.Promotion != NoKind {
			b.WriteByte('=')
			b.WriteByte(Piece{Kind: m.Promotion}.FEN())
		}
	default:
		b.WriteByte(piece.FEN() &^ 0x20)
		b.WriteString(p.disambiguation(m, piece))
		if m.IsCapture() {
			b.WriteByte('x')
		}
		b.WriteString(m.To.String())
	}

	next := p.play(m)
	if next.InCheck() {
		if next.HasLegalMove() {
			b.WriteByte('+')
		} else {
			b.WriteByte('#')
		}
	}
	return b.String()
}

// disambiguation returns the origin file, rank or square needed to tell m
// apart from other legal moves of the same piece kind to the same square.
func (p Position) disambiguation(m Move, piece Piece) string {
	var rivals []Square
	for _, o := range p.LegalMoves() {
		if o.To == m.To && o.From != m.From && p.board[o.From] == piece {
			rivals = append(rivals, o.From)
		}
	}
	if len(rivals) == 0 {
		return ""
	}
	sameFile, sameRank := false, false
	for _, r := range rivals {
		if r.File() == m.From.File() {
			sameFile = true
		}
		if r.Rank() == m.From.Rank() {
			sameRank = true
		}
	}
	switch {
	case !sameFile:
		return string(rune('a' + m.From.File()))
	case !sameRank:
		return string(rune('1' + m.From.Rank()))
	default:
		return m.From.String()
	}
}

// ParseSAN finds the legal move of p written as s. Check, mate and
// annotation suffixes are ignored, and "0-0" is accepted for "O-O".
func (p Position) ParseSAN(s string) (Move, error) {
	want := normalizeSAN(s)
	if want == "" {
		return Move{}, &ParseError{Kind: "san", Input: s, Reason: "empty move"}
	}
	for _, m := range p.LegalMoves() {
		if normalizeSAN(p.SAN(m)) == want {
			return m, nil
		}
	}
	return Move{}, fmt.Errorf("%w: %q", ErrIllegalMove, s)
}

func normalizeSAN(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "+#!?")
	s = strings.ReplaceAll(s, "0", "O")
	return s
}

// DecodeMove accepts coordinate ("e2e4", "e7e8q") or SAN ("Nf3", "exd5")
// text and returns the matching legal move of p.
func (p Position) DecodeMove(s string) (Move, error) {
	if m, err := ParseCoordinate(s); err == nil {
		return p.Resolve(m)
	}
	return p.ParseSAN(s)
}
