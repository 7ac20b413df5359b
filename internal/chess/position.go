package chess

// Position is a value type: copying it yields an independent position and two
// positions compare equal with == exactly when every FEN field matches.
type Position struct {
	board     [64]Piece
	turn      Color
	castling  CastlingRights
	enPassant Square
	halfmove  int
	fullmove  int
}

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var startPosition = MustParseFEN(StartFEN)

func StartPosition() Position {
	return startPosition
}

func (p Position) PieceAt(sq Square) Piece {
	if !sq.Valid() {
		return Piece{}
	}
	return p.board[sq]
}

func (p Position) Turn() Color { return p.turn }
func (p Position) Castling() CastlingRights { return p.castling }
func (p Position) EnPassant() Square { return p.enPassant }
func (p Position) HalfmoveClock() int { return p.halfmove }
func (p Position) FullmoveNumber() int { return p.fullmove }

// KingSquare returns the square of c's king, or NoSquare when absent.
func (p Position) KingSquare(c Color) Square {
	king := Piece{Kind: King, Color: c}
	for sq := Square(0); sq < 64; sq++ {
		if p.board[sq] == king {
			return sq
		}
	}
	return NoSquare
}

// InCheck reports whether the side to move is in check.
func (p Position) InCheck() bool {
	k := p.KingSquare(p.turn)
	return k != NoSquare && p.Attacked(k, p.turn.Other())
}

// key identifies a position for repetition: board, side to move, castling
// rights and en-passant target. Move counters are excluded.
type positionKey struct {
	board     [64]Piece
	turn      Color
	castling  CastlingRights
	enPassant Square
}

func (p Position) key() positionKey {
	return positionKey{board: p.board, turn: p.turn, castling: p.castling, enPassant: p.enPassant}
}

// play applies a move generated for p without checking legality.
func (p Position) play(m Move) Position {
	next := p
	piece := p.board[m.From]
	next.board[m.From] = Piece{}
	next.enPassant = NoSquare

	switch {
	case m.Has(FlagEnPassant):
		next.board[NewSquare(m.To.File(), m.From.Rank())] = Piece{}
	case m.Has(FlagCastleKingSide):
		rank := m.From.Rank()
		next.board[NewSquare(5, rank)] = next.board[NewSquare(7, rank)]
		next.board[NewSquare(7, rank)] = Piece{}
	case m.Has(FlagCastleQueenSide):
		rank := m.From.Rank()
		next.board[NewSquare(3, rank)] = next.board[NewSquare(0, rank)]
		next.board[NewSquare(0, rank)] = Piece{}
	}

	if m.Promotion != NoKind {
		piece.Kind = m.Promotion
	}
	next.board[m.To] = piece

	if m.Has(FlagDoublePush) {
		next.enPassant = NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
	}
	next.castling &^= castlingLoss[m.From] | castlingLoss[m.To]

	if piece.Kind == Pawn || m.Has(FlagCapture) {
		next.halfmove = 0
	} else {
		next.halfmove++
	}
	if p.turn == Black {
		next.fullmove++
	}
	next.turn = p.turn.Other()
	return next
}

// Play resolves m against the legal moves of p and returns the resulting
// position. Flags on m are ignored.
func (p Position) Play(m Move) (Position, Move, error) {
	resolved, err := p.Resolve(m)
	if err != nil {
		return p, Move{}, err
	}
	return p.play(resolved), resolved, nil
}

// Resolve finds the legal move matching m's origin, destination and promotion.
func (p Position) Resolve(m Move) (Move, error) {
	if !m.From.Valid() || !m.To.Valid() {
		return Move{}, illegal(m, "square out of range")
	}
	piece := p.board[m.From]
	if piece.IsEmpty() {
		return Move{}, illegal(m, "no piece on "+m.From.String())
	}
	if piece.Color != p.turn {
		return Move{}, illegal(m, "piece does not belong to the side to move")
	}
	needsPromotion := false
	for _, lm := range p.LegalMovesFrom(m.From) {
		if lm.Same(m) {
			return lm, nil
		}
		if lm.To == m.To && lm.Promotion != NoKind {
			needsPromotion = true
		}
	}
	if needsPromotion {
		return Move{}, illegal(m, "promotion piece required")
	}
	return Move{}, illegal(m, "not in the legal move set")
}

// Material sums piece values in pawns for color c.
func (p Position) Material(c Color) int {
	total := 0
	for _, pc := range p.board {
		if pc.IsEmpty() || pc.Color != c {
			continue
		}
		total += pawnValues[pc.Kind]
	}
	return total
}

var pawnValues = [...]int{NoKind: 0, Pawn: 1, Knight: 3, Bishop: 3, Rook: 5, Queen: 9, King: 0}

// After returns the position reached by m, which must come from p.LegalMoves.
func (p Position) After(m Move) Position {
	return p.play(m)
}
