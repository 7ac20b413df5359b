package chess

var promotionKinds = [4]PieceKind{Queen, Rook, Bishop, Knight}

// LegalMoves returns every legal move for the side to move. The order is
// deterministic: by origin square index, then by generation order per piece.
func (p Position) LegalMoves() []Move {
	return p.filterLegal(p.pseudoMoves(make([]Move, 0, 48), NoSquare))
}

// LegalMovesFrom returns the legal moves whose origin is sq.
func (p Position) LegalMovesFrom(sq Square) []Move {
	if !sq.Valid() {
		return nil
	}
	return p.filterLegal(p.pseudoMoves(make([]Move, 0, 16), sq))
}

// HasLegalMove reports whether the side to move has at least one legal move.
func (p Position) HasLegalMove() bool {
	for _, m := range p.pseudoMoves(make([]Move, 0, 48), NoSquare) {
		if p.leavesKingSafe(m) {
			return true
		}
	}
	return false
}

func (p Position) filterLegal(pseudo []Move) []Move {
	legal := pseudo[:0]
	for _, m := range pseudo {
		if p.leavesKingSafe(m) {
			legal = append(legal, m)
		}
	}
	return legal
}

func (p Position) leavesKingSafe(m Move) bool {
	next := p.play(m)
	k := next.KingSquare(p.turn)
	return k != NoSquare && !next.Attacked(k, p.turn.Other())
}

// pseudoMoves appends pseudo-legal moves for the side to move. When only is a
// valid square, generation is restricted to that origin.
func (p Position) pseudoMoves(dst []Move, only Square) []Move {
	for sq := Square(0); sq < 64; sq++ {
		if only != NoSquare && sq != only {
			continue
		}
		pc := p.board[sq]
		if pc.IsEmpty() || pc.Color != p.turn {
			continue
		}
		switch pc.Kind {
		case Pawn:
			dst = p.pawnMoves(dst, sq)
		case Knight:
			dst = p.stepMoves(dst, sq, knightOffsets[:])
		case Bishop:
			dst = p.slideMoves(dst, sq, bishopDirs[:])
		case Rook:
			dst = p.slideMoves(dst, sq, rookDirs[:])
		case Queen:
			dst = p.slideMoves(dst, sq, rookDirs[:])
			dst = p.slideMoves(dst, sq, bishopDirs[:])
		case King:
			dst = p.stepMoves(dst, sq, kingOffsets[:])
			dst = p.castleMoves(dst, sq)
		}
	}
	return dst
}

func (p Position) pawnMoves(dst []Move, sq Square) []Move {
	dir, startRank, lastRank := 1, 1, 7
	if p.turn == Black {
		dir, startRank, lastRank = -1, 6, 0
	}
	add := func(to Square, flags MoveFlag) {
		if to.Rank() == lastRank {
			for _, k := range promotionKinds {
				dst = append(dst, Move{From: sq, To: to, Promotion: k, Flags: flags})
			}
			return
		}
		dst = append(dst, Move{From: sq, To: to, Flags: flags})
	}

	if one, ok := sq.offset(0, dir); ok && p.board[one].IsEmpty() {
		add(one, 0)
		if sq.Rank() == startRank {
			if two, ok := sq.offset(0, 2*dir); ok && p.board[two].IsEmpty() {
				dst = append(dst, Move{From: sq, To: two, Flags: FlagDoublePush})
			}
		}
	}
	for _, df := range [2]int{-1, 1} {
		to, ok := sq.offset(df, dir)
		if !ok {
			continue
		}
		target := p.board[to]
		switch {
		case !target.IsEmpty() && target.Color != p.turn:
			add(to, FlagCapture)
		case target.IsEmpty() && to == p.enPassant && p.enPassantVictim(to):
			dst = append(dst, Move{From: sq, To: to, Flags: FlagCapture | FlagEnPassant})
		}
	}
	return dst
}

// enPassantVictim reports whether an enemy pawn stands behind target.
func (p Position) enPassantVictim(target Square) bool {
	dir := -1
	if p.turn == Black {
		dir = 1
	}
	sq, ok := target.offset(0, dir)
	if !ok {
		return false
	}
	victim := p.board[sq]
	return victim.Kind == Pawn && victim.Color != p.turn
}

func (p Position) stepMoves(dst []Move, sq Square, offsets [][2]int) []Move {
	for _, o := range offsets {
		to, ok := sq.offset(o[0], o[1])
		if !ok {
			continue
		}
		target := p.board[to]
		if target.IsEmpty() {
			dst = append(dst, Move{From: sq, To: to})
		} else if target.Color != p.turn {
			dst = append(dst, Move{From: sq, To: to, Flags: FlagCapture})
		}
	}
	return dst
}

func (p Position) slideMoves(dst []Move, sq Square, dirs [][2]int) []Move {
	for _, d := range dirs {
		cur := sq
		for {
			to, ok := cur.offset(d[0], d[1])
			if !ok {
				break
			}
			target := p.board[to]
			if target.IsEmpty() {
				dst = append(dst, Move{From: sq, To: to})
				cur = to
				continue
			}
			if target.Color != p.turn {
				dst = append(dst, Move{From: sq, To: to, Flags: FlagCapture})
			}
			break
		}
	}
	return dst
}

// castleMoves requires the right, the king and rook on their home squares,
// empty squares between them, and no attack on the king's start, transit or
// destination square.
func (p Position) castleMoves(dst []Move, sq Square) []Move {
	rank := 0
	kingSide, queenSide := WhiteKingSide, WhiteQueenSide
	if p.turn == Black {
		rank = 7
		kingSide, queenSide = BlackKingSide, BlackQueenSide
	}
	if sq != NewSquare(4, rank) || !p.castling.Has(kingSide) && !p.castling.Has(queenSide) {
		return dst
	}
	enemy := p.turn.Other()
	rook := Piece{Kind: Rook, Color: p.turn}
	if p.Attacked(sq, enemy) {
		return dst
	}
	empty := func(files ...int) bool {
		for _, f := range files {
			if !p.board[NewSquare(f, rank)].IsEmpty() {
				return false
			}
		}
		return true
	}
	safe := func(files ...int) bool {
		for _, f := range files {
			if p.Attacked(NewSquare(f, rank), enemy) {
				return false
			}
		}
		return true
	}
	if p.castling.Has(kingSide) && p.board[NewSquare(7, rank)] == rook && empty(5, 6) && safe(5, 6) {
		dst = append(dst, Move{From: sq, To: NewSquare(6, rank), Flags: FlagCastleKingSide})
	}
	if p.castling.Has(queenSide) && p.board[NewSquare(0, rank)] == rook && empty(1, 2, 3) && safe(2, 3) {
		dst = append(dst, Move{From: sq, To: NewSquare(2, rank), Flags: FlagCastleQueenSide})
	}
	return dst
}
