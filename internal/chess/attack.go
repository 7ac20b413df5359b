package chess

var (
	knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookDirs      = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs    = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// Attacked reports whether any piece of color by attacks sq. Attack sets are
// pseudo-legal: pins and checks against the attacker are ignored.
func (p Position) Attacked(sq Square, by Color) bool {
	// a pawn attacking sq sits one rank behind it from the attacker's view
	pawnRank := -1
	if by == Black {
		pawnRank = 1
	}
	for _, df := range [2]int{-1, 1} {
		if s, ok := sq.offset(df, pawnRank); ok && p.board[s] == (Piece{Kind: Pawn, Color: by}) {
			return true
		}
	}
	for _, o := range knightOffsets {
		if s, ok := sq.offset(o[0], o[1]); ok && p.board[s] == (Piece{Kind: Knight, Color: by}) {
			return true
		}
	}
	for _, o := range kingOffsets {
		if s, ok := sq.offset(o[0], o[1]); ok && p.board[s] == (Piece{Kind: King, Color: by}) {
			return true
		}
	}
	if p.rayHits(sq, rookDirs[:], by, Rook) || p.rayHits(sq, bishopDirs[:], by, Bishop) {
		return true
	}
	return false
}

// rayHits walks each direction from sq and reports whether the first piece met
// is a slider of color by moving like kind (queens count for both).
func (p Position) rayHits(sq Square, dirs [][2]int, by Color, kind PieceKind) bool {
	for _, d := range dirs {
		cur := sq
		for {
			next, ok := cur.offset(d[0], d[1])
			if !ok {
				break
			}
			pc := p.board[next]
			if !pc.IsEmpty() {
				if pc.Color == by && (pc.Kind == kind || pc.Kind == Queen) {
					return true
				}
				break
			}
			cur = next
		}
	}
	return false
}
