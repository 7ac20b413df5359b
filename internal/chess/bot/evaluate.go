package bot

import "github.com/zachsimson/Lockedin-sub000/internal/chess"

// Centipawn values; the king carries no material weight.
var pieceValues = [...]int{
	chess.NoKind: 0,
	chess.Pawn:   100,
	chess.Knight: 300,
	chess.Bishop: 300,
	chess.Rook:   500,
	chess.Queen:  900,
	chess.King:   0,
}

const centerBonus = 30

var centerSquares = [4]chess.Square{
	chess.NewSquare(3, 3), // d4
	chess.NewSquare(4, 3), // e4
	chess.NewSquare(3, 4), // d5
	chess.NewSquare(4, 4), // e5
}

// Evaluate scores p statically from perspective's point of view: material
// difference plus a bonus for each own piece on a center square and an
// equal penalty for each enemy piece there.
func Evaluate(p chess.Position, perspective chess.Color) int {
	score := 0
	for sq := chess.Square(0); sq < 64; sq++ {
		pc := p.PieceAt(sq)
		if pc.IsEmpty() {
			continue
		}
		if pc.Color == perspective {
			score += pieceValues[pc.Kind]
		} else {
			score -= pieceValues[pc.Kind]
		}
	}
	for _, sq := range centerSquares {
		pc := p.PieceAt(sq)
		if pc.IsEmpty() {
			continue
		}
		if pc.Color == perspective {
			score += centerBonus
		} else {
			score -= centerBonus
		}
	}
	return score
}
