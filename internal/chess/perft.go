package chess

// Perft counts leaf nodes of the legal move tree to the given depth.
func Perft(p Position, depth int) int64 {
	if depth <= 0 {
		return 1
	}
	moves := p.LegalMoves()
	if depth == 1 {
		return int64(len(moves))
	}
	var nodes int64
	for _, m := range moves {
		nodes += Perft(p.play(m), depth-1)
	}
	return nodes
}

// Divide returns the perft count below each root move, keyed by coordinate.
func Divide(p Position, depth int) map[string]int64 {
	out := make(map[string]int64)
	if depth <= 0 {
		return out
	}
	for _, m := range p.LegalMoves() {
		out[m.String()] = Perft(p.play(m), depth-1)
	}
	return out
}
