package chess

import (
	"fmt"
	"strings"
)

// Tag is one PGN header pair.
type Tag struct {
	Name  string
	Value string
}

// PGN renders tags, the numbered SAN move list and the result token.
func PGN(tags []Tag, sanMoves []string, result Result) string {
	var b strings.Builder
	token := result.PGN()
	for _, t := range tags {
		if strings.TrimSpace(t.Value) == "" {
			continue
		}
		b.WriteString(fmt.Sprintf("[%s \"%s\"]\n", t.Name, sanitizePGN(t.Value)))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", token))

	for i := 0; i < len(sanMoves); i += 2 {
		b.WriteString(fmt.Sprintf("%d. %s", i/2+1, strings.TrimSpace(sanMoves[i])))
		if i+1 < len(sanMoves) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(sanMoves[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(token)
	return b.String()
}

// PGN renders the game's move list with the given header tags.
func (g *Game) PGN(tags ...Tag) string {
	moves := g.SANMoves()
	if g.start != startPosition {
		tags = append(tags, Tag{Name: "SetUp", Value: "1"}, Tag{Name: "FEN", Value: g.start.FEN()})
	}
	return PGN(tags, moves, g.result)
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
