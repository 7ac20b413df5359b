package chesspresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

const (
	historyHeader = "Recent games"
	helpHeader    = "Commands"
	profileHeader = "Profile"

	defaultDifficulty = "medium"
	recentMovesLimit  = 6
)

// PrefixProvider exposes the prefix commands are typed with.
type PrefixProvider interface {
	Prefix() string
}

// Formatter renders chess DTOs into plain text for a terminal.
type Formatter struct {
	prefixProvider PrefixProvider
	// Unicode switches piece letters to chess glyphs.
	Unicode bool
}

func NewFormatter(provider PrefixProvider) *Formatter {
	return &Formatter{prefixProvider: provider}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

// Board draws fen as an 8x8 grid seen from perspective. Squares in marks
// are bracketed.
func (f *Formatter) Board(fen string, perspective chess.Color, marks ...string) string {
	pos, err := chess.ParseFEN(fen)
	if err != nil {
		return "(board unavailable)"
	}
	marked := make(map[chess.Square]bool, len(marks))
	for _, m := range marks {
		if sq, err := chess.ParseSquare(m); err == nil {
			marked[sq] = true
		}
	}

	var sb strings.Builder
	for row := 0; row < 8; row++ {
		rank := 7 - row
		if perspective == chess.Black {
			rank = row
		}
		sb.WriteString(fmt.Sprintf("%d ", rank+1))
		for col := 0; col < 8; col++ {
			file := col
			if perspective == chess.Black {
				file = 7 - col
			}
			sq := chess.NewSquare(file, rank)
			glyph := f.glyph(pos.PieceAt(sq), sq)
			if marked[sq] {
				sb.WriteString("[" + glyph + "]")
			} else {
				sb.WriteString(" " + glyph + " ")
			}
		}
		sb.WriteString("\n")
	}
	files := "abcdefgh"
	if perspective == chess.Black {
		files = "hgfedcba"
	}
	sb.WriteString("  ")
	for _, r := range files {
		sb.WriteString(" " + string(r) + " ")
	}
	return sb.String()
}

func (f *Formatter) glyph(p chess.Piece, sq chess.Square) string {
	if p.IsEmpty() {
		if sq.Light() {
			return "."
		}
		return ":"
	}
	letter := string(p.FEN())
	if !f.Unicode {
		return letter
	}
	glyphs := map[string]string{
		"K": "♔", "Q": "♕", "R": "♖", "B": "♗", "N": "♘", "P": "♙",
		"k": "♚", "q": "♛", "r": "♜", "b": "♝", "n": "♞", "p": "♟",
	}
	return glyphs[letter]
}

func (f *Formatter) Start(state *chessdto.SessionState, resumed bool) string {
	if state == nil {
		return fmt.Sprintf("Could not start a game. Try `%sstart` again.", f.Prefix())
	}
	var sb strings.Builder
	if resumed {
		sb.WriteString("Resumed your game in progress.\n")
	} else {
		sb.WriteString("New game started.\n")
	}
	sb.WriteString(fmt.Sprintf("- difficulty: %s\n", formatDifficulty(state.Difficulty)))
	sb.WriteString(fmt.Sprintf("- you play %s\n", orDefault(state.PlayerColor, "white")))
	if info := formatProfileSummary(state.Profile, state.RatingDelta); info != "" {
		sb.WriteString(info)
	}
	if state.Timed {
		sb.WriteString("- clocks " + formatClocks(state.WhiteMs, state.BlackMs) + "\n")
	}
	sb.WriteString(fmt.Sprintf("\nMove with `%s<move>` (e2e4 or Nf3), take back with `%sundo`.", f.Prefix(), f.Prefix()))
	return sb.String()
}

// Move describes one turn. A finished game gets the result block.
func (f *Formatter) Move(summary *chessdto.MoveSummary) string {
	if summary == nil || summary.State == nil {
		return ""
	}
	state := summary.State
	var sb strings.Builder
	if summary.PlayerSAN != "" {
		sb.WriteString(fmt.Sprintf("You played %s.", summary.PlayerSAN))
	}
	if summary.BotSAN != "" {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(fmt.Sprintf("Bot replied %s (%+d).", summary.BotSAN, summary.BotEvalCP))
	}
	if state.InCheck && !summary.Finished {
		sb.WriteString(" Check!")
	}
	if !summary.Finished {
		if state.Timed {
			sb.WriteString("\n- clocks " + formatClocks(state.WhiteMs, state.BlackMs))
		}
		return sb.String()
	}

	if sb.Len() > 0 {
		sb.WriteString("\n\n")
	}
	sb.WriteString(formatOutcome(state))
	sb.WriteString("\n")
	if info := formatProfileSummary(summary.Profile, summary.RatingDelta); info != "" {
		sb.WriteString(info)
	}
	if summary.GameID > 0 {
		sb.WriteString(fmt.Sprintf("Game saved as #%d\n", summary.GameID))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) Status(state *chessdto.SessionState) string {
	if state == nil {
		return f.Help()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("- difficulty %s, you play %s\n", formatDifficulty(state.Difficulty), orDefault(state.PlayerColor, "white")))
	sb.WriteString(fmt.Sprintf("- %d plies played, %s to move\n", state.MoveCount, state.Turn))
	if len(state.MovesSAN) > 0 {
		sb.WriteString(fmt.Sprintf("- recent %s\n", formatRecentMoves(state.MovesSAN)))
	}
	sb.WriteString("- material " + formatMaterial(state.Material) + "\n")
	if state.Timed {
		sb.WriteString("- clocks " + formatClocks(state.WhiteMs, state.BlackMs) + "\n")
	}
	if state.BotToMove {
		sb.WriteString("- waiting for the bot\n")
	}
	if info := formatProfileSummary(state.Profile, 0); info != "" {
		sb.WriteString(info)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) Resign(state *chessdto.SessionState) string {
	var sb strings.Builder
	sb.WriteString("You resigned.\n")
	if state == nil {
		return strings.TrimRight(sb.String(), "\n")
	}
	if info := formatProfileSummary(state.Profile, state.RatingDelta); info != "" {
		sb.WriteString(info)
	}
	if state.GameID > 0 {
		sb.WriteString(fmt.Sprintf("Game saved as #%d\n", state.GameID))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) Undo(state *chessdto.SessionState) string {
	if state == nil {
		return "Could not take the move back."
	}
	return fmt.Sprintf("Took back your last move. %d plies on the board, your turn.", state.MoveCount)
}

func (f *Formatter) Help() string {
	p := f.Prefix()
	lines := []string{
		helpHeader,
		fmt.Sprintf("  %sstart [easy|medium|hard] [white|black|random]  new game", p),
		fmt.Sprintf("  %s<move>      play e2e4, e7e8q or SAN like Nf3", p),
		fmt.Sprintf("  %smoves [sq]  legal moves, optionally from one square", p),
		fmt.Sprintf("  %sundo        take back your move and the reply", p),
		fmt.Sprintf("  %sresign      give up the game", p),
		fmt.Sprintf("  %sboard       show the position", p),
		fmt.Sprintf("  %spgn         print the game so far", p),
		fmt.Sprintf("  %squit        leave", p),
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) History(games []*chessdto.ChessGame) string {
	if len(games) == 0 {
		return "No finished games yet."
	}
	var sb strings.Builder
	sb.WriteString(historyHeader)
	sb.WriteByte('\n')
	for _, game := range games {
		sb.WriteString(fmt.Sprintf("- #%d %s %s, %s, %d plies", game.ID, formatResultBadge(game.Result), formatShortTime(game.EndedAt), formatDifficulty(game.Difficulty), len(game.MovesUCI)))
		if d := formatGameDuration(time.Duration(game.DurationMs) * time.Millisecond); d != "" {
			sb.WriteString(", " + d)
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) Game(game *chessdto.ChessGame) string {
	if game == nil {
		return "Game not found."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Game #%d\n", game.ID))
	sb.WriteString(fmt.Sprintf("- %s by %s\n", formatResultBadge(game.Result), methodPhrase(game.ResultMethod)))
	sb.WriteString(fmt.Sprintf("- difficulty %s, played %s\n", formatDifficulty(game.Difficulty), orDefault(game.PlayerColor, "white")))
	if d := formatGameDuration(time.Duration(game.DurationMs) * time.Millisecond); d != "" {
		sb.WriteString("- duration " + d + "\n")
	}
	if game.PGN != "" {
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(game.PGN))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) Profile(profile *chessdto.ChessProfile) string {
	if profile == nil {
		return "No profile yet. Finish a game to get rated."
	}
	var sb strings.Builder
	sb.WriteString(profileHeader)
	sb.WriteString("\n")
	sb.WriteString(formatProfileSummary(profile, 0))
	if profile.Streak > 1 {
		sb.WriteString(fmt.Sprintf("- streak: %d %s\n", profile.Streak, formatStreakSuffix(profile.StreakType)))
	}
	if !profile.LastPlayedAt.IsZero() {
		sb.WriteString("- last game " + formatShortTime(profile.LastPlayedAt) + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Online describes an online game from the point of view of color.
func (f *Formatter) Online(g *chessdto.GameState, color chess.Color) string {
	if g == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (white) vs %s (black), version %d\n", orDefault(g.White.Name, g.White.ID), orDefault(g.Black.Name, g.Black.ID), g.Version))
	if len(g.MovesSAN) > 0 {
		sb.WriteString("- recent " + formatRecentMoves(g.MovesSAN) + "\n")
	}
	if g.InitialMs > 0 {
		sb.WriteString("- clocks " + formatClocks(g.White.RemainingMs, g.Black.RemainingMs) + "\n")
	}
	switch {
	case g.Status != "ACTIVE":
		sb.WriteString(fmt.Sprintf("- finished by %s, %s\n", methodPhrase(g.Result), orDefault(g.Outcome, "no winner")))
	case g.Turn == color.String():
		sb.WriteString("- your move\n")
	default:
		sb.WriteString("- waiting for your opponent\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Rejection renders a DomainError for display.
func (f *Formatter) Rejection(e chessdto.DomainError) string {
	if e.Retryable {
		return e.Message + " (retry)"
	}
	return e.Message
}

func formatDifficulty(d string) string {
	if strings.TrimSpace(d) == "" {
		return defaultDifficulty
	}
	return strings.ToLower(d)
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func formatProfileSummary(profile *chessdto.ChessProfile, ratingDelta int) string {
	if profile == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("- rating %d", profile.Rating))
	switch {
	case ratingDelta > 0:
		sb.WriteString(fmt.Sprintf(" (+%d)", ratingDelta))
	case ratingDelta < 0:
		sb.WriteString(fmt.Sprintf(" (%d)", ratingDelta))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("- record %dW %dL %dD (%d games)\n", profile.Wins, profile.Losses, profile.Draws, profile.GamesPlayed))
	if profile.PreferredDifficulty != "" {
		sb.WriteString(fmt.Sprintf("- preferred difficulty %s\n", formatDifficulty(profile.PreferredDifficulty)))
	}
	return sb.String()
}

func formatStreakSuffix(streakType string) string {
	switch strings.ToLower(strings.TrimSpace(streakType)) {
	case "win":
		return "wins"
	case "loss":
		return "losses"
	case "draw":
		return "draws"
	default:
		return "games"
	}
}

func formatRecentMoves(moves []string) string {
	if len(moves) == 0 {
		return "-"
	}
	if len(moves) <= recentMovesLimit {
		return strings.Join(moves, " ")
	}
	return "... " + strings.Join(moves[len(moves)-recentMovesLimit:], " ")
}

func formatOutcome(state *chessdto.SessionState) string {
	method := methodPhrase(state.Result)
	switch state.Winner {
	case "":
		return "Game over."
	case "draw":
		return "Draw by " + method + "."
	case state.PlayerColor:
		return fmt.Sprintf("You won by %s.", method)
	default:
		return fmt.Sprintf("You lost by %s.", method)
	}
}

func methodPhrase(result string) string {
	switch result {
	case "resigned":
		return "resignation"
	case "draw_repetition":
		return "repetition"
	case "draw_fifty_move":
		return "the fifty-move rule"
	case "draw_insufficient_material":
		return "insufficient material"
	}
	return strings.ReplaceAll(result, "_", " ")
}

func formatResultBadge(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "win":
		return "won"
	case "loss":
		return "lost"
	case "draw":
		return "drew"
	default:
		return "unfinished"
	}
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatGameDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

func formatClocks(whiteMs, blackMs int64) string {
	return fmt.Sprintf("white %s, black %s", formatClock(whiteMs), formatClock(blackMs))
}

func formatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func formatMaterial(score chessdto.MaterialScore) string {
	switch diff := score.White - score.Black; {
	case diff > 0:
		return fmt.Sprintf("white +%d", diff)
	case diff < 0:
		return fmt.Sprintf("black +%d", -diff)
	}
	return "even"
}
