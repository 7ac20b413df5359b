package chesspresenter

import (
	"time"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/internal/domain"
	"github.com/zachsimson/Lockedin-sub000/internal/pvpchan"
	"github.com/zachsimson/Lockedin-sub000/internal/pvpchess"
	svc "github.com/zachsimson/Lockedin-sub000/internal/service/chess"
	"github.com/zachsimson/Lockedin-sub000/internal/session"
	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

// FromSnapshot converts an in-process session view. Practice metadata such
// as difficulty and player color is left for the caller to fill in.
func FromSnapshot(snap session.Snapshot) *chessdto.SessionState {
	out := &chessdto.SessionState{
		State:     snap.State.Kind.String(),
		FEN:       snap.FEN,
		Turn:      snap.Turn.String(),
		InCheck:   snap.InCheck,
		MovesUCI:  append([]string(nil), snap.Moves...),
		MovesSAN:  append([]string(nil), snap.SANMoves...),
		LastMove:  snap.LastMove,
		MoveCount: snap.PlyCount,
		Material:  chessdto.MaterialScore{White: snap.Material[chess.White], Black: snap.Material[chess.Black]},
		Result:    snap.Result.Kind.String(),
		Timed:     snap.Timed,
		BotToMove: snap.BotToMove,
		Undoable:  snap.Undoable,
		Finished:  snap.Result.Over(),
	}
	if winner, ok := snap.Result.Winner(); ok {
		out.Winner = winner.String()
	} else if snap.Result.Draw() {
		out.Winner = "draw"
	}
	if snap.Timed {
		out.WhiteMs = snap.White.Milliseconds()
		out.BlackMs = snap.Black.Milliseconds()
	}
	return out
}

func ToDTOState(s *svc.SessionState) *chessdto.SessionState {
	if s == nil {
		return nil
	}
	out := FromSnapshot(s.Snapshot)
	out.SessionUUID = s.SessionUUID
	out.Difficulty = string(s.Difficulty)
	out.PlayerColor = s.PlayerColor.String()
	out.StartedAt = s.StartedAt
	out.Finished = s.Finished || out.Finished
	out.GameID = s.GameID
	out.RatingDelta = s.RatingDelta
	out.Profile = ToDTOProfile(s.Profile)
	return out
}

func ToDTOMoveSummary(m *svc.MoveSummary) *chessdto.MoveSummary {
	if m == nil {
		return nil
	}
	return &chessdto.MoveSummary{
		State:       ToDTOState(m.State),
		PlayerSAN:   m.PlayerSAN,
		PlayerUCI:   m.PlayerUCI,
		BotSAN:      m.BotSAN,
		BotUCI:      m.BotUCI,
		BotEvalCP:   m.BotEvalCP,
		Finished:    m.Finished,
		GameID:      m.GameID,
		Profile:     ToDTOProfile(m.Profile),
		RatingDelta: m.RatingDelta,
	}
}

func ToDTOProfile(p *domain.ChessProfile) *chessdto.ChessProfile {
	if p == nil {
		return nil
	}
	return &chessdto.ChessProfile{
		DisplayName:         p.DisplayName,
		PreferredDifficulty: p.PreferredDifficulty,
		Rating:              p.Rating,
		GamesPlayed:         p.GamesPlayed,
		Wins:                p.Wins,
		Losses:              p.Losses,
		Draws:               p.Draws,
		Streak:              p.Streak,
		StreakType:          p.StreakType,
		LastDifficulty:      p.LastDifficulty,
		LastPlayedAt:        p.LastPlayedAt,
	}
}

func ToDTOGames(list []*domain.ChessGame) []*chessdto.ChessGame {
	out := make([]*chessdto.ChessGame, 0, len(list))
	for _, g := range list {
		if g == nil {
			continue
		}
		out = append(out, ToDTOGame(g))
	}
	return out
}

func ToDTOGame(g *domain.ChessGame) *chessdto.ChessGame {
	if g == nil {
		return nil
	}
	return &chessdto.ChessGame{
		ID:           g.ID,
		SessionUUID:  g.SessionUUID,
		Difficulty:   g.Difficulty,
		PlayerColor:  g.PlayerColor,
		Result:       g.Result,
		ResultMethod: g.ResultMethod,
		MovesUCI:     append([]string(nil), g.MovesUCI...),
		MovesSAN:     append([]string(nil), g.MovesSAN...),
		PGN:          g.PGN,
		StartedAt:    g.StartedAt,
		EndedAt:      g.EndedAt,
		DurationMs:   g.Duration.Milliseconds(),
		BotLatencyMs: g.BotLatency.Milliseconds(),
	}
}

// ToDTOGameState converts an online game with clocks as of now.
func ToDTOGameState(g *pvpchess.Game, now time.Time) *chessdto.GameState {
	if g == nil {
		return nil
	}
	white, black := g.Remaining(now)
	out := &chessdto.GameState{
		ID:        g.ID,
		StartFEN:  g.StartFEN,
		FEN:       g.FEN,
		MovesUCI:  append([]string{}, g.MovesUCI...),
		MovesSAN:  append([]string{}, g.MovesSAN...),
		Turn:      g.Turn,
		Status:    string(g.Status),
		Result:    g.Result,
		Outcome:   g.Outcome,
		Winner:    g.Winner,
		Version:   g.Version,
		White:     chessdto.PlayerClock{ID: g.WhiteID, Name: g.WhiteName},
		Black:     chessdto.PlayerClock{ID: g.BlackID, Name: g.BlackName},
		InitialMs: g.InitialMs,
		Lobby:     g.Lobby,
		UpdatedAt: g.UpdatedAt,
	}
	if out.Result == "" {
		out.Result = chess.InProgress.String()
	}
	if g.Timed() {
		out.White.RemainingMs = white.Milliseconds()
		out.Black.RemainingMs = black.Milliseconds()
	}
	return out
}

func ToDTOLobby(m *pvpchan.LobbyMeta) *chessdto.Lobby {
	if m == nil {
		return nil
	}
	return &chessdto.Lobby{
		Code:        m.Code,
		State:       string(m.State),
		Color:       string(m.Color),
		CreatorID:   m.CreatorID,
		CreatorName: m.CreatorName,
		JoinerID:    m.JoinerID,
		JoinerName:  m.JoinerName,
		GameID:      m.GameID,
	}
}
