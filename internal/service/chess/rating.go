package chess

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	corechess "github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/internal/chess/bot"
	"github.com/zachsimson/Lockedin-sub000/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultPlayerRating = 1200
	kFactor             = 24
	profileCacheTTL     = 6 * time.Hour
	botDisplayName      = "Lockedin Bot"
)

// Player-relative outcomes stored with games and streaks.
const (
	outcomeWin  = "win"
	outcomeLoss = "loss"
	outcomeDraw = "draw"
)

func (s *Service) persistFinishedGame(ctx context.Context, l *loaded) (int64, *domain.ChessProfile, int, error) {
	snap := l.sess.Snapshot()
	outcome := playerOutcome(snap.Result, l.color)
	now := s.now()

	record := &domain.ChessGame{
		SessionUUID:  l.payload.SessionUUID,
		PlayerHash:   l.payload.PlayerHash,
		Difficulty:   l.payload.Difficulty,
		PlayerColor:  l.color.String(),
		Result:       outcome,
		ResultMethod: snap.Result.Kind.String(),
		MovesUCI:     snap.Moves,
		MovesSAN:     snap.SANMoves,
		PGN:          s.buildPGN(l),
		StartedAt:    l.payload.StartedAt,
		EndedAt:      now,
		Duration:     now.Sub(l.payload.StartedAt),
		BotLatency:   time.Duration(l.payload.BotLatencyMs) * time.Millisecond,
	}

	gameID, err := s.repo.InsertGame(ctx, record)
	if err != nil {
		if !errors.Is(err, ErrDuplicateGame) {
			return 0, nil, 0, err
		}
		existing, fetchErr := s.repo.GetGameBySession(ctx, l.payload.SessionUUID, l.payload.PlayerHash)
		if fetchErr != nil || existing == nil {
			return 0, nil, 0, err
		}
		profile, profErr := s.fetchProfile(ctx, l.payload.PlayerHash, true)
		if profErr != nil && !errors.Is(profErr, ErrProfileNotFound) {
			return existing.ID, nil, 0, profErr
		}
		return existing.ID, profile, 0, nil
	}

	profile, err := s.fetchProfile(ctx, l.payload.PlayerHash, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return gameID, nil, 0, err
	}
	if profile == nil {
		profile = newProfile(l.payload.PlayerHash, now)
	}
	if l.payload.PlayerName != "" {
		profile.DisplayName = l.payload.PlayerName
	}
	delta := applyGameResult(profile, bot.Difficulty(l.payload.Difficulty), outcome, now)

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return gameID, nil, 0, err
	}
	s.cacheProfile(ctx, profile)

	s.logger.Info("practice_game_finished",
		zap.Int64("game_id", gameID),
		zap.String("session_uuid", l.payload.SessionUUID),
		zap.String("result", outcome),
		zap.String("method", record.ResultMethod),
		zap.Int("plies", len(record.MovesUCI)),
		zap.Int("rating_delta", delta),
	)
	return gameID, profile, delta, nil
}

func (s *Service) buildPGN(l *loaded) string {
	player := l.payload.PlayerName
	if player == "" {
		player = "Player"
	}
	opponent := fmt.Sprintf("%s (%s)", botDisplayName, l.payload.Difficulty)
	white, black := player, opponent
	if l.color == corechess.Black {
		white, black = opponent, player
	}
	return l.sess.PGN(
		corechess.Tag{Name: "Event", Value: "Practice"},
		corechess.Tag{Name: "Site", Value: "Lockedin"},
		corechess.Tag{Name: "Date", Value: l.payload.StartedAt.UTC().Format("2006.01.02")},
		corechess.Tag{Name: "White", Value: white},
		corechess.Tag{Name: "Black", Value: black},
	)
}

func (s *Service) fetchProfile(ctx context.Context, playerHash string, allowCache bool) (*domain.ChessProfile, error) {
	if allowCache {
		cached := &domain.ChessProfile{}
		found, err := s.cache.Get(ctx, profileCacheKey(playerHash), cached)
		if err != nil {
			s.logger.Warn("chess profile cache read failed", zap.Error(err))
		}
		if found && cached.PlayerHash != "" {
			return cached, nil
		}
	}

	stored, err := s.repo.GetProfile(ctx, playerHash)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrProfileNotFound
	}
	s.cacheProfile(ctx, stored)
	return stored, nil
}

func (s *Service) cacheProfile(ctx context.Context, profile *domain.ChessProfile) {
	if profile == nil {
		return
	}
	if err := s.cache.Set(ctx, profileCacheKey(profile.PlayerHash), profile, profileCacheTTL); err != nil {
		s.logger.Warn("failed to cache chess profile", zap.Error(err))
	}
}

func newProfile(playerHash string, now time.Time) *domain.ChessProfile {
	return &domain.ChessProfile{
		PlayerHash: playerHash,
		Rating:     defaultPlayerRating,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func playerOutcome(res corechess.Result, player corechess.Color) string {
	winner, ok := res.Winner()
	switch {
	case !ok:
		return outcomeDraw
	case winner == player:
		return outcomeWin
	default:
		return outcomeLoss
	}
}

// applyGameResult updates counters and streak and moves the rating by Elo
// against the preset's nominal strength. It returns the rating change.
func applyGameResult(profile *domain.ChessProfile, difficulty bot.Difficulty, outcome string, endedAt time.Time) int {
	prevRating := profile.Rating
	if prevRating == 0 {
		prevRating = defaultPlayerRating
		profile.Rating = defaultPlayerRating
	}

	profile.GamesPlayed++
	profile.LastDifficulty = string(difficulty)
	profile.LastPlayedAt = endedAt
	profile.UpdatedAt = endedAt

	var score float64
	switch outcome {
	case outcomeWin:
		profile.Wins++
		score = 1.0
	case outcomeLoss:
		profile.Losses++
		score = 0.0
	default:
		profile.Draws++
		score = 0.5
	}

	if profile.StreakType == outcome {
		profile.Streak++
	} else {
		profile.Streak = 1
		profile.StreakType = outcome
	}

	botRating := defaultPlayerRating
	if preset, err := bot.GetPreset(string(difficulty)); err == nil {
		botRating = preset.Rating
	}
	expected := 1 / (1 + math.Pow(10, float64(botRating-profile.Rating)/400))
	profile.Rating = int(math.Round(float64(profile.Rating) + kFactor*(score-expected)))

	return profile.Rating - prevRating
}
