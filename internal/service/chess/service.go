package chess

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	corechess "github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/internal/chess/bot"
	"github.com/zachsimson/Lockedin-sub000/internal/domain"
	"github.com/zachsimson/Lockedin-sub000/internal/service/cache"
	"github.com/zachsimson/Lockedin-sub000/internal/session"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound   = errors.New("chess session not found")
	ErrSessionInProgress = errors.New("chess session already in progress")
	ErrGameNotFound      = errors.New("chess game not found")
	ErrProfileNotFound   = errors.New("chess profile not found")
	ErrUndoNotAvailable  = errors.New("no moves available to undo")
	ErrEngineTimeout     = errors.New("chess engine timeout")
	ErrInvalidInput      = errors.New("invalid practice request")
)

const (
	defaultBotTimeout    = 5 * time.Second
	maxHistoryLimit      = 50
	playerLabelRuneLimit = 24
	sessionKeyPrefix     = "chess:sessions:"
	profileKeyPrefix     = "chess:profile:"
)

// SessionMeta identifies the player a request acts for.
type SessionMeta struct {
	PlayerID   string
	PlayerName string
}

type Config struct {
	DefaultDifficulty bot.Difficulty
	SessionTTL        time.Duration
	HistoryLimit      int
	// ClockInitial gives each side a clock; zero plays untimed.
	ClockInitial time.Duration
	// BotDeferred leaves bot replies to BotMove instead of Play.
	BotDeferred bool
	BotTimeout  time.Duration
}

// Service runs practice games against the bot. Sessions live in redis
// between requests, so any server instance can serve the next move.
type Service struct {
	engine session.Chooser
	cache  *cache.CacheService
	repo   Repository
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

type sessionPayload struct {
	SessionUUID  string    `json:"session_uuid"`
	PlayerHash   string    `json:"player_hash"`
	PlayerName   string    `json:"player_name,omitempty"`
	Difficulty   string    `json:"difficulty"`
	PlayerColor  string    `json:"player_color"`
	Moves        []string  `json:"moves"`
	HasClocks    bool      `json:"has_clocks,omitempty"`
	WhiteMs      int64     `json:"white_ms,omitempty"`
	BlackMs      int64     `json:"black_ms,omitempty"`
	BotLatencyMs int64     `json:"bot_latency_ms,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionState is a practice session as seen by the player.
type SessionState struct {
	SessionUUID string
	PlayerHash  string
	PlayerName  string
	Difficulty  bot.Difficulty
	PlayerColor corechess.Color
	Snapshot    session.Snapshot
	StartedAt   time.Time
	UpdatedAt   time.Time
	Finished    bool
	GameID      int64
	RatingDelta int
	Profile     *domain.ChessProfile
}

type MoveSummary struct {
	State       *SessionState
	PlayerSAN   string
	PlayerUCI   string
	BotSAN      string
	BotUCI      string
	BotEvalCP   int
	Finished    bool
	GameID      int64
	Profile     *domain.ChessProfile
	RatingDelta int
}

// loaded is a restored session together with the payload it came from.
type loaded struct {
	key     string
	payload *sessionPayload
	sess    *session.Session
	color   corechess.Color
}

func NewService(engine session.Chooser, cacheSvc *cache.CacheService, repo Repository, cfg Config, logger *zap.Logger) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("chess engine is required")
	}
	if cacheSvc == nil {
		return nil, fmt.Errorf("cache service is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("chess repository is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}
	if cfg.DefaultDifficulty == "" {
		cfg.DefaultDifficulty = bot.Medium
	}
	if _, err := bot.GetPreset(string(cfg.DefaultDifficulty)); err != nil {
		return nil, fmt.Errorf("default difficulty validation failed: %w", err)
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = 10
	}
	if cfg.BotTimeout <= 0 {
		cfg.BotTimeout = defaultBotTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine: engine,
		cache:  cacheSvc,
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Start opens a practice game. An existing session is returned unchanged
// together with ErrSessionInProgress. color is "white", "black", "random"
// or empty for white.
func (s *Service) Start(ctx context.Context, meta SessionMeta, difficulty, color string) (*SessionState, error) {
	playerHash := hashPlayer(meta.PlayerID)
	if playerHash == "" {
		return nil, fmt.Errorf("%w: player id must be provided", ErrInvalidInput)
	}

	existing, err := s.load(ctx, playerHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		state := s.stateFrom(existing)
		if profile, profErr := s.fetchProfile(ctx, playerHash, true); profErr == nil {
			state.Profile = profile
		}
		return state, ErrSessionInProgress
	}

	profile, err := s.fetchProfile(ctx, playerHash, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	chosen := strings.TrimSpace(difficulty)
	if chosen == "" {
		if profile != nil && profile.PreferredDifficulty != "" {
			chosen = profile.PreferredDifficulty
		} else {
			chosen = string(s.cfg.DefaultDifficulty)
		}
	}
	preset, err := bot.GetPreset(chosen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	playerColor, err := pickColor(color)
	if err != nil {
		return nil, err
	}

	now := s.now()
	payload := &sessionPayload{
		SessionUUID: uuid.NewString(),
		PlayerHash:  playerHash,
		PlayerName:  normalizePlayerLabel(meta.PlayerName),
		Difficulty:  string(preset.Name),
		PlayerColor: playerColor.String(),
		Moves:       []string{},
		StartedAt:   now,
		UpdatedAt:   now,
	}
	l, err := s.restore(sessionKey(playerHash), payload)
	if err != nil {
		return nil, err
	}

	if l.sess.Snapshot().BotToMove && !s.cfg.BotDeferred {
		if _, err := s.playBot(ctx, l); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("practice_session_started",
		zap.String("session_uuid", payload.SessionUUID),
		zap.String("difficulty", payload.Difficulty),
		zap.String("player_color", payload.PlayerColor),
	)
	state := s.stateFrom(l)
	state.Profile = profile
	return state, nil
}

// Status returns the active session. A clock that ran out while the player
// was away finishes the game here.
func (s *Service) Status(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	l, err := s.mustLoad(ctx, meta)
	if err != nil {
		return nil, err
	}
	if l.sess.Snapshot().State.Kind == session.Terminal {
		summary, err := s.finish(ctx, l, &MoveSummary{})
		if err != nil {
			return nil, err
		}
		return summary.State, nil
	}
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	state := s.stateFrom(l)
	if profile, profErr := s.fetchProfile(ctx, l.payload.PlayerHash, true); profErr == nil {
		state.Profile = profile
	}
	return state, nil
}

// Play applies the player's move given as coordinate or SAN text and, unless
// bot replies are deferred, the bot's answer.
func (s *Service) Play(ctx context.Context, meta SessionMeta, moveText string) (*MoveSummary, error) {
	l, err := s.mustLoad(ctx, meta)
	if err != nil {
		return nil, err
	}
	if l.sess.Snapshot().State.Kind == session.Terminal {
		summary, finErr := s.finish(ctx, l, &MoveSummary{})
		if finErr != nil {
			return nil, finErr
		}
		return summary, corechess.ErrGameOver
	}

	snap, err := l.sess.SubmitText(moveText)
	if err != nil {
		return nil, err
	}
	summary := &MoveSummary{
		PlayerUCI: snap.LastMove,
		PlayerSAN: snap.SANMoves[len(snap.SANMoves)-1],
	}

	if snap.BotToMove && !s.cfg.BotDeferred {
		if err := s.replyInto(ctx, l, summary); err != nil {
			return nil, err
		}
	}
	return s.settle(ctx, l, summary)
}

// BotMove plays a pending bot turn. It is the only way the bot moves when
// replies are deferred, and retries a reply that previously timed out.
func (s *Service) BotMove(ctx context.Context, meta SessionMeta) (*MoveSummary, error) {
	l, err := s.mustLoad(ctx, meta)
	if err != nil {
		return nil, err
	}
	summary := &MoveSummary{}
	if err := s.replyInto(ctx, l, summary); err != nil {
		return nil, err
	}
	return s.settle(ctx, l, summary)
}

func (s *Service) replyInto(ctx context.Context, l *loaded, summary *MoveSummary) error {
	snap, err := s.playBot(ctx, l)
	if err != nil {
		if errors.Is(err, ErrEngineTimeout) {
			if saveErr := s.save(ctx, l); saveErr != nil {
				s.logger.Warn("practice_session_save_failed", zap.Error(saveErr))
			}
		}
		return err
	}
	summary.BotUCI = snap.LastMove
	summary.BotSAN = snap.SANMoves[len(snap.SANMoves)-1]
	if snap.LastBot != nil {
		summary.BotEvalCP = snap.LastBot.EvalCP
	}
	return nil
}

func (s *Service) playBot(ctx context.Context, l *loaded) (session.Snapshot, error) {
	evalCtx, cancel := context.WithTimeout(ctx, s.cfg.BotTimeout)
	defer cancel()

	start := time.Now()
	snap, err := l.sess.PlayBotMove(evalCtx)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.logger.Warn("practice_bot_timeout",
				zap.String("session_uuid", l.payload.SessionUUID),
				zap.String("difficulty", l.payload.Difficulty),
				zap.Duration("timeout", s.cfg.BotTimeout),
			)
			return snap, ErrEngineTimeout
		}
		return snap, err
	}
	l.payload.BotLatencyMs += elapsed.Milliseconds()
	s.logger.Debug("practice_bot_move",
		zap.String("session_uuid", l.payload.SessionUUID),
		zap.String("move", snap.LastMove),
		zap.Duration("elapsed", elapsed),
	)
	return snap, nil
}

// settle persists a finished game or saves the running session.
func (s *Service) settle(ctx context.Context, l *loaded, summary *MoveSummary) (*MoveSummary, error) {
	if l.sess.Snapshot().State.Kind == session.Terminal {
		return s.finish(ctx, l, summary)
	}
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	summary.State = s.stateFrom(l)
	return summary, nil
}

func (s *Service) finish(ctx context.Context, l *loaded, summary *MoveSummary) (*MoveSummary, error) {
	gameID, profile, delta, err := s.persistFinishedGame(ctx, l)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Del(ctx, l.key); err != nil {
		s.logger.Warn("failed to delete finished chess session", zap.Error(err))
	}
	state := s.stateFrom(l)
	state.Finished = true
	state.GameID = gameID
	state.Profile = profile
	state.RatingDelta = delta

	summary.State = state
	summary.Finished = true
	summary.GameID = gameID
	summary.Profile = profile
	summary.RatingDelta = delta
	return summary, nil
}

// Undo takes back the player's last move and the bot reply after it.
func (s *Service) Undo(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	l, err := s.mustLoad(ctx, meta)
	if err != nil {
		return nil, err
	}
	if !playerHasMoved(l.color, len(l.payload.Moves)) {
		return nil, ErrUndoNotAvailable
	}
	if _, err := l.sess.Undo(); err != nil {
		if errors.Is(err, corechess.ErrNoHistory) {
			return nil, ErrUndoNotAvailable
		}
		return nil, err
	}
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}
	state := s.stateFrom(l)
	if profile, profErr := s.fetchProfile(ctx, l.payload.PlayerHash, true); profErr == nil {
		state.Profile = profile
	}
	return state, nil
}

func (s *Service) Resign(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	l, err := s.mustLoad(ctx, meta)
	if err != nil {
		return nil, err
	}
	if _, err := l.sess.Resign(l.color); err != nil && !errors.Is(err, corechess.ErrGameOver) {
		return nil, err
	}
	summary, err := s.finish(ctx, l, &MoveSummary{})
	if err != nil {
		return nil, err
	}
	if summary.GameID == 0 {
		s.logger.Warn("resigned chess game did not persist with id")
	}
	return summary.State, nil
}

// LegalMoves lists the coordinate moves available to the side to move,
// restricted to origin when it names a square.
func (s *Service) LegalMoves(ctx context.Context, meta SessionMeta, origin string) ([]string, error) {
	l, err := s.mustLoad(ctx, meta)
	if err != nil {
		return nil, err
	}
	sq := corechess.NoSquare
	if strings.TrimSpace(origin) != "" {
		if sq, err = corechess.ParseSquare(origin); err != nil {
			return nil, err
		}
	}
	moves := l.sess.LegalMoves(sq)
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out, nil
}

func (s *Service) History(ctx context.Context, meta SessionMeta, limit int) ([]*domain.ChessGame, error) {
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	return s.repo.GetRecentGames(ctx, hashPlayer(meta.PlayerID), limit)
}

func (s *Service) Game(ctx context.Context, meta SessionMeta, id int64) (*domain.ChessGame, error) {
	game, err := s.repo.GetGame(ctx, id, hashPlayer(meta.PlayerID))
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

func (s *Service) Profile(ctx context.Context, meta SessionMeta) (*domain.ChessProfile, error) {
	return s.fetchProfile(ctx, hashPlayer(meta.PlayerID), true)
}

func (s *Service) UpdatePreferredDifficulty(ctx context.Context, meta SessionMeta, difficulty string) (*domain.ChessProfile, error) {
	if strings.TrimSpace(difficulty) == "" {
		return nil, fmt.Errorf("%w: difficulty must be provided", ErrInvalidInput)
	}
	preset, err := bot.GetPreset(difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	playerHash := hashPlayer(meta.PlayerID)

	profile, err := s.fetchProfile(ctx, playerHash, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}
	now := s.now()
	if profile == nil {
		profile = newProfile(playerHash, now)
	}
	if name := normalizePlayerLabel(meta.PlayerName); name != "" {
		profile.DisplayName = name
	}
	profile.PreferredDifficulty = string(preset.Name)
	profile.UpdatedAt = now

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.cacheProfile(ctx, profile)
	return profile, nil
}

func (s *Service) mustLoad(ctx context.Context, meta SessionMeta) (*loaded, error) {
	l, err := s.load(ctx, hashPlayer(meta.PlayerID))
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrSessionNotFound
	}
	return l, nil
}

// load restores the stored session and charges the side to move for the
// time since it was last saved.
func (s *Service) load(ctx context.Context, playerHash string) (*loaded, error) {
	if playerHash == "" {
		return nil, nil
	}
	key := sessionKey(playerHash)
	payload := &sessionPayload{}
	found, err := s.cache.Get(ctx, key, payload)
	if err != nil {
		return nil, err
	}
	if !found || payload.SessionUUID == "" {
		return nil, nil
	}
	l, err := s.restore(key, payload)
	if err != nil {
		return nil, err
	}
	if payload.HasClocks {
		if away := s.now().Sub(payload.UpdatedAt); away > 0 {
			l.sess.Tick(away)
		}
	}
	return l, nil
}

func (s *Service) restore(key string, payload *sessionPayload) (*loaded, error) {
	color, ok := corechess.ParseColor(payload.PlayerColor)
	if !ok {
		return nil, fmt.Errorf("stored session has invalid color %q", payload.PlayerColor)
	}
	cfg := session.Config{
		White:      session.Human,
		Black:      session.Bot,
		Difficulty: bot.Difficulty(payload.Difficulty),
		Initial:    s.cfg.ClockInitial,
		DeferBot:   true,
	}
	if color == corechess.Black {
		cfg.White, cfg.Black = session.Bot, session.Human
	}
	sess, err := session.Restore(cfg, s.engine, session.Record{
		Moves:     payload.Moves,
		White:     time.Duration(payload.WhiteMs) * time.Millisecond,
		Black:     time.Duration(payload.BlackMs) * time.Millisecond,
		HasClocks: payload.HasClocks,
	})
	if err != nil {
		return nil, fmt.Errorf("restore chess session: %w", err)
	}
	return &loaded{key: key, payload: payload, sess: sess, color: color}, nil
}

func (s *Service) save(ctx context.Context, l *loaded) error {
	rec := l.sess.Export()
	l.payload.Moves = rec.Moves
	l.payload.HasClocks = rec.HasClocks
	l.payload.WhiteMs = rec.White.Milliseconds()
	l.payload.BlackMs = rec.Black.Milliseconds()
	l.payload.UpdatedAt = s.now()
	return s.cache.Set(ctx, l.key, l.payload, s.cfg.SessionTTL)
}

func (s *Service) stateFrom(l *loaded) *SessionState {
	return &SessionState{
		SessionUUID: l.payload.SessionUUID,
		PlayerHash:  l.payload.PlayerHash,
		PlayerName:  l.payload.PlayerName,
		Difficulty:  bot.Difficulty(l.payload.Difficulty),
		PlayerColor: l.color,
		Snapshot:    l.sess.Snapshot(),
		StartedAt:   l.payload.StartedAt,
		UpdatedAt:   l.payload.UpdatedAt,
	}
}

func playerHasMoved(color corechess.Color, plies int) bool {
	if color == corechess.White {
		return plies >= 1
	}
	return plies >= 2
}

func pickColor(raw string) (corechess.Color, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	switch token {
	case "":
		return corechess.White, nil
	case "random":
		if rand.IntN(2) == 0 {
			return corechess.White, nil
		}
		return corechess.Black, nil
	}
	c, ok := corechess.ParseColor(token)
	if !ok {
		return corechess.White, fmt.Errorf("%w: unknown color %q", ErrInvalidInput, raw)
	}
	return c, nil
}

func sessionKey(playerHash string) string {
	return sessionKeyPrefix + playerHash
}

func profileCacheKey(playerHash string) string {
	return profileKeyPrefix + playerHash
}

func hashPlayer(playerID string) string {
	id := strings.ToLower(strings.TrimSpace(playerID))
	if id == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

func normalizePlayerLabel(raw string) string {
	cleaned := strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(raw))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return ""
	}
	runes := []rune(cleaned)
	if len(runes) > playerLabelRuneLimit {
		return strings.TrimSpace(string(runes[:playerLabelRuneLimit])) + "..."
	}
	return cleaned
}
