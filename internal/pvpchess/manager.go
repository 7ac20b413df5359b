package pvpchess

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/internal/chess/clock"
)

const (
	defaultGameTTL = 72 * time.Hour
	maxTxRetries   = 3
)

// ResultStore persists finished games.
type ResultStore interface {
	SaveResult(ctx context.Context, g *Game) error
}

type Options struct {
	GameTTL time.Duration
	// ClockInitial is each side's allotment for new games; zero is untimed.
	ClockInitial time.Duration
	Now          func() time.Time
	Logger       *zap.Logger
}

// Manager keeps online games in redis. Every mutation runs inside WATCH on
// the game key, so of two concurrent submissions for the same turn at most
// one commits.
type Manager struct {
	rdb     *redis.Client
	repo    ResultStore
	ttl     time.Duration
	initial time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

func NewManager(rdb *redis.Client, opts Options) *Manager {
	m := &Manager{rdb: rdb, ttl: opts.GameTTL, initial: opts.ClockInitial, now: opts.Now, logger: opts.Logger}
	if m.ttl <= 0 {
		m.ttl = defaultGameTTL
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// NewManagerFromURL dials REDIS_URL and verifies the connection.
func NewManagerFromURL(redisURL string, opts Options) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for PvP manager")
	}
	ropts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewManager(rdb, opts), nil
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// Client exposes the underlying redis client for components sharing it.
func (m *Manager) Client() *redis.Client { return m.rdb }

// AttachRepository wires a store for finished games.
func (m *Manager) AttachRepository(r ResultStore) {
	if m != nil {
		m.repo = r
	}
}

// CreateGame starts a new game between the creator and opponent, assigning
// colors by the creator's preference.
func (m *Manager) CreateGame(ctx context.Context, p NewGameParams) (*Game, error) {
	creator, opponent := strings.TrimSpace(p.CreatorID), strings.TrimSpace(p.OpponentID)
	if creator == "" || opponent == "" || creator == opponent {
		return nil, ErrInvalidArgs
	}
	start, err := chess.Replay(p.StartFEN, nil)
	if err != nil {
		return nil, err
	}

	whiteID, whiteName := creator, p.CreatorName
	blackID, blackName := opponent, p.OpponentName
	switch strings.ToLower(strings.TrimSpace(p.Color)) {
	case "white", "w":
	case "black", "b":
		whiteID, whiteName, blackID, blackName = blackID, blackName, whiteID, whiteName
	default:
		if n, _ := rand.Int(rand.Reader, big.NewInt(2)); n != nil && n.Int64() == 0 {
			whiteID, whiteName, blackID, blackName = blackID, blackName, whiteID, whiteName
		}
	}

	now := m.now()
	g := &Game{
		ID:        uuid.NewString(),
		FEN:       start.FEN(),
		MovesUCI:  []string{},
		MovesSAN:  []string{},
		Turn:      start.Turn().String(),
		Status:    StatusActive,
		Version:   1,
		WhiteID:   whiteID,
		WhiteName: strings.TrimSpace(whiteName),
		BlackID:   blackID,
		BlackName: strings.TrimSpace(blackName),
		Lobby:     p.Lobby,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if fen := strings.TrimSpace(p.StartFEN); fen != "" && fen != "startpos" {
		g.StartFEN = start.FEN()
	}
	if m.initial > 0 {
		g.InitialMs = m.initial.Milliseconds()
		g.WhiteMs, g.BlackMs = g.InitialMs, g.InitialMs
		g.TurnStartedAt = now
	}
	finish(g, start.Result())

	raw, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	ok, err := m.rdb.SetNX(ctx, gameKey(g.ID), raw, m.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	if err := m.indexParticipants(ctx, g.ID, g.WhiteID, g.BlackID); err != nil {
		return nil, err
	}
	m.logger.Info("pvp_game_create",
		zap.String("game_id", g.ID),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
		zap.String("lobby", g.Lobby),
		zap.Int64("initial_ms", g.InitialMs),
	)
	return g, nil
}

// Get returns the game by ID. A side to move whose clock has run out is
// flagged and the timeout is committed before returning.
func (m *Manager) Get(ctx context.Context, id string) (*Game, error) {
	g, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !flagged(g, m.now()) {
		return g, nil
	}
	return m.update(ctx, id, "pvp_timeout", func(cur *Game, now time.Time) (bool, error) {
		return claimTimeout(cur, now), nil
	})
}

// ActiveGameByUser returns the most recently updated active game for userID.
func (m *Manager) ActiveGameByUser(ctx context.Context, userID string) (*Game, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	ids, err := m.rdb.SMembers(ctx, idxUserKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	var list []*Game
	for _, id := range ids {
		g, gerr := m.load(ctx, id)
		if gerr == nil && g.Active() {
			list = append(list, g)
		}
	}
	if len(list) == 0 {
		return nil, nil
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list[0], nil
}

// LegalMoves lists the legal moves of the side to move in coordinate form,
// restricted to origin when it names a square.
func (m *Manager) LegalMoves(ctx context.Context, id, origin string) ([]string, error) {
	g, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	game, err := replay(g)
	if err != nil {
		return nil, err
	}
	var moves []chess.Move
	if origin = strings.TrimSpace(origin); origin != "" {
		sq, err := chess.ParseSquare(strings.ToLower(origin))
		if err != nil {
			return nil, err
		}
		moves = game.LegalMovesFrom(sq)
	} else {
		moves = game.LegalMoves()
	}
	out := make([]string, len(moves))
	for i, mv := range moves {
		out[i] = mv.String()
	}
	return out, nil
}

// SubmitMove validates and applies a move for req.PlayerID. On rejection the
// current game is returned alongside the error so callers can resync.
func (m *Manager) SubmitMove(ctx context.Context, req MoveRequest) (*Game, error) {
	if strings.TrimSpace(req.GameID) == "" || strings.TrimSpace(req.PlayerID) == "" {
		return nil, ErrInvalidArgs
	}
	return m.update(ctx, req.GameID, "pvp_move", func(cur *Game, now time.Time) (bool, error) {
		color, ok := cur.PlayerColor(req.PlayerID)
		if !ok {
			return false, ErrNotParticipant
		}
		if !cur.Active() {
			return false, chess.ErrGameOver
		}
		if claimTimeout(cur, now) {
			return true, chess.ErrGameOver
		}
		if cur.Turn != color.String() {
			return false, chess.ErrNotYourTurn
		}

		game, err := replay(cur)
		if err != nil {
			return false, err
		}
		mv, err := decodeRequest(game.Position(), req)
		if err != nil {
			return false, err
		}
		if _, err := game.Apply(mv); err != nil {
			return false, err
		}
		if cur.Timed() {
			white, black := cur.Remaining(now)
			cur.WhiteMs, cur.BlackMs = white.Milliseconds(), black.Milliseconds()
			cur.TurnStartedAt = now
		}
		syncFromGame(cur, game)
		return true, nil
	})
}

// Resign ends the game as a loss for playerID.
func (m *Manager) Resign(ctx context.Context, gameID, playerID string) (*Game, error) {
	if strings.TrimSpace(gameID) == "" || strings.TrimSpace(playerID) == "" {
		return nil, ErrInvalidArgs
	}
	return m.update(ctx, gameID, "pvp_resign", func(cur *Game, now time.Time) (bool, error) {
		color, ok := cur.PlayerColor(playerID)
		if !ok {
			return false, ErrNotParticipant
		}
		if !cur.Active() {
			return false, chess.ErrGameOver
		}
		if claimTimeout(cur, now) {
			return true, chess.ErrGameOver
		}
		stopClock(cur, now)
		finish(cur, chess.Result{Kind: chess.Resigned, Color: color})
		return true, nil
	})
}

// update runs fn on the freshest copy of the game inside WATCH and commits
// when fn asks for it. Lost races are retried; fn sees the new state.
func (m *Manager) update(ctx context.Context, id, event string, fn func(cur *Game, now time.Time) (bool, error)) (*Game, error) {
	key := gameKey(id)
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		var (
			out       *Game
			outErr    error
			committed []byte
		)
		err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrGameNotFound
			}
			if err != nil {
				return err
			}
			var cur Game
			if err := json.Unmarshal(raw, &cur); err != nil {
				return fmt.Errorf("decode game %s: %w", id, err)
			}
			now := m.now()
			write, ferr := fn(&cur, now)
			out, outErr = &cur, ferr
			if !write {
				return nil
			}
			cur.Version++
			cur.UpdatedAt = now
			next, err := json.Marshal(&cur)
			if err != nil {
				return err
			}
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, next, m.ttl)
				return nil
			}); err != nil {
				return err
			}
			committed = next
			return nil
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if committed != nil {
			m.afterCommit(ctx, out, committed, event)
		}
		return out, outErr
	}
	m.logger.Warn("pvp_tx_conflict", zap.String("game_id", id), zap.String("event", event))
	return nil, ErrConflict
}

func (m *Manager) afterCommit(ctx context.Context, g *Game, raw []byte, event string) {
	last := ""
	if n := len(g.MovesUCI); n > 0 {
		last = g.MovesUCI[n-1]
	}
	m.logger.Info(event,
		zap.String("game_id", g.ID),
		zap.Int64("version", g.Version),
		zap.String("turn", g.Turn),
		zap.String("last_uci", last),
		zap.String("status", string(g.Status)),
		zap.String("result", g.Result),
	)
	if err := m.rdb.Publish(ctx, eventsKey(g.ID), raw).Err(); err != nil {
		m.logger.Warn("pvp_publish_error", zap.String("game_id", g.ID), zap.Error(err))
	}
	if !g.Active() {
		_ = m.persistIfFinal(ctx, g)
	}
}

func decodeRequest(pos chess.Position, req MoveRequest) (chess.Move, error) {
	if text := strings.TrimSpace(req.Text); text != "" {
		return pos.DecodeMove(text)
	}
	coord := strings.TrimSpace(req.From) + strings.TrimSpace(req.To) + promotionLetter(req.Promotion)
	return chess.ParseCoordinate(coord)
}

func promotionLetter(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "q", "queen":
		return "q"
	case "r", "rook":
		return "r"
	case "b", "bishop":
		return "b"
	case "n", "knight":
		return "n"
	}
	return strings.TrimSpace(p)
}

func replay(g *Game) (*chess.Game, error) {
	game, err := chess.Replay(g.StartFEN, g.MovesUCI)
	if err != nil {
		return nil, fmt.Errorf("reconstruct game %s: %w", g.ID, err)
	}
	return game, nil
}

func syncFromGame(cur *Game, game *chess.Game) {
	cur.FEN = game.FEN()
	cur.MovesUCI = game.Moves()
	cur.MovesSAN = game.SANMoves()
	cur.Turn = game.Turn().String()
	finish(cur, game.Result())
}

func finish(cur *Game, res chess.Result) {
	if !res.Over() {
		return
	}
	cur.Result = res.Kind.String()
	if w, ok := res.Winner(); ok {
		cur.Outcome = w.String()
		cur.Winner = cur.playerID(w)
	} else {
		cur.Outcome = "draw"
	}
	switch {
	case res.Kind == chess.Resigned:
		cur.Status = StatusResigned
	case res.Kind == chess.TimeoutLoss:
		cur.Status = StatusTimeout
	case res.Draw():
		cur.Status = StatusDraw
	default:
		cur.Status = StatusFinished
	}
}

func flagged(g *Game, now time.Time) bool {
	if !g.Timed() || !g.Active() {
		return false
	}
	white, black := g.Remaining(now)
	if g.Turn == chess.White.String() {
		return white == 0
	}
	return black == 0
}

// claimTimeout ends the game if the side to move has run out of time.
func claimTimeout(cur *Game, now time.Time) bool {
	if !cur.Timed() || !cur.Active() {
		return false
	}
	side, _ := chess.ParseColor(cur.Turn)
	white, black := cur.Remaining(now)
	c := clock.Restore(white, black, side, true)
	if !c.Flagged(side) {
		return false
	}
	cur.WhiteMs, cur.BlackMs = white.Milliseconds(), black.Milliseconds()
	cur.TurnStartedAt = now
	finish(cur, chess.Result{Kind: chess.TimeoutLoss, Color: side})
	return true
}

func stopClock(cur *Game, now time.Time) {
	if !cur.Timed() {
		return
	}
	white, black := cur.Remaining(now)
	cur.WhiteMs, cur.BlackMs = white.Milliseconds(), black.Milliseconds()
	cur.TurnStartedAt = now
}

func (m *Manager) load(ctx context.Context, id string) (*Game, error) {
	raw, err := m.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &g, nil
}

func (m *Manager) indexParticipants(ctx context.Context, id string, players ...string) error {
	for _, p := range players {
		key := idxUserKey(p)
		if err := m.rdb.SAdd(ctx, key, id).Err(); err != nil {
			return err
		}
		_ = m.rdb.Expire(ctx, key, m.ttl).Err()
	}
	return nil
}

func (m *Manager) persistIfFinal(ctx context.Context, g *Game) error {
	if m.repo == nil || g.Active() {
		return nil
	}
	if err := m.repo.SaveResult(ctx, g); err != nil {
		m.logger.Error("pvp_result_persist_error", zap.String("game_id", g.ID), zap.String("result", g.Result), zap.Error(err))
		return err
	}
	m.logger.Info("pvp_result_persist", zap.String("game_id", g.ID), zap.String("result", g.Result), zap.String("outcome", g.Outcome))
	return nil
}

func gameKey(id string) string        { return "pvp:game:" + strings.TrimSpace(id) }
func eventsKey(id string) string      { return "pvp:events:" + strings.TrimSpace(id) }
func idxUserKey(userID string) string { return "pvp:index:user:" + strings.TrimSpace(userID) }

// ParseRedisURL converts redis://[:password@]host:port/db into client options.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q", p)
		}
		db = n
	}
	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "6379")
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{Addr: addr, Password: pass, DB: db}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: u.Hostname(), MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
