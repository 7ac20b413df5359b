package pvpchan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zachsimson/Lockedin-sub000/internal/pvpchess"
)

const defaultLobbyTTL = 10 * time.Minute

// Manager pairs two players through a short lobby code and starts their
// online game when the second player joins.
type Manager struct {
	rdb    *redis.Client
	store  *Store
	pvp    *pvpchess.Manager
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(rdb *redis.Client, pvp *pvpchess.Manager, ttl time.Duration, logger *zap.Logger) *Manager {
	if ttl <= 0 {
		ttl = defaultLobbyTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{rdb: rdb, store: NewStore(rdb, ttl), pvp: pvp, logger: logger, now: time.Now}
}

// Make opens a lobby for userID. A player with an active game or another
// open lobby cannot open a new one.
func (m *Manager) Make(ctx context.Context, userID, userName string, color ColorChoice) (*MakeResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidArgs
	}
	if g, err := m.pvp.ActiveGameByUser(ctx, userID); err != nil {
		return nil, err
	} else if g != nil {
		return nil, ErrPlayerBusy
	}
	if open, err := m.openLobbyOf(ctx, userID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, ErrCreatorHasLobby
	}

	for i := 0; i < 5; i++ {
		code, err := codeGen()
		if err != nil {
			return nil, err
		}
		meta := &LobbyMeta{
			Code:        code,
			State:       StateLobby,
			CreatedAt:   m.now(),
			Color:       ParseColorChoice(string(color)),
			CreatorID:   userID,
			CreatorName: strings.TrimSpace(userName),
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return nil, err
		}
		ok, err := m.rdb.SetNX(ctx, m.store.keyMeta(code), raw, m.store.ttl).Result()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := m.store.IndexUser(ctx, userID, code); err != nil {
			return nil, err
		}
		if err := m.store.AddOpen(ctx, code); err != nil {
			return nil, err
		}
		m.logger.Info("lobby_make", zap.String("code", code), zap.String("creator_id", userID), zap.String("color", string(meta.Color)))
		return &MakeResult{Code: code, Meta: meta}, nil
	}
	return nil, fmt.Errorf("failed to allocate lobby code")
}

// Join claims the lobby for userID and creates the game. The claim runs in
// WATCH on the lobby key, so only one joiner can win a lobby.
func (m *Manager) Join(ctx context.Context, code, userID, userName string) (*JoinResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	userID = strings.TrimSpace(userID)
	if code == "" || userID == "" {
		return nil, ErrInvalidArgs
	}
	if g, err := m.pvp.ActiveGameByUser(ctx, userID); err != nil {
		return nil, err
	} else if g != nil {
		return nil, ErrPlayerBusy
	}

	meta, err := m.transition(ctx, code, func(meta *LobbyMeta) error {
		switch {
		case meta.State != StateLobby:
			return ErrLobbyStarted
		case meta.CreatorID == userID:
			return ErrSelfJoin
		}
		meta.State = StateActive
		meta.JoinerID = userID
		meta.JoinerName = strings.TrimSpace(userName)
		return nil
	})
	if err != nil {
		m.logger.Warn("lobby_join_error", zap.String("code", code), zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	g, err := m.pvp.CreateGame(ctx, pvpchess.NewGameParams{
		CreatorID:    meta.CreatorID,
		CreatorName:  meta.CreatorName,
		OpponentID:   meta.JoinerID,
		OpponentName: meta.JoinerName,
		Color:        string(meta.Color),
		Lobby:        code,
	})
	if err != nil {
		meta.State, meta.JoinerID, meta.JoinerName = StateLobby, "", ""
		if rerr := m.store.SaveMeta(ctx, meta); rerr != nil {
			m.logger.Error("lobby_release_error", zap.String("code", code), zap.Error(rerr))
		}
		return nil, err
	}
	meta.GameID = g.ID
	if err := m.store.SaveMeta(ctx, meta); err != nil {
		return nil, err
	}
	_ = m.store.IndexUser(ctx, userID, code)
	_ = m.store.RemoveOpen(ctx, code)
	m.logger.Info("lobby_start_game",
		zap.String("code", code),
		zap.String("game_id", g.ID),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
	)
	return &JoinResult{GameID: g.ID, Meta: meta}, nil
}

// Cancel closes an open lobby. Only its creator may cancel it, and a lobby
// that a joiner has already claimed stays active.
func (m *Manager) Cancel(ctx context.Context, code, userID string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	userID = strings.TrimSpace(userID)
	meta, err := m.transition(ctx, code, func(meta *LobbyMeta) error {
		if meta.CreatorID != userID {
			return ErrInvalidArgs
		}
		if meta.State != StateLobby {
			return ErrLobbyStarted
		}
		meta.State = StateCancelled
		return nil
	})
	if err != nil {
		return err
	}
	m.logger.Info("lobby_cancel", zap.String("code", meta.Code), zap.String("creator_id", meta.CreatorID))
	return m.store.RemoveOpen(ctx, meta.Code)
}

// transition applies fn to the stored lobby inside WATCH on its key. A
// concurrent write between the read and the commit fails the transition
// with ErrLobbyStarted.
func (m *Manager) transition(ctx context.Context, code string, fn func(meta *LobbyMeta) error) (*LobbyMeta, error) {
	key := m.store.keyMeta(code)
	var meta LobbyMeta
	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrLobbyGone
		}
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &meta); err != nil {
			return err
		}
		if err := fn(&meta); err != nil {
			return err
		}
		next, err := json.Marshal(&meta)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, redis.KeepTTL)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrLobbyStarted
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (m *Manager) Get(ctx context.Context, code string) (*LobbyMeta, error) {
	meta, err := m.store.LoadMeta(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, ErrLobbyGone
	}
	return meta, nil
}

// ListOpen returns lobbies waiting for an opponent.
func (m *Manager) ListOpen(ctx context.Context) ([]*LobbyMeta, error) {
	return m.store.ListOpen(ctx)
}

func (m *Manager) openLobbyOf(ctx context.Context, userID string) (*LobbyMeta, error) {
	codes, err := m.store.CodesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range codes {
		meta, err := m.store.LoadMeta(ctx, c)
		if err != nil {
			return nil, err
		}
		if meta != nil && meta.State == StateLobby && meta.CreatorID == userID {
			return meta, nil
		}
	}
	return nil, nil
}
