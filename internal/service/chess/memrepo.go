package chess

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/zachsimson/Lockedin-sub000/internal/domain"
)

// memrepo is the in-memory Repository used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID    map[int64]*domain.ChessGame
	gamesByUser  map[string][]*domain.ChessGame
	gamesByIndex map[string]*domain.ChessGame // sessionUUID|playerHash

	profiles map[string]*domain.ChessProfile
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:    make(map[int64]*domain.ChessGame),
		gamesByUser:  make(map[string][]*domain.ChessGame),
		gamesByIndex: make(map[string]*domain.ChessGame),
		profiles:     make(map[string]*domain.ChessProfile),
	}
}

func (m *memrepo) InsertGame(ctx context.Context, game *domain.ChessGame) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}
	key := sessionIndexKey(game.SessionUUID, game.PlayerHash)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.gamesByIndex[key]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	stored := *game
	stored.ID = m.nextID
	m.gamesByID[stored.ID] = &stored
	m.gamesByIndex[key] = &stored
	m.gamesByUser[game.PlayerHash] = append(m.gamesByUser[game.PlayerHash], &stored)
	return stored.ID, nil
}

func (m *memrepo) GetRecentGames(ctx context.Context, playerHash string, limit int) ([]*domain.ChessGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]*domain.ChessGame, 0, len(m.gamesByUser[playerHash]))
	for _, g := range m.gamesByUser[playerHash] {
		cp := *g
		items = append(items, &cp)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetGame(ctx context.Context, id int64, playerHash string) (*domain.ChessGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gamesByID[id]
	if !ok || g.PlayerHash != playerHash {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *memrepo) GetGameBySession(ctx context.Context, sessionUUID string, playerHash string) (*domain.ChessGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.gamesByIndex[sessionIndexKey(sessionUUID, playerHash)]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (m *memrepo) GetProfile(ctx context.Context, playerHash string) (*domain.ChessProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[strings.TrimSpace(playerHash)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memrepo) UpsertProfile(ctx context.Context, profile *domain.ChessProfile) error {
	if profile == nil {
		return nil
	}
	cp := *profile
	m.mu.Lock()
	m.profiles[strings.TrimSpace(profile.PlayerHash)] = &cp
	m.mu.Unlock()
	return nil
}

func sessionIndexKey(sessionUUID, playerHash string) string {
	return strings.TrimSpace(sessionUUID) + "|" + strings.TrimSpace(playerHash)
}
