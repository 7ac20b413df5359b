package pvpchan

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store { return &Store{rdb: rdb, ttl: ttl} }

func (s *Store) keyMeta(code string) string    { return "lobby:" + strings.TrimSpace(code) }
func (s *Store) keyUserIdx(user string) string { return "lobby:index:user:" + strings.TrimSpace(user) }
func (s *Store) keyOpen() string               { return "lobby:open" }

func (s *Store) SaveMeta(ctx context.Context, meta *LobbyMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.keyMeta(meta.Code), raw, s.ttl).Err()
}

func (s *Store) LoadMeta(ctx context.Context, code string) (*LobbyMeta, error) {
	raw, err := s.rdb.Get(ctx, s.keyMeta(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m LobbyMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) IndexUser(ctx context.Context, userID, code string) error {
	if err := s.rdb.SAdd(ctx, s.keyUserIdx(userID), code).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, s.keyUserIdx(userID), s.ttl).Err()
}

func (s *Store) CodesByUser(ctx context.Context, userID string) ([]string, error) {
	return s.rdb.SMembers(ctx, s.keyUserIdx(userID)).Result()
}

func (s *Store) AddOpen(ctx context.Context, code string) error {
	if err := s.rdb.SAdd(ctx, s.keyOpen(), code).Err(); err != nil {
		return err
	}
	_ = s.rdb.Expire(ctx, s.keyOpen(), s.ttl).Err()
	return nil
}

func (s *Store) RemoveOpen(ctx context.Context, code string) error {
	return s.rdb.SRem(ctx, s.keyOpen(), code).Err()
}

// ListOpen returns lobbies still waiting for an opponent. Expired codes are
// pruned from the index as they are found.
func (s *Store) ListOpen(ctx context.Context) ([]*LobbyMeta, error) {
	codes, err := s.rdb.SMembers(ctx, s.keyOpen()).Result()
	if err != nil {
		return nil, err
	}
	var out []*LobbyMeta
	for _, c := range codes {
		m, err := s.LoadMeta(ctx, c)
		if err != nil {
			return nil, err
		}
		if m == nil || m.State != StateLobby {
			_ = s.RemoveOpen(ctx, c)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// codeGen returns 6 upper-case alphanumerics.
func codeGen() (string, error) {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b), nil
}
