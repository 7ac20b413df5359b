package pvpchess

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Subscription delivers every committed state of one game, in commit order.
type Subscription struct {
	ps *redis.PubSub
	C  <-chan *Game
}

// Subscribe listens for changes to game id. The subscription is confirmed
// before Subscribe returns, so no later commit is missed.
func (m *Manager) Subscribe(ctx context.Context, id string) (*Subscription, error) {
	ps := m.rdb.Subscribe(ctx, eventsKey(id))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	out := make(chan *Game, 16)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var g Game
			if err := json.Unmarshal([]byte(msg.Payload), &g); err != nil {
				continue
			}
			select {
			case out <- &g:
			case <-ctx.Done():
				return
			}
		}
	}()
	return &Subscription{ps: ps, C: out}, nil
}

func (s *Subscription) Close() error {
	return s.ps.Close()
}
