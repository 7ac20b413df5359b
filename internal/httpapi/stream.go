package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/zachsimson/Lockedin-sub000/internal/adapter/chesspresenter"
	"github.com/zachsimson/Lockedin-sub000/internal/pvpchess"
)

const streamWriteTimeout = 5 * time.Second

// streamGame upgrades to a websocket and pushes the game state once on
// connect and again after every committed change. The socket closes
// normally once the game is over.
func (s *Server) streamGame(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	g, err := s.games.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := s.games.Subscribe(subCtx, id)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	defer sub.Close()

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Warn("ws_accept_failed", zap.String("game_id", id), zap.Error(err))
		return
	}
	defer c.Close(websocket.StatusInternalError, "stream aborted")

	ctx := c.CloseRead(r.Context())
	// Re-read after subscribing so a commit between Get and Subscribe is seen.
	if fresh, err := s.games.Get(ctx, id); err == nil {
		g = fresh
	}
	if err := s.push(ctx, c, g); err != nil {
		return
	}
	last := g.Version
	for g.Active() {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-sub.C:
			if !ok {
				return
			}
			if next.Version <= last {
				continue
			}
			g, last = next, next.Version
			if err := s.push(ctx, c, g); err != nil {
				return
			}
		}
	}
	c.Close(websocket.StatusNormalClosure, "game over")
}

func (s *Server) push(ctx context.Context, c *websocket.Conn, g *pvpchess.Game) error {
	wctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	if err := wsjson.Write(wctx, c, chesspresenter.ToDTOGameState(g, s.now())); err != nil {
		s.logger.Debug("ws_write_failed", zap.String("game_id", g.ID), zap.Error(err))
		return err
	}
	return nil
}
