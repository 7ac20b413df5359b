package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

type SubscriberState int

const (
	StateDisconnected SubscriberState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s SubscriberState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	}
	return "disconnected"
}

// Subscriber follows one game's websocket stream. Every frame is a full
// game state; after a reconnect the server resends the current one, so a
// consumer never has to patch gaps.
type Subscriber struct {
	wsURL   string
	headers HeaderProvider
	logger  *zap.Logger

	maxReconnectAttempts int

	out chan *chessdto.GameState

	state  SubscriberState
	stateM sync.RWMutex

	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSubscriber builds a subscriber for gameID on the API at baseURL
// (http or https; the websocket scheme is derived).
func NewSubscriber(baseURL, gameID string, maxReconnectAttempts int, logger *zap.Logger) (*Subscriber, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, errors.New("unsupported scheme: " + u.Scheme)
	}
	u.Path += "/api/games/" + url.PathEscape(gameID) + "/ws"
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		wsURL:                u.String(),
		logger:               logger,
		maxReconnectAttempts: maxReconnectAttempts,
		out:                  make(chan *chessdto.GameState, 16),
	}, nil
}

// SetHeaderProvider allows injecting headers into the WS handshake.
func (s *Subscriber) SetHeaderProvider(h HeaderProvider) {
	s.headers = h
}

// Updates delivers game states in arrival order. It is closed when the game
// ends, the subscriber is closed, or reconnecting gives up.
func (s *Subscriber) Updates() <-chan *chessdto.GameState { return s.out }

func (s *Subscriber) State() SubscriberState {
	s.stateM.RLock()
	defer s.stateM.RUnlock()
	return s.state
}

// Start dials once and returns the dial error, if any. Reading and
// reconnecting continue in the background.
func (s *Subscriber) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.setState(StateConnecting)
	conn, err := s.dial(ctx)
	if err != nil {
		cancel()
		s.setState(StateDisconnected)
		return err
	}
	s.setState(StateConnected)
	s.wg.Add(1)
	go s.run(runCtx, conn)
	return nil
}

func (s *Subscriber) run(ctx context.Context, conn *websocket.Conn) {
	defer s.wg.Done()
	defer close(s.out)
	for {
		err := s.listen(ctx, conn)
		_ = conn.Close(websocket.StatusGoingAway, "reconnect")
		if err == nil || ctx.Err() != nil {
			s.setState(StateClosed)
			return
		}
		s.logger.Warn("ws_stream_lost", zap.String("url", s.wsURL), zap.Error(err))
		if conn = s.reconnect(ctx); conn == nil {
			s.setState(StateClosed)
			return
		}
	}
}

// listen forwards frames until the server closes normally (nil) or the
// connection fails.
func (s *Subscriber) listen(ctx context.Context, conn *websocket.Conn) error {
	for {
		var st chessdto.GameState
		if err := wsjson.Read(ctx, conn, &st); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}
		select {
		case s.out <- &st:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Subscriber) reconnect(ctx context.Context) *websocket.Conn {
	s.setState(StateReconnecting)
	for attempt := 1; attempt <= s.maxReconnectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoffDuration(attempt)):
		}
		conn, err := s.dial(ctx)
		if err != nil {
			continue
		}
		s.setState(StateConnected)
		return conn
	}
	return nil
}

func (s *Subscriber) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, s.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      s.buildHeaders(),
	})
	return conn, err
}

func (s *Subscriber) setState(state SubscriberState) {
	s.stateM.Lock()
	s.state = state
	s.stateM.Unlock()
}

// Close stops the stream and waits for the reader to exit.
func (s *Subscriber) Close(ctx context.Context) error {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (s *Subscriber) buildHeaders() http.Header {
	hdr := http.Header{}
	if s.headers == nil {
		return hdr
	}
	for k, v := range s.headers() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}
