package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// RejectionError is a well-formed refusal from the server. It is never
// retried.
type RejectionError struct {
	Status int
	chessdto.DomainError
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRejection reports whether err is a server rejection carrying code. An
// empty code matches any rejection.
func IsRejection(err error, code string) bool {
	var rej *RejectionError
	if !errors.As(err, &rej) {
		return false
	}
	return code == "" || rej.Code == code
}

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) CreateGame(ctx context.Context, req chessdto.CreateGameRequest) (*chessdto.GameState, error) {
	var out chessdto.GameState
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/games", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Game(ctx context.Context, id string) (*chessdto.GameState, error) {
	var out chessdto.GameState
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/games/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LegalMoves(ctx context.Context, id, square string) ([]string, error) {
	var out chessdto.LegalMovesResponse
	path := "/api/games/" + url.PathEscape(id) + "/legal?square=" + url.QueryEscape(square)
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Moves, nil
}

// SubmitMove sends a move. Transport failures are retried; a duplicate that
// did reach the server comes back as a not_your_turn rejection.
func (c *Client) SubmitMove(ctx context.Context, req chessdto.MoveRequest) (*chessdto.GameState, error) {
	var out chessdto.GameState
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/games/"+url.PathEscape(req.GameID)+"/moves", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Resign(ctx context.Context, gameID, playerID string) (*chessdto.GameState, error) {
	var out chessdto.GameState
	req := chessdto.ResignRequest{PlayerID: playerID}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/games/"+url.PathEscape(gameID)+"/resign", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MakeLobby(ctx context.Context, req chessdto.LobbyRequest) (*chessdto.Lobby, error) {
	var out chessdto.Lobby
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/lobbies", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Lobbies(ctx context.Context) ([]chessdto.Lobby, error) {
	var out []chessdto.Lobby
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/lobbies", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Lobby(ctx context.Context, code string) (*chessdto.Lobby, error) {
	var out chessdto.Lobby
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/lobbies/"+url.PathEscape(code), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) JoinLobby(ctx context.Context, code string, req chessdto.LobbyRequest) (*chessdto.JoinLobbyResponse, error) {
	var out chessdto.JoinLobbyResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/lobbies/"+url.PathEscape(code)+"/join", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelLobby(ctx context.Context, code, playerID string) error {
	path := "/api/lobbies/" + url.PathEscape(code) + "?player_id=" + url.QueryEscape(playerID)
	return c.doJSON(ctx, fasthttp.MethodDelete, path, nil, nil)
}

func (c *Client) StartPractice(ctx context.Context, req chessdto.StartPracticeRequest) (*chessdto.StartPracticeResponse, error) {
	var out chessdto.StartPracticeResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/practice", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PracticeMove(ctx context.Context, playerID, move string) (*chessdto.MoveSummary, error) {
	var out chessdto.MoveSummary
	req := chessdto.PracticeMoveRequest{Move: move}
	if err := c.doJSON(ctx, fasthttp.MethodPost, practicePath(playerID, "/moves"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PracticeResign(ctx context.Context, playerID string) (*chessdto.SessionState, error) {
	var out chessdto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodPost, practicePath(playerID, "/resign"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PracticeHistory(ctx context.Context, playerID string, limit int) ([]*chessdto.ChessGame, error) {
	var out chessdto.HistoryResponse
	path := practicePath(playerID, "/history") + "?limit=" + strconv.Itoa(limit)
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Games, nil
}

func practicePath(playerID, suffix string) string {
	return "/api/practice/" + url.PathEscape(playerID) + suffix
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	uri := c.baseURL + path
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			return decodeRejection(status, resp.Body())
		}

		if out != nil && len(resp.Body()) > 0 {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func decodeRejection(status int, body []byte) error {
	rej := &RejectionError{Status: status}
	if err := json.Unmarshal(body, &rej.DomainError); err != nil || rej.Code == "" {
		rej.Code = chessdto.CodeInternal
		rej.Message = fmt.Sprintf("status=%d body=%s", status, truncate(string(body), 512))
	}
	return rej
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
