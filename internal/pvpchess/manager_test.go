package pvpchess

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memStore struct {
	mu    sync.Mutex
	saved []*Game
}

func (s *memStore) SaveResult(_ context.Context, g *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.saved = append(s.saved, &cp)
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func newTestManager(t *testing.T, initial time.Duration) (*Manager, *fakeClock, *memStore) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clk := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(rdb, Options{ClockInitial: initial, Now: clk.Now})
	store := &memStore{}
	m.AttachRepository(store)
	return m, clk, store
}

func newGame(t *testing.T, m *Manager) *Game {
	t.Helper()
	g, err := m.CreateGame(context.Background(), NewGameParams{
		CreatorID: "alice", CreatorName: "Alice",
		OpponentID: "bob", OpponentName: "Bob",
		Color: "white",
	})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	return g
}

func play(t *testing.T, m *Manager, id, player, text string) *Game {
	t.Helper()
	g, err := m.SubmitMove(context.Background(), MoveRequest{GameID: id, PlayerID: player, Text: text})
	if err != nil {
		t.Fatalf("move %s by %s: %v", text, player, err)
	}
	return g
}

func TestCreateGameColors(t *testing.T) {
	m, _, _ := newTestManager(t, 0)
	ctx := context.Background()

	g := newGame(t, m)
	if g.WhiteID != "alice" || g.BlackID != "bob" || g.Turn != "white" || g.Version != 1 {
		t.Fatalf("unexpected game %+v", g)
	}
	g, err := m.CreateGame(ctx, NewGameParams{CreatorID: "alice", OpponentID: "bob", Color: "black"})
	if err != nil {
		t.Fatalf("CreateGame black: %v", err)
	}
	if g.WhiteID != "bob" || g.BlackID != "alice" {
		t.Fatalf("creator should play black, got white=%s black=%s", g.WhiteID, g.BlackID)
	}
	if _, err := m.CreateGame(ctx, NewGameParams{CreatorID: "alice", OpponentID: "alice"}); !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs for self-play, got %v", err)
	}
}

func TestSubmitMoveFlow(t *testing.T) {
	m, _, _ := newTestManager(t, 0)
	ctx := context.Background()
	g := newGame(t, m)

	g1, err := m.SubmitMove(ctx, MoveRequest{GameID: g.ID, PlayerID: "alice", From: "e2", To: "e4"})
	if err != nil {
		t.Fatalf("coordinate move: %v", err)
	}
	if g1.Version != 2 || g1.Turn != "black" || len(g1.MovesUCI) != 1 {
		t.Fatalf("unexpected state after e4: %+v", g1)
	}

	g2 := play(t, m, g.ID, "bob", "Nc6")
	if strings.Join(g2.MovesSAN, " ") != "e4 Nc6" || strings.Join(g2.MovesUCI, " ") != "e2e4 b8c6" {
		t.Fatalf("unexpected move lists %v %v", g2.MovesSAN, g2.MovesUCI)
	}

	cur, err := m.SubmitMove(ctx, MoveRequest{GameID: g.ID, PlayerID: "bob", From: "e7", To: "e5"})
	if !errors.Is(err, chess.ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if cur == nil || cur.Version != g2.Version {
		t.Fatalf("rejection should return unchanged state")
	}

	if _, err := m.SubmitMove(ctx, MoveRequest{GameID: g.ID, PlayerID: "alice", From: "a1", To: "a3"}); !errors.Is(err, chess.ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	var perr *chess.ParseError
	if _, err := m.SubmitMove(ctx, MoveRequest{GameID: g.ID, PlayerID: "alice", Text: "invalid"}); !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if _, err := m.SubmitMove(ctx, MoveRequest{GameID: g.ID, PlayerID: "carol", From: "d2", To: "d4"}); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := m.SubmitMove(ctx, MoveRequest{GameID: "missing", PlayerID: "alice", From: "d2", To: "d4"}); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestPromotionRequiresPiece(t *testing.T) {
	m, _, _ := newTestManager(t, 0)
	ctx := context.Background()
	g, err := m.CreateGame(ctx, NewGameParams{
		CreatorID: "alice", OpponentID: "bob", Color: "white",
		StartFEN: "4k3/P7/8/8/8/8/8/4K3 w - - 0 1",
	})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if _, err := m.SubmitMove(ctx, MoveRequest{GameID: g.ID, PlayerID: "alice", From: "a7", To: "a8"}); !errors.Is(err, chess.ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove without promotion, got %v", err)
	}
	g, err = m.SubmitMove(ctx, MoveRequest{GameID: g.ID, PlayerID: "alice", From: "a7", To: "a8", Promotion: "queen"})
	if err != nil {
		t.Fatalf("promotion: %v", err)
	}
	if g.MovesSAN[0] != "a8=Q+" {
		t.Fatalf("unexpected SAN %q", g.MovesSAN[0])
	}
}

func TestConcurrentSubmissionsCommitOnce(t *testing.T) {
	m, _, _ := newTestManager(t, 0)
	ctx := context.Background()
	g := newGame(t, m)

	moves := []string{"e2e4", "d2d4", "c2c4", "g1f3"}
	errs := make([]error, len(moves))
	var wg sync.WaitGroup
	for i, mv := range moves {
		wg.Add(1)
		go func(i int, mv string) {
			defer wg.Done()
			_, errs[i] = m.SubmitMove(ctx, MoveRequest{GameID: g.ID, PlayerID: "alice", Text: mv})
		}(i, mv)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, chess.ErrNotYourTurn), errors.Is(err, ErrConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one committed move, got %d", ok)
	}
	cur, err := m.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(cur.MovesUCI) != 1 || cur.Version != 2 {
		t.Fatalf("expected one move at version 2, got %v v%d", cur.MovesUCI, cur.Version)
	}
}

func TestCheckmateFinishesAndPersists(t *testing.T) {
	m, _, store := newTestManager(t, 0)
	g := newGame(t, m)

	play(t, m, g.ID, "alice", "f3")
	play(t, m, g.ID, "bob", "e5")
	play(t, m, g.ID, "alice", "g4")
	final := play(t, m, g.ID, "bob", "Qh4#")

	if final.Status != StatusFinished || final.Result != "checkmate" || final.Outcome != "black" || final.Winner != "bob" {
		t.Fatalf("unexpected final game %+v", final)
	}
	if store.count() != 1 {
		t.Fatalf("expected result persisted once, got %d", store.count())
	}
	if pgn := BuildPGN(store.saved[0]); !strings.HasSuffix(pgn, "2. g4 Qh4# 0-1") {
		t.Fatalf("unexpected pgn:\n%s", pgn)
	}
	if _, err := m.SubmitMove(context.Background(), MoveRequest{GameID: g.ID, PlayerID: "alice", Text: "e4"}); !errors.Is(err, chess.ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestResign(t *testing.T) {
	m, _, store := newTestManager(t, 0)
	ctx := context.Background()
	g := newGame(t, m)

	out, err := m.Resign(ctx, g.ID, "alice")
	if err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if out.Status != StatusResigned || out.Winner != "bob" {
		t.Fatalf("unexpected resigned game %+v", out)
	}
	if res := out.ChessResult(); res.Kind != chess.Resigned || res.Color != chess.White {
		t.Fatalf("unexpected chess result %+v", res)
	}
	if store.count() != 1 {
		t.Fatalf("expected persisted result")
	}
	if _, err := m.Resign(ctx, g.ID, "bob"); !errors.Is(err, chess.ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestServerClockCharging(t *testing.T) {
	m, clk, _ := newTestManager(t, 10*time.Second)
	ctx := context.Background()
	g := newGame(t, m)

	clk.Advance(3 * time.Second)
	g = play(t, m, g.ID, "alice", "e4")
	if g.WhiteMs != 7000 || g.BlackMs != 10000 {
		t.Fatalf("after white move: white=%d black=%d", g.WhiteMs, g.BlackMs)
	}

	clk.Advance(4 * time.Second)
	cur, err := m.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	white, black := cur.Remaining(clk.Now())
	if white != 7*time.Second || black != 6*time.Second {
		t.Fatalf("live clocks white=%s black=%s", white, black)
	}

	g = play(t, m, g.ID, "bob", "e5")
	if g.WhiteMs != 7000 || g.BlackMs != 6000 {
		t.Fatalf("after black move: white=%d black=%d", g.WhiteMs, g.BlackMs)
	}
}

func TestTimeoutOnSubmit(t *testing.T) {
	m, clk, store := newTestManager(t, 5*time.Second)
	ctx := context.Background()
	g := newGame(t, m)

	clk.Advance(6 * time.Second)
	out, err := m.SubmitMove(ctx, MoveRequest{GameID: g.ID, PlayerID: "alice", Text: "e4"})
	if !errors.Is(err, chess.ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
	if out.Status != StatusTimeout || out.Winner != "bob" || out.WhiteMs != 0 || len(out.MovesUCI) != 0 {
		t.Fatalf("unexpected timed out game %+v", out)
	}
	if store.count() != 1 {
		t.Fatalf("expected timeout persisted")
	}
}

func TestGetClaimsTimeout(t *testing.T) {
	m, clk, _ := newTestManager(t, 5*time.Second)
	ctx := context.Background()
	g := newGame(t, m)
	play(t, m, g.ID, "alice", "e4")

	clk.Advance(5 * time.Second)
	cur, err := m.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cur.Status != StatusTimeout || cur.Outcome != "white" {
		t.Fatalf("expected black to lose on time, got %+v", cur)
	}
}

func TestLegalMoves(t *testing.T) {
	m, _, _ := newTestManager(t, 0)
	ctx := context.Background()
	g := newGame(t, m)

	all, err := m.LegalMoves(ctx, g.ID, "")
	if err != nil || len(all) != 20 {
		t.Fatalf("expected 20 moves, got %d (%v)", len(all), err)
	}
	from, err := m.LegalMoves(ctx, g.ID, "E2")
	if err != nil || strings.Join(from, ",") != "e2e3,e2e4" {
		t.Fatalf("unexpected e2 moves %v (%v)", from, err)
	}
	if _, err := m.LegalMoves(ctx, g.ID, "z9"); err == nil {
		t.Fatalf("expected error for bad square")
	}
}

func TestActiveGameByUser(t *testing.T) {
	m, _, _ := newTestManager(t, 0)
	ctx := context.Background()
	g := newGame(t, m)

	got, err := m.ActiveGameByUser(ctx, "bob")
	if err != nil || got == nil || got.ID != g.ID {
		t.Fatalf("expected active game for bob, got %v (%v)", got, err)
	}
	if _, err := m.Resign(ctx, g.ID, "bob"); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	got, err = m.ActiveGameByUser(ctx, "bob")
	if err != nil || got != nil {
		t.Fatalf("expected no active game after resign, got %v (%v)", got, err)
	}
}

func TestSubscribeReceivesCommits(t *testing.T) {
	m, _, _ := newTestManager(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := newGame(t, m)

	sub, err := m.Subscribe(ctx, g.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	t.Cleanup(func() { _ = sub.Close() })

	play(t, m, g.ID, "alice", "d4")
	select {
	case got := <-sub.C:
		if got.Version != 2 || got.MovesUCI[0] != "d2d4" {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := ParseRedisURL("redis://:secret@localhost:6380/2")
	if err != nil {
		t.Fatalf("ParseRedisURL: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if _, err := ParseRedisURL("http://localhost"); err == nil {
		t.Fatalf("expected scheme error")
	}
	opts, err = ParseRedisURL("rediss://cache.internal")
	if err != nil {
		t.Fatalf("ParseRedisURL: %v", err)
	}
	if opts.Addr != "cache.internal:6379" || opts.TLSConfig == nil {
		t.Fatalf("expected default port and TLS, got %+v", opts)
	}
}
