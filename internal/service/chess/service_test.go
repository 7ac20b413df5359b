package chess

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	corechess "github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/internal/chess/bot"
	"github.com/zachsimson/Lockedin-sub000/internal/domain"
	"github.com/zachsimson/Lockedin-sub000/internal/service/cache"
	"github.com/zachsimson/Lockedin-sub000/internal/session"
)

// firstMove plays the first legal move.
type firstMove struct{}

func (firstMove) ChooseMove(p corechess.Position, _ bot.Difficulty) bot.SearchResult {
	return bot.SearchResult{Move: p.LegalMoves()[0]}
}

// scripted plays the given moves in order.
type scripted struct{ moves []string }

func (s *scripted) ChooseMove(p corechess.Position, _ bot.Difficulty) bot.SearchResult {
	m, err := p.DecodeMove(s.moves[0])
	if err != nil {
		panic(err)
	}
	s.moves = s.moves[1:]
	return bot.SearchResult{Move: m, EvalCP: 42}
}

// slow sleeps before answering so searches outlive short timeouts.
type slow struct{ delay time.Duration }

func (s slow) ChooseMove(p corechess.Position, d bot.Difficulty) bot.SearchResult {
	time.Sleep(s.delay)
	return firstMove{}.ChooseMove(p, d)
}

type testEnv struct {
	svc *Service
	mr  *miniredis.Miniredis
	now time.Time
}

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

func newTestService(t *testing.T, engine session.Chooser, cfg Config) *testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = time.Hour
	}
	svc, err := NewService(engine, cache.NewFromClient(rdb, nil), NewMemoryRepository(), cfg, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	env := &testEnv{svc: svc, mr: mr, now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc.now = func() time.Time { return env.now }
	return env
}

var alice = SessionMeta{PlayerID: "alice", PlayerName: "Alice"}

func TestStartAndPlay(t *testing.T) {
	env := newTestService(t, firstMove{}, Config{})
	ctx := context.Background()

	state, err := env.svc.Start(ctx, alice, "", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if state.Difficulty != bot.Medium || state.PlayerColor != corechess.White {
		t.Fatalf("unexpected defaults: %+v", state)
	}
	if !env.mr.Exists(sessionKey(hashPlayer("alice"))) {
		t.Fatalf("session not stored in redis")
	}

	summary, err := env.svc.Play(ctx, alice, "e4")
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if summary.PlayerSAN != "e4" || summary.PlayerUCI != "e2e4" {
		t.Fatalf("unexpected player move %q/%q", summary.PlayerSAN, summary.PlayerUCI)
	}
	if summary.BotUCI == "" || summary.State.Snapshot.PlyCount != 2 {
		t.Fatalf("expected bot reply, got %+v", summary)
	}

	again, err := env.svc.Start(ctx, SessionMeta{PlayerID: " ALICE "}, "hard", "black")
	if !errors.Is(err, ErrSessionInProgress) {
		t.Fatalf("expected ErrSessionInProgress, got %v", err)
	}
	if again.SessionUUID != state.SessionUUID || again.Snapshot.PlyCount != 2 {
		t.Fatalf("existing session not returned: %+v", again)
	}
}

func TestPlayRejections(t *testing.T) {
	env := newTestService(t, firstMove{}, Config{})
	ctx := context.Background()

	if _, err := env.svc.Play(ctx, alice, "e4"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := env.svc.Start(ctx, alice, "", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.svc.Play(ctx, alice, "e2e5"); !errors.Is(err, corechess.ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	var perr *corechess.ParseError
	if _, err := env.svc.Play(ctx, alice, "  "); !errors.As(err, &perr) {
		t.Fatalf("expected parse error, got %v", err)
	}
	state, err := env.svc.Status(ctx, alice)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if state.Snapshot.PlyCount != 0 {
		t.Fatalf("rejected moves must not be stored")
	}
}

func TestStartAsBlackBotOpens(t *testing.T) {
	env := newTestService(t, &scripted{moves: []string{"f2f3"}}, Config{})
	state, err := env.svc.Start(context.Background(), alice, "easy", "black")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if state.Snapshot.PlyCount != 1 || state.Snapshot.Turn != corechess.Black {
		t.Fatalf("expected bot opening, got %+v", state.Snapshot)
	}
	if _, err := env.svc.Undo(context.Background(), alice); !errors.Is(err, ErrUndoNotAvailable) {
		t.Fatalf("expected ErrUndoNotAvailable before the player moved, got %v", err)
	}
}

func TestCheckmateAgainstBotPersistsWin(t *testing.T) {
	env := newTestService(t, &scripted{moves: []string{"f2f3", "g2g4"}}, Config{})
	ctx := context.Background()

	if _, err := env.svc.Start(ctx, alice, "medium", "black"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.svc.Play(ctx, alice, "e7e5"); err != nil {
		t.Fatalf("play e5: %v", err)
	}
	summary, err := env.svc.Play(ctx, alice, "Qh4#")
	if err != nil {
		t.Fatalf("play mate: %v", err)
	}
	if !summary.Finished || summary.GameID == 0 || summary.BotUCI != "" {
		t.Fatalf("expected finished game, got %+v", summary)
	}
	if summary.Profile == nil || summary.Profile.Wins != 1 || summary.RatingDelta != 9 {
		t.Fatalf("unexpected profile update: %+v delta=%d", summary.Profile, summary.RatingDelta)
	}
	if summary.Profile.StreakType != outcomeWin || summary.Profile.DisplayName != "Alice" {
		t.Fatalf("unexpected streak or name: %+v", summary.Profile)
	}
	if env.mr.Exists(sessionKey(hashPlayer("alice"))) {
		t.Fatalf("finished session must be deleted")
	}

	game, err := env.svc.Game(ctx, alice, summary.GameID)
	if err != nil {
		t.Fatalf("game: %v", err)
	}
	if game.Result != outcomeWin || game.ResultMethod != "checkmate" || game.PlayerColor != "black" {
		t.Fatalf("unexpected stored game: %+v", game)
	}
	if !strings.Contains(game.PGN, `[Black "Alice"]`) || !strings.HasSuffix(game.PGN, "2. g4 Qh4# 0-1") {
		t.Fatalf("unexpected pgn:\n%s", game.PGN)
	}
	if _, err := env.svc.Game(ctx, SessionMeta{PlayerID: "bob"}, summary.GameID); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("games must be scoped to their player, got %v", err)
	}
}

func TestResignRecordsLoss(t *testing.T) {
	env := newTestService(t, firstMove{}, Config{})
	ctx := context.Background()

	if _, err := env.svc.Start(ctx, alice, "", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	state, err := env.svc.Resign(ctx, alice)
	if err != nil {
		t.Fatalf("resign: %v", err)
	}
	if !state.Finished || state.RatingDelta != -15 || state.Profile.Rating != 1185 {
		t.Fatalf("unexpected resignation result: %+v", state)
	}
	if _, err := env.svc.Status(ctx, alice); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after resign, got %v", err)
	}

	history, err := env.svc.History(ctx, alice, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Result != outcomeLoss || history[0].ResultMethod != "resigned" {
		t.Fatalf("unexpected history: %+v", history)
	}
	if !strings.Contains(history[0].PGN, `[Result "0-1"]`) {
		t.Fatalf("unexpected pgn:\n%s", history[0].PGN)
	}

	profile, err := env.svc.Profile(ctx, alice)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Losses != 1 || profile.GamesPlayed != 1 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestUndoTakesBackMoveAndReply(t *testing.T) {
	env := newTestService(t, firstMove{}, Config{})
	ctx := context.Background()

	if _, err := env.svc.Start(ctx, alice, "", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.svc.Undo(ctx, alice); !errors.Is(err, ErrUndoNotAvailable) {
		t.Fatalf("expected ErrUndoNotAvailable, got %v", err)
	}
	if _, err := env.svc.Play(ctx, alice, "d2d4"); err != nil {
		t.Fatalf("play: %v", err)
	}
	state, err := env.svc.Undo(ctx, alice)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if state.Snapshot.PlyCount != 0 || state.Snapshot.FEN != corechess.StartFEN {
		t.Fatalf("expected start position, got %+v", state.Snapshot)
	}
	status, err := env.svc.Status(ctx, alice)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Snapshot.PlyCount != 0 {
		t.Fatalf("undo was not persisted")
	}
}

func TestDeferredBotMove(t *testing.T) {
	env := newTestService(t, firstMove{}, Config{BotDeferred: true})
	ctx := context.Background()

	if _, err := env.svc.Start(ctx, alice, "", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	summary, err := env.svc.Play(ctx, alice, "e2e4")
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if summary.BotUCI != "" || !summary.State.Snapshot.BotToMove {
		t.Fatalf("expected pending bot turn, got %+v", summary)
	}
	if _, err := env.svc.Play(ctx, alice, "d2d4"); !errors.Is(err, corechess.ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	summary, err = env.svc.BotMove(ctx, alice)
	if err != nil {
		t.Fatalf("bot move: %v", err)
	}
	if summary.BotUCI == "" || summary.State.Snapshot.PlyCount != 2 {
		t.Fatalf("expected bot reply, got %+v", summary)
	}
}

func TestBotTimeoutKeepsTurnPending(t *testing.T) {
	env := newTestService(t, slow{delay: 50 * time.Millisecond}, Config{BotTimeout: 5 * time.Millisecond})
	ctx := context.Background()

	if _, err := env.svc.Start(ctx, alice, "", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := env.svc.Play(ctx, alice, "e2e4"); !errors.Is(err, ErrEngineTimeout) {
		t.Fatalf("expected ErrEngineTimeout, got %v", err)
	}
	state, err := env.svc.Status(ctx, alice)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if state.Snapshot.PlyCount != 1 || !state.Snapshot.BotToMove {
		t.Fatalf("player move must be kept with the bot turn pending, got %+v", state.Snapshot)
	}

	env.svc.cfg.BotTimeout = time.Second
	summary, err := env.svc.BotMove(ctx, alice)
	if err != nil {
		t.Fatalf("retry bot move: %v", err)
	}
	if summary.State.Snapshot.PlyCount != 2 {
		t.Fatalf("expected bot reply on retry, got %+v", summary.State.Snapshot)
	}
}

func TestClockRunsOutWhileAway(t *testing.T) {
	env := newTestService(t, firstMove{}, Config{ClockInitial: time.Minute})
	ctx := context.Background()

	if _, err := env.svc.Start(ctx, alice, "", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	env.advance(20 * time.Second)
	state, err := env.svc.Status(ctx, alice)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if state.Snapshot.White != 40*time.Second || state.Finished {
		t.Fatalf("expected 40s left, got %s", state.Snapshot.White)
	}

	env.advance(2 * time.Minute)
	state, err = env.svc.Status(ctx, alice)
	if err != nil {
		t.Fatalf("status after flag: %v", err)
	}
	if !state.Finished || state.Snapshot.Result.Kind != corechess.TimeoutLoss {
		t.Fatalf("expected timeout, got %+v", state.Snapshot.Result)
	}
	history, err := env.svc.History(ctx, alice, 5)
	if err != nil || len(history) != 1 || history[0].ResultMethod != "timeout" {
		t.Fatalf("expected stored timeout game, got %+v err=%v", history, err)
	}
}

func TestPreferredDifficulty(t *testing.T) {
	env := newTestService(t, firstMove{}, Config{})
	ctx := context.Background()

	if _, err := env.svc.Profile(ctx, alice); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
	if _, err := env.svc.UpdatePreferredDifficulty(ctx, alice, "grandmaster"); err == nil {
		t.Fatalf("expected unknown difficulty error")
	}
	profile, err := env.svc.UpdatePreferredDifficulty(ctx, alice, "advanced")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if profile.PreferredDifficulty != "hard" || profile.Rating != defaultPlayerRating {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	state, err := env.svc.Start(ctx, alice, "", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if state.Difficulty != bot.Hard {
		t.Fatalf("expected preferred difficulty, got %s", state.Difficulty)
	}
}

func TestLegalMoves(t *testing.T) {
	env := newTestService(t, firstMove{}, Config{})
	ctx := context.Background()
	if _, err := env.svc.Start(ctx, alice, "", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	all, err := env.svc.LegalMoves(ctx, alice, "")
	if err != nil || len(all) != 20 {
		t.Fatalf("expected 20 moves, got %d err=%v", len(all), err)
	}
	knight, err := env.svc.LegalMoves(ctx, alice, "g1")
	if err != nil || len(knight) != 2 {
		t.Fatalf("expected 2 knight moves, got %v err=%v", knight, err)
	}
	if _, err := env.svc.LegalMoves(ctx, alice, "z9"); err == nil {
		t.Fatalf("expected bad square error")
	}
}

func TestApplyGameResultStreaks(t *testing.T) {
	now := time.Now()
	p := &domain.ChessProfile{Rating: defaultPlayerRating}

	applyGameResult(p, bot.Easy, outcomeWin, now)
	applyGameResult(p, bot.Easy, outcomeWin, now)
	if p.Streak != 2 || p.StreakType != outcomeWin || p.Wins != 2 {
		t.Fatalf("unexpected win streak: %+v", p)
	}
	before := p.Rating
	delta := applyGameResult(p, bot.Hard, outcomeDraw, now)
	if p.Streak != 1 || p.StreakType != outcomeDraw || p.Draws != 1 {
		t.Fatalf("draw must reset streak: %+v", p)
	}
	if delta != p.Rating-before || p.GamesPlayed != 3 || p.LastDifficulty != "hard" {
		t.Fatalf("unexpected profile after draw: %+v delta=%d", p, delta)
	}
}

func TestPickColor(t *testing.T) {
	for in, want := range map[string]corechess.Color{"": corechess.White, "WHITE": corechess.White, "b": corechess.Black} {
		got, err := pickColor(in)
		if err != nil || got != want {
			t.Fatalf("pickColor(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := pickColor("purple"); err == nil {
		t.Fatalf("expected error for unknown color")
	}
}
