package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zachsimson/Lockedin-sub000/internal/adapter/chesspresenter"
	"github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/internal/chess/bot"
	"github.com/zachsimson/Lockedin-sub000/internal/config"
	"github.com/zachsimson/Lockedin-sub000/internal/msgcat"
	"github.com/zachsimson/Lockedin-sub000/internal/obslog"
	"github.com/zachsimson/Lockedin-sub000/internal/session"
	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }

func main() {
	var (
		server     = flag.String("server", "", "API base URL; plays online when set")
		online     = flag.Bool("online", false, "play online against CHESS_SERVER_URL when -server is not set")
		player     = flag.String("player", "", "player id for online play")
		name       = flag.String("name", "", "display name for online play")
		difficulty = flag.String("difficulty", "medium", "bot difficulty: easy, medium or hard")
		color      = flag.String("color", "white", "your color: white, black or random")
		clock      = flag.Duration("clock", 0, "clock per side for offline games, e.g. 10m; zero is untimed")
		unicode    = flag.Bool("unicode", false, "draw pieces with chess glyphs")
	)
	flag.Parse()

	if err := obslog.InitFromEnv("chess-practice"); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	formatter := chesspresenter.NewFormatter(prefixProvider{})
	formatter.Unicode = *unicode
	presenter := chesspresenter.NewPresenter(os.Stdout, formatter)

	base := strings.TrimSpace(*server)
	if base == "" && *online {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("config error: %v", err)
		}
		base = cfg.ServerURL
	}
	if base != "" {
		if strings.TrimSpace(*player) == "" {
			log.Fatal("-player is required for online play")
		}
		o := newOnline(base, *player, *name, presenter)
		if err := o.run(context.Background(), os.Stdin); err != nil {
			log.Fatalf("online: %v", err)
		}
		return
	}

	p := &offline{
		engine:    bot.NewEngine(),
		presenter: presenter,
		catalog:   msgcat.Default(),
		clock:     *clock,
	}
	if err := p.start(*difficulty, *color); err != nil {
		log.Fatalf("start: %v", err)
	}
	if *clock > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go p.watchClock(ctx, time.Second)
	}
	p.run(os.Stdin)
}

// offline plays against the in-process bot.
type offline struct {
	engine    *bot.Engine
	presenter *chesspresenter.Presenter
	catalog   *msgcat.Catalog
	clock     time.Duration

	// mu serializes commands with the clock ticker.
	mu         sync.Mutex
	sess       *session.Session
	color      chess.Color
	difficulty bot.Difficulty
	lastTick   time.Time
	flagged    bool
}

func (p *offline) start(difficulty, color string) error {
	d, err := bot.ParseDifficulty(difficulty)
	if err != nil {
		return err
	}
	c, err := parseSide(color)
	if err != nil {
		return err
	}
	cfg := session.Config{White: session.Human, Black: session.Bot, Difficulty: d, Initial: p.clock}
	if c == chess.Black {
		cfg.White, cfg.Black = session.Bot, session.Human
	}
	sess, err := session.New(cfg, p.engine)
	if err != nil {
		return err
	}
	p.sess, p.color, p.difficulty = sess, c, d
	p.lastTick, p.flagged = time.Now(), false
	return p.presenter.Board(p.presenter.Formatter().Start(p.state(), false), p.state())
}

func (p *offline) run(in io.Reader) {
	scanner := bufio.NewScanner(in)
	fmt.Print("> ")
	for scanner.Scan() {
		if !p.handle(strings.TrimSpace(scanner.Text())) {
			return
		}
		fmt.Print("> ")
	}
}

// handle runs one command line and reports whether to keep reading.
func (p *offline) handle(line string) bool {
	if line == "" {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tick()
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	f := p.presenter.Formatter()

	switch cmd {
	case "quit", "exit":
		return false
	case "help":
		_ = p.presenter.Message(f.Help())
	case "start":
		difficulty, color := string(p.difficulty), p.color.String()
		if len(args) > 0 {
			difficulty = args[0]
		}
		if len(args) > 1 {
			color = args[1]
		}
		if err := p.start(difficulty, color); err != nil {
			_ = p.presenter.Message(err.Error())
		}
	case "board":
		_ = p.presenter.Board("", p.state())
	case "status":
		_ = p.presenter.Message(f.Status(p.state()))
	case "moves":
		origin := chess.NoSquare
		if len(args) > 0 {
			sq, err := chess.ParseSquare(args[0])
			if err != nil {
				p.reject(err, args[0])
				return true
			}
			origin = sq
		}
		var out []string
		for _, m := range p.sess.LegalMoves(origin) {
			out = append(out, m.String())
		}
		_ = p.presenter.Message(strings.Join(out, " "))
	case "undo":
		if _, err := p.sess.Undo(); err != nil {
			p.reject(err, "")
			return true
		}
		_ = p.presenter.Board(f.Undo(p.state()), p.state())
	case "resign":
		if _, err := p.sess.Resign(p.color); err != nil {
			p.reject(err, "")
			return true
		}
		_ = p.presenter.Message(f.Resign(nil))
		_ = p.presenter.Message(p.pgn())
	case "pgn":
		_ = p.presenter.Message(p.pgn())
	default:
		p.play(line)
	}
	return true
}

func (p *offline) play(text string) {
	before := p.sess.Snapshot()
	snap, err := p.sess.SubmitText(text)
	if err != nil {
		p.reject(err, text)
		return
	}
	p.lastTick = time.Now()
	summary := &chessdto.MoveSummary{State: p.dto(snap), Finished: snap.Result.Over()}
	if before.PlyCount < len(snap.SANMoves) {
		summary.PlayerSAN, summary.PlayerUCI = snap.SANMoves[before.PlyCount], snap.Moves[before.PlyCount]
	}
	if i := before.PlyCount + 1; i < len(snap.SANMoves) {
		summary.BotSAN, summary.BotUCI = snap.SANMoves[i], snap.Moves[i]
		if snap.LastBot != nil {
			summary.BotEvalCP = snap.LastBot.EvalCP
		}
	}
	_ = p.presenter.Board(p.presenter.Formatter().Move(summary), summary.State)
	if summary.Finished {
		_ = p.presenter.Message(p.pgn())
	}
}

// watchClock ticks the clock every period until ctx ends, so a flag fall is
// shown without waiting for the next command.
func (p *offline) watchClock(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		p.mu.Lock()
		p.tick()
		p.mu.Unlock()
	}
}

// tick charges the side to move for the time since the last tick and
// announces a timeout once. The caller holds mu.
func (p *offline) tick() {
	now := time.Now()
	if p.sess == nil {
		p.lastTick = now
		return
	}
	snap := p.sess.Tick(now.Sub(p.lastTick))
	p.lastTick = now
	if snap.Result.Kind != chess.TimeoutLoss || p.flagged {
		return
	}
	p.flagged = true
	st := p.dto(snap)
	_ = p.presenter.Board(p.presenter.Formatter().Move(&chessdto.MoveSummary{State: st, Finished: true}), st)
	_ = p.presenter.Message(p.pgn())
}

func (p *offline) reject(err error, input string) {
	derr := chesspresenter.ToDomainError(err, p.catalog, map[string]any{"Move": input, "Input": input})
	_ = p.presenter.Message(p.presenter.Formatter().Rejection(derr))
}

func (p *offline) state() *chessdto.SessionState {
	return p.dto(p.sess.Snapshot())
}

func (p *offline) dto(snap session.Snapshot) *chessdto.SessionState {
	st := chesspresenter.FromSnapshot(snap)
	st.Difficulty = string(p.difficulty)
	st.PlayerColor = p.color.String()
	return st
}

func (p *offline) pgn() string {
	white, black := "Player", fmt.Sprintf("Lockedin Bot (%s)", p.difficulty)
	if p.color == chess.Black {
		white, black = black, white
	}
	return p.sess.PGN(
		chess.Tag{Name: "Event", Value: "Practice"},
		chess.Tag{Name: "Date", Value: time.Now().Format("2006.01.02")},
		chess.Tag{Name: "White", Value: white},
		chess.Tag{Name: "Black", Value: black},
	)
}

func parseSide(raw string) (chess.Color, error) {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "", "white", "w":
		return chess.White, nil
	case "black", "b":
		return chess.Black, nil
	case "random":
		if rand.IntN(2) == 0 {
			return chess.White, nil
		}
		return chess.Black, nil
	default:
		return chess.White, fmt.Errorf("unknown color %q", raw)
	}
}
