package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zachsimson/Lockedin-sub000/internal/adapter/chesspresenter"
	"github.com/zachsimson/Lockedin-sub000/internal/chess"
	"github.com/zachsimson/Lockedin-sub000/internal/obslog"
	"github.com/zachsimson/Lockedin-sub000/internal/remote"
	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

const onlineHelp = `Online commands
  new <opponent> [white|black|random]  challenge a player directly
  lobby [white|black|random]           open a lobby and wait
  join <code>                          join a lobby
  lobbies                              list open lobbies
  attach <game-id>                     follow an existing game
  practice [difficulty] [color]        play the server's bot
  history [n]                          your finished practice games
  <move>                               play e2e4 or Nf3
  moves <sq>                           legal moves from a square
  board                                show the position
  resign                               give up the current game
  quit                                 leave`

// online plays through the API. Boards printed from the stream are the
// server's; the mirror only answers highlighting queries. While practicing,
// moves and resignation go to the server-side bot game instead.
type online struct {
	client    *remote.Client
	server    string
	playerID  string
	name      string
	headers   remote.HeaderProvider
	presenter *chesspresenter.Presenter
	logger    *zap.Logger

	mirror     *remote.Mirror
	sub        *remote.Subscriber
	practicing bool
}

func newOnline(server, playerID, name string, presenter *chesspresenter.Presenter) *online {
	playerID = strings.TrimSpace(playerID)
	headers := func() map[string]string {
		return map[string]string{"X-Chess-Player": playerID}
	}
	return &online{
		client: remote.NewClient(server,
			remote.WithTimeout(8*time.Second),
			remote.WithMaxConnsPerHost(4),
			remote.WithHeaderProvider(headers),
		),
		server:    server,
		playerID:  playerID,
		name:      strings.TrimSpace(name),
		headers:   headers,
		presenter: presenter,
		logger:    obslog.L().Named("online"),
		mirror:    remote.NewMirror(playerID),
	}
}

func (o *online) run(ctx context.Context, in io.Reader) error {
	defer o.detach()
	_ = o.presenter.Message(onlineHelp)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := strings.ToLower(fields[0]), fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := o.handle(ctx, cmd, args, line); err != nil {
			o.report(err)
		}
	}
	return scanner.Err()
}

func (o *online) handle(ctx context.Context, cmd string, args []string, line string) error {
	switch cmd {
	case "help":
		return o.presenter.Message(onlineHelp)
	case "new":
		if len(args) == 0 {
			return errors.New("usage: new <opponent> [color]")
		}
		g, err := o.client.CreateGame(ctx, chessdto.CreateGameRequest{
			CreatorID:   o.playerID,
			CreatorName: o.name,
			OpponentID:  args[0],
			Color:       argOr(args, 1, "random"),
		})
		if err != nil {
			return err
		}
		return o.attach(ctx, g)
	case "lobby":
		l, err := o.client.MakeLobby(ctx, chessdto.LobbyRequest{PlayerID: o.playerID, PlayerName: o.name, Color: argOr(args, 0, "random")})
		if err != nil {
			return err
		}
		_ = o.presenter.Message(fmt.Sprintf("Lobby %s is open. Waiting for an opponent...", l.Code))
		return o.awaitLobby(ctx, l.Code)
	case "join":
		if len(args) == 0 {
			return errors.New("usage: join <code>")
		}
		res, err := o.client.JoinLobby(ctx, args[0], chessdto.LobbyRequest{PlayerID: o.playerID, PlayerName: o.name})
		if err != nil {
			return err
		}
		if res.Game == nil {
			return o.attachID(ctx, res.Lobby.GameID)
		}
		return o.attach(ctx, res.Game)
	case "lobbies":
		list, err := o.client.Lobbies(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return o.presenter.Message("No open lobbies.")
		}
		var sb strings.Builder
		for _, l := range list {
			sb.WriteString(fmt.Sprintf("- %s by %s (creator plays %s)\n", l.Code, orID(l.CreatorName, l.CreatorID), l.Color))
		}
		return o.presenter.Message(strings.TrimRight(sb.String(), "\n"))
	case "attach":
		if len(args) == 0 {
			return errors.New("usage: attach <game-id>")
		}
		return o.attachID(ctx, args[0])
	case "practice":
		return o.startPractice(ctx, argOr(args, 0, ""), argOr(args, 1, "white"))
	case "history":
		limit := 10
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return errors.New("usage: history [n]")
			}
			limit = n
		}
		games, err := o.client.PracticeHistory(ctx, o.playerID, limit)
		if err != nil {
			return err
		}
		return o.presenter.Message(o.presenter.Formatter().History(games))
	case "board":
		return o.show(o.mirror.State())
	case "moves":
		if len(args) == 0 {
			return errors.New("usage: moves <square>")
		}
		moves, err := o.mirror.Highlights(args[0])
		if err != nil {
			return err
		}
		return o.presenter.Message(strings.Join(moves, " "))
	case "resign":
		if o.practicing {
			state, err := o.client.PracticeResign(ctx, o.playerID)
			if err != nil {
				return err
			}
			o.practicing = false
			return o.presenter.Message(o.presenter.Formatter().Resign(state))
		}
		_, err := o.mirror.Resign(ctx, o.client)
		return err
	default:
		if o.practicing {
			return o.practiceMove(ctx, line)
		}
		// The stream prints the resulting board.
		_, err := o.mirror.Play(ctx, o.client, line)
		return err
	}
}

func (o *online) startPractice(ctx context.Context, difficulty, color string) error {
	o.detach()
	res, err := o.client.StartPractice(ctx, chessdto.StartPracticeRequest{
		PlayerID:   o.playerID,
		PlayerName: o.name,
		Difficulty: difficulty,
		Color:      color,
	})
	if err != nil {
		return err
	}
	o.practicing = res.State != nil && !res.State.Finished
	return o.presenter.Board(o.presenter.Formatter().Start(res.State, res.Resumed), res.State)
}

func (o *online) practiceMove(ctx context.Context, text string) error {
	summary, err := o.client.PracticeMove(ctx, o.playerID, text)
	if err != nil {
		return err
	}
	if summary.Finished {
		o.practicing = false
	}
	return o.presenter.Board(o.presenter.Formatter().Move(summary), summary.State)
}

// awaitLobby polls until someone joins the lobby.
func (o *online) awaitLobby(ctx context.Context, code string) error {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		l, err := o.client.Lobby(ctx, code)
		if err != nil {
			return err
		}
		if l.GameID != "" {
			return o.attachID(ctx, l.GameID)
		}
	}
}

func (o *online) attachID(ctx context.Context, id string) error {
	g, err := o.client.Game(ctx, id)
	if err != nil {
		return err
	}
	return o.attach(ctx, g)
}

// attach follows g over the websocket, replacing any game followed before.
func (o *online) attach(ctx context.Context, g *chessdto.GameState) error {
	o.detach()
	o.practicing = false
	o.mirror = remote.NewMirror(o.playerID)
	if _, err := o.mirror.Sync(g); err != nil {
		return err
	}
	sub, err := remote.NewSubscriber(o.server, g.ID, 5, o.logger)
	if err != nil {
		return err
	}
	sub.SetHeaderProvider(o.headers)
	if err := sub.Start(ctx); err != nil {
		return err
	}
	o.sub = sub
	mirror, shown := o.mirror, g.Version
	go func() {
		for st := range sub.Updates() {
			if _, err := mirror.Sync(st); err != nil {
				o.logger.Warn("mirror_sync_failed", zap.String("game_id", st.ID), zap.Error(err))
				continue
			}
			if st.Version > shown {
				shown = st.Version
				_ = o.show(st)
			}
		}
	}()
	return o.show(g)
}

func (o *online) detach() {
	if o.sub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = o.sub.Close(ctx)
	o.sub = nil
}

func (o *online) show(g *chessdto.GameState) error {
	if g == nil {
		return o.presenter.Message("No game attached.")
	}
	color, ok := o.mirror.Color()
	if !ok {
		color = chess.White
	}
	return o.presenter.Online(g, color)
}

func (o *online) report(err error) {
	var rej *remote.RejectionError
	if errors.As(err, &rej) {
		_ = o.presenter.Message(o.presenter.Formatter().Rejection(rej.DomainError))
		return
	}
	_ = o.presenter.Message("error: " + err.Error())
}

func argOr(args []string, i int, fallback string) string {
	if i < len(args) {
		return args[i]
	}
	return fallback
}

func orID(name, id string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return id
}
