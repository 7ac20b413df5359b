package chessbuilder

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zachsimson/Lockedin-sub000/internal/chess/bot"
	"github.com/zachsimson/Lockedin-sub000/internal/config"
	"github.com/zachsimson/Lockedin-sub000/internal/httpapi"
	"github.com/zachsimson/Lockedin-sub000/internal/msgcat"
	"github.com/zachsimson/Lockedin-sub000/internal/pvpchan"
	"github.com/zachsimson/Lockedin-sub000/internal/pvpchess"
	"github.com/zachsimson/Lockedin-sub000/internal/service/cache"
	svcchess "github.com/zachsimson/Lockedin-sub000/internal/service/chess"
	"github.com/zachsimson/Lockedin-sub000/pkg/chessdto"
)

type Deps struct {
	Service *svcchess.Service
	Engine  *bot.Engine
	Cache   *cache.CacheService
	Repo    svcchess.Repository
	Games   *pvpchess.Manager
	Lobbies *pvpchan.Manager
	Catalog *msgcat.Catalog

	results *pvpchess.Repository
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if err := catalog.RequireRejections(chessdto.RejectionCodes...); err != nil {
		return nil, err
	}

	games, err := pvpchess.NewManagerFromURL(cfg.RedisURL, pvpchess.Options{
		GameTTL:      cfg.GameTTL,
		ClockInitial: cfg.ClockInitial,
		Logger:       logger.Named("pvp"),
	})
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	d := &Deps{
		Engine:  bot.NewEngine(),
		Cache:   cache.NewFromClient(games.Client(), logger.Named("cache")),
		Games:   games,
		Catalog: catalog,
	}
	d.Lobbies = pvpchan.NewManager(games.Client(), games, cfg.LobbyTTL, logger.Named("lobby"))

	// Postgres is optional; without it practice history lives in memory
	// and finished online games are not archived.
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		results, err := pvpchess.OpenRepository(cfg.DatabaseURL)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		d.results = results
		games.AttachRepository(results)
		d.Repo = svcchess.NewRepository(results.DB())
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory practice repository")
		d.Repo = svcchess.NewMemoryRepository()
	}

	d.Service, err = svcchess.NewService(d.Engine, d.Cache, d.Repo, svcchess.Config{
		DefaultDifficulty: cfg.DefaultDifficulty,
		SessionTTL:        cfg.SessionTTL,
		HistoryLimit:      cfg.HistoryLimit,
		ClockInitial:      cfg.ClockInitial,
		BotDeferred:       cfg.BotDeferred,
		BotTimeout:        cfg.BotTimeout,
	}, logger.Named("practice"))
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// HTTP builds the API server over the wired services.
func (d *Deps) HTTP(logger *zap.Logger) *httpapi.Server {
	return httpapi.New(httpapi.Deps{
		Games:    d.Games,
		Lobbies:  d.Lobbies,
		Practice: d.Service,
		Catalog:  d.Catalog,
		Logger:   logger,
	})
}

func (d *Deps) Close() error {
	var firstErr error
	if d.results != nil {
		if err := d.results.Close(); err != nil {
			firstErr = err
		}
	}
	if d.Games != nil {
		if err := d.Games.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
