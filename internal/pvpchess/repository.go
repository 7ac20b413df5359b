package pvpchess

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
)

// Repository writes finished online games to postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// OpenRepository opens and pings DATABASE_URL.
func OpenRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// DB exposes the pool for repositories sharing the connection.
func (r *Repository) DB() *sql.DB { return r.db }

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a final game result.
func (r *Repository) SaveResult(ctx context.Context, g *Game) error {
	if r == nil || r.db == nil || g == nil {
		return nil
	}
	movesUCIRaw, err := json.Marshal(g.MovesUCI)
	if err != nil {
		return fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSANRaw, err := json.Marshal(g.MovesSAN)
	if err != nil {
		return fmt.Errorf("marshal moves_san: %w", err)
	}
	duration := g.UpdatedAt.Sub(g.CreatedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	const q = `INSERT INTO pvp_games (
        game_id, white_id, white_name, black_id, black_name, lobby_code,
        result, outcome, moves_uci, moves_san, pgn,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9::jsonb,$10::jsonb,$11,$12,$13,$14
      ) ON CONFLICT (game_id) DO UPDATE SET
        result=EXCLUDED.result,
        outcome=EXCLUDED.outcome,
        moves_uci=EXCLUDED.moves_uci,
        moves_san=EXCLUDED.moves_san,
        pgn=EXCLUDED.pgn,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err = r.db.ExecContext(ctx, q,
		g.ID,
		g.WhiteID, g.WhiteName,
		g.BlackID, g.BlackName,
		g.Lobby,
		g.Result, g.Outcome,
		string(movesUCIRaw), string(movesSANRaw),
		BuildPGN(g),
		g.CreatedAt, g.UpdatedAt, duration,
	)
	if err != nil {
		return fmt.Errorf("upsert pvp game: %w", err)
	}
	return nil
}

// BuildPGN renders the stored SAN list with the game's headers.
func BuildPGN(g *Game) string {
	date := g.UpdatedAt
	if date.IsZero() {
		date = time.Now()
	}
	tags := []chess.Tag{
		{Name: "Event", Value: "Online game"},
		{Name: "Site", Value: "Lockedin"},
		{Name: "Date", Value: date.Format("2006.01.02")},
		{Name: "White", Value: nameOr(g.WhiteName, g.WhiteID)},
		{Name: "Black", Value: nameOr(g.BlackName, g.BlackID)},
	}
	if g.Timed() {
		tags = append(tags, chess.Tag{Name: "TimeControl", Value: fmt.Sprintf("%d", g.InitialMs/1000)})
	}
	if g.StartFEN != "" {
		tags = append(tags, chess.Tag{Name: "SetUp", Value: "1"}, chess.Tag{Name: "FEN", Value: g.StartFEN})
	}
	if g.Result != "" {
		tags = append(tags, chess.Tag{Name: "Termination", Value: g.Result})
	}
	return chess.PGN(tags, g.MovesSAN, g.ChessResult())
}

func nameOr(name, id string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return id
}
