package domain

import "time"

// ChessGame is a finished practice game against the bot.
type ChessGame struct {
	ID           int64
	SessionUUID  string
	PlayerHash   string
	Difficulty   string
	PlayerColor  string
	Result       string
	ResultMethod string
	MovesUCI     []string
	MovesSAN     []string
	PGN          string
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
	BotLatency   time.Duration
}

// ChessProfile aggregates a player's practice record and rating.
type ChessProfile struct {
	PlayerHash          string
	DisplayName         string
	PreferredDifficulty string
	Rating              int
	GamesPlayed         int
	Wins                int
	Losses              int
	Draws               int
	Streak              int
	StreakType          string
	LastDifficulty      string
	LastPlayedAt        time.Time
	UpdatedAt           time.Time
	CreatedAt           time.Time
}
