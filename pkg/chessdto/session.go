package chessdto

import "time"

type MaterialScore struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// SessionState is a practice game against the bot.
type SessionState struct {
	SessionUUID string        `json:"session_uuid"`
	Difficulty  string        `json:"difficulty"`
	PlayerColor string        `json:"player_color"`
	State       string        `json:"state"`
	FEN         string        `json:"fen"`
	Turn        string        `json:"turn"`
	InCheck     bool          `json:"in_check,omitempty"`
	MovesUCI    []string      `json:"moves_uci"`
	MovesSAN    []string      `json:"moves_san"`
	LastMove    string        `json:"last_move,omitempty"`
	MoveCount   int           `json:"move_count"`
	Material    MaterialScore `json:"material"`
	Result      string        `json:"result"`
	Winner      string        `json:"winner,omitempty"`
	Timed       bool          `json:"timed,omitempty"`
	WhiteMs     int64         `json:"white_ms,omitempty"`
	BlackMs     int64         `json:"black_ms,omitempty"`
	BotToMove   bool          `json:"bot_to_move,omitempty"`
	Undoable    bool          `json:"undoable,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Finished    bool          `json:"finished,omitempty"`
	GameID      int64         `json:"game_id,omitempty"`
	RatingDelta int           `json:"rating_delta,omitempty"`
	Profile     *ChessProfile `json:"profile,omitempty"`
}
