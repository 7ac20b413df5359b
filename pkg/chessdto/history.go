package chessdto

import "time"

type ChessGame struct {
	ID           int64     `json:"id"`
	SessionUUID  string    `json:"session_uuid"`
	Difficulty   string    `json:"difficulty"`
	PlayerColor  string    `json:"player_color"`
	Result       string    `json:"result"`
	ResultMethod string    `json:"result_method"`
	MovesUCI     []string  `json:"moves_uci"`
	MovesSAN     []string  `json:"moves_san"`
	PGN          string    `json:"pgn"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	DurationMs   int64     `json:"duration_ms"`
	BotLatencyMs int64     `json:"bot_latency_ms"`
}
