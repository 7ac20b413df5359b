package chessdto

import "time"

type PlayerClock struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	RemainingMs int64  `json:"remaining_ms,omitempty"`
}

// GameState is the authoritative view of an online game.
type GameState struct {
	ID        string      `json:"id"`
	StartFEN  string      `json:"start_fen,omitempty"`
	FEN       string      `json:"fen"`
	MovesUCI  []string    `json:"moves_uci"`
	MovesSAN  []string    `json:"moves_san"`
	Turn      string      `json:"turn"`
	Status    string      `json:"status"`
	Result    string      `json:"result"`
	Outcome   string      `json:"outcome,omitempty"`
	// Winner is the winning player's id.
	Winner    string      `json:"winner,omitempty"`
	Version   int64       `json:"version"`
	White     PlayerClock `json:"white"`
	Black     PlayerClock `json:"black"`
	InitialMs int64       `json:"initial_ms,omitempty"`
	Lobby     string      `json:"lobby,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}
