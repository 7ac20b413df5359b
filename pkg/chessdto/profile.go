package chessdto

import "time"

type ChessProfile struct {
	DisplayName         string    `json:"display_name,omitempty"`
	PreferredDifficulty string    `json:"preferred_difficulty,omitempty"`
	Rating              int       `json:"rating"`
	GamesPlayed         int       `json:"games_played"`
	Wins                int       `json:"wins"`
	Losses              int       `json:"losses"`
	Draws               int       `json:"draws"`
	Streak              int       `json:"streak"`
	StreakType          string    `json:"streak_type,omitempty"`
	LastDifficulty      string    `json:"last_difficulty,omitempty"`
	LastPlayedAt        time.Time `json:"last_played_at"`
}
