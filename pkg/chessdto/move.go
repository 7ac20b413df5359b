package chessdto

// MoveSummary summarises the player's move and the bot reply of one turn.
type MoveSummary struct {
	State       *SessionState `json:"state"`
	PlayerSAN   string        `json:"player_san,omitempty"`
	PlayerUCI   string        `json:"player_uci,omitempty"`
	BotSAN      string        `json:"bot_san,omitempty"`
	BotUCI      string        `json:"bot_uci,omitempty"`
	BotEvalCP   int           `json:"bot_eval_cp,omitempty"`
	Finished    bool          `json:"finished"`
	GameID      int64         `json:"game_id,omitempty"`
	Profile     *ChessProfile `json:"profile,omitempty"`
	RatingDelta int           `json:"rating_delta,omitempty"`
}

// MoveRequest submits an online move. Either From/To (with Promotion for a
// pawn reaching the last rank) or Move as coordinate or SAN text.
type MoveRequest struct {
	GameID    string `json:"game_id"`
	PlayerID  string `json:"player_id"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
	Move      string `json:"move,omitempty"`
}

type LegalMovesResponse struct {
	Square string   `json:"square,omitempty"`
	Moves  []string `json:"moves"`
}
