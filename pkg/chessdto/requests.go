package chessdto

type StartPracticeRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Color      string `json:"color,omitempty"`
}

type StartPracticeResponse struct {
	State   *SessionState `json:"state"`
	Resumed bool          `json:"resumed"`
}

type PracticeMoveRequest struct {
	Move string `json:"move"`
}

type HistoryResponse struct {
	Games []*ChessGame `json:"games"`
}

type UpdateDifficultyRequest struct {
	Difficulty string `json:"difficulty"`
}

type CreateGameRequest struct {
	CreatorID    string `json:"creator_id"`
	CreatorName  string `json:"creator_name,omitempty"`
	OpponentID   string `json:"opponent_id"`
	OpponentName string `json:"opponent_name,omitempty"`
	// Color is the creator's color: white, black or random.
	Color string `json:"color,omitempty"`
}

type ResignRequest struct {
	PlayerID string `json:"player_id"`
}

type LobbyRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name,omitempty"`
	Color      string `json:"color,omitempty"`
}

type Lobby struct {
	Code        string `json:"code"`
	State       string `json:"state"`
	Color       string `json:"color"`
	CreatorID   string `json:"creator_id"`
	CreatorName string `json:"creator_name,omitempty"`
	JoinerID    string `json:"joiner_id,omitempty"`
	JoinerName  string `json:"joiner_name,omitempty"`
	GameID      string `json:"game_id,omitempty"`
}

type JoinLobbyResponse struct {
	Lobby *Lobby     `json:"lobby"`
	Game  *GameState `json:"game"`
}
