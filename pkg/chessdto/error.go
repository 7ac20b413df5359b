package chessdto

// Rejection codes carried by DomainError. Clients switch on these, the
// message is for people.
const (
	CodeIllegalMove       = "illegal_move"
	CodeInvalidInput      = "invalid_input"
	CodeNotYourTurn       = "not_your_turn"
	CodeGameOver          = "game_over"
	CodeConflict          = "conflict"
	CodeNotFound          = "not_found"
	CodeNotParticipant    = "not_participant"
	CodeSessionInProgress = "session_in_progress"
	CodeUndoUnavailable   = "undo_unavailable"
	CodeEngineTimeout     = "engine_timeout"
	CodeLobbyUnavailable  = "lobby_unavailable"
	CodePlayerBusy        = "player_busy"
	CodeInternal          = "internal"
)

// RejectionCodes lists every code a server may return.
var RejectionCodes = []string{
	CodeIllegalMove, CodeInvalidInput, CodeNotYourTurn, CodeGameOver,
	CodeConflict, CodeNotFound, CodeNotParticipant, CodeSessionInProgress,
	CodeUndoUnavailable, CodeEngineTimeout, CodeLobbyUnavailable,
	CodePlayerBusy, CodeInternal,
}

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess service error"
}
