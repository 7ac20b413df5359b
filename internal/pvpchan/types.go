package pvpchan

import (
	"strings"
	"time"
)

// LobbyState represents the lifecycle of a lobby.
type LobbyState string

const (
	StateLobby     LobbyState = "LOBBY"
	StateActive    LobbyState = "ACTIVE"
	StateCancelled LobbyState = "CANCELLED"
)

// ColorChoice is the creator's color preference.
type ColorChoice string

const (
	ColorWhite  ColorChoice = "white"
	ColorBlack  ColorChoice = "black"
	ColorRandom ColorChoice = "random"
)

// ParseColorChoice maps free text to a choice; anything unknown is random.
func ParseColorChoice(s string) ColorChoice {
	switch ColorChoice(strings.ToLower(strings.TrimSpace(s))) {
	case ColorWhite, "w":
		return ColorWhite
	case ColorBlack, "b":
		return ColorBlack
	}
	return ColorRandom
}

// LobbyMeta is stored as JSON in redis under lobby:<code>.
type LobbyMeta struct {
	Code      string      `json:"code"`
	State     LobbyState  `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	Color     ColorChoice `json:"color"`

	CreatorID   string `json:"creator_id"`
	CreatorName string `json:"creator_name"`
	JoinerID    string `json:"joiner_id,omitempty"`
	JoinerName  string `json:"joiner_name,omitempty"`

	GameID string `json:"game_id,omitempty"`
}

type MakeResult struct {
	Code string
	Meta *LobbyMeta
}

type JoinResult struct {
	GameID string
	Meta   *LobbyMeta
}

var (
	ErrInvalidArgs     = errf("invalid arguments")
	ErrLobbyGone       = errf("lobby not found or expired")
	ErrLobbyStarted    = errf("lobby already started")
	ErrSelfJoin        = errf("cannot join your own lobby")
	ErrPlayerBusy      = errf("player has an active game")
	ErrCreatorHasLobby = errf("user already has an open lobby")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
