package notification

import "time"

// Kind classifies what a notification is about
type Kind string

const (
	KindTransferReceived Kind = "TRANSFER_RECEIVED"
	KindGameStarted      Kind = "GAME_STARTED"
	KindBankruptcy       Kind = "BANKRUPTCY"
)

// Notification is an in-app message for a player, derived from ledger and
// membership events. Never consulted by the ledger core.
type Notification struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id"`
	RoomID    string    `json:"room_id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
