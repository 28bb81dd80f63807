package membership

import "time"

// Membership represents a player's participation in a room.
// FinishedAt is the bankruptcy flag: null means the player is active, a set
// value means the player is out. Once set it is never cleared by any exposed
// operation.
type Membership struct {
	ID         string     `json:"id"`
	RoomID     string     `json:"room_id"`
	PlayerID   string     `json:"player_id"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Populated from JOIN
	Nickname string `json:"nickname,omitempty"`
}

// Finished reports whether the player is out of the game in this room
func (m *Membership) Finished() bool {
	return m.FinishedAt != nil
}
