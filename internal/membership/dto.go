package membership

import "time"

// JoinRoomRequest represents the request to join a room
type JoinRoomRequest struct {
	RoomID   string `json:"room_id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// DeclareBankruptcyRequest represents the explicit bankruptcy action
type DeclareBankruptcyRequest struct {
	RoomID string `json:"room_id" validate:"required"`
}

// MembershipResponse represents a membership in API responses
type MembershipResponse struct {
	ID         string     `json:"id"`
	RoomID     string     `json:"room_id"`
	PlayerID   string     `json:"player_id"`
	Nickname   string     `json:"nickname,omitempty"`
	FinishedAt *time.Time `json:"finished_at"`
	JoinedAt   string     `json:"joined_at"`
}

// ToResponse converts a Membership model to a MembershipResponse DTO
func (m *Membership) ToResponse() *MembershipResponse {
	return &MembershipResponse{
		ID:         m.ID,
		RoomID:     m.RoomID,
		PlayerID:   m.PlayerID,
		Nickname:   m.Nickname,
		FinishedAt: m.FinishedAt,
		JoinedAt:   m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
