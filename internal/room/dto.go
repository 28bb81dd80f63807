package room

// CreateRoomRequest represents the request to create a new room
type CreateRoomRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Password    string  `json:"password" validate:"required,min=1"`
	Description *string `json:"description,omitempty"`
}

// UpdateRoomRequest represents the request to update a room
type UpdateRoomRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// RoomResponse represents the response for a room
type RoomResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Status      Status  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

// ToResponse converts a Room model to a RoomResponse DTO
func (r *Room) ToResponse() *RoomResponse {
	return &RoomResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
