package user

// CreateUserRequest represents the request to create a new player account
type CreateUserRequest struct {
	Nickname string `json:"nickname" validate:"required,min=1,max=50"`
}

// UserResponse represents the response for a user
type UserResponse struct {
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	CreatedAt string `json:"created_at"`
}

// CreatedUserResponse is returned on signup: the user plus a session token
type CreatedUserResponse struct {
	User  *UserResponse `json:"user"`
	Token string        `json:"token"`
}

// ToResponse converts a User model to a UserResponse DTO
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Nickname:  u.Nickname,
		CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
