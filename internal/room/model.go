package room

import "time"

// Status represents the lifecycle state of a room
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusStarted  Status = "STARTED"
	StatusPaused   Status = "PAUSED"
	StatusFinished Status = "FINISHED"
)

// IsValid reports whether s is a known room status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusStarted, StatusPaused, StatusFinished:
		return true
	}
	return false
}

// Room represents a shared money pool that players join
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Password    string    `json:"-"`
	Description *string   `json:"description,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
