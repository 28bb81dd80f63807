package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the settlement state of a transaction
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// Transaction is a single signed-amount ledger entry, owned by one
// (room, player) pair. Core fields are immutable once written; only the
// status (and the soft-delete marker) ever changes.
type Transaction struct {
	ID          string          `json:"id"`
	RoomID      string          `json:"room_id"`
	PlayerID    string          `json:"player_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description,omitempty"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Populated from JOIN
	Nickname string `json:"nickname,omitempty"`
}
