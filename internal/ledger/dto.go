package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateTransactionRequest represents a free-form ledger entry for the
// current player. Amount is signed: positive credits, negative debits.
type CreateTransactionRequest struct {
	RoomID      string          `json:"room_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description *string         `json:"description,omitempty"`
}

// StartGameRequest kicks off a room: every member gets the initial balance
type StartGameRequest struct {
	RoomID         string          `json:"room_id" validate:"required"`
	InitialBalance decimal.Decimal `json:"initial_balance" validate:"required"`
}

// TransferRequest moves money from the current player to another member
type TransferRequest struct {
	ToPlayerID  string          `json:"to_player_id" validate:"required"`
	RoomID      string          `json:"room_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description *string         `json:"description,omitempty"`
}

// BankRequest moves money between the current player and the bank
type BankRequest struct {
	RoomID      string          `json:"room_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description *string         `json:"description,omitempty"`
}

// TransferPair is the debit/credit pair created by a successful transfer
type TransferPair struct {
	Debit  *Transaction `json:"debit"`
	Credit *Transaction `json:"credit"`
}

// BalanceResponse is a player's derived balance plus their statement
type BalanceResponse struct {
	Balance      decimal.Decimal `json:"balance"`
	Transactions []*Transaction  `json:"transactions"`
}

// PlayerBalance is one row of the all-players overview for a room
type PlayerBalance struct {
	PlayerID   string          `json:"player_id"`
	Nickname   string          `json:"nickname"`
	Balance    decimal.Decimal `json:"balance"`
	FinishedAt *time.Time      `json:"finished_at"`
}
