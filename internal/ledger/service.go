package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pbastos/bankroll/internal/database"
	"github.com/pbastos/bankroll/internal/membership"
	"github.com/pbastos/bankroll/internal/notification"
	"github.com/pbastos/bankroll/internal/room"
	"github.com/pbastos/bankroll/internal/user"
)

// Common errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidAmount       = errors.New("amount must be greater than 0")
	ErrSelfTransfer        = errors.New("cannot transfer money to yourself")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyCancelled    = errors.New("transaction is already cancelled")
	ErrNotMember           = errors.New("player is not in this room")
	ErrPlayerFinished      = errors.New("player has declared bankruptcy and cannot perform transactions")
	ErrRoomNotStarted      = errors.New("room is not started")
	ErrRoomNotStartable    = errors.New("room cannot be started in its current status")
	ErrNoMembers           = errors.New("no players in this room")
)

// Service is the settlement engine. Every operation that moves money runs
// its writes inside one atomic unit and triggers the finish-state recheck
// for the affected players after commit.
type Service struct {
	db      *sql.DB
	repo    *Repository
	rooms   *room.Repository
	users   *user.Repository
	members *membership.Repository
	notifs  *notification.Service
}

// NewService creates a new ledger service
func NewService(db *sql.DB, repo *Repository, rooms *room.Repository, users *user.Repository, members *membership.Repository, notifs *notification.Service) *Service {
	return &Service{
		db:      db,
		repo:    repo,
		rooms:   rooms,
		users:   users,
		members: members,
		notifs:  notifs,
	}
}

// StartGame credits every member of the room with the initial balance in a
// single atomic unit and moves the room to STARTED. A failed insert aborts
// the whole batch: no player ever starts with money the others did not get.
func (s *Service) StartGame(ctx context.Context, req *StartGameRequest) ([]*Transaction, error) {
	rm, err := s.getRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if rm.Status != room.StatusPending && rm.Status != room.StatusStarted {
		return nil, ErrRoomNotStartable
	}

	if !req.InitialBalance.IsPositive() {
		return nil, ErrInvalidAmount
	}

	members, err := s.members.ListByRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrNoMembers
	}

	description := "Initial balance"
	var transactions []*Transaction

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, m := range members {
			t, err := s.repo.Append(ctx, tx, req.RoomID, m.PlayerID, req.InitialBalance, &description, StatusPaid)
			if err != nil {
				return err
			}
			transactions = append(transactions, t)
		}

		return s.rooms.SetStatus(ctx, tx, req.RoomID, room.StatusStarted)
	})
	if err != nil {
		return nil, err
	}

	for _, m := range members {
		s.notifs.Notify(ctx, m.PlayerID, req.RoomID, notification.KindGameStarted,
			fmt.Sprintf("Game started with an initial balance of %s", req.InitialBalance.StringFixed(2)))
	}

	return transactions, nil
}

// Create appends a free-form signed entry for the player and settles it in
// the same atomic unit. The PENDING state exists in the data model for a
// future asynchronous settlement path, but today nothing external drives it:
// settlement always happens synchronously here.
func (s *Service) Create(ctx context.Context, playerID string, req *CreateTransactionRequest) (*Transaction, error) {
	if _, err := s.getRoom(ctx, req.RoomID); err != nil {
		return nil, err
	}
	if _, err := s.getUser(ctx, playerID); err != nil {
		return nil, err
	}
	if _, err := s.activeMember(ctx, req.RoomID, playerID); err != nil {
		return nil, err
	}

	var settled *Transaction
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		pending, err := s.repo.Append(ctx, tx, req.RoomID, playerID, req.Amount, req.Description, StatusPending)
		if err != nil {
			return err
		}

		settled, err = s.repo.UpdateStatus(ctx, tx, pending.ID, StatusPaid)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.recheckFinished(ctx, playerID, req.RoomID); err != nil {
		return nil, err
	}

	return settled, nil
}

// Transfer moves money between two members of a room: one PAID debit for the
// sender, one PAID credit for the receiver, committed together. The sender's
// membership row is locked before the balance check so concurrent transfers
// from the same sender serialize instead of racing the check.
func (s *Service) Transfer(ctx context.Context, fromPlayerID string, req *TransferRequest) (*TransferPair, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if fromPlayerID == req.ToPlayerID {
		return nil, ErrSelfTransfer
	}

	rm, err := s.getRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if rm.Status != room.StatusStarted {
		return nil, ErrRoomNotStarted
	}

	fromUser, err := s.getUser(ctx, fromPlayerID)
	if err != nil {
		return nil, err
	}
	toUser, err := s.getUser(ctx, req.ToPlayerID)
	if err != nil {
		return nil, err
	}

	// Gate the sender fully; the receiver only needs to be a member, since
	// gaining money cannot finish a player.
	if _, err := s.activeMember(ctx, req.RoomID, fromPlayerID); err != nil {
		return nil, err
	}
	receiver, err := s.members.GetByRoomAndPlayer(ctx, req.RoomID, req.ToPlayerID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrNotMember
	}

	pair := &TransferPair{}
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.members.LockByRoomAndPlayer(ctx, tx, req.RoomID, fromPlayerID); err != nil {
			return err
		}

		balance, err := s.repo.SumPaid(ctx, tx, req.RoomID, fromPlayerID)
		if err != nil {
			return err
		}
		if balance.LessThan(req.Amount) {
			return ErrInsufficientBalance
		}

		debitDesc := descriptionOr(req.Description, "Transfer to "+toUser.Nickname)
		pair.Debit, err = s.repo.Append(ctx, tx, req.RoomID, fromPlayerID, req.Amount.Neg(), &debitDesc, StatusPaid)
		if err != nil {
			return err
		}

		creditDesc := descriptionOr(req.Description, "Transfer from "+fromUser.Nickname)
		pair.Credit, err = s.repo.Append(ctx, tx, req.RoomID, req.ToPlayerID, req.Amount, &creditDesc, StatusPaid)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.recheckFinished(ctx, fromPlayerID, req.RoomID); err != nil {
		return nil, err
	}
	if err := s.recheckFinished(ctx, req.ToPlayerID, req.RoomID); err != nil {
		return nil, err
	}

	s.notifs.Notify(ctx, req.ToPlayerID, req.RoomID, notification.KindTransferReceived,
		fmt.Sprintf("%s sent you %s", fromUser.Nickname, req.Amount.StringFixed(2)))

	return pair, nil
}

// ReceiveFromBank credits the player with money from the bank
func (s *Service) ReceiveFromBank(ctx context.Context, playerID string, req *BankRequest) (*Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if err := s.gateBankOperation(ctx, playerID, req.RoomID); err != nil {
		return nil, err
	}

	description := descriptionOr(req.Description, "Money from bank")
	t, err := s.repo.Append(ctx, s.db, req.RoomID, playerID, req.Amount, &description, StatusPaid)
	if err != nil {
		return nil, err
	}

	// A credit cannot finish a player; rechecked anyway for consistency.
	if err := s.recheckFinished(ctx, playerID, req.RoomID); err != nil {
		return nil, err
	}

	return t, nil
}

// TransferToBank debits the player in favor of the bank. Like a peer
// transfer, the balance check happens under the sender's membership lock.
func (s *Service) TransferToBank(ctx context.Context, playerID string, req *BankRequest) (*Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if err := s.gateBankOperation(ctx, playerID, req.RoomID); err != nil {
		return nil, err
	}

	var t *Transaction
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.members.LockByRoomAndPlayer(ctx, tx, req.RoomID, playerID); err != nil {
			return err
		}

		balance, err := s.repo.SumPaid(ctx, tx, req.RoomID, playerID)
		if err != nil {
			return err
		}
		if balance.LessThan(req.Amount) {
			return ErrInsufficientBalance
		}

		description := descriptionOr(req.Description, "Money to bank")
		t, err = s.repo.Append(ctx, tx, req.RoomID, playerID, req.Amount.Neg(), &description, StatusPaid)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.recheckFinished(ctx, playerID, req.RoomID); err != nil {
		return nil, err
	}

	return t, nil
}

// Cancel sets a transaction to CANCELLED, removing it from every balance.
// CANCELLED is terminal. The owning player's finish state is rechecked
// unconditionally: cancelling a credit can push a balance to zero just as
// cancelling a debit can raise it.
func (s *Service) Cancel(ctx context.Context, id string) (*Transaction, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrTransactionNotFound
	}
	if existing.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	cancelled, err := s.repo.UpdateStatus(ctx, s.db, id, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if cancelled == nil {
		return nil, ErrTransactionNotFound
	}

	if err := s.recheckFinished(ctx, existing.PlayerID, existing.RoomID); err != nil {
		return nil, err
	}

	return cancelled, nil
}

// Balance derives the player's current balance in a room. Pure read.
func (s *Service) Balance(ctx context.Context, playerID, roomID string) (decimal.Decimal, error) {
	return s.repo.SumPaid(ctx, s.db, roomID, playerID)
}

// GetBalance returns the player's balance together with their statement
func (s *Service) GetBalance(ctx context.Context, playerID, roomID string) (*BalanceResponse, error) {
	balance, err := s.repo.SumPaid(ctx, s.db, roomID, playerID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.repo.ListByRoomAndPlayer(ctx, roomID, playerID)
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{Balance: balance, Transactions: transactions}, nil
}

// AllPlayersBalance returns the balance overview for every member of a room
func (s *Service) AllPlayersBalance(ctx context.Context, roomID string) ([]*PlayerBalance, error) {
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return nil, err
	}

	members, err := s.members.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	balances := make([]*PlayerBalance, 0, len(members))
	for _, m := range members {
		balance, err := s.repo.SumPaid(ctx, s.db, roomID, m.PlayerID)
		if err != nil {
			return nil, err
		}
		balances = append(balances, &PlayerBalance{
			PlayerID:   m.PlayerID,
			Nickname:   m.Nickname,
			Balance:    balance,
			FinishedAt: m.FinishedAt,
		})
	}

	return balances, nil
}

// GetByID retrieves a transaction by its ID
func (s *Service) GetByID(ctx context.Context, id string) (*Transaction, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

// ListByRoom retrieves a room's transactions
func (s *Service) ListByRoom(ctx context.Context, roomID string) ([]*Transaction, error) {
	return s.repo.ListByRoom(ctx, roomID)
}

// ListByPlayer retrieves a player's transactions
func (s *Service) ListByPlayer(ctx context.Context, playerID string) ([]*Transaction, error) {
	return s.repo.ListByPlayer(ctx, playerID)
}

// recheckFinished is the finish-state monitor. It recomputes the balance
// after a settlement and stamps finished_at once the balance reaches zero or
// below. The transition is one-directional: a balance that later rises above
// zero does not clear the flag.
func (s *Service) recheckFinished(ctx context.Context, playerID, roomID string) error {
	balance, err := s.repo.SumPaid(ctx, s.db, roomID, playerID)
	if err != nil {
		return err
	}
	if balance.IsPositive() {
		return nil
	}

	m, err := s.members.GetByRoomAndPlayer(ctx, roomID, playerID)
	if err != nil {
		return err
	}
	if m == nil || m.Finished() {
		return nil
	}

	_, err = s.members.SetFinished(ctx, m.ID, time.Now())
	return err
}

// gateBankOperation runs the shared preconditions of both bank operations:
// the room exists and is started, the player exists and is an active member.
func (s *Service) gateBankOperation(ctx context.Context, playerID, roomID string) error {
	rm, err := s.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if rm.Status != room.StatusStarted {
		return ErrRoomNotStarted
	}

	if _, err := s.getUser(ctx, playerID); err != nil {
		return err
	}

	_, err = s.activeMember(ctx, roomID, playerID)
	return err
}

// activeMember is the membership gate: the player must be an active,
// non-finished member of the room to move money.
func (s *Service) activeMember(ctx context.Context, roomID, playerID string) (*membership.Membership, error) {
	m, err := s.members.GetByRoomAndPlayer(ctx, roomID, playerID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotMember
	}
	if m.Finished() {
		return nil, ErrPlayerFinished
	}
	return m, nil
}

func (s *Service) getRoom(ctx context.Context, roomID string) (*room.Room, error) {
	rm, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, room.ErrRoomNotFound
	}
	return rm, nil
}

func (s *Service) getUser(ctx context.Context, playerID string) (*user.User, error) {
	u, err := s.users.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func descriptionOr(description *string, fallback string) string {
	if description != nil && *description != "" {
		return *description
	}
	return fallback
}
