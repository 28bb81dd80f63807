package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbastos/bankroll/internal/membership"
	"github.com/pbastos/bankroll/internal/notification"
	"github.com/pbastos/bankroll/internal/room"
	"github.com/pbastos/bankroll/internal/user"
)

func setupService(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Service) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	svc := NewService(
		db,
		NewRepository(db),
		room.NewRepository(db),
		user.NewRepository(db),
		membership.NewRepository(db),
		notification.NewService(notification.NewRepository(db)),
	)

	return db, mock, svc
}

func roomRow(id string, status room.Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "password", "description", "status", "created_at", "updated_at"}).
		AddRow(id, "Friday Poker", "pw", nil, status, now, now)
}

func userRow(id, nickname string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "nickname", "created_at", "updated_at"}).
		AddRow(id, nickname, now, now)
}

func memberRow(roomID, playerID string, finishedAt *time.Time) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "room_id", "player_id", "finished_at", "created_at", "updated_at"}).
		AddRow("mem-"+playerID, roomID, playerID, finishedAt, now, now)
}

func txRow(id, roomID, playerID, amount string, status Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "room_id", "player_id", "amount", "description", "status", "created_at", "updated_at"}).
		AddRow(id, roomID, playerID, amount, "test entry", status, now, now)
}

func balanceRow(amount string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"coalesce"}).AddRow(amount)
}

func notificationRow(playerID, roomID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "player_id", "room_id", "kind", "message", "read", "created_at"}).
		AddRow("notif-1", playerID, roomID, "TRANSFER_RECEIVED", "msg", false, time.Now())
}

func TestTransfer_Success(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	roomID := "room-1"
	fromID := "player-a"
	toID := "player-b"

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow(roomID, room.StatusStarted))
	mock.ExpectQuery("FROM users").WillReturnRows(userRow(fromID, "alice"))
	mock.ExpectQuery("FROM users").WillReturnRows(userRow(toID, "bob"))
	mock.ExpectQuery("FROM memberships").WillReturnRows(memberRow(roomID, fromID, nil))
	mock.ExpectQuery("FROM memberships").WillReturnRows(memberRow(roomID, toID, nil))

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(memberRow(roomID, fromID, nil))
	mock.ExpectQuery("COALESCE").WillReturnRows(balanceRow("100.00"))
	mock.ExpectQuery("INSERT INTO transactions").WillReturnRows(txRow("tx-1", roomID, fromID, "-30.00", StatusPaid))
	mock.ExpectQuery("INSERT INTO transactions").WillReturnRows(txRow("tx-2", roomID, toID, "30.00", StatusPaid))
	mock.ExpectCommit()

	mock.ExpectQuery("COALESCE").WillReturnRows(balanceRow("70.00"))
	mock.ExpectQuery("COALESCE").WillReturnRows(balanceRow("130.00"))
	mock.ExpectQuery("INSERT INTO notifications").WillReturnRows(notificationRow(toID, roomID))

	pair, err := svc.Transfer(context.Background(), fromID, &TransferRequest{
		ToPlayerID: toID,
		RoomID:     roomID,
		Amount:     decimal.NewFromInt(30),
	})

	require.NoError(t, err)
	assert.True(t, pair.Debit.Amount.Equal(decimal.NewFromInt(-30)))
	assert.True(t, pair.Credit.Amount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, fromID, pair.Debit.PlayerID)
	assert.Equal(t, toID, pair.Credit.PlayerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	roomID := "room-1"
	fromID := "player-a"
	toID := "player-b"

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow(roomID, room.StatusStarted))
	mock.ExpectQuery("FROM users").WillReturnRows(userRow(fromID, "alice"))
	mock.ExpectQuery("FROM users").WillReturnRows(userRow(toID, "bob"))
	mock.ExpectQuery("FROM memberships").WillReturnRows(memberRow(roomID, fromID, nil))
	mock.ExpectQuery("FROM memberships").WillReturnRows(memberRow(roomID, toID, nil))

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(memberRow(roomID, fromID, nil))
	mock.ExpectQuery("COALESCE").WillReturnRows(balanceRow("10.00"))
	mock.ExpectRollback()

	pair, err := svc.Transfer(context.Background(), fromID, &TransferRequest{
		ToPlayerID: toID,
		RoomID:     roomID,
		Amount:     decimal.NewFromInt(50),
	})

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Nil(t, pair)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransfer_InvalidAmount(t *testing.T) {
	db, _, svc := setupService(t)
	defer db.Close()

	_, err := svc.Transfer(context.Background(), "player-a", &TransferRequest{
		ToPlayerID: "player-b",
		RoomID:     "room-1",
		Amount:     decimal.NewFromInt(-5),
	})

	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTransfer_SelfTransfer(t *testing.T) {
	db, _, svc := setupService(t)
	defer db.Close()

	_, err := svc.Transfer(context.Background(), "player-a", &TransferRequest{
		ToPlayerID: "player-a",
		RoomID:     "room-1",
		Amount:     decimal.NewFromInt(10),
	})

	assert.ErrorIs(t, err, ErrSelfTransfer)
}

func TestTransfer_RoomNotStarted(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow("room-1", room.StatusPending))

	_, err := svc.Transfer(context.Background(), "player-a", &TransferRequest{
		ToPlayerID: "player-b",
		RoomID:     "room-1",
		Amount:     decimal.NewFromInt(10),
	})

	assert.ErrorIs(t, err, ErrRoomNotStarted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransfer_SenderFinished(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	roomID := "room-1"
	finished := time.Now().Add(-time.Hour)

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow(roomID, room.StatusStarted))
	mock.ExpectQuery("FROM users").WillReturnRows(userRow("player-a", "alice"))
	mock.ExpectQuery("FROM users").WillReturnRows(userRow("player-b", "bob"))
	mock.ExpectQuery("FROM memberships").WillReturnRows(memberRow(roomID, "player-a", &finished))

	_, err := svc.Transfer(context.Background(), "player-a", &TransferRequest{
		ToPlayerID: "player-b",
		RoomID:     roomID,
		Amount:     decimal.NewFromInt(10),
	})

	assert.ErrorIs(t, err, ErrPlayerFinished)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransfer_ReceiverNotMember(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	roomID := "room-1"

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow(roomID, room.StatusStarted))
	mock.ExpectQuery("FROM users").WillReturnRows(userRow("player-a", "alice"))
	mock.ExpectQuery("FROM users").WillReturnRows(userRow("player-b", "bob"))
	mock.ExpectQuery("FROM memberships").WillReturnRows(memberRow(roomID, "player-a", nil))
	mock.ExpectQuery("FROM memberships").WillReturnError(sql.ErrNoRows)

	_, err := svc.Transfer(context.Background(), "player-a", &TransferRequest{
		ToPlayerID: "player-b",
		RoomID:     roomID,
		Amount:     decimal.NewFromInt(10),
	})

	assert.ErrorIs(t, err, ErrNotMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func startGameMembers(roomID string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "room_id", "player_id", "finished_at", "created_at", "updated_at", "nickname"}).
		AddRow("mem-a", roomID, "player-a", nil, now, now, "alice").
		AddRow("mem-b", roomID, "player-b", nil, now, now, "bob")
}

func TestStartGame_Success(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	roomID := "room-1"

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow(roomID, room.StatusPending))
	mock.ExpectQuery("FROM memberships").WillReturnRows(startGameMembers(roomID))

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO transactions").WillReturnRows(txRow("tx-1", roomID, "player-a", "500.00", StatusPaid))
	mock.ExpectQuery("INSERT INTO transactions").WillReturnRows(txRow("tx-2", roomID, "player-b", "500.00", StatusPaid))
	mock.ExpectExec("UPDATE rooms").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("INSERT INTO notifications").WillReturnRows(notificationRow("player-a", roomID))
	mock.ExpectQuery("INSERT INTO notifications").WillReturnRows(notificationRow("player-b", roomID))

	transactions, err := svc.StartGame(context.Background(), &StartGameRequest{
		RoomID:         roomID,
		InitialBalance: decimal.NewFromInt(500),
	})

	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.True(t, transactions[0].Amount.Equal(decimal.NewFromInt(500)))
	assert.True(t, transactions[1].Amount.Equal(decimal.NewFromInt(500)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartGame_InsertFailureRollsBack(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	roomID := "room-1"

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow(roomID, room.StatusPending))
	mock.ExpectQuery("FROM memberships").WillReturnRows(startGameMembers(roomID))

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO transactions").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	transactions, err := svc.StartGame(context.Background(), &StartGameRequest{
		RoomID:         roomID,
		InitialBalance: decimal.NewFromInt(500),
	})

	assert.Error(t, err)
	assert.Nil(t, transactions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartGame_NoMembers(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	roomID := "room-1"

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow(roomID, room.StatusPending))
	mock.ExpectQuery("FROM memberships").WillReturnRows(
		sqlmock.NewRows([]string{"id", "room_id", "player_id", "finished_at", "created_at", "updated_at", "nickname"}))

	_, err := svc.StartGame(context.Background(), &StartGameRequest{
		RoomID:         roomID,
		InitialBalance: decimal.NewFromInt(500),
	})

	assert.ErrorIs(t, err, ErrNoMembers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartGame_NotStartable(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow("room-1", room.StatusFinished))

	_, err := svc.StartGame(context.Background(), &StartGameRequest{
		RoomID:         "room-1",
		InitialBalance: decimal.NewFromInt(500),
	})

	assert.ErrorIs(t, err, ErrRoomNotStartable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Success(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	roomID := "room-1"
	playerID := "player-a"

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow(roomID, room.StatusStarted))
	mock.ExpectQuery("FROM users").WillReturnRows(userRow(playerID, "alice"))
	mock.ExpectQuery("FROM memberships").WillReturnRows(memberRow(roomID, playerID, nil))

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO transactions").WillReturnRows(txRow("tx-1", roomID, playerID, "25.00", StatusPending))
	mock.ExpectQuery("UPDATE transactions").WillReturnRows(txRow("tx-1", roomID, playerID, "25.00", StatusPaid))
	mock.ExpectCommit()

	mock.ExpectQuery("COALESCE").WillReturnRows(balanceRow("25.00"))

	settled, err := svc.Create(context.Background(), playerID, &CreateTransactionRequest{
		RoomID: roomID,
		Amount: decimal.NewFromInt(25),
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPaid, settled.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferToBank_FinishesPlayerAtZero(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	roomID := "room-1"
	playerID := "player-a"

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow(roomID, room.StatusStarted))
	mock.ExpectQuery("FROM users").WillReturnRows(userRow(playerID, "alice"))
	mock.ExpectQuery("FROM memberships").WillReturnRows(memberRow(roomID, playerID, nil))

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(memberRow(roomID, playerID, nil))
	mock.ExpectQuery("COALESCE").WillReturnRows(balanceRow("100.00"))
	mock.ExpectQuery("INSERT INTO transactions").WillReturnRows(txRow("tx-1", roomID, playerID, "-100.00", StatusPaid))
	mock.ExpectCommit()

	// The whole bankroll went to the bank: the monitor stamps finished_at.
	finished := time.Now()
	mock.ExpectQuery("COALESCE").WillReturnRows(balanceRow("0"))
	mock.ExpectQuery("FROM memberships").WillReturnRows(memberRow(roomID, playerID, nil))
	mock.ExpectQuery("UPDATE memberships").WillReturnRows(memberRow(roomID, playerID, &finished))

	tx, err := svc.TransferToBank(context.Background(), playerID, &BankRequest{
		RoomID: roomID,
		Amount: decimal.NewFromInt(100),
	})

	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(-100)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferToBank_AlreadyFinishedStaysFinished(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	roomID := "room-1"
	playerID := "player-a"
	finished := time.Now().Add(-time.Hour)

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow(roomID, room.StatusStarted))
	mock.ExpectQuery("FROM users").WillReturnRows(userRow(playerID, "alice"))
	mock.ExpectQuery("FROM memberships").WillReturnRows(memberRow(roomID, playerID, &finished))

	_, err := svc.TransferToBank(context.Background(), playerID, &BankRequest{
		RoomID: roomID,
		Amount: decimal.NewFromInt(10),
	})

	assert.ErrorIs(t, err, ErrPlayerFinished)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiveFromBank_Success(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	roomID := "room-1"
	playerID := "player-a"

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow(roomID, room.StatusStarted))
	mock.ExpectQuery("FROM users").WillReturnRows(userRow(playerID, "alice"))
	mock.ExpectQuery("FROM memberships").WillReturnRows(memberRow(roomID, playerID, nil))

	mock.ExpectQuery("INSERT INTO transactions").WillReturnRows(txRow("tx-1", roomID, playerID, "200.00", StatusPaid))
	mock.ExpectQuery("COALESCE").WillReturnRows(balanceRow("350.00"))

	tx, err := svc.ReceiveFromBank(context.Background(), playerID, &BankRequest{
		RoomID: roomID,
		Amount: decimal.NewFromInt(200),
	})

	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(200)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func cancelTxRow(id, roomID, playerID, amount string, status Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "room_id", "player_id", "amount", "description", "status", "created_at", "updated_at", "nickname"}).
		AddRow(id, roomID, playerID, amount, "test entry", status, now, now, "alice")
}

func TestCancel_Success(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	mock.ExpectQuery("FROM transactions").WillReturnRows(cancelTxRow("tx-1", "room-1", "player-a", "30.00", StatusPaid))
	mock.ExpectQuery("UPDATE transactions").WillReturnRows(txRow("tx-1", "room-1", "player-a", "30.00", StatusCancelled))
	mock.ExpectQuery("COALESCE").WillReturnRows(balanceRow("70.00"))

	cancelled, err := svc.Cancel(context.Background(), "tx-1")

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	mock.ExpectQuery("FROM transactions").WillReturnRows(cancelTxRow("tx-1", "room-1", "player-a", "30.00", StatusCancelled))

	_, err := svc.Cancel(context.Background(), "tx-1")

	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_NotFound(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	mock.ExpectQuery("FROM transactions").WillReturnError(sql.ErrNoRows)

	_, err := svc.Cancel(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrTransactionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllPlayersBalance(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	roomID := "room-1"

	mock.ExpectQuery("FROM rooms").WillReturnRows(roomRow(roomID, room.StatusStarted))
	mock.ExpectQuery("FROM memberships").WillReturnRows(startGameMembers(roomID))
	mock.ExpectQuery("COALESCE").WillReturnRows(balanceRow("120.00"))
	mock.ExpectQuery("COALESCE").WillReturnRows(balanceRow("-20.00"))

	balances, err := svc.AllPlayersBalance(context.Background(), roomID)

	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "alice", balances[0].Nickname)
	assert.True(t, balances[0].Balance.Equal(decimal.NewFromInt(120)))
	assert.True(t, balances[1].Balance.Equal(decimal.NewFromInt(-20)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
