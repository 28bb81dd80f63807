package room

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Service) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, NewService(NewRepository(db))
}

func TestCreate_Success(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "password", "description", "status", "created_at", "updated_at"}).
		AddRow("room-1", "Friday Poker", "pw", nil, StatusPending, now, now)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO rooms").WillReturnRows(rows)
	mock.ExpectExec("INSERT INTO memberships").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rm, err := svc.Create(context.Background(), "player-a", &CreateRoomRequest{
		Name:     "Friday Poker",
		Password: "pw",
	})

	require.NoError(t, err)
	assert.Equal(t, "room-1", rm.ID)
	assert.Equal(t, StatusPending, rm.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_EnrollFailureRollsBack(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "password", "description", "status", "created_at", "updated_at"}).
		AddRow("room-1", "Friday Poker", "pw", nil, StatusPending, now, now)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO rooms").WillReturnRows(rows)
	mock.ExpectExec("INSERT INTO memberships").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	rm, err := svc.Create(context.Background(), "player-a", &CreateRoomRequest{
		Name:     "Friday Poker",
		Password: "pw",
	})

	assert.Error(t, err)
	assert.Nil(t, rm)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_MissingName(t *testing.T) {
	db, _, svc := setupService(t)
	defer db.Close()

	_, err := svc.Create(context.Background(), "player-a", &CreateRoomRequest{
		Name:     "   ",
		Password: "pw",
	})

	assert.ErrorIs(t, err, ErrNameMissing)
}

func TestCreate_MissingPassword(t *testing.T) {
	db, _, svc := setupService(t)
	defer db.Close()

	_, err := svc.Create(context.Background(), "player-a", &CreateRoomRequest{
		Name: "Friday Poker",
	})

	assert.ErrorIs(t, err, ErrPasswordMissing)
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	mock.ExpectQuery("FROM rooms").WillReturnError(sql.ErrNoRows)

	_, err := svc.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_InvalidStatus(t *testing.T) {
	db, _, svc := setupService(t)
	defer db.Close()

	bad := Status("EXPLODED")
	_, err := svc.Update(context.Background(), "room-1", &UpdateRoomRequest{Status: &bad})

	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestDelete_NotFound(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	mock.ExpectExec("UPDATE rooms").WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Delete(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
