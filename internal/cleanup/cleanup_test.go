package cleanup

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbastos/bankroll/internal/ledger"
	"github.com/pbastos/bankroll/internal/membership"
	"github.com/pbastos/bankroll/internal/room"
)

func setupSweeper(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Sweeper) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sweeper := NewSweeper(db, room.NewRepository(db), ledger.NewRepository(db), membership.NewRepository(db), 7)
	return db, mock, sweeper
}

func finishedRooms(ids ...string) *sqlmock.Rows {
	old := time.Now().Add(-30 * 24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "name", "password", "description", "status", "created_at", "updated_at"})
	for _, id := range ids {
		rows.AddRow(id, "Friday Poker", "pw", nil, room.StatusFinished, old, old)
	}
	return rows
}

func TestRun_RetiresFinishedRooms(t *testing.T) {
	db, mock, sweeper := setupSweeper(t)
	defer db.Close()

	mock.ExpectQuery("FROM rooms").WillReturnRows(finishedRooms("room-1"))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions").WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("UPDATE memberships").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE rooms").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sweeper.Run(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_ContinuesAfterFailedRoom(t *testing.T) {
	db, mock, sweeper := setupSweeper(t)
	defer db.Close()

	mock.ExpectQuery("FROM rooms").WillReturnRows(finishedRooms("room-1", "room-2"))

	// room-1 fails mid-sweep and is left for the next run
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	// room-2 is still retired
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE memberships").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE rooms").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sweeper.Run(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_NothingToDo(t *testing.T) {
	db, mock, sweeper := setupSweeper(t)
	defer db.Close()

	mock.ExpectQuery("FROM rooms").WillReturnRows(finishedRooms())

	sweeper.Run(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}
