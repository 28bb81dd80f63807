package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbastos/bankroll/internal/auth"
)

func setupService(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Service) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	tokens := auth.NewJWTManager("test-secret", time.Hour)
	return db, mock, NewService(NewRepository(db), tokens)
}

func TestCreate_IssuesToken(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "nickname", "created_at", "updated_at"}).
		AddRow("player-a", "alice", now, now)

	mock.ExpectQuery("INSERT INTO users").WillReturnRows(rows)

	created, token, err := svc.Create(context.Background(), &CreateUserRequest{Nickname: "  alice  "})

	require.NoError(t, err)
	assert.Equal(t, "player-a", created.ID)
	assert.Equal(t, "alice", created.Nickname)
	require.NotEmpty(t, token)

	claims, err := auth.NewJWTManager("test-secret", time.Hour).Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "player-a", claims.PlayerID)
	assert.Equal(t, "alice", claims.Nickname)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_MissingNickname(t *testing.T) {
	db, _, svc := setupService(t)
	defer db.Close()

	_, _, err := svc.Create(context.Background(), &CreateUserRequest{Nickname: "   "})

	assert.ErrorIs(t, err, ErrNicknameMissing)
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock, svc := setupService(t)
	defer db.Close()

	mock.ExpectQuery("FROM users").WillReturnError(sql.ErrNoRows)

	_, err := svc.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
