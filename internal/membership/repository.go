package membership

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pbastos/bankroll/internal/database"
)

// Repository handles membership data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new membership repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new membership for (room, player)
func (r *Repository) Create(ctx context.Context, roomID, playerID string) (*Membership, error) {
	query := `
		INSERT INTO memberships (id, room_id, player_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, room_id, player_id, finished_at, created_at, updated_at
	`

	m := &Membership{}
	err := r.db.QueryRowContext(ctx, query, uuid.New().String(), roomID, playerID, time.Now()).Scan(
		&m.ID,
		&m.RoomID,
		&m.PlayerID,
		&m.FinishedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	return m, nil
}

// GetByID retrieves a membership by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Membership, error) {
	query := `
		SELECT id, room_id, player_id, finished_at, created_at, updated_at
		FROM memberships
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByRoomAndPlayer retrieves the active membership for a (room, player) pair
func (r *Repository) GetByRoomAndPlayer(ctx context.Context, roomID, playerID string) (*Membership, error) {
	query := `
		SELECT id, room_id, player_id, finished_at, created_at, updated_at
		FROM memberships
		WHERE room_id = $1 AND player_id = $2 AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, roomID, playerID))
}

// LockByRoomAndPlayer retrieves the membership row FOR UPDATE inside an open
// transaction. Concurrent debits against the same player serialize here.
func (r *Repository) LockByRoomAndPlayer(ctx context.Context, tx database.DBTX, roomID, playerID string) (*Membership, error) {
	query := `
		SELECT id, room_id, player_id, finished_at, created_at, updated_at
		FROM memberships
		WHERE room_id = $1 AND player_id = $2 AND deleted_at IS NULL
		FOR UPDATE
	`

	return r.scanOne(tx.QueryRowContext(ctx, query, roomID, playerID))
}

// ListByRoom retrieves all active members of a room with their nicknames
func (r *Repository) ListByRoom(ctx context.Context, roomID string) ([]*Membership, error) {
	query := `
		SELECT m.id, m.room_id, m.player_id, m.finished_at, m.created_at, m.updated_at, u.nickname
		FROM memberships m
		JOIN users u ON m.player_id = u.id
		WHERE m.room_id = $1 AND m.deleted_at IS NULL
		ORDER BY m.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		m := &Membership{}
		if err := rows.Scan(
			&m.ID,
			&m.RoomID,
			&m.PlayerID,
			&m.FinishedAt,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.Nickname,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// ListByPlayer retrieves all active memberships of a player
func (r *Repository) ListByPlayer(ctx context.Context, playerID string) ([]*Membership, error) {
	query := `
		SELECT id, room_id, player_id, finished_at, created_at, updated_at
		FROM memberships
		WHERE player_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		m := &Membership{}
		if err := rows.Scan(
			&m.ID,
			&m.RoomID,
			&m.PlayerID,
			&m.FinishedAt,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// SetFinished stamps the bankruptcy timestamp on a membership.
// The flag is one-directional: this is the only mutation of finished_at and
// nothing ever writes NULL back.
func (r *Repository) SetFinished(ctx context.Context, id string, at time.Time) (*Membership, error) {
	query := `
		UPDATE memberships
		SET finished_at = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, room_id, player_id, finished_at, created_at, updated_at
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id, at, time.Now()))
}

// SoftDelete marks a membership as deleted
func (r *Repository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE memberships SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// SoftDeleteByRoom marks every membership of a room as deleted inside an
// existing atomic unit. Used by the retention sweeper.
func (r *Repository) SoftDeleteByRoom(ctx context.Context, q database.DBTX, roomID string) (int64, error) {
	query := `UPDATE memberships SET deleted_at = $2 WHERE room_id = $1 AND deleted_at IS NULL`

	result, err := q.ExecContext(ctx, query, roomID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete memberships: %w", err)
	}

	return result.RowsAffected()
}

func (r *Repository) scanOne(row *sql.Row) (*Membership, error) {
	m := &Membership{}
	err := row.Scan(
		&m.ID,
		&m.RoomID,
		&m.PlayerID,
		&m.FinishedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}
