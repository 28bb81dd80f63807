package room

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pbastos/bankroll/internal/database"
)

// Repository handles room data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new room repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new room and enrolls the creator as its first member,
// both in one atomic unit.
func (r *Repository) Create(ctx context.Context, creatorID string, req *CreateRoomRequest) (*Room, error) {
	room := &Room{}

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		now := time.Now()

		query := `
			INSERT INTO rooms (id, name, password, description, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING id, name, password, description, status, created_at, updated_at
		`
		err := tx.QueryRowContext(ctx, query,
			uuid.New().String(), req.Name, req.Password, req.Description, StatusPending, now,
		).Scan(
			&room.ID,
			&room.Name,
			&room.Password,
			&room.Description,
			&room.Status,
			&room.CreatedAt,
			&room.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}

		memberQuery := `
			INSERT INTO memberships (id, room_id, player_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
		`
		if _, err := tx.ExecContext(ctx, memberQuery, uuid.New().String(), room.ID, creatorID, now); err != nil {
			return fmt.Errorf("failed to enroll creator: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return room, nil
}

// GetByID retrieves a room by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Room, error) {
	query := `
		SELECT id, name, password, description, status, created_at, updated_at
		FROM rooms
		WHERE id = $1 AND deleted_at IS NULL
	`

	room := &Room{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.Password,
		&room.Description,
		&room.Status,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// List retrieves all active rooms
func (r *Repository) List(ctx context.Context) ([]*Room, error) {
	query := `
		SELECT id, name, password, description, status, created_at, updated_at
		FROM rooms
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		room := &Room{}
		if err := rows.Scan(
			&room.ID,
			&room.Name,
			&room.Password,
			&room.Description,
			&room.Status,
			&room.CreatedAt,
			&room.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// Update modifies a room's name, description or status
func (r *Repository) Update(ctx context.Context, id string, req *UpdateRoomRequest) (*Room, error) {
	query := `
		UPDATE rooms
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    status = COALESCE($4, status),
		    updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, name, password, description, status, created_at, updated_at
	`

	room := &Room{}
	err := r.db.QueryRowContext(ctx, query, id, req.Name, req.Description, req.Status, time.Now()).Scan(
		&room.ID,
		&room.Name,
		&room.Password,
		&room.Description,
		&room.Status,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	return room, nil
}

// SetStatus moves a room to the given status inside an existing atomic unit.
func (r *Repository) SetStatus(ctx context.Context, q database.DBTX, id string, status Status) error {
	query := `UPDATE rooms SET status = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`

	if _, err := q.ExecContext(ctx, query, id, status, time.Now()); err != nil {
		return fmt.Errorf("failed to set room status: %w", err)
	}
	return nil
}

// SoftDelete marks a room as deleted without removing the row
func (r *Repository) SoftDelete(ctx context.Context, q database.DBTX, id string) error {
	query := `UPDATE rooms SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := q.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
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

// ListFinishedBefore returns active rooms that reached FINISHED and have not
// been touched since the cutoff. Used by the retention sweeper.
func (r *Repository) ListFinishedBefore(ctx context.Context, cutoff time.Time) ([]*Room, error) {
	query := `
		SELECT id, name, password, description, status, created_at, updated_at
		FROM rooms
		WHERE status = $1 AND updated_at < $2 AND deleted_at IS NULL
	`

	rows, err := r.db.QueryContext(ctx, query, StatusFinished, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		room := &Room{}
		if err := rows.Scan(
			&room.ID,
			&room.Name,
			&room.Password,
			&room.Description,
			&room.Status,
			&room.CreatedAt,
			&room.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}
