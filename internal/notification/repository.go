package notification

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository handles notification data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new notification repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new notification
func (r *Repository) Create(ctx context.Context, playerID, roomID string, kind Kind, message string) (*Notification, error) {
	query := `
		INSERT INTO notifications (id, player_id, room_id, kind, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6)
		RETURNING id, player_id, room_id, kind, message, read, created_at
	`

	n := &Notification{}
	err := r.db.QueryRowContext(ctx, query, uuid.New().String(), playerID, roomID, kind, message, time.Now()).Scan(
		&n.ID,
		&n.PlayerID,
		&n.RoomID,
		&n.Kind,
		&n.Message,
		&n.Read,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return n, nil
}

// ListByPlayer retrieves a player's notifications, newest first
func (r *Repository) ListByPlayer(ctx context.Context, playerID string) ([]*Notification, error) {
	query := `
		SELECT id, player_id, room_id, kind, message, read, created_at
		FROM notifications
		WHERE player_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(
			&n.ID,
			&n.PlayerID,
			&n.RoomID,
			&n.Kind,
			&n.Message,
			&n.Read,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkRead flags a notification as read
func (r *Repository) MarkRead(ctx context.Context, id string) error {
	query := `UPDATE notifications SET read = true WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
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
