package notification

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
)

// ErrNotificationNotFound is returned when the notification does not exist
var ErrNotificationNotFound = errors.New("notification not found")

// Service handles notification business logic
type Service struct {
	repo *Repository
}

// NewService creates a new notification service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Notify records a notification for a player. Best effort: failures are
// logged, never propagated, so a notification hiccup cannot fail a committed
// settlement.
func (s *Service) Notify(ctx context.Context, playerID, roomID string, kind Kind, message string) {
	if _, err := s.repo.Create(ctx, playerID, roomID, kind, message); err != nil {
		slog.Warn("failed to record notification",
			"player_id", playerID,
			"room_id", roomID,
			"kind", kind,
			"error", err,
		)
	}
}

// ListByPlayer retrieves a player's notifications
func (s *Service) ListByPlayer(ctx context.Context, playerID string) ([]*Notification, error) {
	return s.repo.ListByPlayer(ctx, playerID)
}

// MarkRead flags a notification as read
func (s *Service) MarkRead(ctx context.Context, id string) error {
	err := s.repo.MarkRead(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotificationNotFound
	}
	return err
}
