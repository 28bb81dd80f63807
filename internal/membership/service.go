package membership

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pbastos/bankroll/internal/notification"
	"github.com/pbastos/bankroll/internal/room"
	"github.com/pbastos/bankroll/internal/user"
)

// Common errors
var (
	ErrMembershipNotFound = errors.New("membership not found")
	ErrAlreadyMember      = errors.New("player is already in this room")
	ErrInvalidPassword    = errors.New("invalid room password")
	ErrAlreadyFinished    = errors.New("player has already declared bankruptcy")
)

// Service handles membership business logic
type Service struct {
	repo   *Repository
	rooms  *room.Repository
	users  *user.Repository
	notifs *notification.Service
}

// NewService creates a new membership service
func NewService(repo *Repository, rooms *room.Repository, users *user.Repository, notifs *notification.Service) *Service {
	return &Service{repo: repo, rooms: rooms, users: users, notifs: notifs}
}

// Join enrolls a player into a room. The room password is compared with
// plain equality; play-money rooms carry no hashing layer.
func (s *Service) Join(ctx context.Context, playerID string, req *JoinRoomRequest) (*Membership, error) {
	rm, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, room.ErrRoomNotFound
	}

	if rm.Password != req.Password {
		return nil, ErrInvalidPassword
	}

	player, err := s.users.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, user.ErrUserNotFound
	}

	existing, err := s.repo.GetByRoomAndPlayer(ctx, req.RoomID, playerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	return s.repo.Create(ctx, req.RoomID, playerID)
}

// GetByID retrieves a membership by its ID
func (s *Service) GetByID(ctx context.Context, id string) (*Membership, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMembershipNotFound
	}
	return m, nil
}

// ListByRoom retrieves all members of a room
func (s *Service) ListByRoom(ctx context.Context, roomID string) ([]*Membership, error) {
	rm, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, room.ErrRoomNotFound
	}

	return s.repo.ListByRoom(ctx, roomID)
}

// ListByPlayer retrieves all memberships of a player
func (s *Service) ListByPlayer(ctx context.Context, playerID string) ([]*Membership, error) {
	return s.repo.ListByPlayer(ctx, playerID)
}

// Remove soft-deletes a membership
func (s *Service) Remove(ctx context.Context, id string) error {
	err := s.repo.SoftDelete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMembershipNotFound
	}
	return err
}

// DeclareBankruptcy is the explicit player-initiated exit, independent of
// balance. It rejects when the flag is already set; it never clears it.
func (s *Service) DeclareBankruptcy(ctx context.Context, playerID, roomID string) (*Membership, error) {
	m, err := s.repo.GetByRoomAndPlayer(ctx, roomID, playerID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMembershipNotFound
	}

	if m.Finished() {
		return nil, ErrAlreadyFinished
	}

	updated, err := s.repo.SetFinished(ctx, m.ID, time.Now())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrMembershipNotFound
	}

	s.notifs.Notify(ctx, playerID, roomID, notification.KindBankruptcy, "You declared bankruptcy")

	return updated, nil
}
