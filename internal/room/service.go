package room

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Common errors
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrNameMissing     = errors.New("room name is required")
	ErrPasswordMissing = errors.New("room password is required")
	ErrInvalidStatus   = errors.New("invalid room status")
)

// Service handles room business logic
type Service struct {
	repo *Repository
}

// NewService creates a new room service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create creates a new room with the creator enrolled as its first member
func (s *Service) Create(ctx context.Context, creatorID string, req *CreateRoomRequest) (*Room, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrNameMissing
	}
	if req.Password == "" {
		return nil, ErrPasswordMissing
	}

	return s.repo.Create(ctx, creatorID, req)
}

// GetByID retrieves a room by its ID
func (s *Service) GetByID(ctx context.Context, id string) (*Room, error) {
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// List retrieves all active rooms
func (s *Service) List(ctx context.Context) ([]*Room, error) {
	return s.repo.List(ctx)
}

// Update modifies a room's name, description or status
func (s *Service) Update(ctx context.Context, id string, req *UpdateRoomRequest) (*Room, error) {
	if req.Status != nil && !req.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	room, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Delete soft-deletes a room
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.SoftDelete(ctx, s.repo.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	return err
}
