package user

import (
	"context"
	"errors"
	"strings"

	"github.com/pbastos/bankroll/internal/auth"
)

// Common errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrNicknameMissing = errors.New("nickname is required")
)

// Service handles user business logic
type Service struct {
	repo   *Repository
	tokens *auth.JWTManager
}

// NewService creates a new user service
func NewService(repo *Repository, tokens *auth.JWTManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Create creates a new player account and issues its session token.
// There is no separate login flow: the token handed out here is the only
// credential a player ever gets.
func (s *Service) Create(ctx context.Context, req *CreateUserRequest) (*User, string, error) {
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Nickname == "" {
		return nil, "", ErrNicknameMissing
	}

	user, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Generate(user.ID, user.Nickname)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List retrieves all users
func (s *Service) List(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}
