package user

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/ironvault/api/pkg/auth"
)

// Common errors
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrAccountAlreadyExists = errors.New("username or email already in use")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrAccountDisabled      = errors.New("account is disabled")
)

// Service handles user business logic
type Service struct {
	repo *Repository
	jwt  *auth.JWTManager
}

// NewService creates a new user service with dependencies injected
func NewService(repo *Repository, jwt *auth.JWTManager) *Service {
	return &Service{repo: repo, jwt: jwt}
}

// Register creates a new account with a bcrypt-hashed password and signs a token for it
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user, err := s.repo.Create(ctx, req, string(hash))
	if err != nil {
		return nil, "", err
	}

	token, err := s.jwt.Generate(user.ID, string(user.Role))
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Login verifies credentials and issues an access token
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*User, string, error) {
	var (
		user *User
		err  error
	)
	switch {
	case req.Username != "":
		user, err = s.repo.GetByUsername(ctx, req.Username)
	case req.Email != "":
		user, err = s.repo.GetByEmail(ctx, req.Email)
	default:
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwt.Generate(user.ID, string(user.Role))
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List retrieves all users with pagination
func (s *Service) List(ctx context.Context, page, perPage int) ([]*User, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.List(ctx, perPage, offset)
}

// UpdateProfile modifies the acting user's own profile
func (s *Service) UpdateProfile(ctx context.Context, id int64, req *UpdateProfileRequest) (*User, error) {
	user, err := s.repo.UpdateProfile(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
