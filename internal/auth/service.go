package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	admins AdminRepository
	tokens *TokenIssuer
}

func NewService(admins AdminRepository, tokens *TokenIssuer) *Service {
	return &Service{admins: admins, tokens: tokens}
}

// Login returns an access token for valid credentials. Unknown users and
// wrong passwords are reported the same way.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	admin, err := s.admins.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("load admin: %w", err)
	}
	if !CheckPassword(admin.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(admin.Username)
}

func (s *Service) CreateAdmin(ctx context.Context, username, password string) (*Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.Validation("username is required")
	}
	if password == "" {
		return nil, apperr.Validation("password is required")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	admin := &Admin{Username: username, PasswordHash: hash}
	if err := s.admins.InsertAdmin(ctx, admin); err != nil {
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	return admin, nil
}
