package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"collabcalendar/internal/domain"
)

type authService struct {
	users     domain.UserRepository
	hasher    domain.PasswordHasher
	issuer    domain.TokenIssuer
	jwtExpiry time.Duration
	logger    *slog.Logger
}

// NewAuthService creates an AuthService that checks passwords with hasher and
// issues access tokens valid for jwtExpiry.
func NewAuthService(users domain.UserRepository, hasher domain.PasswordHasher, issuer domain.TokenIssuer, jwtExpiry time.Duration, logger *slog.Logger) domain.AuthService {
	return &authService{
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		jwtExpiry: jwtExpiry,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = domain.NormalizeAddress(email)
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidArgument)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}
	if err != nil {
		return "", nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		s.logger.Info("login rejected", "user_id", user.ID)
		return "", nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}
	token, err := s.issuer.Issue(user.ID, user.Email, s.jwtExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}
