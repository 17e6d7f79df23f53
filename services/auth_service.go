package services

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type IAuthService interface {
	Register(username, password string) (domain.User, error)
	Login(username, password string) (Token, error)
}

type Token string

func (t Token) String() string {
	return string(t)
}

type AuthService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	tokens         *auth.TokenService
}

func NewAuthService(log *slog.Logger, repo repositories.IUserRepository, tokens *auth.TokenService) *AuthService {
	return &AuthService{log: log, userRepository: repo, tokens: tokens}
}

// Register creates an account. Validation runs before any expensive hashing.
func (s *AuthService) Register(username, password string) (domain.User, error) {
	if err := auth.ValidateRegister(auth.RegisterRequest{Username: username, Password: password}); err != nil {
		return domain.User{}, err
	}

	// Hashing happens here so the repository never sees plain passwords
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     domain.Identity(username),
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}
	if err = s.userRepository.CreateUser(user); err != nil {
		return domain.User{}, err
	}
	s.log.Info("User registered", "identity", user.Username)
	return user, nil
}

// Login issues an access token. Unknown users and wrong passwords yield the
// same error so that usernames cannot be enumerated.
func (s *AuthService) Login(username, password string) (Token, error) {
	if err := auth.ValidateLogin(auth.LoginRequest{Username: username, Password: password}); err != nil {
		return "", err
	}

	user, err := s.userRepository.GetUserByUsername(domain.Identity(username))
	if errors.Is(err, errors.ErrUserNotFound) {
		return "", errors.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil {
		s.log.Error("Stored password digest is unreadable", "identity", user.Username, "error", err)
	}
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", err
	}
	return Token(token), nil
}
