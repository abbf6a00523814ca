//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/servicemocks/mock_auth_service.go -package=servicemocks
package services

import (
	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
	"context"
	"fmt"
	"strings"
)

type IAuthService interface {
	Register(ctx context.Context, username, displayName string) (Token, domain.UserRef, error)
	IssueToken(ctx context.Context, userID domain.UserID) (Token, error)
}

// AuthService registers users in the local directory and hands out session tokens.
// Passwords are not handled here: callers reach IssueToken once credentials have been checked.
type AuthService struct {
	userRepository repositories.IUserRepository
	issuer         *auth.TokenIssuer
}

type Token string

func (t Token) String() string {
	return string(t)
}

type registerRequest struct {
	Username    string `validate:"required,min=3,max=32"`
	DisplayName string `validate:"max=64"`
}

func NewAuthService(repo repositories.IUserRepository, issuer *auth.TokenIssuer) *AuthService {
	return &AuthService{userRepository: repo, issuer: issuer}
}

func (s *AuthService) Register(_ context.Context, username, displayName string) (Token, domain.UserRef, error) {
	req := registerRequest{Username: strings.TrimSpace(username), DisplayName: strings.TrimSpace(displayName)}
	if req.Username == "" {
		return "", domain.UserRef{}, errors.ErrBlankUsername
	}
	if err := validateStruct(req); err != nil {
		return "", domain.UserRef{}, err
	}
	if strings.ContainsAny(req.Username, " \t/\\") {
		return "", domain.UserRef{}, fmt.Errorf("%w: username contains spaces or slashes", errors.ErrValidation)
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	user, err := s.userRepository.CreateUser(req.Username, req.DisplayName)
	if err != nil {
		return "", domain.UserRef{}, err // ErrUserAlreadyExists when the username is taken
	}
	token, err := s.issuer.GenerateToken(user)
	if err != nil {
		return "", domain.UserRef{}, fmt.Errorf("token generation failed: %w", err)
	}
	return Token(token), user, nil
}

// IssueToken signs a token for an active user.
func (s *AuthService) IssueToken(ctx context.Context, userID domain.UserID) (Token, error) {
	user, err := s.userRepository.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", errors.ErrUserNotFound
	}
	token, err := s.issuer.GenerateToken(user)
	if err != nil {
		return "", fmt.Errorf("token generation failed: %w", err)
	}
	return Token(token), nil
}
