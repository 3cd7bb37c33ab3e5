package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"userdir/internal/auth"
	apperrors "userdir/internal/errors"
	"userdir/internal/model"
	"userdir/internal/repository"
	"userdir/internal/validation"
)

// AuthService issues and revokes sessions.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, account *model.Account, err error)
	Logout(ctx context.Context, accountID uint, sessionID string) error
}

type authService struct {
	accounts repository.AccountRepository
	tokens   *auth.TokenService
	sessions auth.SessionStore
}

// NewAuthService creates a session issuer.
func NewAuthService(accounts repository.AccountRepository, tokens *auth.TokenService, sessions auth.SessionStore) AuthService {
	return &authService{
		accounts: accounts,
		tokens:   tokens,
		sessions: sessions,
	}
}

// Login validates credentials and issues the account's one live session,
// revoking whatever session was live before. Unknown email and wrong
// password produce the identical error so the endpoint cannot be used to
// probe which addresses exist; a deactivated account is told so distinctly.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.Account, error) {
	account, err := s.accounts.FindByEmailIncludingDeleted(ctx, validation.SanitizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if account.Deleted() {
		return "", nil, apperrors.ErrAccountDeactivated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	sessionID, token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return "", nil, err
	}
	// Replace overwrites the registry entry, invalidating any prior token.
	if err := s.sessions.Replace(ctx, account.ID, sessionID, s.tokens.TTL()); err != nil {
		return "", nil, err
	}

	return token, account, nil
}

// Logout revokes the current session's token only; a newer login from
// elsewhere is left untouched.
func (s *authService) Logout(ctx context.Context, accountID uint, sessionID string) error {
	return s.sessions.RevokeIfCurrent(ctx, accountID, sessionID)
}
