package auth

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	apperrors "userdir/internal/errors"
	"userdir/internal/model"
	"userdir/internal/repository"
)

const (
	// ContextPrincipal is the echo context key holding the authenticated account.
	ContextPrincipal = "principal"
	// ContextSessionID is the echo context key holding the live session id.
	ContextSessionID = "session_id"
)

// SessionMiddleware authenticates requests: token signature, live-session
// registry check, and principal load. Revoked, expired, and absent tokens are
// indistinguishable to the caller.
type SessionMiddleware struct {
	tokens   *TokenService
	sessions SessionStore
	accounts repository.AccountRepository
}

// NewSessionMiddleware wires the middleware's collaborators.
func NewSessionMiddleware(tokens *TokenService, sessions SessionStore, accounts repository.AccountRepository) *SessionMiddleware {
	return &SessionMiddleware{
		tokens:   tokens,
		sessions: sessions,
		accounts: accounts,
	}
}

// Require rejects requests without a live session.
func (m *SessionMiddleware) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, sessionID, err := m.resolve(c)
			if err != nil {
				return err
			}
			c.Set(ContextPrincipal, principal)
			c.Set(ContextSessionID, sessionID)
			return next(c)
		}
	}
}

// Optional resolves the principal when a live session is presented and
// continues anonymously otherwise. Backs GET /auth/me.
func (m *SessionMiddleware) Optional() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if principal, sessionID, err := m.resolve(c); err == nil {
				c.Set(ContextPrincipal, principal)
				c.Set(ContextSessionID, sessionID)
			}
			return next(c)
		}
	}
}

func (m *SessionMiddleware) resolve(c echo.Context) (*model.Account, string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, "", apperrors.ErrUnauthenticated
	}

	claims, err := m.tokens.Validate(token)
	if err != nil {
		return nil, "", apperrors.ErrUnauthenticated
	}

	ctx := c.Request().Context()
	current, err := m.sessions.Current(ctx, claims.AccountID)
	if err != nil || current != claims.ID {
		return nil, "", apperrors.ErrUnauthenticated
	}

	account, err := m.accounts.FindByIDIncludingDeleted(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrUnauthenticated
		}
		return nil, "", err
	}
	if account.Deleted() {
		return nil, "", apperrors.ErrAccountDeactivated
	}

	return account, claims.ID, nil
}

// RequireRoles gates a route on the authorizer's decision for the resource.
func RequireRoles(authorizer *Authorizer, resource string, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authorizer.Authorize(c.Request().Context(), Principal(c), resource, roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// Principal returns the authenticated account, or nil for anonymous requests.
func Principal(c echo.Context) *model.Account {
	principal, _ := c.Get(ContextPrincipal).(*model.Account)
	return principal
}

// SessionID returns the live session id bound to the request, or empty.
func SessionID(c echo.Context) string {
	id, _ := c.Get(ContextSessionID).(string)
	return id
}
