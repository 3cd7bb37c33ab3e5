package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	sessionID, token, err := svc.Issue(42, "jane@example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, sessionID)
	assert.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), claims.AccountID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, sessionID, claims.ID)
}

func TestTokenService_EachIssueMintsADistinctSession(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	first, _, err := svc.Issue(42, "jane@example.com")
	assert.NoError(t, err)
	second, _, err := svc.Issue(42, "jane@example.com")
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenService_Validate_Rejections(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Validate("not-a-token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService("other-secret", time.Hour)
		_, token, err := other.Issue(42, "jane@example.com")
		assert.NoError(t, err)

		_, err = svc.Validate(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewTokenService("test-secret", -time.Minute)
		_, token, err := expired.Issue(42, "jane@example.com")
		assert.NoError(t, err)

		_, err = svc.Validate(token)
		assert.Error(t, err)
	})
}
