package auth_test

import (
	"testing"

	auth "github.com/goliatone/go-auth-service"
	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"expired sentinel", auth.ErrTokenExpired, true},
		{"wrapped expired sentinel", errors.Wrap(auth.ErrTokenExpired, errors.CategoryAuth, "session check"), true},
		{"jwt library message", errors.New("token is expired by 10m", errors.CategoryAuth), true},
		{"unrelated error", errors.New("boom", errors.CategoryInternal), false},
		{"malformed sentinel", auth.ErrTokenMalformed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"malformed sentinel", auth.ErrTokenMalformed, true},
		{"wrapped malformed sentinel", errors.Wrap(auth.ErrTokenMalformed, errors.CategoryAuth, "session check"), true},
		{"jwt library message", errors.New("token is malformed: could not base64 decode", errors.CategoryAuth), true},
		{"fiber style message", errors.New("missing or malformed JWT", errors.CategoryAuth), true},
		{"expired sentinel", auth.ErrTokenExpired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsMalformedError(tt.err))
		})
	}
}

func TestIsAuthorizationError(t *testing.T) {
	assert.False(t, auth.IsAuthorizationError(nil))
	assert.True(t, auth.IsAuthorizationError(auth.ErrInsufficientRole))
	assert.True(t, auth.IsAuthorizationError(errors.Wrap(auth.ErrInsufficientRole, errors.CategoryAuthz, "route gate")))

	// authentication failures are not authorization failures
	assert.False(t, auth.IsAuthorizationError(auth.ErrMismatchedHashAndPassword))
	assert.False(t, auth.IsAuthorizationError(auth.ErrTokenExpired))
}

func TestCredentialErrorShape(t *testing.T) {
	var richErr *errors.Error
	assert.True(t, errors.As(auth.ErrMismatchedHashAndPassword, &richErr))
	assert.Equal(t, errors.CategoryAuth, richErr.Category)
	assert.Equal(t, errors.CodeUnauthorized, richErr.Code)
	assert.Equal(t, auth.TextCodeInvalidCreds, richErr.TextCode)
}

func TestInsufficientRoleErrorShape(t *testing.T) {
	var richErr *errors.Error
	assert.True(t, errors.As(auth.ErrInsufficientRole, &richErr))
	assert.Equal(t, errors.CategoryAuthz, richErr.Category)
	assert.Equal(t, errors.CodeForbidden, richErr.Code)
	assert.Equal(t, auth.TextCodeForbidden, richErr.TextCode)
}
