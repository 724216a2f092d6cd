package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-auth-service"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaims_UserID(t *testing.T) {
	t.Run("prefers uid over subject", func(t *testing.T) {
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "42"},
			UID:              "100",
		}
		assert.Equal(t, "100", claims.UserID())
	})

	t.Run("falls back to subject", func(t *testing.T) {
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "42"},
		}
		assert.Equal(t, "42", claims.UserID())
		assert.Equal(t, "42", claims.Subject())
	})
}

func TestJWTClaims_HasRole(t *testing.T) {
	claims := &auth.JWTClaims{UserRole: string(auth.RoleAuditor)}

	assert.True(t, claims.HasRole("auditor"))
	assert.False(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("viewer"))
}

func TestJWTClaims_HasAnyRole(t *testing.T) {
	claims := &auth.JWTClaims{UserRole: string(auth.RoleViewer)}

	t.Run("empty list admits any authenticated user", func(t *testing.T) {
		assert.True(t, claims.HasAnyRole())
	})

	t.Run("member of the list", func(t *testing.T) {
		assert.True(t, claims.HasAnyRole("viewer", "auditor"))
	})

	t.Run("not a member of the list", func(t *testing.T) {
		assert.False(t, claims.HasAnyRole("admin", "auditor"))
	})
}

func TestJWTClaims_Timestamps(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	exp := now.Add(30 * time.Minute)

	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	assert.Equal(t, now, claims.IssuedAt())
	assert.Equal(t, exp, claims.Expires())

	empty := &auth.JWTClaims{}
	assert.True(t, empty.IssuedAt().IsZero())
	assert.True(t, empty.Expires().IsZero())
}
