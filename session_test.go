package auth_test

import (
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionObject_GetUserIntID(t *testing.T) {
	session := &auth.SessionObject{UserID: "42"}

	id, err := session.GetUserIntID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	session.UserID = "not-a-number"
	_, err = session.GetUserIntID()
	assert.Error(t, err)
}

func TestSessionObject_GetRole(t *testing.T) {
	t.Run("known role", func(t *testing.T) {
		session := &auth.SessionObject{Data: map[string]any{"role": "auditor"}}
		role, ok := session.GetRole()
		assert.True(t, ok)
		assert.Equal(t, auth.RoleAuditor, role)
	})

	t.Run("unknown role string", func(t *testing.T) {
		session := &auth.SessionObject{Data: map[string]any{"role": "superhero"}}
		_, ok := session.GetRole()
		assert.False(t, ok)
	})

	t.Run("missing data", func(t *testing.T) {
		session := &auth.SessionObject{}
		_, ok := session.GetRole()
		assert.False(t, ok)
	})

	t.Run("non string role", func(t *testing.T) {
		session := &auth.SessionObject{Data: map[string]any{"role": 12}}
		_, ok := session.GetRole()
		assert.False(t, ok)
	})
}

func TestSessionObject_HasRole(t *testing.T) {
	session := &auth.SessionObject{Data: map[string]any{"role": "admin"}}

	assert.True(t, session.HasRole("admin"))
	assert.False(t, session.HasRole("viewer"))
}

func TestSessionFromToken_BuildsSession(t *testing.T) {
	provider := new(MockIdentityProvider)
	auther := auth.NewAuthenticator(provider, newTestConfig())

	token, err := auther.TokenService().Generate(testIdentity{id: "9", role: "auditor"})
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	assert.Equal(t, "9", session.GetUserID())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, []string{"test-audience"}, session.GetAudience())

	require.NotNil(t, session.GetIssuedAt())
	assert.WithinDuration(t, time.Now(), *session.GetIssuedAt(), 5*time.Second)

	data := session.GetData()
	require.NotNil(t, data)
	assert.Equal(t, "auditor", data["role"])

	sessionObj, ok := session.(*auth.SessionObject)
	require.True(t, ok)

	role, found := sessionObj.GetRole()
	assert.True(t, found)
	assert.Equal(t, auth.RoleAuditor, role)
}
