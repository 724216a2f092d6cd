package auth_test

import (
	"context"
	"testing"
	"time"

	auth "github.com/goliatone/go-auth-service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializePasswordResetHandler_Execute(t *testing.T) {
	bunDB, cleanup := setupTestDB(t)
	defer cleanup()

	repo := auth.NewRepositoryManager(bunDB)
	ctx := context.Background()

	user, err := repo.Users().Create(ctx, &auth.User{
		Email:        "reset.me@example.com",
		PasswordHash: hashFor(t, "old-password"),
		Role:         auth.RoleViewer,
		IsActive:     true,
	})
	require.NoError(t, err)

	handler := auth.NewInitializePasswordResetHandler(repo).WithLogger(noopLogger{})

	t.Run("known email records a reset request", func(t *testing.T) {
		var resp *auth.InitializePasswordResetResponse

		err := handler.Execute(ctx, auth.InitializePasswordResetMessage{
			Stage: auth.ResetInit,
			Email: "reset.me@example.com",
			OnResponse: func(r *auth.InitializePasswordResetResponse) {
				resp = r
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp)

		assert.True(t, resp.Success)
		assert.Equal(t, auth.AccountVerification, resp.Stage)

		require.NotNil(t, resp.Reset)
		assert.Equal(t, user.ID, resp.Reset.UserID)
		assert.Equal(t, user.Email, resp.Reset.Email)
		assert.Equal(t, auth.ResetRequestedStatus, resp.Reset.Status)
	})

	t.Run("unknown email yields the same outward response", func(t *testing.T) {
		var resp *auth.InitializePasswordResetResponse

		err := handler.Execute(ctx, auth.InitializePasswordResetMessage{
			Stage: auth.ResetInit,
			Email: "ghost@example.com",
			OnResponse: func(r *auth.InitializePasswordResetResponse) {
				resp = r
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp)

		assert.True(t, resp.Success)
		assert.Equal(t, auth.AccountVerification, resp.Stage)
		assert.Nil(t, resp.Reset)

		count, err := bunDB.NewSelect().
			Table("password_resets").
			Where("email = ?", "ghost@example.com").
			Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("wrong stage is rejected", func(t *testing.T) {
		err := handler.Execute(ctx, auth.InitializePasswordResetMessage{
			Stage: auth.ChangingPassword,
			Email: "reset.me@example.com",
		})
		assert.Error(t, err)
	})
}

func TestFinalizePasswordResetHandler_Execute(t *testing.T) {
	bunDB, cleanup := setupTestDB(t)
	defer cleanup()

	repo := auth.NewRepositoryManager(bunDB)
	ctx := context.Background()

	user, err := repo.Users().Create(ctx, &auth.User{
		Email:        "finalize@example.com",
		PasswordHash: hashFor(t, "old-password"),
		Role:         auth.RoleViewer,
		IsActive:     true,
	})
	require.NoError(t, err)

	initialize := auth.NewInitializePasswordResetHandler(repo).WithLogger(noopLogger{})
	finalize := auth.NewFinalizePasswordResetHandler(repo).WithLogger(noopLogger{})

	requestReset := func(t *testing.T) *auth.PasswordReset {
		t.Helper()

		var resp *auth.InitializePasswordResetResponse
		err := initialize.Execute(ctx, auth.InitializePasswordResetMessage{
			Stage: auth.ResetInit,
			Email: user.Email,
			OnResponse: func(r *auth.InitializePasswordResetResponse) {
				resp = r
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp.Reset)
		return resp.Reset
	}

	t.Run("valid token installs the new password", func(t *testing.T) {
		reset := requestReset(t)

		err := finalize.Execute(ctx, auth.FinalizePasswordResetMessage{
			Session:  reset.ID.String(),
			Password: "brand-new-password",
		})
		require.NoError(t, err)

		reloaded, err := repo.Users().GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NoError(t, auth.ComparePasswordAndHash("brand-new-password", reloaded.PasswordHash))

		record, err := repo.PasswordResets().GetByID(ctx, reset.ID.String())
		require.NoError(t, err)
		assert.Equal(t, auth.ResetChangedStatus, record.Status)
		assert.NotNil(t, record.ResetedAt)
	})

	t.Run("consumed token cannot be redeemed twice", func(t *testing.T) {
		reset := requestReset(t)

		err := finalize.Execute(ctx, auth.FinalizePasswordResetMessage{
			Session:  reset.ID.String(),
			Password: "first-new-password",
		})
		require.NoError(t, err)

		err = finalize.Execute(ctx, auth.FinalizePasswordResetMessage{
			Session:  reset.ID.String(),
			Password: "second-new-password",
		})
		assert.ErrorIs(t, err, auth.ErrResetInvalid)

		reloaded, err := repo.Users().GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NoError(t, auth.ComparePasswordAndHash("first-new-password", reloaded.PasswordHash))
	})

	t.Run("unknown token", func(t *testing.T) {
		err := finalize.Execute(ctx, auth.FinalizePasswordResetMessage{
			Session:  "b2f7dd1e-4c1c-4be5-bd09-0f6b0f2cb5ad",
			Password: "whatever-password",
		})
		assert.ErrorIs(t, err, auth.ErrResetInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		reset := requestReset(t)

		stale := time.Now().Add(-48 * time.Hour)
		_, err := bunDB.NewUpdate().
			Table("password_resets").
			Set("created_at = ?", stale).
			Where("id = ?", reset.ID.String()).
			Exec(ctx)
		require.NoError(t, err)

		err = finalize.Execute(ctx, auth.FinalizePasswordResetMessage{
			Session:  reset.ID.String(),
			Password: "expired-password",
		})
		assert.ErrorIs(t, err, auth.ErrResetInvalid)
	})
}
