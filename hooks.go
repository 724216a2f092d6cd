package auth

import (
	"context"

	"github.com/google/uuid"
)

// LifecycleHooks are optional callbacks fired after account events succeed.
// The defaults only log; deployments plug in mailers or audit trails here.
// Hook errors are logged and never fail the triggering operation.
type LifecycleHooks struct {
	OnAfterRegister       func(ctx context.Context, user *User) error
	OnAfterForgotPassword func(ctx context.Context, user *User, resetID uuid.UUID) error
	OnAfterResetPassword  func(ctx context.Context, user *User) error
}

// DefaultLifecycleHooks returns hooks that log each event through the given
// logger.
func DefaultLifecycleHooks(logger Logger) *LifecycleHooks {
	if logger == nil {
		logger = defLogger{}
	}

	return &LifecycleHooks{
		OnAfterRegister: func(_ context.Context, user *User) error {
			logger.Info("user registered", "user_id", user.ID, "email", user.Email)
			return nil
		},
		OnAfterForgotPassword: func(_ context.Context, user *User, resetID uuid.UUID) error {
			logger.Info("password reset requested", "user_id", user.ID, "reset_id", resetID)
			return nil
		},
		OnAfterResetPassword: func(_ context.Context, user *User) error {
			logger.Info("password reset completed", "user_id", user.ID)
			return nil
		},
	}
}

func (h *LifecycleHooks) afterRegister(ctx context.Context, logger Logger, user *User) {
	if h == nil || h.OnAfterRegister == nil {
		return
	}
	if err := h.OnAfterRegister(ctx, user); err != nil {
		logger.Error("after register hook failed", "error", err)
	}
}

func (h *LifecycleHooks) afterForgotPassword(ctx context.Context, logger Logger, user *User, resetID uuid.UUID) {
	if h == nil || h.OnAfterForgotPassword == nil {
		return
	}
	if err := h.OnAfterForgotPassword(ctx, user, resetID); err != nil {
		logger.Error("after forgot password hook failed", "error", err)
	}
}

func (h *LifecycleHooks) afterResetPassword(ctx context.Context, logger Logger, user *User) {
	if h == nil || h.OnAfterResetPassword == nil {
		return
	}
	if err := h.OnAfterResetPassword(ctx, user); err != nil {
		logger.Error("after reset password hook failed", "error", err)
	}
}
