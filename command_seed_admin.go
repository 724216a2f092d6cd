package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Default credentials used when seeding is invoked without overrides. Meant
// for development setups; deployments should pass their own values.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "admin"
)

type SeedAdminMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(user *User, created bool)
}

func (e SeedAdminMessage) Type() string { return "user.seed_admin" }

// SeedAdminHandler ensures an administrator account exists at startup. The
// operation is idempotent: when a user with the given email already exists it
// is left untouched, password included.
type SeedAdminHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewSeedAdminHandler creates a handler with sane defaults.
func NewSeedAdminHandler(repo RepositoryManager) *SeedAdminHandler {
	return &SeedAdminHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *SeedAdminHandler) WithLogger(logger Logger) *SeedAdminHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SeedAdminHandler) Execute(ctx context.Context, event SeedAdminMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during admin seeding",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SeedAdminHandler) execute(ctx context.Context, event SeedAdminMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := event.Email
	if email == "" {
		email = DefaultAdminEmail
	}

	password := event.Password
	if password == "" {
		password = DefaultAdminPassword
	}

	var user *User
	created := false

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Users().GetByEmailTx(ctx, tx, email)
		if err == nil {
			user = existing
			return nil
		}

		if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up admin account")
		}

		hash, err := HashPassword(password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash admin password")
		}

		record := &User{
			Email:        email,
			PasswordHash: hash,
			Role:         RoleAdmin,
			IsActive:     true,
			IsSuperuser:  true,
			IsVerified:   true,
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create admin account")
		}

		created = true
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "admin seeding transaction failed")
	}

	if created {
		h.logger.Info("seeded admin account", "email", email)
	} else {
		h.logger.Debug("admin account already present", "email", email)
	}

	if event.OnResponse != nil {
		event.OnResponse(user, created)
	}

	return nil
}
