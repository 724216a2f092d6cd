package auth

import (
	"github.com/goliatone/go-auth-service/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator wires the authenticator into HTTP middleware for a JSON
// API. Authentication failures answer 401 with a uniform body; role gate
// failures answer 403.
type RouteAuthenticator struct {
	auth             Authenticator
	cfg              Config
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// ProtectedRoute returns middleware that requires a valid bearer token issued
// to a user that still exists and is active. The role claim is not checked;
// combine with RequireRoles for gated routes.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return a.protected(cfg, errorHandler)
}

// RequireRoles returns middleware that requires a valid bearer token whose
// role claim is a member of the allowed list. Membership is exact; there is
// no role hierarchy.
func (a *RouteAuthenticator) RequireRoles(cfg Config, errorHandler func(router.Context, error) error, roles ...UserRole) router.MiddlewareFunc {
	return a.protected(cfg, errorHandler, roles...)
}

func (a *RouteAuthenticator) protected(cfg Config, errorHandler func(router.Context, error) error, roles ...UserRole) router.MiddlewareFunc {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		allowed = append(allowed, string(role))
	}

	validator, _ := a.auth.(interface{ TokenService() TokenService })

	var tokenValidator jwtware.TokenValidator
	if validator != nil {
		tokenValidator = tokenValidatorAdapter{validator.TokenService()}
	} else {
		tokenValidator = tokenValidatorAdapter{NewTokenService(
			[]byte(cfg.GetSigningKey()),
			cfg.GetTokenExpiration(),
			cfg.GetIssuer(),
			cfg.GetAudience(),
			a.Logger,
		)}
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:     cfg.GetAuthScheme(),
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
			TokenValidator: tokenValidator,
			AllowedRoles:   allowed,
			ValidationListeners: []jwtware.ValidationListener{
				a.resolveIdentity,
			},
		})(hf)
	}
}

// resolveIdentity re-loads the token's user on every request. A token minted
// before the account was deactivated or deleted fails authentication here
// instead of staying valid until expiry.
func (a *RouteAuthenticator) resolveIdentity(ctx router.Context, claims jwtware.AuthClaims) error {
	session := &SessionObject{UserID: claims.UserID()}

	if _, err := a.auth.IdentityFromSession(ctx.Context(), session); err != nil {
		if errors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return err
	}

	return nil
}

// tokenValidatorAdapter narrows the auth package claims to the middleware's
// claims interface.
type tokenValidatorAdapter struct {
	validator TokenValidator
}

func (t tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := t.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Login verifies the payload credentials and returns a signed bearer token.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (string, error) {
	token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error", "error", err)
		return "", err
	}

	return token, nil
}

// MakeAPIAuthErrorHandler builds the error handler mounted on protected
// routes. When optional is true a failed authentication lets the request
// proceed anonymously instead of short circuiting.
func (a *RouteAuthenticator) MakeAPIAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		if IsAuthorizationError(err) {
			return a.ErrorHandler(ctx, err)
		}

		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	return c.JSON(router.StatusUnauthorized, router.ViewContext{
		"error":     "Unauthorized",
		"message":   richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuthz:
		return c.JSON(router.StatusForbidden, router.ViewContext{
			"error":     "Forbidden",
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		})
	case errors.CategoryAuth:
		return a.AuthErrorHandler(c, richErr)
	default:
		code := richErr.Code
		if code == 0 {
			code = router.StatusInternalServerError
		}
		return c.JSON(code, router.ViewContext{
			"error":   "Internal Server Error",
			"message": richErr.Message,
		})
	}
}
