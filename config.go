package auth

import (
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
)

// Default configuration values applied when the environment does not override
// them.
const (
	DefaultSigningMethod   = "HS256"
	DefaultContextKey      = "user"
	DefaultTokenExpiration = 30 // minutes
	DefaultTokenLookup     = "header:Authorization"
	DefaultAuthScheme      = "Bearer"
)

var _ Config = &ConfigOptions{}

// ConfigOptions is the immutable configuration for the auth service.
type ConfigOptions struct {
	signingKey      string
	signingMethod   string
	contextKey      string
	tokenExpiration int
	tokenLookup     string
	authScheme      string
	issuer          string
	audience        []string
}

func (c *ConfigOptions) GetSigningKey() string    { return c.signingKey }
func (c *ConfigOptions) GetSigningMethod() string { return c.signingMethod }
func (c *ConfigOptions) GetContextKey() string    { return c.contextKey }
func (c *ConfigOptions) GetTokenExpiration() int  { return c.tokenExpiration }
func (c *ConfigOptions) GetTokenLookup() string   { return c.tokenLookup }
func (c *ConfigOptions) GetAuthScheme() string    { return c.authScheme }
func (c *ConfigOptions) GetIssuer() string        { return c.issuer }
func (c *ConfigOptions) GetAudience() []string    { return c.audience }

// NewConfig builds a ConfigOptions with the given signing key and the package
// defaults for everything else.
func NewConfig(signingKey string) *ConfigOptions {
	return &ConfigOptions{
		signingKey:      signingKey,
		signingMethod:   DefaultSigningMethod,
		contextKey:      DefaultContextKey,
		tokenExpiration: DefaultTokenExpiration,
		tokenLookup:     DefaultTokenLookup,
		authScheme:      DefaultAuthScheme,
	}
}

// WithIssuer sets the token issuer claim.
func (c *ConfigOptions) WithIssuer(issuer string) *ConfigOptions {
	c.issuer = issuer
	return c
}

// WithAudience sets the token audience claim.
func (c *ConfigOptions) WithAudience(audience ...string) *ConfigOptions {
	c.audience = audience
	return c
}

// WithTokenExpiration sets the token lifetime in minutes.
func (c *ConfigOptions) WithTokenExpiration(minutes int) *ConfigOptions {
	if minutes > 0 {
		c.tokenExpiration = minutes
	}
	return c
}

// WithContextKey sets the locals key middleware stores validated claims under.
func (c *ConfigOptions) WithContextKey(key string) *ConfigOptions {
	if key != "" {
		c.contextKey = key
	}
	return c
}

// NewConfigFromEnv builds a ConfigOptions from environment variables:
//
//	AUTH_SIGNING_KEY       required, HMAC secret
//	AUTH_TOKEN_EXPIRATION  optional, minutes, default 30
//	AUTH_ISSUER            optional
//	AUTH_AUDIENCE          optional, comma separated
//	AUTH_CONTEXT_KEY       optional, default "user"
func NewConfigFromEnv() (*ConfigOptions, error) {
	signingKey := os.Getenv("AUTH_SIGNING_KEY")
	if signingKey == "" {
		return nil, errors.New("AUTH_SIGNING_KEY is required", errors.CategoryBadInput)
	}

	cfg := NewConfig(signingKey)

	if raw := os.Getenv("AUTH_TOKEN_EXPIRATION"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "AUTH_TOKEN_EXPIRATION must be an integer")
		}
		cfg.WithTokenExpiration(minutes)
	}

	if issuer := os.Getenv("AUTH_ISSUER"); issuer != "" {
		cfg.WithIssuer(issuer)
	}

	if raw := os.Getenv("AUTH_AUDIENCE"); raw != "" {
		var audience []string
		for _, aud := range strings.Split(raw, ",") {
			if aud = strings.TrimSpace(aud); aud != "" {
				audience = append(audience, aud)
			}
		}
		cfg.WithAudience(audience...)
	}

	if key := os.Getenv("AUTH_CONTEXT_KEY"); key != "" {
		cfg.WithContextKey(key)
	}

	return cfg, nil
}
