package middleware

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// Auth0IDKey is the context key for the Auth0 user ID (subject)
	Auth0IDKey contextKey = "auth0_id"
	// UserIDKey is the context key for the local user ID
	UserIDKey contextKey = "user_id"
)

// UserProvider resolves the local user of an Auth0 subject
type UserProvider interface {
	GetUserIDByAuth0ID(auth0ID string) (int32, error)
}

// TokenValidator validates a raw bearer token and returns its claims
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// AuthMiddleware provides JWT validation middleware
type AuthMiddleware struct {
	validator    TokenValidator
	userProvider UserProvider
}

// NewAuthMiddleware creates a new AuthMiddleware with Auth0 configuration
func NewAuthMiddleware(domain, audience string, userProvider UserProvider) (*AuthMiddleware, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return NewAuthMiddlewareWithValidator(jwtValidator, userProvider), nil
}

// NewAuthMiddlewareWithValidator creates an AuthMiddleware around an existing validator
func NewAuthMiddlewareWithValidator(tokenValidator TokenValidator, userProvider UserProvider) *AuthMiddleware {
	return &AuthMiddleware{
		validator:    tokenValidator,
		userProvider: userProvider,
	}
}

// Authenticate validates the bearer token and stores the claims and Auth0 ID
// in the request context. Routes that need a local user add RequireUser.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "Missing authorization header")
			}

			// Check Bearer prefix
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return unauthorizedError(c, "Invalid authorization header format")
			}

			claims, err := m.validator.ValidateToken(c.Request().Context(), parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return unauthorizedError(c, "Invalid token")
			}

			validatedClaims, ok := claims.(*validator.ValidatedClaims)
			if !ok {
				return unauthorizedError(c, "Invalid claims")
			}

			ctx := context.WithValue(c.Request().Context(), ClaimsKey, validatedClaims)
			ctx = context.WithValue(ctx, Auth0IDKey, validatedClaims.RegisteredClaims.Subject)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// RequireUser resolves the authenticated subject to a local user and injects
// its ID. Subjects that never completed the auth callback are rejected.
func (m *AuthMiddleware) RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth0ID := GetAuth0ID(c)
			if auth0ID == "" {
				return unauthorizedError(c, "Missing authentication")
			}

			userID, err := m.userProvider.GetUserIDByAuth0ID(auth0ID)
			if err != nil {
				log.Debug().Err(err).Str("auth0_id", auth0ID).Msg("User lookup failed")
				return unauthorizedError(c, "User not found")
			}

			ctx := context.WithValue(c.Request().Context(), UserIDKey, userID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetAuth0ID extracts the Auth0 user ID from the context
func GetAuth0ID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(Auth0IDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the validated claims from the context
func GetClaims(c echo.Context) *validator.ValidatedClaims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*validator.ValidatedClaims); ok {
		return claims
	}
	return nil
}

// GetCustomClaims extracts the custom claims from the context
func GetCustomClaims(c echo.Context) *CustomClaims {
	claims := GetClaims(c)
	if claims == nil {
		return nil
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
		return custom
	}
	return nil
}

// GetUserID extracts the local user ID from the context
func GetUserID(c echo.Context) int32 {
	if id, ok := c.Request().Context().Value(UserIDKey).(int32); ok {
		return id
	}
	return 0
}
