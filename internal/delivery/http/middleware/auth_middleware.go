package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"telehealth-service/internal/service"
	"telehealth-service/internal/usecase"
	"telehealth-service/pkg/jwt"
	"telehealth-service/pkg/response"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "user_email"
	RoleIDKey    contextKey = "role_id"
	TokenIDKey   contextKey = "token_id"
	TokenKey     contextKey = "token"
)

// IdentityResolver validates token claims against the token whitelist and the user record
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, claims *jwt.Claims) (*service.Identity, error)
}

type AuthMiddleware struct {
	jwtService *jwt.JWTService
	resolver   IdentityResolver
	cache      service.IdentityCache
	log        *logrus.Logger
}

func NewAuthMiddleware(jwtService *jwt.JWTService, resolver IdentityResolver, cache service.IdentityCache, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		resolver:   resolver,
		cache:      cache,
		log:        log,
	}
}

// Authenticate resolves the bearer token to an identity. Cached identities
// skip signature verification and the database lookup until the entry expires.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}
		tokenString := parts[1]

		identity, ok := m.cache.Get(r.Context(), tokenString)
		if !ok {
			claims, err := m.jwtService.ValidateToken(tokenString)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}
			if claims.TokenType != jwt.AccessToken {
				response.Unauthorized(w, "Invalid token type")
				return
			}

			identity, err = m.resolver.ResolveIdentity(r.Context(), claims)
			if err != nil {
				switch {
				case errors.Is(err, usecase.ErrTokenRevoked):
					response.Unauthorized(w, "Token has been revoked")
				case errors.Is(err, usecase.ErrUserNotFound), errors.Is(err, usecase.ErrUserInactive):
					response.Unauthorized(w, "User not found or inactive")
				default:
					m.log.Warnf("Failed to resolve identity: %+v", err)
					response.InternalServerError(w, "Failed to validate token")
				}
				return
			}
			if claims.ExpiresAt != nil {
				m.cache.Set(r.Context(), tokenString, identity, claims.ExpiresAt.Time)
			}
		}

		// Add user info to context
		ctx := context.WithValue(r.Context(), UserIDKey, identity.UserID)
		ctx = context.WithValue(ctx, UserEmailKey, identity.Email)
		ctx = context.WithValue(ctx, RoleIDKey, identity.RoleID)
		ctx = context.WithValue(ctx, TokenIDKey, identity.TokenID)
		ctx = context.WithValue(ctx, TokenKey, tokenString)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserEmailFromContext extracts user email from context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

// GetTokenIDFromContext extracts token ID from context
func GetTokenIDFromContext(ctx context.Context) (string, bool) {
	tokenID, ok := ctx.Value(TokenIDKey).(string)
	return tokenID, ok
}

// GetTokenFromContext extracts the raw bearer token from context
func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// GetRoleIDFromContext extracts role ID from context
func GetRoleIDFromContext(ctx context.Context) (int, bool) {
	roleID, ok := ctx.Value(RoleIDKey).(int)
	return roleID, ok
}
