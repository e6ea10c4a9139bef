package middleware

import (
	"context"
	"net/http"
	"strings"

	"parfumerie/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "role"
)

// Authenticate validates the external session's JWT and resolves the
// caller's role once into the request context. Requests without a
// valid token are rejected.
func Authenticate(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				respondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			ctx, ok := authenticateHeader(r.Context(), authHeader, jwtSecret, logger, w)
			if !ok {
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate resolves the caller's role when a token is
// present and degrades to anon when it is not. Used on endpoints that
// serve both guests and signed-in customers.
func OptionalAuthenticate(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				ctx := context.WithValue(r.Context(), RoleKey, domain.RoleAnon)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx, ok := authenticateHeader(r.Context(), authHeader, jwtSecret, logger, w)
			if !ok {
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticateHeader parses a Bearer token and stores the user id and
// typed role in the context. On failure it writes the error response
// and reports false.
func authenticateHeader(ctx context.Context, authHeader, jwtSecret string, logger *zap.Logger, w http.ResponseWriter) (context.Context, bool) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		logger.Debug("Invalid authorization header format")
		respondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
		return nil, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		logger.Debug("Token validation failed", zap.Error(err))
		if err == jwt.ErrTokenExpired {
			respondWithError(w, http.StatusUnauthorized, "token expired")
		} else {
			respondWithError(w, http.StatusUnauthorized, "invalid token")
		}
		return nil, false
	}
	if !token.Valid {
		logger.Debug("Invalid token")
		respondWithError(w, http.StatusUnauthorized, "invalid token")
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		logger.Error("Failed to extract claims from token")
		respondWithError(w, http.StatusUnauthorized, "invalid token claims")
		return nil, false
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		logger.Error("Missing user_id in token claims")
		respondWithError(w, http.StatusUnauthorized, "invalid token claims")
		return nil, false
	}

	roleClaim, _ := claims["role"].(string)
	role := domain.ParseRole(roleClaim)

	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, RoleKey, role)

	logger.Debug("User authenticated",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
	)

	return ctx, true
}

// GetUserID extracts the user ID from the request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetRole extracts the resolved role from the request context; a
// request that never passed authentication is anon
func GetRole(ctx context.Context) domain.Role {
	role, ok := ctx.Value(RoleKey).(domain.Role)
	if !ok {
		return domain.RoleAnon
	}
	return role
}
