package middleware

import (
	"net/http"

	"parfumerie/internal/domain"

	"go.uber.org/zap"
)

// RequireOrderManager restricts an endpoint to admin and staff roles
func RequireOrderManager(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetRole(r.Context())
			if !role.CanManageOrders() {
				logger.Warn("Role not allowed to manage orders",
					zap.String("role", string(role)),
				)
				respondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole restricts an endpoint to the given roles
func RequireRole(logger *zap.Logger, allowedRoles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetRole(r.Context())

			for _, allowed := range allowedRoles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("User role not authorized",
				zap.String("role", string(role)),
			)
			respondWithError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}
