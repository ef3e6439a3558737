package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	apiContext "leadhook/internal/api/context"
	"leadhook/internal/pkg/errors"
	"leadhook/internal/platform/auth"
	"leadhook/internal/platform/repositories"
)

// TenantContext is the caller identity admin handlers work with. Role is read
// from the user row, not from the token.
type TenantContext struct {
	TenantID string
	UserID   string
	Role     string
}

type TenantMiddleware struct {
	userRepo *repositories.UserRepository
}

func NewTenantMiddleware(userRepo *repositories.UserRepository) *TenantMiddleware {
	return &TenantMiddleware{userRepo: userRepo}
}

func (m *TenantMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}

		user, err := m.userRepo.GetByID(r.Context(), claims.TenantID, claims.UserID)
		if err != nil {
			log.Error().Err(err).Str("tenant_id", claims.TenantID).Msg("failed to load user")
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load user", nil)
			return
		}
		if user == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "User not found in tenant", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, &TenantContext{
			TenantID: user.TenantID,
			UserID:   user.ID,
			Role:     user.Role,
		})

		next(w, r.WithContext(ctx))
	}
}
