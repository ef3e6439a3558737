package api

import (
	"context"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/julienschmidt/httprouter"
	apiContext "leadhook/internal/api/context"
	"leadhook/internal/api/handlers"
	"leadhook/internal/api/middleware"
	"leadhook/internal/pkg/errors"
	"leadhook/internal/platform/config"
)

type Dependencies struct {
	WebhookHandler   *handlers.WebhookHandler
	EndpointHandler  *handlers.EndpointHandler
	HealthHandler    *handlers.HealthHandler
	MetricsHandler   *handlers.MetricsHandler
	AuthMiddleware   *middleware.AuthMiddleware
	TenantMiddleware *middleware.TenantMiddleware
	WebhookLimiter   *middleware.RateLimiter
	APILimiter       *middleware.RateLimiter
	Proxies          *middleware.ProxyTrust
	CORS             config.CORSConfig
}

func NewRouter(deps *Dependencies) http.Handler {
	router := httprouter.New()

	// Operational endpoints
	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	// Public webhook receiver, authenticated by the endpoint token only
	webhookLimit := deps.WebhookLimiter.Handle(webhookKey)
	router.POST("/webhook/:token",
		chain(deps.WebhookHandler.Receive, webhookLimit, middleware.MaxBody(handlers.MaxWebhookBody)))
	router.GET("/webhook/:token/test",
		chain(deps.WebhookHandler.Test, webhookLimit))

	// Middleware references
	authMid := deps.AuthMiddleware
	tenantMid := deps.TenantMiddleware
	apiLimit := deps.APILimiter.Handle(tenantKey)

	// Endpoint management
	router.POST("/api/v1/endpoints",
		chain(deps.EndpointHandler.Create, authMid.Handle, tenantMid.Handle, apiLimit, requireRole("admin", "owner")))
	router.GET("/api/v1/endpoints",
		chain(deps.EndpointHandler.List, authMid.Handle, tenantMid.Handle, apiLimit))
	router.GET("/api/v1/endpoints/:endpoint_id",
		chain(deps.EndpointHandler.Get, authMid.Handle, tenantMid.Handle, apiLimit))
	router.PATCH("/api/v1/endpoints/:endpoint_id",
		chain(deps.EndpointHandler.Update, authMid.Handle, tenantMid.Handle, apiLimit, requireRole("admin", "owner")))

	// Field mappings
	router.GET("/api/v1/endpoints/:endpoint_id/mappings",
		chain(deps.EndpointHandler.GetMappings, authMid.Handle, tenantMid.Handle, apiLimit))
	router.PUT("/api/v1/endpoints/:endpoint_id/mappings",
		chain(deps.EndpointHandler.ReplaceMappings, authMid.Handle, tenantMid.Handle, apiLimit, requireRole("admin", "owner")))

	// Samples and request history
	router.GET("/api/v1/endpoints/:endpoint_id/sample",
		chain(deps.EndpointHandler.GetSample, authMid.Handle, tenantMid.Handle, apiLimit))
	router.GET("/api/v1/endpoints/:endpoint_id/requests",
		chain(deps.EndpointHandler.ListRequests, authMid.Handle, tenantMid.Handle, apiLimit))

	return cors.Handler(cors.Options{
		AllowedOrigins: deps.CORS.AllowedOrigins,
		AllowedMethods: deps.CORS.AllowedMethods,
		AllowedHeaders: deps.CORS.AllowedHeaders,
		MaxAge:         deps.CORS.MaxAge,
	})(http.HandlerFunc(deps.Proxies.Handle(router.ServeHTTP)))
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

func requireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tenant := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

			allowed := false
			for _, role := range roles {
				if tenant.Role == role {
					allowed = true
					break
				}
			}

			if !allowed {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}

			next(w, r)
		}
	}
}

func webhookKey(r *http.Request) string {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	return "webhook:" + params.ByName("token") + ":" + middleware.ClientIP(r)
}

func tenantKey(r *http.Request) string {
	if tenant, ok := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext); ok {
		return "api:" + tenant.TenantID
	}
	return "api:" + middleware.ClientIP(r)
}
