// Package httptransport assembles the HTTP surface: middleware stack, route
// registration, and operational endpoints. It holds no business logic.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"metasignet/internal/platform/health"
	"metasignet/internal/verification/handler"
	"metasignet/pkg/platform/middleware/auth"
	"metasignet/pkg/platform/middleware/metadata"
	"metasignet/pkg/platform/middleware/request"
)

// Dependencies carries everything the router mounts.
type Dependencies struct {
	Logger         *slog.Logger
	Verification   *handler.Handler
	Health         *health.Handler
	TokenValidator auth.TokenValidator
	RequestMetrics *request.Metrics
}

// NewRouter wires all endpoints with the middleware stack. Lookups and
// certificates are public; attest, vouch, and history require a bearer token.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(deps.Logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(metadata.Handler)
	if deps.RequestMetrics != nil {
		r.Use(request.Latency(deps.RequestMetrics))
	}

	deps.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	deps.Verification.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.TokenValidator, deps.Logger))
		deps.Verification.RegisterProtected(r)
	})

	return r
}
