package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kunlesxo/cyriox-storefront/internal/authn"
	"github.com/kunlesxo/cyriox-storefront/internal/config"
	"github.com/kunlesxo/cyriox-storefront/internal/credential"
	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
	"github.com/kunlesxo/cyriox-storefront/internal/middleware"
	"github.com/kunlesxo/cyriox-storefront/internal/session"
	"github.com/kunlesxo/cyriox-storefront/pkg/health"
	"github.com/kunlesxo/cyriox-storefront/pkg/httputil"
	pkgmw "github.com/kunlesxo/cyriox-storefront/pkg/middleware"
)

// Deps bundles everything the router needs.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    credential.Store
	Auth     *authn.Authenticator
	Sessions *session.Client
	Health   *health.Handler
}

// NewRouter assembles the full HTTP surface: auth endpoints, session
// introspection, the guarded distributor and customer areas, and the
// operational endpoints.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(pkgmw.Recovery(d.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(pkgmw.RequestLogging(d.Logger))
	r.Use(pkgmw.RequestLogger(d.Logger))
	r.Use(pkgmw.PrometheusMetrics())
	r.Use(pkgmw.Tracing(d.Config.ServiceName))
	r.Use(pkgmw.CORS(pkgmw.CORSConfig{
		AllowedOrigins: d.Config.CORSAllowedOrigins,
		Environment:    d.Config.Environment,
	}))

	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cookie := middleware.SessionCookie{
		Name:   d.Config.SessionCookieName,
		Secure: d.Config.SessionCookieSecure,
	}
	authHandler := NewAuthHandler(d.Auth, cookie, d.Logger)
	sessionHandler := NewSessionHandler(d.Store, d.Logger)
	relay := NewRelay(d.Sessions, d.Logger)

	limiter := middleware.NewRateLimiter(d.Config.AuthRateLimitRPS, d.Config.AuthRateLimitBurst)

	r.Group(func(r chi.Router) {
		r.Use(middleware.EnsureSession(cookie))

		r.Route("/auth", func(r chi.Router) {
			r.Use(limiter.Handler)
			r.Post("/login", authHandler.Login)
			r.Post("/verify-otp", authHandler.VerifyOTP)
			r.Post("/signup", authHandler.Signup)
			r.Post("/logout", authHandler.Logout)
		})

		r.Get("/session", sessionHandler.State)
		r.Get("/unauthorized", sessionHandler.Unauthorized)

		r.Route("/distributor", func(r chi.Router) {
			r.Use(middleware.Guard(d.Store, auth.NewRoleSet(auth.RoleDistributor), d.Logger))
			r.Get("/dashboard", dashboard(auth.RoleDistributor))
			mountResource(r, "/products", "/product/products/", relay)
			mountResource(r, "/categories", "/product/categories/", relay)
			mountResource(r, "/orders", "/distributor/orders/", relay)
			mountResource(r, "/invoices", "/distributor/distributor-invoices/", relay)
			mountResource(r, "/customers", "/distributor/customers/", relay)
			mountResource(r, "/transactions", "/transaction/transactions/", relay)
			mountResource(r, "/chat", "/chat/messages/", relay)
		})

		r.Route("/customer", func(r chi.Router) {
			r.Use(middleware.Guard(d.Store, auth.NewRoleSet(auth.RoleCustomer), d.Logger))
			r.Get("/dashboard", dashboard(auth.RoleCustomer))
			mountResource(r, "/products", "/product/products/", relay)
			mountResource(r, "/orders", "/order/orders/", relay)
			mountResource(r, "/invoices", "/customer/invoices/", relay)
			mountResource(r, "/transactions", "/transaction/transactions/", relay)
			r.Post("/payments/paystack/init", relay.To("/transaction/paystack/init-class/"))
		})
	})

	return r
}

// mountResource wires a local resource subtree to an upstream collection for
// every HTTP method; the upstream decides which methods it accepts.
func mountResource(r chi.Router, local, upstreamPrefix string, relay *Relay) {
	h := relay.Resource(upstreamPrefix)
	r.HandleFunc(local, h)
	r.HandleFunc(local+"/*", h)
}

func dashboard(role auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
			"role": string(role),
			"home": auth.DestinationFor(role),
		}})
	}
}
