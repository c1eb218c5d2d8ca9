package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"invoice-backend/internal/auth"
	"invoice-backend/internal/handlers"
	"invoice-backend/internal/middleware"
)

// APIPrefix is where the JSON API is mounted.
const APIPrefix = "/api/v1"

// Handlers groups everything NewRouter mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Users     *handlers.UserHandler
	Clients   *handlers.ClientHandler
	Invoices  *handlers.InvoiceHandler
	Dashboard *handlers.DashboardHandler
	Backups   *handlers.BackupHandler
	Health    *handlers.HealthHandler
	Logs      *handlers.LogHandler
}

func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware, loginLimiter *middleware.RateLimiter, log *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.MetricsMiddleware)

	// Health and metrics
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix(APIPrefix).Subrouter()

	// Public API routes
	login := http.HandlerFunc(h.Auth.Login)
	if loginLimiter != nil {
		api.Handle("/auth/login", loginLimiter.Handler(login)).Methods("POST")
	} else {
		api.Handle("/auth/login", login).Methods("POST")
	}
	api.HandleFunc("/logs", h.Logs.Ingest).Methods("POST")

	// Authenticated routes; the tier is checked per route
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware.Authenticate)

	active := func(fn http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireTier(auth.TierActiveUser)(fn).ServeHTTP
	}
	admin := func(fn http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireTier(auth.TierAdmin)(fn).ServeHTTP
	}

	protected.HandleFunc("/auth/me", active(h.Auth.Me)).Methods("GET")

	protected.HandleFunc("/users", admin(h.Users.ListUsers)).Methods("GET")
	protected.HandleFunc("/users", admin(h.Users.CreateUser)).Methods("POST")
	protected.HandleFunc("/users/{id:[0-9]+}", admin(h.Users.UpdateUser)).Methods("PUT")
	protected.HandleFunc("/users/{id:[0-9]+}", admin(h.Users.DeleteUser)).Methods("DELETE")

	protected.HandleFunc("/clients", active(h.Clients.ListClients)).Methods("GET")
	protected.HandleFunc("/clients", active(h.Clients.CreateClient)).Methods("POST")
	protected.HandleFunc("/clients/{id:[0-9]+}", active(h.Clients.GetClient)).Methods("GET")
	protected.HandleFunc("/clients/{id:[0-9]+}", active(h.Clients.UpdateClient)).Methods("PUT")
	protected.HandleFunc("/clients/{id:[0-9]+}", admin(h.Clients.DeleteClient)).Methods("DELETE")

	protected.HandleFunc("/invoices", active(h.Invoices.ListInvoices)).Methods("GET")
	protected.HandleFunc("/invoices", active(h.Invoices.CreateInvoice)).Methods("POST")
	protected.HandleFunc("/invoices/number/{number}", active(h.Invoices.GetInvoiceByNumber)).Methods("GET")
	protected.HandleFunc("/invoices/{id:[0-9]+}", active(h.Invoices.GetInvoice)).Methods("GET")
	protected.HandleFunc("/invoices/{id:[0-9]+}", active(h.Invoices.UpdateInvoice)).Methods("PUT")
	protected.HandleFunc("/invoices/{id:[0-9]+}", admin(h.Invoices.DeleteInvoice)).Methods("DELETE")
	protected.HandleFunc("/invoices/{id:[0-9]+}/pdf", active(h.Invoices.InvoicePDF)).Methods("GET")

	protected.HandleFunc("/dashboard/stats", active(h.Dashboard.GetStats)).Methods("GET")

	protected.HandleFunc("/admin/backups", admin(h.Backups.ListBackups)).Methods("GET")
	protected.HandleFunc("/admin/backups", admin(h.Backups.CreateBackup)).Methods("POST")
	protected.HandleFunc("/admin/backups/{stamp}/restore", admin(h.Backups.RestoreBackup)).Methods("POST")

	protected.HandleFunc("/debug/health", admin(h.Health.DebugHealth)).Methods("GET")
	protected.HandleFunc("/debug/users", admin(h.Users.DebugUsers)).Methods("GET")

	return r
}
