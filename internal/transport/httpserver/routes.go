package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sharespend/internal/config"
	"sharespend/internal/transport/httpserver/handler"
	authmw "sharespend/internal/transport/httpserver/middleware"
	"sharespend/pkg/logger"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, profiles authmw.ProfileSaver, gatherer prometheus.Gatherer, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(authmw.EchoRequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSOrigins))

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		auth := authmw.NewSupabaseAuth(cfg.Supabase, profiles, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.AuthMe)

			r.Get("/session", handlers.GetSession)
			r.Patch("/session/profile", handlers.UpdateProfile)
			r.Post("/session/reset", handlers.ResetAll)
			r.Post("/session/settle", handlers.SettleBalance)

			r.Get("/groups", handlers.ListGroups)
			r.Post("/groups", handlers.CreateGroup)
			r.Post("/groups/join", handlers.JoinGroup)
			r.Post("/groups/{id}/select", handlers.SelectGroup)
			r.Post("/groups/{id}/leave", handlers.LeaveGroup)

			r.Post("/expenses", handlers.AddExpense)
			r.Delete("/expenses", handlers.ClearExpenses)
			r.Delete("/expenses/{id}", handlers.DeleteExpense)
			r.Post("/expenses/{id}/check", handlers.CheckExpense)
		})
	})

	return r
}
