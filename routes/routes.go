package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dosada05/x1-arena/handlers"
	"github.com/Dosada05/x1-arena/middleware"
	"github.com/Dosada05/x1-arena/services"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Tournament *handlers.TournamentHandler
	Player     *handlers.PlayerHandler
	Match      *handlers.MatchHandler
	WebSocket  *handlers.WebSocketHandler
}

type Options struct {
	AllowedOrigins []string
	Tokens         middleware.TokenParser
	LoginLimiter   *middleware.IPRateLimiter
	Metrics        prometheus.Gatherer
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limiter := opts.LoginLimiter
	if limiter == nil {
		limiter = middleware.NewLoginRateLimiter()
	}
	authenticate := middleware.Authenticate(opts.Tokens)
	adminOnly := middleware.RequireRole(services.RoleAdmin)

	router.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter))
		r.Post("/admin/login", h.Auth.AdminLogin)
		r.Post("/player/login", h.Auth.PlayerLogin)
	})

	router.Route("/tournament", func(r chi.Router) {
		r.Get("/", h.Tournament.GetState)
		r.Get("/standings", h.Tournament.GetStandings)
		r.Get("/standings.png", h.Tournament.GetStandingsChart)

		r.Group(func(r chi.Router) {
			r.Use(authenticate, adminOnly)
			r.Post("/start", h.Tournament.Start)
			r.Post("/reset", h.Tournament.Reset)
			r.Post("/playoffs", h.Tournament.GeneratePlayoffs)
		})
	})

	router.Route("/players", func(r chi.Router) {
		r.Post("/", h.Player.Register)

		r.With(authenticate, middleware.RequireRole(services.RolePlayer)).Get("/me", h.Player.Me)
		r.With(authenticate, adminOnly).Delete("/{playerID}", h.Player.Remove)
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Use(authenticate, adminOnly)
		r.Put("/score", h.Match.ReportScore)
		r.Post("/invalidate", h.Match.Invalidate)
	})

	router.Get("/ws", h.WebSocket.ServeWs)

	if opts.Metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
