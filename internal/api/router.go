package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gatherbase/server/internal/api/handlers"
	"github.com/gatherbase/server/internal/api/middleware"
	"github.com/gatherbase/server/internal/auth"
	"github.com/gatherbase/server/internal/config"
	"github.com/gatherbase/server/internal/domain/events"
	"github.com/gatherbase/server/internal/domain/registrations"
	"github.com/gatherbase/server/internal/domain/users"
	"github.com/gatherbase/server/internal/metrics"
	"github.com/gatherbase/server/internal/storage/postgres"
)

const tokenIssuer = "gatherbase"

func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (http.Handler, error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, tokenIssuer)

	usersService := users.NewService(repo.Users(), logger)
	eventsService := events.NewService(repo.Events(), logger)
	ledger := registrations.NewService(repo.Registrations(), logger)

	authHandler := handlers.NewAuthHandler(usersService, tokens)
	eventsHandler := handlers.NewEventsHandler(eventsService)
	registrationsHandler := handlers.NewRegistrationsHandler(ledger)

	authenticate := middleware.Authenticate(tokens)
	admin := func(h http.Handler) http.Handler {
		return authenticate(middleware.RequireAdmin(h))
	}
	loginLimit := middleware.LoginRateLimit(cfg.RateLimit)

	mux := http.NewServeMux()

	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(pool))
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/api/health", handlers.Health())

	mux.Handle("/api/auth/register", methodMux(map[string]http.Handler{
		http.MethodPost: loginLimit(http.HandlerFunc(authHandler.Register)),
	}))
	mux.Handle("/api/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: loginLimit(http.HandlerFunc(authHandler.Login)),
	}))
	mux.Handle("/api/auth/me", methodMux(map[string]http.Handler{
		http.MethodGet: authenticate(http.HandlerFunc(authHandler.Me)),
	}))

	mux.Handle("/api/events", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(eventsHandler.List),
		http.MethodPost: admin(http.HandlerFunc(eventsHandler.Create)),
	}))
	mux.Handle("/api/events/category/{category}", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(eventsHandler.ListByCategory),
	}))
	mux.Handle("/api/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(eventsHandler.Get),
		http.MethodPut:    admin(http.HandlerFunc(eventsHandler.Update)),
		http.MethodDelete: admin(http.HandlerFunc(eventsHandler.Delete)),
	}))

	mux.Handle("/api/registrations/my-events", methodMux(map[string]http.Handler{
		http.MethodGet: authenticate(http.HandlerFunc(registrationsHandler.MyEvents)),
	}))
	mux.Handle("/api/registrations/event/{eventId}", methodMux(map[string]http.Handler{
		http.MethodGet: admin(http.HandlerFunc(registrationsHandler.EventRegistrations)),
	}))
	mux.Handle("/api/registrations/{eventId}", methodMux(map[string]http.Handler{
		http.MethodPost:   authenticate(http.HandlerFunc(registrationsHandler.Register)),
		http.MethodDelete: authenticate(http.HandlerFunc(registrationsHandler.Cancel)),
	}))

	var handler http.Handler = mux
	handler = middleware.Instrument(handler)
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler, nil
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
