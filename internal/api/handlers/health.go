package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherbase/server/internal/api/respond"
)

func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Readyz reports readiness by pinging the database.
func Readyz(pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			respond.Error(w, r, http.StatusServiceUnavailable, "database unavailable", err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Health is the API-level health endpoint.
func Health() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"message": "Event Management API is running",
		})
	})
}
