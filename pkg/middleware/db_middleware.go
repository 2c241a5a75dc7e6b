package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/estate-office/pkg/composables"
	"github.com/iota-uz/estate-office/pkg/constants"
	"github.com/iota-uz/estate-office/pkg/httpapi"
)

// Provide stores value under key in every request context.
func Provide(key constants.ContextKey, value any) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), key, value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithTransaction runs the handler inside one transaction. The transaction is
// committed when the handler answers below 400 and rolled back otherwise.
func WithTransaction() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := composables.UseLogger(r.Context())
			pool, err := composables.UsePool(r.Context())
			if err != nil {
				logger.WithError(err).Error("transaction middleware: no pool")
				httpapi.WriteInternal(w, r)
				return
			}
			tx, err := pool.Begin(r.Context())
			if err != nil {
				logger.WithError(err).Error("transaction middleware: begin failed")
				httpapi.WriteInternal(w, r)
				return
			}
			defer func() {
				if err := tx.Rollback(context.Background()); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
					logger.WithError(err).Error("failed to rollback transaction")
				}
			}()

			buffered := newBufferedWriter(w)
			next.ServeHTTP(buffered, r.WithContext(composables.WithTx(r.Context(), tx)))

			if buffered.Status() < http.StatusBadRequest {
				if err := tx.Commit(r.Context()); err != nil {
					logger.WithError(err).Error("transaction middleware: commit failed")
					httpapi.WriteInternal(w, r)
					return
				}
			}
			buffered.flushTo(w)
		})
	}
}
