package middleware

import (
	"bytes"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/estate-office/pkg/composables"
	"github.com/iota-uz/estate-office/pkg/httpapi"
)

type LoggerOptions struct {
	LogRequestBody  bool
	MaxBodyLength   int
	RequestIDHeader string
	RealIPHeader    string
}

func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		LogRequestBody:  true,
		MaxBodyLength:   512,
		RequestIDHeader: "X-Request-ID",
		RealIPHeader:    "X-Real-IP",
	}
}

func (o LoggerOptions) realIP(r *http.Request) string {
	if o.RealIPHeader != "" {
		if v := r.Header.Get(o.RealIPHeader); v != "" {
			return v
		}
	}
	return r.RemoteAddr
}

func (o LoggerOptions) requestID(r *http.Request) string {
	if o.RequestIDHeader != "" {
		if v := strings.TrimSpace(r.Header.Get(o.RequestIDHeader)); v != "" {
			return v
		}
	}
	return uuid.NewString()
}

var tracer = otel.Tracer("estate-office-middleware")

func TracedMiddleware(name string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(
				r.Context(),
				"middleware."+name,
				trace.WithAttributes(attribute.String("middleware.name", name)),
			)
			defer span.End()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

// WithLogger assigns a request id, opens the root span, attaches a request
// scoped logger and request params, and turns handler panics into a 500.
func WithLogger(logger *logrus.Logger, opts LoggerOptions) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := opts.requestID(r)
			ip := opts.realIP(r)

			fieldsLogger := logger.WithFields(logrus.Fields{
				"request-id": requestID,
				"path":       r.URL.Path,
				"method":     r.Method,
			})
			fieldsLogger.WithFields(logrus.Fields{
				"ip":         ip,
				"user-agent": r.UserAgent(),
				"query":      r.URL.RawQuery,
			}).Info("request started")

			if opts.LogRequestBody && r.Body != nil && isJSON(r.Header.Get("Content-Type")) {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					fieldsLogger.WithError(err).Error("failed to read request-body")
					_ = httpapi.WriteError(w, r, http.StatusBadRequest, "INVALID_BODY", "failed to read request body")
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				logged := string(body)
				if opts.MaxBodyLength > 0 && len(logged) > opts.MaxBodyLength {
					logged = logged[:opts.MaxBodyLength] + "..."
				}
				fieldsLogger.WithField("request-body", logged).Debug("request-body captured")
			}

			propagator := propagation.TraceContext{}
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "http.request", trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
				attribute.String("http.request_id", requestID),
				attribute.String("net.peer.ip", ip),
			))
			defer span.End()

			if sc := span.SpanContext(); sc.HasTraceID() {
				w.Header().Set("X-Trace-Id", sc.TraceID().String())
				fieldsLogger = fieldsLogger.WithField("trace-id", sc.TraceID().String())
			}
			w.Header().Set("X-Request-Id", requestID)

			ctx = composables.WithLogger(ctx, fieldsLogger)
			ctx = composables.WithParams(ctx, &composables.Params{
				IP:        ip,
				UserAgent: r.UserAgent(),
				RequestID: requestID,
				Request:   r,
				Writer:    w,
			})
			r = r.WithContext(ctx)

			sw := &statusWriter{ResponseWriter: w}
			defer func() {
				if recovered := recover(); recovered != nil {
					fieldsLogger.WithFields(logrus.Fields{
						"panic":    recovered,
						"stack":    string(debug.Stack()),
						"duration": time.Since(start),
					}).Error("panic recovered in request handler")
					if sw.status == 0 {
						httpapi.WriteInternal(sw, r)
					}
				}
			}()

			next.ServeHTTP(sw, r)

			status := sw.Status()
			duration := time.Since(start)
			span.SetAttributes(
				attribute.Int("http.status_code", status),
				attribute.Int64("http.request_duration_ms", duration.Milliseconds()),
			)
			fieldsLogger.WithFields(logrus.Fields{
				"duration":     duration,
				"status-code":  status,
				"status-class": status / 100,
				"bytes":        sw.written,
			}).Info("request completed")
		})
	}
}
