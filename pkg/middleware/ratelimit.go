package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/iota-uz/estate-office/pkg/cache"
	"github.com/iota-uz/estate-office/pkg/httpapi"
)

type RateLimitConfig struct {
	RequestsPerPeriod int
	Period            time.Duration
	Store             limiter.Store
	// KeyFunc defaults to the client IP.
	KeyFunc func(r *http.Request) string
}

func NewMemoryStore() limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "estate_office_rl",
		CleanUpInterval: time.Minute,
	})
}

func NewRedisStore(url string) (limiter.Store, error) {
	client, err := cache.NewRedisClient(url)
	if err != nil {
		return nil, err
	}
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "estate_office_rl",
	})
}

// RateLimit is a no-op when RequestsPerPeriod is not positive.
func RateLimit(cfg RateLimitConfig) mux.MiddlewareFunc {
	if cfg.RequestsPerPeriod <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Second
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	rate := limiter.Rate{Period: cfg.Period, Limit: int64(cfg.RequestsPerPeriod)}
	instance := limiter.New(cfg.Store, rate, limiter.WithTrustForwardHeader(true))

	options := []stdlibmw.Option{
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Period.Seconds())))
			_ = httpapi.WriteError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
		}),
	}
	if cfg.KeyFunc != nil {
		options = append(options, stdlibmw.WithKeyGetter(cfg.KeyFunc))
	}
	mw := stdlibmw.NewMiddleware(instance, options...)
	return mw.Handler
}
