package httphandler

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ericfisherdev/mealtracker/internal/application"
	"github.com/ericfisherdev/mealtracker/internal/domain/model"
)

// SessionCookieName is the cookie carrying the opaque session ID.
const SessionCookieName = "session_id"

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the embedded writer.
func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

// recoveryMiddleware recovers from panics in HTTP handlers, logs the error,
// and returns a 500 response.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					"panic", v,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// sessionMiddleware attaches the caller's session to the request context.
// A request without a known session cookie gets a transient anonymous
// session that is only registered, and given a cookie, once it logs in.
// Logging out forgets the session and expires the cookie.
func sessionMiddleware(sessions *application.SessionRegistry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			if sess, ok := sessions.Get(cookie.Value); ok {
				id := cookie.Value
				ctx := application.ContextWithSession(r.Context(), sess)
				ctx = application.ContextWithSessionHooks(ctx, application.SessionHooks{
					Discard: func() {
						sessions.Delete(id)
						setSessionCookie(w, "", -1)
					},
				})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		sess := model.NewSession()
		var id string
		ctx := application.ContextWithSession(r.Context(), sess)
		ctx = application.ContextWithSessionHooks(ctx, application.SessionHooks{
			Persist: func() {
				if id == "" {
					id = sessions.Add(sess)
					setSessionCookie(w, id, 0)
				}
			},
			Discard: func() {
				if id != "" {
					sessions.Delete(id)
					id = ""
				}
				setSessionCookie(w, "", -1)
			},
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Wrap applies the shared middleware chain to handler: session lookup
// innermost, then panic recovery, then request logging.
func Wrap(handler http.Handler, sessions *application.SessionRegistry, logger *slog.Logger) http.Handler {
	wrapped := sessionMiddleware(sessions, handler)
	wrapped = recoveryMiddleware(logger, wrapped)
	wrapped = loggingMiddleware(logger, wrapped)
	return wrapped
}

// limiterIdleTTL is how long a client's bucket may sit unused before it is
// dropped. A bucket refills completely within a minute, so a dropped bucket
// and a fresh one behave the same.
const limiterIdleTTL = time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket. It
// guards the login and register endpoints against password guessing.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewRateLimiter allows perMinute requests per client per minute, with a
// burst of the same size. A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	l := &RateLimiter{
		limit:    rate.Inf,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
	if perMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(perMinute))
		l.burst = perMinute
	}
	return l
}

// WithClock replaces the clock used for buckets and idle pruning.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

// Allow reports whether a request from client may proceed now. Buckets idle
// for longer than limiterIdleTTL are pruned at most once per TTL.
func (l *RateLimiter) Allow(client string) bool {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= limiterIdleTTL {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) >= limiterIdleTTL {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}
	v, ok := l.visitors[client]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[client] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Limit wraps next so over-limit clients receive a JSON 429 Too Many
// Requests.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return l.LimitWith(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
	}))(next)
}

// LimitWith returns middleware that hands over-limit requests to reject
// instead of next. Retry-After is set before reject runs.
func (l *RateLimiter) LimitWith(reject http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "60")
				reject.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of RemoteAddr, which the RealIP middleware
// has already rewritten when running behind a proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
