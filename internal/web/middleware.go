package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vinnieai/vinnie/internal/i18n"
	"github.com/vinnieai/vinnie/internal/identity"
)

// Cookie names.
const (
	sessionCookie = "vinnie_session"
	localeCookie  = "vinnie_lang"
	chatCookie    = "vinnie_chat"
)

// sessionCookieMaxAge keeps anonymous identities stable across visits.
const sessionCookieMaxAge = int(180 * 24 * time.Hour / time.Second)

// Context key type (unexported to prevent collisions).
type userCtxKey struct{}

var ctxKeyUser = userCtxKey{}

// UserFromContext retrieves the resolved user from the request context.
func UserFromContext(ctx context.Context) (*identity.User, bool) {
	user, ok := ctx.Value(ctxKeyUser).(*identity.User)
	return user, ok
}

// loggingWriter wraps http.ResponseWriter to capture status and size.
// Implements Flusher for streaming and Unwrap for ResponseController.
type loggingWriter struct {
	w            http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lw *loggingWriter) Header() http.Header {
	return lw.w.Header()
}

func (lw *loggingWriter) WriteHeader(code int) {
	lw.statusCode = code
	lw.w.WriteHeader(code)
}

func (lw *loggingWriter) Write(b []byte) (int, error) {
	if lw.statusCode == 0 {
		lw.statusCode = http.StatusOK
	}
	n, err := lw.w.Write(b)
	lw.bytesWritten += int64(n)
	return n, err
}

// Flush implements http.Flusher so streamed fragments reach the client.
func (lw *loggingWriter) Flush() {
	if f, ok := lw.w.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (lw *loggingWriter) Unwrap() http.ResponseWriter {
	return lw.w
}

// recoveryMiddleware recovers from handler panics.
func recoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapper := &loggingWriter{w: w}

			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"headers_sent", wrapper.statusCode != 0,
					)
					if wrapper.statusCode == 0 {
						WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error", logger)
					}
				}
			}()
			next.ServeHTTP(wrapper, r)
		})
	}
}

// loggingMiddleware logs request details including latency, status, and size.
// Reuses the *loggingWriter from recoveryMiddleware to avoid double-wrapping.
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapper, ok := w.(*loggingWriter)
			if !ok {
				wrapper = &loggingWriter{w: w}
			}

			next.ServeHTTP(wrapper, r)

			status := wrapper.statusCode
			if status == 0 {
				status = http.StatusOK
			}

			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", wrapper.bytesWritten,
				"duration", time.Since(start),
				"ip", r.RemoteAddr,
			)
		})
	}
}

// identityMiddleware resolves the request to exactly one user record. A
// missing session cookie mints a fresh token; the resolver creates an
// anonymous record on first contact. The resolved user is placed in the
// request context for every downstream handler.
func identityMiddleware(resolver *identity.Resolver, isDev bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(sessionCookie); err == nil {
				token = c.Value
			}
			if token == "" {
				token = identity.MintToken()
				setSessionCookie(w, token, isDev)
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				logger.Error("resolving identity", "error", err)
				WriteError(w, http.StatusServiceUnavailable, "identity_unavailable", "service temporarily unavailable", logger)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// setSessionCookie binds the session token to the browser. The Secure flag
// is dropped in dev mode so plain-HTTP local setups keep working.
func setSessionCookie(w http.ResponseWriter, token string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		Secure:   !isDev,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// localeFrom selects the request locale: the locale cookie when present,
// otherwise the configured default. Always returns a supported code.
func localeFrom(r *http.Request, fallback string) string {
	if c, err := r.Cookie(localeCookie); err == nil && c.Value != "" {
		return i18n.Normalize(c.Value)
	}
	return i18n.Normalize(fallback)
}
