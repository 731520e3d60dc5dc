// Package web exposes the conversational gateway over HTTP: identity
// cookies, the streamed turn endpoint, registration and login, and locale
// selection. Responses are JSON except for /api/turn, which streams
// plain-text fragments.
package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinnieai/vinnie/internal/attachment"
	"github.com/vinnieai/vinnie/internal/i18n"
	"github.com/vinnieai/vinnie/internal/identity"
)

// ServerConfig contains everything needed to build the HTTP surface.
type ServerConfig struct {
	Logger        *slog.Logger
	Resolver      *identity.Resolver  // Required
	Executor      TurnExecutor        // Required
	Attachments   *attachment.Handler // Required
	Pool          *pgxpool.Pool       // Optional: nil skips the database readiness probe
	DefaultLocale string
	IsDev         bool // Drops the Secure cookie flag for plain-HTTP setups
}

// Server is the gateway HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("identity resolver is required")
	}
	if cfg.Executor == nil {
		return nil, errors.New("turn executor is required")
	}
	if cfg.Attachments == nil {
		return nil, errors.New("attachment handler is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defaultLocale := i18n.Normalize(cfg.DefaultLocale)

	ch := &chatHandler{
		executor:      cfg.Executor,
		attachments:   cfg.Attachments,
		defaultLocale: defaultLocale,
		logger:        logger,
	}
	ah := &authHandler{
		resolver:      cfg.Resolver,
		defaultLocale: defaultLocale,
		isDev:         cfg.IsDev,
		logger:        logger,
	}
	lh := &langHandler{logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/turn", ch.submit)
	mux.HandleFunc("POST /api/chat/new", ch.newChat)
	mux.HandleFunc("POST /api/register", ah.register)
	mux.HandleFunc("POST /api/login", ah.login)
	mux.HandleFunc("POST /api/logout", ah.logout)
	mux.HandleFunc("GET /api/lang/{code}", lh.set)

	// Middleware stack (outermost first):
	//   Recovery → Logging → Identity → Routes
	var handler http.Handler = mux
	handler = identityMiddleware(cfg.Resolver, cfg.IsDev, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass identity resolution so they stay meaningful
	// when the database is down.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /healthz", health(logger))
	topMux.Handle("GET /readyz", readiness(cfg.Pool, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
