// Package httpapi exposes the credential service over HTTP/JSON: the
// register/login/logout/refresh endpoints and the bearer-token middleware
// guarding the protected routes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gezielcarvalho/ascauth/internal/logging"
	"github.com/gezielcarvalho/ascauth/internal/server/cache"
	"github.com/gezielcarvalho/ascauth/internal/server/models"
	"github.com/gezielcarvalho/ascauth/internal/server/services"
)

// CredentialService is the slice of services.CredentialService the HTTP
// layer needs.
type CredentialService interface {
	Create(ctx context.Context, email, password, name string) (*models.User, error)
	Verify(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, userID string) (*models.User, error)
	ChangePassword(ctx context.Context, userID, current, newPassword string) error
}

// TokenService is the slice of services.TokenService the HTTP layer needs.
type TokenService interface {
	Issue(ctx context.Context, user *models.User) (*services.IssuedToken, error)
	Validate(ctx context.Context, bearer string) (*models.Token, error)
	Refresh(ctx context.Context, old *models.Token) (*services.IssuedToken, error)
	Revoke(ctx context.Context, tokenID string) error
}

// Pinger reports storage reachability for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server hosts the HTTP API. All dependencies are injected; handlers never
// reach for ambient state.
type Server struct {
	address           string
	logger            logging.Logger
	credentials       CredentialService
	tokens            TokenService
	cache             cache.Cache // may be nil
	db                Pinger      // may be nil
	minPasswordLength int
}

// NewServer constructs the HTTP server. cache and db are optional.
func NewServer(address string, l logging.Logger, creds CredentialService, tokens TokenService, c cache.Cache, db Pinger, minPasswordLength int) *Server {
	return &Server{
		address:           address,
		logger:            l.With("module", "http_server"),
		credentials:       creds,
		tokens:            tokens,
		cache:             c,
		db:                db,
		minPasswordLength: minPasswordLength,
	}
}

// Handler returns the routed handler, exposed separately for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.authenticate(s.handleLogout))
	mux.HandleFunc("POST /api/refresh", s.authenticate(s.handleRefresh))
	mux.HandleFunc("POST /api/password", s.authenticate(s.handlePassword))
	mux.HandleFunc("GET /api/user", s.authenticate(s.handleUser))
	mux.HandleFunc("GET /api/protected", s.authenticate(s.handleProtected))
	mux.HandleFunc("GET /api/unprotected", s.handleUnprotected)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	return mux
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
