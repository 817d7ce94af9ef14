// Package server is the HTTP glue around the identity/session core: it
// delivers webhook requests to the authenticator and state machine, and
// exposes the handoff issue/bind endpoints.
package server

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/chonlathan-cloud/lineoa-public-mirror/binding"
	"github.com/chonlathan-cloud/lineoa-public-mirror/credentials"
	"github.com/chonlathan-cloud/lineoa-public-mirror/identity"
	"github.com/chonlathan-cloud/lineoa-public-mirror/internal/config"
	"github.com/chonlathan-cloud/lineoa-public-mirror/onboarding"
	"github.com/chonlathan-cloud/lineoa-public-mirror/webhook"
)

// Replier delivers a reply message back through the channel. Outbound
// formatting and transport live outside this core; tests and local runs
// leave it nil and replies are only logged.
type Replier interface {
	Reply(ctx context.Context, shopID, replyToken, text string) error
}

// CodeResolver resolves a global identity from an authorization code, for
// callers arriving via a login redirect instead of holding an ID token.
// identity.OIDCResolver implements it; resolvers that don't are bearer-only.
type CodeResolver interface {
	ResolveCode(ctx context.Context, code string) (string, error)
}

// Deps carries the wired core components.
type Deps struct {
	Credentials   *credentials.Store
	Authenticator *webhook.Authenticator
	Deduper       *webhook.Deduper // optional
	Machine       *onboarding.Machine
	Issuer        *binding.Issuer
	Binder        *binding.Binder
	Identities    identity.Resolver
	Replier       Replier // optional
}

type Server struct {
	env    string
	mux    *http.ServeMux
	config config.Config
	log    zerolog.Logger
	deps   Deps
}

func New(cfg config.Config, deps Deps, log zerolog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[server.New] config is required")
	}
	if deps.Authenticator == nil {
		return nil, errors.New("[server.New] authenticator is required")
	}
	if deps.Machine == nil {
		return nil, errors.New("[server.New] onboarding machine is required")
	}
	if deps.Issuer == nil {
		return nil, errors.New("[server.New] handoff issuer is required")
	}
	if deps.Binder == nil {
		return nil, errors.New("[server.New] binder is required")
	}
	if deps.Identities == nil {
		return nil, errors.New("[server.New] identity resolver is required")
	}

	s := &Server{
		env:    cfg.GetEnv(),
		mux:    http.NewServeMux(),
		config: cfg,
		log:    log,
		deps:   deps,
	}
	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.mux.HandleFunc("GET /healthz", ChainMiddleware(s.HealthzHandler(), s.baseMiddleware()...))
	s.mux.HandleFunc("POST /webhook/{shopID}", ChainMiddleware(s.WebhookHandler(), s.baseMiddleware()...))
	s.mux.HandleFunc("POST /handoff/{shopID}", ChainMiddleware(s.HandoffHandler(), s.protectedMiddleware()...))
	s.mux.HandleFunc("POST /bind", ChainMiddleware(s.BindHandler(), s.baseMiddleware()...))
}

func (s *Server) baseMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
	}
}

func (s *Server) protectedMiddleware() []func(http.HandlerFunc) http.HandlerFunc {
	return append(s.baseMiddleware(), s.RequireBearerMiddleware)
}
