// Package api exposes the cats, users and achievements resources over
// HTTP. Every resource handler runs through the admission pipeline.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/access"
	"github.com/nanjiek/pixiu-cats/internal/admission"
	"github.com/nanjiek/pixiu-cats/internal/apperr"
	"github.com/nanjiek/pixiu-cats/internal/catalog"
	"github.com/nanjiek/pixiu-cats/internal/config"
	"github.com/nanjiek/pixiu-cats/internal/identity"
)

type Server struct {
	cfg      config.ServerCfg
	pipeline *admission.Pipeline
	registry *admission.Registry
	catalog  *catalog.Service
	resolver *identity.Resolver
	logger   *zap.Logger
	srv      *http.Server
}

func NewServer(cfg config.ServerCfg, pipeline *admission.Pipeline, registry *admission.Registry, svc *catalog.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		registry: registry,
		catalog:  svc,
		resolver: identity.NewResolver(cfg.TrustForwardedFor),
		logger:   logger,
	}
	s.srv = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutMs) * time.Millisecond,
	}
	return s
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/cats", s.listCats).Methods(http.MethodGet)
	v1.HandleFunc("/cats", s.createCat).Methods(http.MethodPost)
	v1.HandleFunc("/cats/{id}", s.retrieveCat).Methods(http.MethodGet)
	v1.HandleFunc("/cats/{id}", s.updateCat).Methods(http.MethodPut, http.MethodPatch)
	v1.HandleFunc("/cats/{id}", s.deleteCat).Methods(http.MethodDelete)

	v1.HandleFunc("/users", s.listUsers).Methods(http.MethodGet)
	v1.HandleFunc("/users/{id}", s.retrieveUser).Methods(http.MethodGet)

	v1.HandleFunc("/achievements", s.listAchievements).Methods(http.MethodGet)
	v1.HandleFunc("/achievements", s.createAchievement).Methods(http.MethodPost)
	v1.HandleFunc("/achievements/{id}", s.retrieveAchievement).Methods(http.MethodGet)
	v1.HandleFunc("/achievements/{id}", s.updateAchievement).Methods(http.MethodPut, http.MethodPatch)
	v1.HandleFunc("/achievements/{id}", s.deleteAchievement).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.writeError(w, req, apperr.NotFound("the requested resource was not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.writeError(w, req, apperr.MethodNotAllowed("method "+req.Method+" is not allowed for this resource"))
	})
}

// Handler returns the router wrapped in the middleware chain:
// request id, access log, then panic recovery.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	// NotFound and MethodNotAllowed handlers bypass router middleware, so
	// the chain wraps the router itself.
	return RequestID(s.accessLog(s.recovery(r)))
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Endpoints: s.registry.Names()})
}

// begin resolves the endpoint and builds the admission request.
func (s *Server) begin(r *http.Request, endpoint string, action access.Action) (*admission.Endpoint, *admission.Request, error) {
	ep, ok := s.registry.Get(endpoint)
	if !ok {
		return nil, nil, apperr.Internal(nil, "endpoint "+endpoint+" is not configured")
	}
	req := &admission.Request{
		Action:   action,
		Method:   r.Method,
		Identity: s.resolver.Resolve(r),
		URL:      s.absoluteURL(r),
	}
	if action != access.ActionList && action != access.ActionCreate {
		id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil || id <= 0 {
			return nil, nil, apperr.NotFound("not found")
		}
		req.ID = id
	}
	return ep, req, nil
}

// absoluteURL reconstructs the public URL of r for pagination links.
// X-Forwarded-Proto is honoured only behind a trusted proxy.
func (s *Server) absoluteURL(r *http.Request) *url.URL {
	u := *r.URL
	u.Host = r.Host
	u.Scheme = "http"
	if r.TLS != nil {
		u.Scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); s.cfg.TrustForwardedFor && proto != "" {
		u.Scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if u.Host == "" {
		u.Scheme = ""
	}
	return &u
}
