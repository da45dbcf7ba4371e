// Package server exposes gallery controllers over HTTP for `justgrid serve`.
//
// Each gallery created through the API gets its own controller in a
// [loader.Registry]. Clients report their container width to receive
// laid-out rows, and report the distance of the trigger item to the
// viewport bottom to have more pages loaded.
//
// Routes:
//
//	GET    /healthz
//	GET    /galleries
//	POST   /galleries
//	GET    /galleries/{id}
//	DELETE /galleries/{id}
//	GET    /galleries/{id}/layout?width=&viewport_height=&format=json|svg
//	POST   /galleries/{id}/near
//	POST   /galleries/{id}/load
//	POST   /galleries/{id}/reset
//	POST   /galleries/{id}/snapshot
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/justgrid/pkg/clock"
	"github.com/matzehuels/justgrid/pkg/config"
	"github.com/matzehuels/justgrid/pkg/integrations/urls"
	"github.com/matzehuels/justgrid/pkg/loader"
	"github.com/matzehuels/justgrid/pkg/snapshot"
)

// requestTimeout bounds a single request, including any page fetches it
// triggers.
const requestTimeout = 30 * time.Second

// Options configures a Server.
type Options struct {
	Config config.Config
	// Provider serves remote collections. Without it only URL galleries
	// can be created.
	Provider loader.PageProvider
	// URLs serves galleries built from direct image URLs.
	URLs *urls.Provider
	// Snapshots is optional; without it the snapshot route and restore
	// are unavailable.
	Snapshots snapshot.Store
	Logger    *log.Logger
	Clock     clock.Clock
}

// Server is the HTTP API.
type Server struct {
	cfg       config.Config
	provider  loader.PageProvider
	urls      *urls.Provider
	snapshots snapshot.Store
	logger    *log.Logger
	clock     clock.Clock
	registry  *loader.Registry
	router    chi.Router

	mu        sync.Mutex
	galleries map[string]galleryInfo
}

// galleryInfo is what the server remembers about a gallery besides its
// controller.
type galleryInfo struct {
	sort          loader.SortOrder
	urlCollection string
}

// New creates a server. The configuration is validated first.
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.URLs == nil {
		opts.URLs = urls.New(urls.Options{Logger: opts.Logger})
	}
	s := &Server{
		cfg:       cfg,
		provider:  opts.Provider,
		urls:      opts.URLs,
		snapshots: opts.Snapshots,
		logger:    opts.Logger,
		clock:     opts.Clock,
		registry:  loader.NewRegistry(),
		galleries: make(map[string]galleryInfo),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/galleries", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleStatus)
			r.Delete("/", s.handleDelete)
			r.Get("/layout", s.handleLayout)
			r.Post("/near", s.handleNear)
			r.Post("/load", s.handleLoad)
			r.Post("/reset", s.handleReset)
			r.Post("/snapshot", s.handleSnapshot)
		})
	})
	return r
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves the API on the configured address until ctx is cancelled,
// then shuts down gracefully and destroys every gallery.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if cerr := s.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close destroys every gallery.
func (s *Server) Close() error {
	s.mu.Lock()
	for id, info := range s.galleries {
		if info.urlCollection != "" {
			s.urls.Remove(info.urlCollection)
		}
		delete(s.galleries, id)
	}
	s.mu.Unlock()
	return s.registry.Close()
}

// Galleries returns the number of attached galleries.
func (s *Server) Galleries() int { return s.registry.Len() }

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
