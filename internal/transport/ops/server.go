// Package ops serves metrics and a JSON view of the running session.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/service/feed"
	"github.com/sandevgo/storedash/internal/service/session"
	"github.com/sandevgo/storedash/pkg/log"
)

// StateSource is what /api/state reports on.
type StateSource interface {
	Snapshot() session.Snapshot
}

type CatalogSource interface {
	State() feed.State
}

type stateResponse struct {
	Session session.Snapshot `json:"session"`
	Catalog *catalogSummary  `json:"catalog,omitempty"`
}

type catalogSummary struct {
	Filter  core.Filter `json:"filter"`
	Phase   string      `json:"phase"`
	Loaded  int         `json:"loaded"`
	Total   int         `json:"total"`
	HasMore bool        `json:"has_more"`
	Offline bool        `json:"offline"`
}

type Server struct {
	http *http.Server
	addr string
}

func NewServer(ctx context.Context, addr string, gatherer prometheus.Gatherer, sess StateSource, catalog CatalogSource, health core.HealthChecker) *Server {
	return &Server{
		addr: addr,
		http: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(gatherer, sess, catalog, health),
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		},
	}
}

func NewRouter(gatherer prometheus.Gatherer, sess StateSource, catalog CatalogSource, health core.HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", func(w http.ResponseWriter, r *http.Request) {
			resp := stateResponse{Session: sess.Snapshot()}
			if catalog != nil {
				st := catalog.State()
				resp.Catalog = &catalogSummary{
					Filter:  st.Filter,
					Phase:   st.Phase.String(),
					Loaded:  len(st.Products),
					Total:   st.Total,
					HasMore: st.HasMore,
					Offline: st.Offline,
				}
			}
			writeJSON(w, http.StatusOK, resp)
		})

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, health.Health(r.Context()))
		})
	})

	return r
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.addr).Msg("starting ops server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.FromCtx(r.Context()).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Dur("took", time.Since(start)).
			Msg("ops request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
