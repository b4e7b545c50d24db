// internal/server/server.go
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rideviz/internal/common/config"
	"rideviz/internal/common/logger"
	"rideviz/internal/viz"
)

// Server hosts both UI shells' APIs over one shared pipeline: the dashboard
// under /api, the embeddable widget under /widget/api plus its loader
// script. The shells differ only in panel-toggle policy.
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

func New(cfg *config.Config, asker Asker, analyzer Analyzer, store Store, log logger.Logger) *Server {
	mux := http.NewServeMux()

	dashboardPolicy := viz.Policy{
		AutoCloseMapOnChartOnly: cfg.Server.Dashboard.AutoCloseMapOnChartOnly,
	}
	widgetPolicy := viz.Policy{
		AutoCloseMapOnChartOnly: cfg.Server.Widget.AutoCloseMapOnChartOnly,
	}

	dashboard := NewHandlers("dashboard", dashboardPolicy, asker, analyzer, store, log)
	dashboard.Register(mux, "/api")

	widget := NewHandlers("widget", widgetPolicy, asker, analyzer, store, log)
	widget.Register(mux, "/widget/api")

	mux.HandleFunc("GET /widget.js", handleWidgetLoader("/widget/api"))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	handler := cors(mux, cfg.Server.AllowedOrigins)
	handler = accessLog(handler, log.With(map[string]interface{}{
		"component": "http",
	}))

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Server.ListenAddress,
			Handler: handler,
			// Analysis runs ride through the request, so the write
			// timeout must cover a full capability loop.
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: log,
	}
}

// Handler exposes the wired mux, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"address": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
