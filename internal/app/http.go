package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"venuedir/pkg/api"
	"venuedir/pkg/api/handlers"
	"venuedir/pkg/logger"
	"venuedir/pkg/security"
	"venuedir/pkg/store"
)

const shutdownTimeout = 10 * time.Second

// setupHTTPHandlers mounts the API router plus health and metrics endpoints.
func (a *App) setupHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", healthzHandler)
	mux.HandleFunc("/readyz", a.readyzHandler)
	mux.Handle("/metrics", promhttp.Handler())

	h := &handlers.VenueHandler{
		Pager:        a.pager,
		MaxBodyBytes: int64(a.cfg.Server.MaxBodyBytes),
	}
	mux.Handle("/", api.NewRouter(h))
}

// readyzHandler reports readiness based on the store.
func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !store.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","version":"` + ver + `"}`))
}

// healthzHandler handles the /healthz endpoint.
func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// startHTTP builds the handler, starts the HTTP server in a goroutine and
// returns a channel that will contain any server error.
func (a *App) startHTTP() <-chan error {
	mux := http.NewServeMux()
	a.setupHTTPHandlers(mux)

	secCfg := security.SecConfig{
		AllowedOrigins: append([]string{}, a.cfg.Security.CORS.AllowedOrigins...),
		RPS:            a.cfg.Security.RateLimit.RPS,
		Burst:          a.cfg.Security.RateLimit.Burst,
	}
	wrapped := security.Middleware(secCfg)(mux)

	a.srv = &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           wrapped,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		cert := a.cfg.Server.TLS.CertFile
		key := a.cfg.Server.TLS.KeyFile
		logger.Info("server_listening", zap.String("addr", a.srv.Addr), zap.Bool("tls", cert != ""))
		if cert != "" && key != "" {
			errCh <- a.srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- a.srv.ListenAndServe()
		}
	}()
	return errCh
}
