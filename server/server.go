package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/serisow/autbot/handlers"
	"github.com/serisow/autbot/middleware"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"
)

type Config struct {
	Domains        []string
	CertCacheDir   string
	HTTPPort       string
	AllowedOrigins []string
	IdleTimeout    time.Duration
	ReadTimeout    time.Duration
	// WriteTimeout must outlast the LLM timeout or slow answers are cut off.
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func SetupRoutes(h *handlers.Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/ready", h.Ready).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.Version).Methods("GET")
	api.HandleFunc("/test", h.Test).Methods("GET")
	api.HandleFunc("/query", h.Query).Methods("POST")

	return r
}

// New wraps the router in the middleware chain. Correlation runs first so
// every later log line and error body carries the request's ID.
func New(cfg Config, r *mux.Router, logger *slog.Logger) *negroni.Negroni {
	n := negroni.New()

	n.Use(negroni.HandlerFunc(middleware.Correlation))
	n.Use(middleware.NewRequestLogger(logger))
	n.Use(middleware.NewRecovery(logger))
	n.Use(middleware.NewCORS(cfg.AllowedOrigins))

	n.UseHandler(r)
	return n
}

// ServeProduction serves TLS on :443 with certificates from Let's Encrypt
// and answers ACME challenges on :80.
func ServeProduction(ctx context.Context, cfg Config, n http.Handler, logger *slog.Logger) error {
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.Domains...),
		Cache:      autocert.DirCache(cfg.CertCacheDir),
	}

	// autocertManager.HTTPHandler(nil) answers "http-01" challenges and
	// redirects everything else to HTTPS.
	challengeSrv := &http.Server{
		Addr:         ":80",
		Handler:      autocertManager.HTTPHandler(nil),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	tlsConfig := &tls.Config{
		GetCertificate:   autocertManager.GetCertificate,
		MinVersion:       tls.VersionTLS12,
		CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	srv := &http.Server{
		Addr:         ":443",
		Handler:      n,
		TLSConfig:    tlsConfig,
		IdleTimeout:  cfg.IdleTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- challengeSrv.ListenAndServe()
	}()
	go func() {
		logger.Info("Serving HTTPS", slog.Any("domains", cfg.Domains))
		errCh <- srv.ListenAndServeTLS("", "") // Key and cert provided automatically by autocert.
	}()

	return waitAndShutdown(ctx, cfg.ShutdownTimeout, errCh, logger, srv, challengeSrv)
}

// ServeDevelopment serves plain HTTP on cfg.HTTPPort until ctx is cancelled.
func ServeDevelopment(ctx context.Context, cfg Config, n http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      n,
		IdleTimeout:  cfg.IdleTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving HTTP", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	return waitAndShutdown(ctx, cfg.ShutdownTimeout, errCh, logger, srv)
}

func waitAndShutdown(ctx context.Context, timeout time.Duration, errCh <-chan error, logger *slog.Logger, servers ...*http.Server) error {
	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
			serveErr = err
		}
	}
	return serveErr
}
