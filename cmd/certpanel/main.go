package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/certpanel/internal/adapter/driven/monitorapi"
	oidcadapter "github.com/ericfisherdev/certpanel/internal/adapter/driven/oidc"
	sqliteadapter "github.com/ericfisherdev/certpanel/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/certpanel/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/certpanel/internal/adapter/driving/web"
	"github.com/ericfisherdev/certpanel/internal/application"
	"github.com/ericfisherdev/certpanel/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"monitor_api_url", cfg.MonitorAPIURL,
		"oidc_authority", cfg.OIDCAuthority,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire driven adapters.
	sessionStore := sqliteadapter.NewSessionRepo(db, cfg.SecretKey)
	if cfg.SecretKey == nil {
		slog.Warn("no secret key configured, credential persistence disabled and logins cannot complete")
	}

	identityProvider := oidcadapter.NewProvider(oidcadapter.Config{
		Authority:             cfg.OIDCAuthority,
		ClientID:              cfg.OIDCClientID,
		ClientSecret:          cfg.OIDCClientSecret,
		RedirectURL:           cfg.OIDCRedirectURL,
		PostLogoutRedirectURL: strings.TrimSuffix(cfg.OIDCRedirectURL, "/auth/callback"),
	})

	// 6. Wire the application layer. The monitor client pulls its bearer
	// token from the credential store via the request context.
	credStore := application.NewCredentialStore(identityProvider, sessionStore)
	monitor, err := monitorapi.NewClient(cfg.MonitorAPIURL, &httphandler.ContextCredentialSource{Creds: credStore})
	if err != nil {
		return err
	}

	sessionSvc := application.NewSessionService(monitor, credStore)
	routeGate := application.NewRouteGate(sessionSvc, credStore, slog.Default())
	statusSvc := application.NewStatusService()

	// 7. Create HTTP handler and register routes.
	apiHandler := httphandler.NewHandler(monitor, statusSvc, sessionSvc, credStore, routeGate, cfg.ExpiryHorizonDays, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)
	webhandler.RegisterRoutes(mux, httphandler.Protect(routeGate))
	mux.Handle("GET /metrics", httphandler.MetricsHandler())

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 8. Log startup complete.
	slog.Info("certpanel started",
		"listen_addr", cfg.ListenAddr,
		"expiry_horizon_days", cfg.ExpiryHorizonDays,
	)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
