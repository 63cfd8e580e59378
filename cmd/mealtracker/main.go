package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/mealtracker/internal/adapter/driven/jsonfile"
	"github.com/ericfisherdev/mealtracker/internal/adapter/driven/passhash"
	sheetsadapter "github.com/ericfisherdev/mealtracker/internal/adapter/driven/sheets"
	sqliteadapter "github.com/ericfisherdev/mealtracker/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/mealtracker/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/mealtracker/internal/adapter/driving/web"
	"github.com/ericfisherdev/mealtracker/internal/application"
	"github.com/ericfisherdev/mealtracker/internal/config"
	"github.com/ericfisherdev/mealtracker/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load .env (optional) and configuration.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"users_file", cfg.UsersFile,
		"password_scheme", cfg.PasswordScheme,
		"table_backend", cfg.TableBackend,
		"spreadsheet_title", cfg.SpreadsheetTitle,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the credential store. A corrupt file is fatal.
	hasher, err := passhash.New(cfg.PasswordScheme)
	if err != nil {
		return err
	}
	credentials, err := jsonfile.Open(cfg.UsersFile, hasher)
	if err != nil {
		return err
	}
	slog.Info("credential store opened", "path", cfg.UsersFile)

	// 4. Choose the meal table backend.
	connector, closer, err := openTable(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			slog.Error("error closing table backend", "error", closeErr)
		}
	}()

	// 5. Wire services.
	entries := application.NewEntryStore(application.NewTableProvider(connector), slog.Default())
	if err := entries.Connect(ctx); err != nil {
		// Not fatal: the next meal request retries the connection.
		slog.Warn("meal table not reachable at startup", "error", err)
	} else if cfg.InitHeader {
		if err := entries.InitializeHeader(ctx); err != nil {
			slog.Warn("could not write meal table header", "error", err)
		}
	}

	authSvc := application.NewAuthService(credentials, slog.Default())
	mealSvc := application.NewMealService(entries)
	sessions := application.NewSessionRegistry()
	limiter := httphandler.NewRateLimiter(cfg.LoginRate)

	// 6. Register API and GUI routes.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	apiHandler := httphandler.NewHandler(authSvc, mealSvc, slog.Default())
	httphandler.RegisterRoutes(r, apiHandler, limiter)

	webHandler := webhandler.NewHandler(authSvc, mealSvc, slog.Default())
	webhandler.RegisterRoutes(r, webHandler, limiter.LimitWith(http.HandlerFunc(webHandler.TooManyAttempts)))

	// Apply middleware.
	handler := httphandler.Wrap(r, sessions, slog.Default())

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
			stop()
		}
	}()

	slog.Info("mealtracker started", "listen_addr", cfg.ListenAddr)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 8. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// openTable builds the TableConnector for the configured backend. The
// returned closer releases backend resources on shutdown.
func openTable(ctx context.Context, cfg *config.Config) (driven.TableConnector, io.Closer, error) {
	switch cfg.TableBackend {
	case config.BackendSQLite:
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slog.Info("sqlite table backend ready", "path", cfg.DBPath)
		return sqliteadapter.NewTableRepo(db, cfg.SpreadsheetTitle), db, nil

	default:
		if !cfg.HasGoogleCredentials() {
			slog.Warn("no google credentials configured, meal pages will report connection errors")
		}
		return sheetsadapter.NewConnector(cfg.SpreadsheetTitle, cfg.GoogleCredentials), io.NopCloser(nil), nil
	}
}
