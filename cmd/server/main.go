package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/admin-columns/pkg/admincolumns/api"
	"github.com/tendant/admin-columns/pkg/admincolumns/config"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
)

type Config struct {
	Port         string        `env:"PORT" env-default:"8080"`
	Environment  string        `env:"ENVIRONMENT" env-default:"development"`
	StoreURL     string        `env:"STORE_URL" env-default:"memory"`
	DBSchema     string        `env:"DB_SCHEMA" env-default:"admin_columns"`
	CatalogFile  string        `env:"CATALOG_FILE"`
	TokenSecret  string        `env:"TOKEN_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" env-default:"24h"`
	JWTSecret    string        `env:"JWT_SECRET"`
	ApiKeySHA256 string        `env:"API_KEY_SHA256"`
	EventLogging bool          `env:"EVENT_LOGGING" env-default:"true"`
	AWS          AWSConfig
}

type AWSConfig struct {
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

func (c Config) options() []config.Option {
	return []config.Option{
		config.WithPort(c.Port),
		config.WithEnvironment(c.Environment),
		config.WithStoreURL(c.StoreURL),
		config.WithS3Credentials(c.AWS.AccessKeyID, c.AWS.SecretAccessKey),
		config.WithDatabaseSchema(c.DBSchema),
		config.WithCatalogFile(c.CatalogFile),
		config.WithTokenSecret(c.TokenSecret),
		config.WithTokenTTL(c.TokenTTL),
		config.WithJWTSecret(c.JWTSecret),
		config.WithEventLogging(c.EventLogging),
	}
}

func main() {
	var env Config
	if err := cleanenv.ReadEnv(&env); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	serverConfig, err := config.Load(env.options()...)
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	components, err := serverConfig.BuildService(ctx)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}
	defer components.Close()

	var apiKey func(http.Handler) http.Handler
	if env.ApiKeySHA256 != "" {
		apiKey, err = middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
			APIKeys: map[string]string{
				"listing": env.ApiKeySHA256,
			},
		})
		if err != nil {
			slog.Error("Failed initialize API Key middleware", "err", err)
			os.Exit(1)
		}
	}

	router := newRouter(components, serverConfig.BuildJWTAuth(), apiKey)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: router,
	}

	go func() {
		slog.Info("Admin columns server starting", "port", serverConfig.Port, "env", serverConfig.Environment, "store", serverConfig.StoreType)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
	}
}

// newRouter mounts the admin API behind JWT authentication. When apiKey is set the
// listing endpoints are also served under /service/listing for host renderers
// that authenticate with an API key instead of a user token.
func newRouter(components *config.Components, auth *jwtauth.JWTAuth, apiKey func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(api.RequestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(api.LoggingMiddleware(slog.Default()))
	r.Use(api.RecoveryMiddleware)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	app.RoutesHealthz(r)
	app.RoutesHealthzReady(r)

	handler := api.NewColumnsHandler(components.Service, components.Catalog)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(auth))
			r.Use(jwtauth.Authenticator)
			r.Use(api.CallerMiddleware)
			r.Mount("/", handler.Routes())
		})
	})

	if apiKey != nil {
		r.Route("/service", func(r chi.Router) {
			r.Use(apiKey)
			r.Mount("/listing", handler.ListingRoutes())
		})
	}

	return r
}
