package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/admin-columns/pkg/admincolumns/config"
)

func TestServerSetup(t *testing.T) {
	cfg, err := config.Load(config.WithTokenSecret("token-secret"), config.WithJWTSecret("jwt-secret"))
	require.NoError(t, err)

	components, err := cfg.BuildService(context.Background())
	require.NoError(t, err)
	defer components.Close()

	auth := cfg.BuildJWTAuth()
	router := newRouter(components, auth, nil)

	t.Run("health check", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("api requires a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/content-types", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("administrator lists content types", func(t *testing.T) {
		_, jwt, err := auth.Encode(map[string]interface{}{"sub": "admin", "role": "administrator"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/content-types", nil)
		req.Header.Set("Authorization", "Bearer "+jwt)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"name":"post","label":"Posts"},{"name":"page","label":"Pages"}]`, w.Body.String())
	})

	t.Run("service listing not mounted without api key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/service/listing/post/columns", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestConfigOptions(t *testing.T) {
	env := Config{Port: "9000", Environment: "testing", StoreURL: "memory", TokenTTL: 0}
	_, err := config.Load(env.options()...)
	assert.Error(t, err, "zero TTL is rejected")

	env.TokenTTL = time.Hour
	cfg, err := config.Load(env.options()...)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
}
