package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.App {
	return &config.App{
		Env:    "test",
		Server: &config.Server{Scheme: "http", Host: "localhost", Port: 0},
		Log:    &config.Log{Level: 8, Format: "json"},
		DB: &config.DB{
			Url:     "sqlite://file:" + uuid.NewString() + "?mode=memory&cache=shared",
			Migrate: true,
		},
		Auth:      &config.Auth{Strategy: "jwt", Jwt: &config.Jwt{Secret: "s3cret", Expiry: time.Hour}},
		Redis:     &config.Redis{},
		Lock:      &config.Lock{Backend: "memory", Expiry: time.Second, Tries: 4, RetryDelay: 10 * time.Millisecond},
		EventBus:  &config.EventBus{Driver: "memory"},
		OTP:       &config.OTP{TTL: 5 * time.Minute, SignupWindow: 15 * time.Minute, Store: "db"},
		Ledger:    &config.Ledger{InitialGrant: "0"},
		NLU:       &config.NLU{MinConfidence: 0.5},
		RateLimit: &config.RateLimit{MaxRequests: 100, Window: time.Minute},
	}
}

func TestNewServer(t *testing.T) {
	fiberApp, deps, err := newServer(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	resp, err := fiberApp.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = fiberApp.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "voicepay_http_requests_total")
}

func TestNewServer_BadGrant(t *testing.T) {
	cfg := testConfig()
	cfg.Ledger.InitialGrant = "lots"
	_, _, err := newServer(cfg)
	assert.Error(t, err)
}
