package handler

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
		Env: "test",
		Log: &config.Log{Level: 8, Format: "json"},
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
		RateLimit: &config.RateLimit{},
	}
}

func TestNewHandler(t *testing.T) {
	h, err := newHandler(testConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "VoicePay API is running")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/balance", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewHandler_BadGrant(t *testing.T) {
	cfg := testConfig()
	cfg.Ledger.InitialGrant = "lots"
	_, err := newHandler(cfg)
	assert.Error(t, err)
}
