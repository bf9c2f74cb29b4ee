package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirasaad/voicepay/infra/httpx"
	"github.com/amirasaad/voicepay/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSender_PostsJSON(t *testing.T) {
	received := make(chan notify.Message, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var msg notify.Message
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		received <- msg
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, time.Second, 0, slog.Default())
	err := sender.Send(context.Background(), notify.Message{Phone: "+919876543210", Kind: notify.KindOTP, Body: "code 123456"})
	require.NoError(t, err)

	msg := <-received
	assert.Equal(t, notify.KindOTP, msg.Kind)
	assert.Equal(t, "code 123456", msg.Body)
}

func TestWebhookSender_RetriesThenOpensBreaker(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, time.Second, 1, slog.Default())
	sender.client.RetryWaitMin = time.Millisecond
	sender.client.RetryWaitMax = time.Millisecond

	for i := 0; i < 5; i++ {
		assert.Error(t, sender.Send(context.Background(), notify.Message{Kind: notify.KindWelcome}))
	}
	assert.EqualValues(t, 10, atomic.LoadInt32(&calls))

	err := sender.Send(context.Background(), notify.Message{Kind: notify.KindWelcome})
	assert.ErrorIs(t, err, httpx.ErrUnavailable)
	assert.EqualValues(t, 10, atomic.LoadInt32(&calls))
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, NewLogSender(slog.Default()).Send(context.Background(), notify.Message{Kind: notify.KindOTP}))
}
