// Package nlu calls the intent model service over HTTP.
package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amirasaad/voicepay/infra/httpx"
	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/money"
	"github.com/amirasaad/voicepay/pkg/nlu"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
)

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Intent     string  `json:"predicted_intent"`
	Confidence float64 `json:"confidence"`
	Keywords   struct {
		Amount      *string `json:"amount"`
		Recipient   *string `json:"recipient"`
		PhoneNumber *string `json:"phone_number"`
		UPIID       *string `json:"upi_id"`
	} `json:"keywords"`
	Status string `json:"status"`
}

// HTTPClassifier posts {"text": ...} to <baseURL>/predict.
type HTTPClassifier struct {
	url     string
	client  *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewHTTPClassifier creates an HTTPClassifier.
func NewHTTPClassifier(baseURL string, timeout time.Duration, retryMax int, logger *slog.Logger) *HTTPClassifier {
	logger = logger.With("classifier", "http")
	return &HTTPClassifier{
		url:     strings.TrimRight(baseURL, "/") + "/predict",
		client:  httpx.NewClient(timeout, retryMax, logger),
		breaker: httpx.NewBreaker("nlu-classifier", logger),
		logger:  logger,
	}
}

var _ nlu.Classifier = (*HTTPClassifier)(nil)

func (c *HTTPClassifier) Classify(ctx context.Context, text string) (nlu.Classification, error) {
	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return nlu.Classification{}, err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nlu.Classification{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpx.Do(c.breaker, c.client, req)
	if err != nil {
		return nlu.Classification{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nlu.Classification{}, fmt.Errorf("decode classifier response: %w", err)
	}
	if out.Status != "" && out.Status != "success" {
		return nlu.Classification{}, fmt.Errorf("classifier status %q", out.Status)
	}
	c.logger.Debug("classified", "intent", out.Intent, "confidence", out.Confidence)
	return nlu.Classification{
		Intent:     nlu.ParseIntent(out.Intent),
		Confidence: out.Confidence,
		Entities:   out.entities(),
	}, nil
}

// entities keeps only the keywords that parse; the local extractor fills the rest.
func (r predictResponse) entities() nlu.Entities {
	var e nlu.Entities
	k := r.Keywords
	if k.Amount != nil {
		if amount, err := money.ParsePositive(*k.Amount); err == nil {
			e.Amount = &amount
		}
	}
	if k.Recipient != nil {
		e.RecipientName = strings.TrimSpace(*k.Recipient)
	}
	if k.PhoneNumber != nil {
		if phone, err := user.NormalizePhone(*k.PhoneNumber); err == nil {
			e.PhoneNumber = phone
		}
	}
	if k.UPIID != nil && strings.Contains(*k.UPIID, "@") {
		e.UPIID = strings.ToLower(strings.TrimSpace(*k.UPIID))
	}
	return e
}
