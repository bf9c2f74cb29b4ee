package webapi_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/voicepay/webapi/common"
	"github.com/amirasaad/voicepay/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type WebAPITestSuite struct {
	testutils.E2ETestSuite
}

func (s *WebAPITestSuite) TestRootRoute() {
	resp := s.MakeRequest(http.MethodGet, "/", "", "")
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusOK, resp.StatusCode)
}

func (s *WebAPITestSuite) TestNotFoundRoute() {
	resp := s.MakeRequest(http.MethodGet, "/doesnotexist", "", "")
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
	s.Equal(common.MIMEProblemJSON, resp.Header.Get(fiber.HeaderContentType))
	pd := s.DecodeProblem(resp)
	s.Equal(fiber.StatusNotFound, pd.Status)
}

func (s *WebAPITestSuite) TestProtectedRoute_Unauthorized() {
	for _, path := range []string{"/me", "/balance", "/transactions", "/requests"} {
		resp := s.MakeRequest(http.MethodGet, path, "", "")
		s.Equal(fiber.StatusUnauthorized, resp.StatusCode, path)
		s.Equal(common.MIMEProblemJSON, resp.Header.Get(fiber.HeaderContentType), path)
		s.Equal("UNAUTHENTICATED", s.DecodeProblem(resp).Code, path)
	}
}

func (s *WebAPITestSuite) TestSwaggerServed() {
	resp := s.MakeRequest(http.MethodGet, "/swagger/doc.json", "", "")
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusOK, resp.StatusCode)
}

func (s *WebAPITestSuite) TestRateLimit() {
	cfg := testutils.Config()
	cfg.RateLimit.MaxRequests = 5
	cfg.RateLimit.Window = time.Second
	s.SetupWithConfig(cfg)

	get := func(forwardedFor string) int {
		req, err := http.NewRequest(http.MethodGet, "/", nil)
		s.Require().NoError(err)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		resp, err := s.Fiber.Test(req, -1)
		s.Require().NoError(err)
		defer resp.Body.Close() //nolint: errcheck
		return resp.StatusCode
	}

	for i := range 5 {
		s.Equal(fiber.StatusOK, get("10.0.0.1, 172.16.0.1"), "request %d", i+1)
	}
	s.Equal(fiber.StatusTooManyRequests, get("10.0.0.1"))
	// The first hop identifies the client, so another client is unaffected.
	s.Equal(fiber.StatusOK, get("10.0.0.2, 172.16.0.1"))

	time.Sleep(1100 * time.Millisecond)
	s.Equal(fiber.StatusOK, get("10.0.0.1"))
}

func TestWebAPITestSuite(t *testing.T) {
	suite.Run(t, new(WebAPITestSuite))
}
