// Package testutils runs the HTTP API against a private SQLite database for
// handler tests.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/amirasaad/voicepay/infra/eventbus"
	infralock "github.com/amirasaad/voicepay/infra/lock"
	infrarepo "github.com/amirasaad/voicepay/infra/repository"
	"github.com/amirasaad/voicepay/pkg/app"
	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/pkg/notify"
	pkgtestutils "github.com/amirasaad/voicepay/pkg/testutils"
	"github.com/amirasaad/voicepay/webapi"
	"github.com/amirasaad/voicepay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

// InitialGrant is the opening balance every test user receives.
const InitialGrant = "1000"

// Outbox records every notification sent.
type Outbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (o *Outbox) Send(_ context.Context, m notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, m)
	return nil
}

// Messages returns a copy of what was sent so far.
func (o *Outbox) Messages() []notify.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]notify.Message(nil), o.msgs...)
}

// TestUser is a signed up user with a session token.
type TestUser struct {
	Name   string
	Phone  string
	Handle string
	Token  string
}

// E2ETestSuite provides a fresh application per test.
type E2ETestSuite struct {
	suite.Suite
	App    *app.App
	Fiber  *fiber.App
	Outbox *Outbox
}

// Config is the configuration handler tests run with.
func Config() *config.App {
	return &config.App{
		Env:       "development",
		Auth:      &config.Auth{Strategy: "jwt", Jwt: &config.Jwt{Secret: "test-secret", Expiry: time.Hour}},
		OTP:       &config.OTP{TTL: 5 * time.Minute, SignupWindow: 15 * time.Minute},
		Ledger:    &config.Ledger{InitialGrant: InitialGrant},
		NLU:       &config.NLU{MinConfidence: 0.5},
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
	}
}

func (s *E2ETestSuite) SetupTest() {
	s.SetupWithConfig(Config())
}

// SetupWithConfig builds the application with cfg over a new database.
func (s *E2ETestSuite) SetupWithConfig(cfg *config.App) {
	db := pkgtestutils.NewSQLiteDB(s.T())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.Outbox = &Outbox{}
	deps := &app.Deps{
		Uow:      infrarepo.NewUoW(db),
		OTPStore: infrarepo.NewOTPStore(db),
		Locker:   infralock.NewMemoryLocker(),
		EventBus: eventbus.NewWithMemory(logger),
		Sender:   s.Outbox,
		Logger:   logger,
	}
	a, err := app.New(deps, cfg)
	s.Require().NoError(err)
	s.App = a
	s.Fiber = webapi.SetupApp(a)
}

// MakeRequest sends a JSON request, with a bearer token when token is set.
func (s *E2ETestSuite) MakeRequest(method, path, body, token string) *http.Response {
	return MakeRequestWithApp(s.Fiber, method, path, body, token)
}

// MakeRequestWithApp is MakeRequest for a bare fiber app.
func MakeRequestWithApp(app *fiber.App, method, path, body, token string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}

// Decode reads a success envelope and unmarshals its data into out.
func (s *E2ETestSuite) Decode(resp *http.Response, out any) common.Response {
	defer resp.Body.Close() //nolint: errcheck
	var raw struct {
		common.Response
		Data json.RawMessage `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&raw))
	if out != nil && len(raw.Data) > 0 {
		s.Require().NoError(json.Unmarshal(raw.Data, out))
	}
	return raw.Response
}

// DecodeProblem reads a problem details body.
func (s *E2ETestSuite) DecodeProblem(resp *http.Response) common.ProblemDetails {
	defer resp.Body.Close() //nolint: errcheck
	var pd common.ProblemDetails
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&pd))
	return pd
}

// IssueOTP requests a code over HTTP and returns it.
func (s *E2ETestSuite) IssueOTP(phone string) string {
	resp := s.MakeRequest(http.MethodPost, "/auth/otp", fmt.Sprintf(`{"phone":%q}`, phone), "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var out struct {
		Code string `json:"code"`
	}
	s.Decode(resp, &out)
	s.Require().Len(out.Code, 6)
	return out.Code
}

// SignUp onboards a user through the public endpoints.
func (s *E2ETestSuite) SignUp(name, phone string) *TestUser {
	code := s.IssueOTP(phone)
	resp := s.MakeRequest(http.MethodPost, "/auth/otp/verify", fmt.Sprintf(`{"phone":%q,"code":%q}`, phone, code), "")
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	resp.Body.Close() //nolint: errcheck

	resp = s.MakeRequest(http.MethodPost, "/auth/signup", fmt.Sprintf(`{"name":%q,"phone":%q}`, name, phone), "")
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var out struct {
		Token string          `json:"token"`
		User  *common.UserDTO `json:"user"`
	}
	s.Decode(resp, &out)
	s.Require().NotEmpty(out.Token)
	return &TestUser{Name: name, Phone: out.User.Phone, Handle: out.User.Handle, Token: out.Token}
}
