package voice_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/amirasaad/voicepay/pkg/dispatcher"
	"github.com/amirasaad/voicepay/pkg/nlu"
	"github.com/amirasaad/voicepay/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type VoiceTestSuite struct {
	testutils.E2ETestSuite
	ravi  *testutils.TestUser
	queen *testutils.TestUser
}

func (s *VoiceTestSuite) SetupTest() {
	s.E2ETestSuite.SetupTest()
	s.ravi = s.SignUp("Ravi", "9000000001")
	s.queen = s.SignUp("Queen", "9000000002")
}

func (s *VoiceTestSuite) command(u *testutils.TestUser, text string) dispatcher.Result {
	resp := s.MakeRequest(http.MethodPost, "/voice/command", fmt.Sprintf(`{"text":%q}`, text), u.Token)
	defer resp.Body.Close() //nolint: errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var res dispatcher.Result
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func (s *VoiceTestSuite) TestCommand_Transfer() {
	res := s.command(s.queen, "send 300 rupees to ravi@upi")
	s.Equal(dispatcher.StatusSuccess, res.Status)
	s.Equal(dispatcher.CodeOK, res.Code)
	s.Equal(nlu.IntentTransfer, res.Intent)
	s.Equal("Successfully sent ₹300 to ravi@upi", res.Message)

	res = s.command(s.queen, "what is my balance")
	s.Equal(nlu.IntentBalance, res.Intent)
	s.Equal("Your current balance is ₹700", res.Message)
}

func (s *VoiceTestSuite) TestCommand_NameOnly() {
	res := s.command(s.queen, "pay ravi 100 rupees")
	s.Equal(dispatcher.StatusError, res.Status)
	s.Equal("NEED_PHONE_OR_HANDLE", res.Code)
	s.Contains(res.Message, "Cannot find contact details for Ravi")

	res = s.command(s.queen, "what is my balance")
	s.Equal("Your current balance is ₹1000", res.Message)
}

func (s *VoiceTestSuite) TestCommand_InsufficientBalance() {
	res := s.command(s.ravi, "send 5000 to 9000000002")
	s.Equal(dispatcher.StatusError, res.Status)
	s.Equal("INSUFFICIENT_BALANCE", res.Code)
}

func (s *VoiceTestSuite) TestCommand_Request() {
	res := s.command(s.ravi, "request 50 rupees from queen@upi")
	s.Equal(dispatcher.StatusSuccess, res.Status)
	s.Equal(nlu.IntentRequest, res.Intent)
	s.Equal("Money request of ₹50 sent to Queen", res.Message)
}

func (s *VoiceTestSuite) TestCommand_Validation() {
	resp := s.MakeRequest(http.MethodPost, "/voice/command", `{"text":""}`, s.ravi.Token)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	resp.Body.Close() //nolint: errcheck

	resp = s.MakeRequest(http.MethodPost, "/voice/command", `{"text":"hello"}`, "")
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close() //nolint: errcheck
}

func (s *VoiceTestSuite) TestParse() {
	resp := s.MakeRequest(http.MethodPost, "/voice/parse", `{"text":"send 250 to 9000000001"}`, s.queen.Token)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	var cmd nlu.Command
	s.Decode(resp, &cmd)
	s.Equal(nlu.IntentTransfer, cmd.Intent)
	s.Require().NotNil(cmd.Entities.Amount)
	s.Equal("250", cmd.Entities.Amount.String())
	s.Equal("+919000000001", cmd.Entities.PhoneNumber)

	// Parsing executes nothing.
	resp = s.MakeRequest(http.MethodGet, "/balance", "", s.queen.Token)
	var bal struct {
		Balance string `json:"balance"`
	}
	s.Decode(resp, &bal)
	s.Equal("1000.00", bal.Balance)
}

func TestVoiceTestSuite(t *testing.T) {
	suite.Run(t, new(VoiceTestSuite))
}
