package account_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/amirasaad/voicepay/webapi/account"
	"github.com/amirasaad/voicepay/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type AccountTestSuite struct {
	testutils.E2ETestSuite
	ravi  *testutils.TestUser
	queen *testutils.TestUser
}

func (s *AccountTestSuite) SetupTest() {
	s.E2ETestSuite.SetupTest()
	s.ravi = s.SignUp("Ravi", "9000000001")
	s.queen = s.SignUp("Queen", "9000000002")
}

func (s *AccountTestSuite) balance(u *testutils.TestUser) string {
	resp := s.MakeRequest(http.MethodGet, "/balance", "", u.Token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var out account.BalanceDTO
	s.Decode(resp, &out)
	return out.Balance
}

func (s *AccountTestSuite) history(u *testutils.TestUser) account.HistoryDTO {
	resp := s.MakeRequest(http.MethodGet, "/transactions", "", u.Token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var out account.HistoryDTO
	s.Decode(resp, &out)
	return out
}

func (s *AccountTestSuite) TestGetBalance() {
	resp := s.MakeRequest(http.MethodGet, "/balance", "", s.ravi.Token)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	var out account.BalanceDTO
	s.Decode(resp, &out)
	s.Equal("1000.00", out.Balance)
	s.Equal("₹1000", out.Display)
}

func (s *AccountTestSuite) TestTransferByHandle() {
	resp := s.MakeRequest(http.MethodPost, "/transfers/handle", `{"handle":"ravi@upi","amount":"300"}`, s.queen.Token)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	var tx account.TransactionDTO
	body := s.Decode(resp, &tx)
	s.Equal("Successfully sent ₹300 to ravi@upi", body.Message)
	s.Equal("300.00", tx.Amount)
	s.Equal(account.DirectionSent, tx.Direction)
	s.Equal("ravi@upi", tx.Counterparty)

	s.Equal("700.00", s.balance(s.queen))
	s.Equal("1300.00", s.balance(s.ravi))

	sent := s.history(s.queen)
	s.Require().Len(sent.Sent, 1)
	s.Empty(sent.Received)
	received := s.history(s.ravi)
	s.Require().Len(received.Received, 1)
	s.Equal(tx.ID, received.Received[0].ID)
	s.Equal("queen@upi", received.Received[0].Counterparty)
}

func (s *AccountTestSuite) TestTransferByPhone() {
	resp := s.MakeRequest(http.MethodPost, "/transfers/phone", `{"phone":"9000000001","amount":"12.50"}`, s.queen.Token)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	resp.Body.Close() //nolint: errcheck
	s.Equal("987.50", s.balance(s.queen))
	s.Equal("1012.50", s.balance(s.ravi))
}

func (s *AccountTestSuite) TestTransfer_Errors() {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"insufficient", "/transfers/handle", `{"handle":"ravi","amount":"1000.01"}`, fiber.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"},
		{"unknown handle", "/transfers/handle", `{"handle":"ghost@upi","amount":"10"}`, fiber.StatusNotFound, "USER_NOT_FOUND"},
		{"self", "/transfers/handle", `{"handle":"queen@upi","amount":"10"}`, fiber.StatusBadRequest, "SAME_ACCOUNT"},
		{"zero", "/transfers/phone", `{"phone":"9000000001","amount":"0"}`, fiber.StatusBadRequest, "NON_POSITIVE_AMOUNT"},
		{"garbage amount", "/transfers/phone", `{"phone":"9000000001","amount":"ten"}`, fiber.StatusBadRequest, "INVALID_AMOUNT"},
		{"sub paisa", "/transfers/phone", `{"phone":"9000000001","amount":"0.001"}`, fiber.StatusBadRequest, "AMOUNT_PRECISION"},
		{"too large", "/transfers/handle", `{"handle":"ravi","amount":"99999999999999999999"}`, fiber.StatusBadRequest, "AMOUNT_TOO_LARGE"},
	}
	for _, tt := range tests {
		resp := s.MakeRequest(http.MethodPost, tt.path, tt.body, s.queen.Token)
		s.Equal(tt.status, resp.StatusCode, tt.name)
		s.Equal(tt.code, s.DecodeProblem(resp).Code, tt.name)
	}
	// Nothing moved and no ledger rows were written.
	s.Equal("1000.00", s.balance(s.queen))
	s.Equal("1000.00", s.balance(s.ravi))
	s.Empty(s.history(s.queen).Sent)
}

func (s *AccountTestSuite) TestTransfer_ValidationFailed() {
	resp := s.MakeRequest(http.MethodPost, "/transfers/handle", `{"amount":"10"}`, s.queen.Token)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	s.Equal("Validation failed", s.DecodeProblem(resp).Title)
}

func (s *AccountTestSuite) TestGetTransaction() {
	resp := s.MakeRequest(http.MethodPost, "/transfers/handle", `{"handle":"ravi","amount":"5"}`, s.queen.Token)
	var tx account.TransactionDTO
	s.Decode(resp, &tx)

	resp = s.MakeRequest(http.MethodGet, "/transactions/"+tx.ID, "", s.ravi.Token)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	var got account.TransactionDTO
	s.Decode(resp, &got)
	s.Equal(account.DirectionReceived, got.Direction)
	s.Equal("5.00", got.Amount)

	outsider := s.SignUp("Kiran", "9000000003")
	resp = s.MakeRequest(http.MethodGet, "/transactions/"+tx.ID, "", outsider.Token)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
	resp.Body.Close() //nolint: errcheck

	resp = s.MakeRequest(http.MethodGet, fmt.Sprintf("/transactions/%s", uuid.NewString()), "", s.ravi.Token)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
	resp.Body.Close() //nolint: errcheck

	resp = s.MakeRequest(http.MethodGet, "/transactions/not-a-uuid", "", s.ravi.Token)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	resp.Body.Close() //nolint: errcheck
}

func TestAccountTestSuite(t *testing.T) {
	suite.Run(t, new(AccountTestSuite))
}
