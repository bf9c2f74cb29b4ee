package account

import (
	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/pkg/middleware"
	"github.com/amirasaad/voicepay/pkg/money"
	accountsvc "github.com/amirasaad/voicepay/pkg/service/account"
	authsvc "github.com/amirasaad/voicepay/pkg/service/auth"
	"github.com/amirasaad/voicepay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Routes registers the caller's account endpoints. All of them require a JWT.
//
// Routes:
//   - GET    /balance             : Current balance.
//   - POST   /transfers/handle    : Pay a UPI ID.
//   - POST   /transfers/phone     : Pay a phone number.
//   - GET    /transactions        : Sent and received transactions.
//   - GET    /transactions/:id    : One transaction the caller took part in.
func Routes(app *fiber.App, accountSvc *accountsvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Get("/balance", protected, GetBalance(accountSvc, authSvc))
	app.Post("/transfers/handle", protected, TransferByHandle(accountSvc, authSvc))
	app.Post("/transfers/phone", protected, TransferByPhone(accountSvc, authSvc))
	app.Get("/transactions", protected, ListTransactions(accountSvc, authSvc))
	app.Get("/transactions/:id", protected, GetTransaction(accountSvc, authSvc))
}

// GetBalance returns the caller's balance.
// @Summary Get balance
// @Tags accounts
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /balance [get]
// @Security Bearer
func GetBalance(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if p == nil {
			return err
		}
		balance, err := accountSvc.GetBalance(c.Context(), p.Phone)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched", BalanceDTO{
			Balance: money.Format(balance),
			Display: money.Display(balance),
		})
	}
}

// TransferByHandle pays a UPI ID from the caller's account.
// @Summary Transfer to UPI ID
// @Description Moves the amount atomically. Fails without side effects on insufficient balance.
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body TransferByHandleRequest true "Recipient and amount"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails "Insufficient balance"
// @Failure 503 {object} common.ProblemDetails "Account busy"
// @Router /transfers/handle [post]
// @Security Bearer
func TransferByHandle(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if p == nil {
			return err
		}
		input, err := common.BindAndValidate[TransferByHandleRequest](c)
		if input == nil {
			return err // error response already written
		}
		amount, err := money.ParsePositive(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		res, err := accountSvc.TransferByHandle(c.Context(), p.Phone, input.Handle, amount)
		if err != nil {
			log.Warnf("Transfer to %s failed: %v", input.Handle, err)
			return common.ProblemDetailsJSON(c, "Transfer failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, res.Message(),
			ToTransactionDTO(res.Transaction, DirectionSent, res.Receiver))
	}
}

// TransferByPhone pays a phone number from the caller's account.
// @Summary Transfer to phone
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body TransferByPhoneRequest true "Recipient and amount"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails "Insufficient balance"
// @Failure 503 {object} common.ProblemDetails "Account busy"
// @Router /transfers/phone [post]
// @Security Bearer
func TransferByPhone(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if p == nil {
			return err
		}
		input, err := common.BindAndValidate[TransferByPhoneRequest](c)
		if input == nil {
			return err
		}
		amount, err := money.ParsePositive(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		res, err := accountSvc.TransferByPhone(c.Context(), p.Phone, input.Phone, amount)
		if err != nil {
			log.Warnf("Transfer to phone failed: %v", err)
			return common.ProblemDetailsJSON(c, "Transfer failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, res.Message(),
			ToTransactionDTO(res.Transaction, DirectionSent, res.Receiver))
	}
}

// ListTransactions returns the caller's transaction history.
// @Summary List transactions
// @Tags accounts
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /transactions [get]
// @Security Bearer
func ListTransactions(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if p == nil {
			return err
		}
		history, err := accountSvc.ListTransactions(c.Context(), p.Phone)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", ToHistoryDTO(history))
	}
}

// GetTransaction returns one transaction the caller sent or received.
// @Summary Get transaction
// @Tags accounts
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /transactions/{id} [get]
// @Security Bearer
func GetTransaction(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if p == nil {
			return err
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid transaction ID", nil, "Transaction ID must be a valid UUID", fiber.StatusBadRequest)
		}
		party, err := accountSvc.ByPhone(c.Context(), p.Phone)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Account not found", err)
		}
		tx, err := accountSvc.FindTransaction(c.Context(), p.Phone, id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Transaction not found", err)
		}
		direction := DirectionReceived
		if tx.SenderID == party.Account.ID {
			direction = DirectionSent
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction found", ToTransactionDTO(tx, direction, nil))
	}
}
