// Package request exposes money requests over HTTP.
package request

import (
	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/pkg/domain/moneyrequest"
	"github.com/amirasaad/voicepay/pkg/middleware"
	"github.com/amirasaad/voicepay/pkg/money"
	authsvc "github.com/amirasaad/voicepay/pkg/service/auth"
	requestsvc "github.com/amirasaad/voicepay/pkg/service/moneyrequest"
	"github.com/amirasaad/voicepay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// Routes registers the money request endpoints:
//   - POST /requests              : ask someone for money
//   - GET  /requests              : requests sent and received
//   - GET  /requests/:id          : one request the caller is a party to
//   - POST /requests/:id/resolve  : approve, reject or cancel
func Routes(app *fiber.App, requestSvc *requestsvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Post("/requests", protected, Create(requestSvc, authSvc))
	app.Get("/requests", protected, List(requestSvc, authSvc))
	app.Get("/requests/:id", protected, Get(requestSvc, authSvc))
	app.Post("/requests/:id/resolve", protected, Resolve(requestSvc, authSvc))
}

// Create asks another user for money.
// @Summary Create money request
// @Tags requests
// @Accept json
// @Produce json
// @Param request body CreateRequest true "Requestee and amount"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /requests [post]
// @Security Bearer
func Create(requestSvc *requestsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if p == nil {
			return err
		}
		input, err := common.BindAndValidate[CreateRequest](c)
		if input == nil {
			return err
		}
		amount, err := money.ParsePositive(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		created, err := requestSvc.Create(c.Context(), p.Phone, input.To, amount, input.Message)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create request", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, created.Message(),
			ToMoneyRequestDTO(created.Request, created.Requestee))
	}
}

// List returns the caller's requests.
// @Summary List money requests
// @Tags requests
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /requests [get]
// @Security Bearer
func List(requestSvc *requestsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if p == nil {
			return err
		}
		listing, err := requestSvc.List(c.Context(), p.Phone)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list requests", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Requests fetched", ToListingDTO(listing))
	}
}

// Get returns one request.
// @Summary Get money request
// @Tags requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /requests/{id} [get]
// @Security Bearer
func Get(requestSvc *requestsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if p == nil {
			return err
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request ID", nil, "Request ID must be a valid UUID", fiber.StatusBadRequest)
		}
		r, err := requestSvc.Get(c.Context(), p.Phone, id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Request not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Request found", ToMoneyRequestDTO(r, nil))
	}
}

// Resolve approves, rejects or cancels a pending request. Approval pays the
// requester from the caller's account in the same transaction.
// @Summary Resolve money request
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body ResolveRequest true "Target status"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails "Already resolved"
// @Failure 422 {object} common.ProblemDetails "Insufficient balance"
// @Router /requests/{id}/resolve [post]
// @Security Bearer
func Resolve(requestSvc *requestsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if p == nil {
			return err
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request ID", nil, "Request ID must be a valid UUID", fiber.StatusBadRequest)
		}
		input, err := common.BindAndValidate[ResolveRequest](c)
		if input == nil {
			return err
		}
		res, err := requestSvc.Resolve(c.Context(), id, p.Phone, moneyrequest.Status(input.Status))
		if err != nil {
			log.Warnf("Resolve %s failed: %v", id, err)
			return common.ProblemDetailsJSON(c, "Failed to resolve request", err)
		}
		out := ResolvedDTO{Request: ToMoneyRequestDTO(res.Request, nil)}
		if res.Transaction != nil {
			out.TransactionID = res.Transaction.ID.String()
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Request "+input.Status, out)
	}
}
