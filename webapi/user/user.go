package user

import (
	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/pkg/middleware"
	"github.com/amirasaad/voicepay/pkg/money"
	accountsvc "github.com/amirasaad/voicepay/pkg/service/account"
	authsvc "github.com/amirasaad/voicepay/pkg/service/auth"
	"github.com/amirasaad/voicepay/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers user lookup endpoints. Only /users/exists is public; the
// frontend calls it before deciding between login and sign up.
func Routes(app *fiber.App, accountSvc *accountsvc.Service, authSvc *authsvc.Service, cfg *config.App) {
	app.Get("/users/exists", Exists(accountSvc))
	app.Get("/users/phone/:phone", middleware.JwtProtected(cfg.Auth.Jwt), ByPhone(accountSvc, authSvc))
	app.Get("/users/handle/:handle", middleware.JwtProtected(cfg.Auth.Jwt), ByHandle(accountSvc, authSvc))
	app.Get("/me", middleware.JwtProtected(cfg.Auth.Jwt), Me(accountSvc, authSvc))
}

// Exists reports whether a phone number has an account.
// @Summary Check account
// @Description Reports whether the phone number already has an account
// @Tags users
// @Produce json
// @Param phone query string true "Phone number"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Router /users/exists [get]
func Exists(accountSvc *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		phone := c.Query("phone")
		if phone == "" {
			return common.ProblemDetailsJSON(c, "Invalid request", nil, "phone query parameter is required", fiber.StatusBadRequest)
		}
		exists, err := accountSvc.HasAccount(c.Context(), phone)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Lookup failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Lookup complete", ExistsResponse{Phone: phone, Exists: exists})
	}
}

// ByPhone looks a user up by phone number.
// @Summary Find user by phone
// @Tags users
// @Produce json
// @Param phone path string true "Phone number"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /users/phone/{phone} [get]
// @Security Bearer
func ByPhone(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if p, err := common.CurrentPrincipal(c, authSvc); p == nil {
			return err
		}
		party, err := accountSvc.ByPhone(c.Context(), c.Params("phone"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "User not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User found", common.ToUserDTO(party.User))
	}
}

// ByHandle looks a user up by UPI ID.
// @Summary Find user by UPI ID
// @Tags users
// @Produce json
// @Param handle path string true "UPI ID"
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /users/handle/{handle} [get]
// @Security Bearer
func ByHandle(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if p, err := common.CurrentPrincipal(c, authSvc); p == nil {
			return err
		}
		party, err := accountSvc.ByHandle(c.Context(), c.Params("handle"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "User not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User found", common.ToUserDTO(party.User))
	}
}

// Me returns the caller's profile and balance.
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} common.Response
// @Failure 401 {object} common.ProblemDetails
// @Router /me [get]
// @Security Bearer
func Me(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if p == nil {
			return err
		}
		party, err := accountSvc.ByPhone(c.Context(), p.Phone)
		if err != nil {
			return common.ProblemDetailsJSON(c, "User not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Profile", ProfileResponse{
			User:    common.ToUserDTO(party.User),
			Balance: money.Format(party.Account.Balance),
		})
	}
}
