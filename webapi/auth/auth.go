package auth

import (
	"errors"
	"time"

	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/money"
	accountsvc "github.com/amirasaad/voicepay/pkg/service/account"
	authsvc "github.com/amirasaad/voicepay/pkg/service/auth"
	"github.com/amirasaad/voicepay/pkg/service/identity"
	"github.com/amirasaad/voicepay/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Routes registers the unauthenticated onboarding endpoints:
//   - POST /auth/otp         : send a one-time code
//   - POST /auth/otp/verify  : verify it and log in when the phone has an account
//   - POST /auth/signup      : create the account for a verified phone
func Routes(
	app *fiber.App,
	identitySvc *identity.Service,
	authSvc *authsvc.Service,
	accountSvc *accountsvc.Service,
) {
	app.Post("/auth/otp", SendOTP(identitySvc))
	app.Post("/auth/otp/verify", VerifyOTP(authSvc))
	app.Post("/auth/signup", SignUp(accountSvc, authSvc))
}

// SendOTP issues a one-time code.
// @Summary Send OTP
// @Description Sends a six digit code to the phone number, replacing any earlier code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body OTPInput true "Phone number"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Failure 500 {object} common.ProblemDetails
// @Router /auth/otp [post]
func SendOTP(identitySvc *identity.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[OTPInput](c)
		if input == nil {
			return err // Error already written by BindAndValidate
		}
		issued, err := identitySvc.Issue(c.Context(), input.Phone)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to send OTP", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "OTP sent", OTPResponse{
			Phone:     issued.Phone,
			ExpiresAt: issued.ExpiresAt.Format(time.RFC3339),
			Code:      issued.Code,
		})
	}
}

// VerifyOTP checks the code and logs the user in.
// @Summary Verify OTP
// @Description Verifies the code. Existing users get a JWT; new users must sign up next.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyInput true "Phone number and code"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /auth/otp/verify [post]
func VerifyOTP(authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[VerifyInput](c)
		if input == nil {
			return err
		}
		u, err := authSvc.Login(c.Context(), input.Phone, input.Code)
		if errors.Is(err, user.ErrUserNotFound) {
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Phone verified", SessionResponse{IsNewUser: true})
		}
		if err != nil {
			return common.ProblemDetailsJSON(c, "OTP verification failed", err)
		}
		token, err := authSvc.GenerateToken(c.Context(), u)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Success login", SessionResponse{
			Token: token,
			User:  common.ToUserDTO(u),
		})
	}
}

// SignUp creates the user and account for a verified phone.
// @Summary Sign up
// @Description Creates a user whose UPI ID is derived from the name, plus a zero or granted balance account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignUpInput true "Name and verified phone"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 409 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /auth/signup [post]
func SignUp(accountSvc *accountsvc.Service, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[SignUpInput](c)
		if input == nil {
			return err
		}
		party, err := accountSvc.SignUp(c.Context(), input.Name, input.Phone)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't create user", err)
		}
		token, err := authSvc.GenerateToken(c.Context(), party.User)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		}
		log.Infof("Signed up %s", party.User.Handle)
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Created user", SessionResponse{
			Token:   token,
			User:    common.ToUserDTO(party.User),
			Balance: money.Format(party.Account.Balance),
		})
	}
}
