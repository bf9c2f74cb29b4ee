// Package voice accepts transcribed voice commands.
package voice

import (
	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/pkg/dispatcher"
	"github.com/amirasaad/voicepay/pkg/middleware"
	authsvc "github.com/amirasaad/voicepay/pkg/service/auth"
	"github.com/amirasaad/voicepay/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// CommandInput is the transcript of one utterance.
type CommandInput struct {
	Text string `json:"text" validate:"required,max=500"`
}

func Routes(app *fiber.App, d *dispatcher.Dispatcher, authSvc *authsvc.Service, cfg *config.App) {
	protected := middleware.JwtProtected(cfg.Auth.Jwt)
	app.Post("/voice/command", protected, Command(d, authSvc))
	app.Post("/voice/parse", protected, Parse(d, authSvc))
}

// Command interprets and executes a command for the caller.
//
// The reply is always 200: failures are part of the conversation and carry
// status "error" plus a code in the body.
// @Summary Execute voice command
// @Tags voice
// @Accept json
// @Produce json
// @Param request body CommandInput true "Transcript"
// @Success 200 {object} dispatcher.Result
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Router /voice/command [post]
// @Security Bearer
func Command(d *dispatcher.Dispatcher, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := common.CurrentPrincipal(c, authSvc)
		if p == nil {
			return err
		}
		input, err := common.BindAndValidate[CommandInput](c)
		if input == nil {
			return err
		}
		return c.Status(fiber.StatusOK).JSON(d.Handle(c.Context(), p.Phone, input.Text))
	}
}

// Parse shows how a command would be understood without executing it.
// @Summary Interpret voice command
// @Tags voice
// @Accept json
// @Produce json
// @Param request body CommandInput true "Transcript"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Router /voice/parse [post]
// @Security Bearer
func Parse(d *dispatcher.Dispatcher, authSvc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if p, err := common.CurrentPrincipal(c, authSvc); p == nil {
			return err
		}
		input, err := common.BindAndValidate[CommandInput](c)
		if input == nil {
			return err
		}
		cmd, err := d.Interpret(c.Context(), input.Text)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Could not interpret command", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Command interpreted", cmd)
	}
}
