// Package common holds the response envelopes, error mapping and request
// binding shared by the HTTP handlers.
package common

import (
	"errors"

	"github.com/amirasaad/voicepay/pkg/domain"
	"github.com/amirasaad/voicepay/pkg/domain/moneyrequest"
	"github.com/amirasaad/voicepay/pkg/errcode"
	"github.com/amirasaad/voicepay/pkg/lock"
	authsvc "github.com/amirasaad/voicepay/pkg/service/auth"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// CodeOK is the code of every successful response.
	CodeOK = "OK"
	// MIMEProblemJSON is the content type of error responses (RFC 9457).
	MIMEProblemJSON = "application/problem+json"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Code    string `json:"code"`           // Machine readable outcome
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs, extended
// with the machine readable error code.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

var validate = validator.New()

// SuccessResponseJSON writes a Response with the given status.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Code:    CodeOK,
		Message: message,
		Data:    data,
	})
}

// ProblemDetailsJSON writes an application/problem+json response.
//
// The status defaults to ErrorToStatusCode(err) and the detail to the
// user-safe text of err. Extra args override them: a string sets Detail, an
// int sets the status, anything else lands in Errors.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, args ...any) error {
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   fiber.StatusInternalServerError,
		Code:     errcode.Internal,
		Instance: c.OriginalURL(),
	}
	if err != nil {
		pd.Status = ErrorToStatusCode(err)
		pd.Code = errcode.Code(err)
		pd.Detail = errcode.Message(err)
		if !errcode.Known(err) {
			log.Errorf("%s: %v", title, err)
		}
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case int:
			pd.Status = v
		case string:
			pd.Detail = v
		case nil:
		default:
			pd.Errors = v
		}
	}
	return c.Status(pd.Status).JSON(pd, MIMEProblemJSON)
}

// ErrorToStatusCode maps domain errors to HTTP status codes by category.
func ErrorToStatusCode(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, lock.ErrLockTimeout):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, moneyrequest.ErrNotRequester),
		errors.Is(err, moneyrequest.ErrNotRequestee):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientBalance):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", nil, err.Error(), fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			return nil, ProblemDetailsJSON(c, "Validation failed", nil, fields, "request validation failed", fiber.StatusBadRequest)
		}
		return nil, ProblemDetailsJSON(c, "Validation failed", nil, err.Error(), fiber.StatusBadRequest)
	}
	return &input, nil
}

// CurrentPrincipal reads the caller from the token the JWT middleware left in
// Locals. On failure it writes a 401 and returns a nil principal.
func CurrentPrincipal(c *fiber.Ctx, authSvc *authsvc.Service) (*authsvc.Principal, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil, ProblemDetailsJSON(c, "Unauthorized", authsvc.ErrUnauthenticated, "missing user context")
	}
	p, err := authSvc.CurrentPrincipal(token)
	if err != nil {
		return nil, ProblemDetailsJSON(c, "Unauthorized", err)
	}
	return p, nil
}
