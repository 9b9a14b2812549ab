package common

import (
	"errors"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response is the envelope of every JSON response.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// SuccessResponseJSON writes a successful envelope with data.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseJSON writes a failed envelope. detail is reported under errors
// unless it is nil.
func ErrorResponseJSON(c *fiber.Ctx, status int, message string, detail any) error {
	return c.Status(status).JSON(Response{
		Success: false,
		Message: message,
		Errors:  detail,
	})
}

// ErrorJSON writes err with the status from ErrorToStatusCode, or the given
// status. Server errors hide err behind message.
func ErrorJSON(c *fiber.Ctx, message string, err error, status ...int) error {
	code := ErrorToStatusCode(err)
	if len(status) > 0 {
		code = status[0]
	}
	if code >= fiber.StatusInternalServerError {
		return ErrorResponseJSON(c, code, message, nil)
	}
	return ErrorResponseJSON(c, code, err.Error(), nil)
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.Is(err, domain.ErrInvalidFileType),
		errors.Is(err, domain.ErrEmptyPayload),
		errors.Is(err, domain.ErrMalformedPayload),
		errors.Is(err, domain.ErrMissingColumns),
		errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrUploadFinalized):
		return fiber.StatusConflict
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// BindQueryAndValidate parses the query string over defaults and validates
// the result. On failure it writes a 400 response and returns nil along with
// any error from writing that response.
func BindQueryAndValidate[T any](c *fiber.Ctx, defaults T) (*T, error) {
	input := defaults
	if err := c.QueryParser(&input); err != nil {
		return nil, ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid query parameters", err.Error())
	}
	if err := validate.Struct(input); err != nil {
		return nil, ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation failed", validationMessages(err))
	}
	return &input, nil
}

func validationMessages(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = "failed on the '" + fe.Tag() + "' rule"
	}
	return out
}
