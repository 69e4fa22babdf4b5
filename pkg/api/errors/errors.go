package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sohojincome/backend/pkg/domain"
	"github.com/sohojincome/backend/pkg/logger"
	"github.com/sohojincome/backend/pkg/models"
)

const (
	internalErrorText   = "Internal server error"
	productionErrorText = "Something went wrong!"
	endpointNotFound    = "Endpoint not found"
)

// Responder writes failure envelopes. Internal error details are only
// exposed outside production.
type Responder struct {
	log        logger.Logger
	production bool
}

// NewResponder creates a responder
func NewResponder(log logger.Logger, production bool) *Responder {
	return &Responder{log: log, production: production}
}

// Respond maps err to its status code and failure envelope
func (r *Responder) Respond(c echo.Context, err error) error {
	de, ok := domain.AsDomainError(err)
	if !ok {
		return r.InternalError(c, err)
	}

	switch de.Code {
	case domain.ErrCodeValidation, domain.ErrCodeConflict, domain.ErrCodeLimitExceeded:
		return ValidationError(c, de)
	case domain.ErrCodeNotFound:
		return NotFoundError(c, de.Message)
	default:
		return r.InternalError(c, err)
	}
}

// ValidationError writes a 400 carrying the domain message and data
func ValidationError(c echo.Context, de *domain.DomainError) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error:   de.Message,
		Data:    de.Data,
	})
}

// NotFoundError writes a 404 with message as the error text
func NotFoundError(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Success: false,
		Error:   message,
	})
}

// InternalError logs err and writes a 500
func (r *Responder) InternalError(c echo.Context, err error) error {
	r.log.Error("request failed",
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"error", err,
	)
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}

	message := productionErrorText
	if !r.production {
		message = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error:   internalErrorText,
		Message: message,
	})
}

// HTTPErrorHandler is installed as echo's error handler. Unknown routes and
// methods get the "Endpoint not found" envelope.
func (r *Responder) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if stderrors.As(err, &he) {
		var writeErr error
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			writeErr = c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   endpointNotFound,
				Message: fmt.Sprintf("The requested endpoint %s does not exist.", c.Request().URL.RequestURI()),
			})
		case http.StatusInternalServerError:
			writeErr = r.InternalError(c, err)
		default:
			writeErr = c.JSON(he.Code, models.ErrorResponse{
				Success: false,
				Error:   fmt.Sprint(he.Message),
			})
		}
		if writeErr != nil {
			r.log.Error("failed to write error response", "error", writeErr)
		}
		return
	}

	if err := r.Respond(c, err); err != nil {
		r.log.Error("failed to write error response", "error", err)
	}
}

// FromBindError converts a request binding failure into a validation error
// naming the offending field when it is known.
func FromBindError(err error) *domain.DomainError {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.NewValidationError(typeErr.Field, fmt.Sprintf("%s has an invalid type", typeErr.Field))
	}
	var syntaxErr *json.SyntaxError
	if stderrors.As(err, &syntaxErr) {
		return domain.NewValidationError("body", "Invalid JSON body")
	}
	return domain.NewValidationError("body", "Invalid request data")
}

// FromValidationError converts validator output into a validation error for
// the first failing field. requiredMsg, when set, replaces the message for
// missing required fields.
func FromValidationError(err error, requiredMsg string) *domain.DomainError {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("body", "Invalid request data")
	}

	fe := verrs[0]
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		if requiredMsg != "" {
			return domain.NewValidationError(field, requiredMsg)
		}
		return domain.NewValidationError(field, fmt.Sprintf("%s is required", field))
	case "gte":
		return domain.NewValidationError(field, fmt.Sprintf("%s cannot be negative", field))
	case "oneof":
		return domain.NewValidationError(field, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
	default:
		return domain.NewValidationError(field, fmt.Sprintf("%s is invalid", field))
	}
}
