package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sohojincome/backend/pkg/models"
)

// CapabilityChecker decides whether a request may reach a handler. A
// non-nil error rejects the request with 401.
type CapabilityChecker interface {
	Check(c echo.Context) error
}

// CheckerFunc adapts a function to CapabilityChecker
type CheckerFunc func(c echo.Context) error

// Check calls f(c)
func (f CheckerFunc) Check(c echo.Context) error {
	return f(c)
}

// AllowAll admits every request
var AllowAll CapabilityChecker = CheckerFunc(func(echo.Context) error { return nil })

// Gate runs checker before every handler in the group it is attached to.
func Gate(checker CapabilityChecker) echo.MiddlewareFunc {
	if checker == nil {
		checker = AllowAll
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := checker.Check(c); err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Success: false,
					Error:   "Unauthorized",
					Message: err.Error(),
				})
			}
			return next(c)
		}
	}
}
