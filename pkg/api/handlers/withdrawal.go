package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	apierrors "github.com/sohojincome/backend/pkg/api/errors"
	"github.com/sohojincome/backend/pkg/models"
	"github.com/sohojincome/backend/pkg/withdrawal"
)

const requiredWithdrawalFields = "All fields are required: userId, amount, accountNumber, method"

// WithdrawalHandler handles withdrawal endpoints
type WithdrawalHandler struct {
	service   *withdrawal.Service
	errs      *apierrors.Responder
	validator *validator.Validate
}

// NewWithdrawalHandler creates a new withdrawal handler
func NewWithdrawalHandler(service *withdrawal.Service, errs *apierrors.Responder) *WithdrawalHandler {
	return &WithdrawalHandler{
		service:   service,
		errs:      errs,
		validator: newValidator(),
	}
}

// CreateWithdrawal accepts a withdrawal request and debits the balance
// POST /api/withdrawals
func (h *WithdrawalHandler) CreateWithdrawal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var req models.CreateWithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return h.errs.Respond(c, apierrors.FromBindError(err))
	}
	if err := h.validator.Struct(req); err != nil {
		return h.errs.Respond(c, apierrors.FromValidationError(err, requiredWithdrawalFields))
	}

	res, err := h.service.Create(ctx, req)
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    res,
		Message: "Withdrawal request submitted successfully. It will be processed within 24 hours.",
	})
}

// ListUserWithdrawals returns a page of a user's withdrawals, newest first
// GET /api/withdrawals/user/:userId?limit=&page=
func (h *WithdrawalHandler) ListUserWithdrawals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	page := models.ParsePage(c.QueryParam("page"), c.QueryParam("limit"))
	res, err := h.service.ListByUser(ctx, c.Param("userId"), page)
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: res})
}

// GetWithdrawal returns a withdrawal by id
// GET /api/withdrawals/:withdrawalId
func (h *WithdrawalHandler) GetWithdrawal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	w, err := h.service.Get(ctx, c.Param("withdrawalId"))
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: w})
}
