package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	apierrors "github.com/sohojincome/backend/pkg/api/errors"
	"github.com/sohojincome/backend/pkg/models"
	"github.com/sohojincome/backend/pkg/referral"
)

// ReferralHandler handles referral endpoints
type ReferralHandler struct {
	service   *referral.Service
	errs      *apierrors.Responder
	validator *validator.Validate
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(service *referral.Service, errs *apierrors.Responder) *ReferralHandler {
	return &ReferralHandler{
		service:   service,
		errs:      errs,
		validator: newValidator(),
	}
}

// CreateReferral registers a referral edge
// POST /api/referrals
func (h *ReferralHandler) CreateReferral(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var req models.CreateReferralRequest
	if err := c.Bind(&req); err != nil {
		return h.errs.Respond(c, apierrors.FromBindError(err))
	}
	if err := h.validator.Struct(req); err != nil {
		return h.errs.Respond(c, apierrors.FromValidationError(err, "User ID and referredBy are required"))
	}

	ref, err := h.service.Create(ctx, req)
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    ref,
		Message: "Referral created successfully",
	})
}

// GetReferralCount counts completed referrals made by a user
// GET /api/referrals/count/:userId
func (h *ReferralHandler) GetReferralCount(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	count, err := h.service.Count(ctx, c.Param("userId"))
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    models.ReferralCount{Count: count},
		Message: fmt.Sprintf("Referral count: %d", count),
	})
}

// GrantBonus credits both sides of a referral once. The pair must have a
// recorded referral: without one the request is 404 "Referral not found"
// rather than crediting the users, since the referral row is what marks the
// bonus as given.
// POST /api/referrals/bonus
func (h *ReferralHandler) GrantBonus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var req models.ReferralBonusRequest
	if err := c.Bind(&req); err != nil {
		return h.errs.Respond(c, apierrors.FromBindError(err))
	}
	if err := h.validator.Struct(req); err != nil {
		return h.errs.Respond(c, apierrors.FromValidationError(err, "newUserId and referrerUserId are required"))
	}

	res, err := h.service.GrantBonus(ctx, req)
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    res,
		Message: "Referral bonuses given successfully",
	})
}

// ListReferrals returns a page of a user's referrals, newest first
// GET /api/referrals/user/:userId?limit=&page=
func (h *ReferralHandler) ListReferrals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	page := models.ParsePage(c.QueryParam("page"), c.QueryParam("limit"))
	res, err := h.service.List(ctx, c.Param("userId"), page)
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: res})
}
