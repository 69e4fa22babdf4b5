package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	apierrors "github.com/sohojincome/backend/pkg/api/errors"
	"github.com/sohojincome/backend/pkg/models"
	"github.com/sohojincome/backend/pkg/users"
)

// UserHandler handles user endpoints
type UserHandler struct {
	service   *users.Service
	errs      *apierrors.Responder
	validator *validator.Validate
}

// NewUserHandler creates a new user handler
func NewUserHandler(service *users.Service, errs *apierrors.Responder) *UserHandler {
	return &UserHandler{
		service:   service,
		errs:      errs,
		validator: newValidator(),
	}
}

// GetUser returns a user, creating it on first access
// GET /api/users/:userId?first_name=&username=
func (h *UserHandler) GetUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.service.Get(ctx, models.UserProfile{
		UserID:    c.Param("userId"),
		FirstName: c.QueryParam("first_name"),
		Username:  c.QueryParam("username"),
	})
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: u})
}

// UpdateUser applies a partial update. userId and join_date cannot be changed.
// PUT /api/users/:userId
func (h *UserHandler) UpdateUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var patch models.UserPatch
	if err := c.Bind(&patch); err != nil {
		return h.errs.Respond(c, apierrors.FromBindError(err))
	}
	if err := h.validator.Struct(patch); err != nil {
		return h.errs.Respond(c, apierrors.FromValidationError(err, ""))
	}

	u, err := h.service.Update(ctx, c.Param("userId"), patch)
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    u,
		Message: "User updated successfully",
	})
}

// ResetAds applies the hourly ad reset if due
// POST /api/users/:userId/reset-ads
func (h *UserHandler) ResetAds(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.service.ResetAds(ctx, c.Param("userId"))
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    u,
		Message: "Ads reset check completed",
	})
}

// ResetBonusAds applies the hourly bonus-ad reset if due
// POST /api/users/:userId/reset-bonus-ads
func (h *UserHandler) ResetBonusAds(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.service.ResetBonusAds(ctx, c.Param("userId"))
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    u,
		Message: "Bonus ads reset check completed",
	})
}

// GetStats returns the user's counters and ad allowances
// GET /api/users/:userId/stats
func (h *UserHandler) GetStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	stats, err := h.service.Stats(ctx, c.Param("userId"))
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: stats})
}

// WatchAd records a watched ad and credits its reward
// POST /api/users/:userId/watch-ad
func (h *UserHandler) WatchAd(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var req models.WatchAdRequest
	if err := c.Bind(&req); err != nil {
		return h.errs.Respond(c, apierrors.FromBindError(err))
	}
	if err := h.validator.Struct(req); err != nil {
		return h.errs.Respond(c, apierrors.FromValidationError(err, ""))
	}

	u, err := h.service.WatchAd(ctx, c.Param("userId"), req.Type)
	if err != nil {
		return h.errs.Respond(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    u,
		Message: "Ad watch recorded",
	})
}
