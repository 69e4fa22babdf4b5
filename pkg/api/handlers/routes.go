package handlers

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups every endpoint handler served by the API
type Handlers struct {
	Health      *HealthHandler
	Users       *UserHandler
	Referrals   *ReferralHandler
	Withdrawals *WithdrawalHandler
}

// RegisterRoutes mounts all routes on e. gate guards every /api resource route.
func RegisterRoutes(e *echo.Echo, h Handlers, gate echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	api := e.Group("/api")
	api.GET("", h.Health.APIInfo)

	usersGroup := api.Group("/users", gate)
	usersGroup.GET("/:userId", h.Users.GetUser)
	usersGroup.PUT("/:userId", h.Users.UpdateUser)
	usersGroup.POST("/:userId/reset-ads", h.Users.ResetAds)
	usersGroup.POST("/:userId/reset-bonus-ads", h.Users.ResetBonusAds)
	usersGroup.GET("/:userId/stats", h.Users.GetStats)
	usersGroup.POST("/:userId/watch-ad", h.Users.WatchAd)

	referrals := api.Group("/referrals", gate)
	referrals.POST("", h.Referrals.CreateReferral)
	referrals.GET("/count/:userId", h.Referrals.GetReferralCount)
	referrals.POST("/bonus", h.Referrals.GrantBonus)
	referrals.GET("/user/:userId", h.Referrals.ListReferrals)

	withdrawals := api.Group("/withdrawals", gate)
	withdrawals.POST("", h.Withdrawals.CreateWithdrawal)
	withdrawals.GET("/user/:userId", h.Withdrawals.ListUserWithdrawals)
	withdrawals.GET("/:withdrawalId", h.Withdrawals.GetWithdrawal)
}
