package router

import (
	"github.com/labstack/echo/v4"

	"communityhub/internal/adapter/api/handler"
	"communityhub/internal/adapter/api/middleware"
)

func SetupWalletRouter(e *echo.Echo, walletHandler *handler.WalletHandler, authMiddleware *middleware.AuthMiddleware) {
	walletGroup := e.Group("/v1/wallet")
	walletGroup.Use(authMiddleware.Authenticate)

	walletGroup.GET("", walletHandler.GetUserWallet)
	walletGroup.GET("/transactions", walletHandler.GetUserTransactions)
	walletGroup.POST("/withdraw", walletHandler.InitiateWithdrawal)

	// Shared links are resolved before the visitor signs in.
	e.GET("/v1/referrals/code/:code", walletHandler.GetReferralByCode)

	referralGroup := e.Group("/v1/referrals")
	referralGroup.Use(authMiddleware.Authenticate)

	referralGroup.POST("", walletHandler.CreateReferralLink)
	referralGroup.GET("", walletHandler.GetUserReferrals)
}
