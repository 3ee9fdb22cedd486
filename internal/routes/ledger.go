package routes

import (
	"betportal/internal/handlers"
	"betportal/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupLedgerRoutes registers deposits, withdrawals and receipt uploads
func SetupLedgerRoutes(router *gin.Engine, requestHandler *handlers.RequestHandler, admin gin.HandlerFunc) {
	deposits := router.Group("/deposits")
	{
		deposits.GET("", requestHandler.List(models.DepositRequest))
		deposits.POST("", requestHandler.CreateDeposit)
		deposits.PUT("/:id", admin, requestHandler.Transition(models.DepositRequest))
	}

	withdrawals := router.Group("/withdrawals")
	{
		withdrawals.GET("", requestHandler.List(models.WithdrawalRequest))
		withdrawals.POST("", requestHandler.CreateWithdrawal)
		withdrawals.PUT("/:id", admin, requestHandler.Transition(models.WithdrawalRequest))
	}

	router.POST("/upload-receipt", requestHandler.UploadReceipt)
}
