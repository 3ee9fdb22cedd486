package handlers

import (
	"betportal/internal/middleware"
	"betportal/internal/models"
	"betportal/internal/services"
	"betportal/internal/utils"
	"betportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequestHandler serves deposits, withdrawals and their review
type RequestHandler struct {
	requestService *services.RequestService
	ledgerService  *services.LedgerService
}

func NewRequestHandler(requestService *services.RequestService, ledgerService *services.LedgerService) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		ledgerService:  ledgerService,
	}
}

// List returns the requests of kind, optionally filtered with ?user=
func (h *RequestHandler) List(kind models.RequestKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		requests, err := h.requestService.List(c.Request.Context(), kind, c.Query("user"))
		if err != nil {
			utils.AppErrorResponse(c, err)
			return
		}
		utils.SuccessResponse(c, requests)
	}
}

func (h *RequestHandler) CreateDeposit(c *gin.Context) {
	var input services.DepositInput
	if !bind(c, &input) {
		return
	}

	req, err := h.requestService.CreateDeposit(c.Request.Context(), input)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, req)
}

func (h *RequestHandler) CreateWithdrawal(c *gin.Context) {
	var input services.WithdrawalInput
	if !bind(c, &input) {
		return
	}

	req, err := h.requestService.CreateWithdrawal(c.Request.Context(), input)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, req)
}

// Transition approves or rejects a pending request. Repeating the current
// status answers 200 with changed=false.
func (h *RequestHandler) Transition(kind models.RequestKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := int64Param(c, "id")
		if !ok {
			return
		}
		var body struct {
			Status       string `json:"status" validate:"required"`
			AdminMessage string `json:"adminMessage"`
		}
		if !bind(c, &body) {
			return
		}

		result, err := h.ledgerService.TransitionRequest(c.Request.Context(), kind, id, body.Status, body.AdminMessage)
		if err != nil {
			utils.AppErrorResponse(c, err)
			return
		}

		if result.Changed {
			logger.LogAdminAction(c.GetString(middleware.UsernameKey), "request_"+body.Status, kind.Noun(), map[string]interface{}{
				"request_id": id,
				"user":       result.Request.User,
				"amount":     result.Request.Amount,
			})
		}
		utils.SuccessResponse(c, result)
	}
}

// UploadReceipt stores a transfer receipt and opens the matching deposit
func (h *RequestHandler) UploadReceipt(c *gin.Context) {
	var input services.UploadReceiptInput
	if !bind(c, &input) {
		return
	}

	req, err := h.requestService.UploadReceipt(c.Request.Context(), input)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, req)
}
