// internal/handlers/payment.go
package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/jingjai-backend/internal/apperrors"
	"github.com/javajoker/jingjai-backend/internal/i18n"
	"github.com/javajoker/jingjai-backend/internal/models"
	"github.com/javajoker/jingjai-backend/internal/services"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

type GooglePayPaymentRequest struct {
	PaymentData json.RawMessage `json:"payment_data" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	OrderID     string          `json:"order_id"`
	UserID      *uuid.UUID      `json:"user_id,omitempty"`
	Description string          `json:"description,omitempty"`
}

type PaymentResponse struct {
	Success       bool                 `json:"success"`
	TransactionID string               `json:"transaction_id"`
	Status        models.PaymentStatus `json:"status"`
	Message       string               `json:"message"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency"`
}

type RefundResponse struct {
	Success        bool                 `json:"success"`
	RefundID       string               `json:"refund_id"`
	AmountRefunded decimal.Decimal      `json:"amount_refunded"`
	Status         models.PaymentStatus `json:"status"`
	Message        string               `json:"message"`
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// GET /payments/google-pay/config
func (h *PaymentHandler) GetGooglePayConfig(c *gin.Context) {
	amount, err := queryDecimal(c, "amount", i18n.KeyPaymentInvalidAmount)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if amount == nil {
		utils.HandleError(c, apperrors.Validation(i18n.KeyPaymentInvalidAmount, "amount is required"))
		return
	}

	cfg, err := h.paymentService.GooglePayConfig(*amount, c.Query("currency"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, cfg)
}

// POST /payments/google-pay/payment
func (h *PaymentHandler) CreateGooglePayPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	requester, ok := currentRequester(c)
	if !ok {
		return
	}

	var req GooglePayPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	userID := requester.UserID
	if req.UserID != nil && *req.UserID != requester.UserID {
		if !requester.IsAdmin {
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyPaymentAccessDenied))
			return
		}
		userID = *req.UserID
	}

	token, err := googlePayToken(req.PaymentData)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), services.CreatePaymentRequest{
		UserID:        userID,
		OrderID:       req.OrderID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentMethod: services.PaymentMethodGooglePay,
		PaymentToken:  token,
		Description:   req.Description,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	response := PaymentResponse{
		Success:       payment.Status == models.PaymentStatusSucceeded,
		TransactionID: payment.TransactionID,
		Status:        payment.Status,
		Message:       i18n.T(lang, i18n.KeyPaymentSuccess),
		Amount:        payment.Amount(),
		Currency:      payment.Currency,
	}
	if !response.Success {
		response.Message = i18n.T(lang, i18n.KeyPaymentFailed)
		if payment.FailureReason != "" {
			response.Message += ": " + payment.FailureReason
		}
	}

	utils.SuccessResponse(c, response)
}

// GET /payments/payment/:transaction_id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	requester, ok := currentRequester(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("transaction_id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	if !requester.CanAccess(payment.UserID) {
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyPaymentAccessDenied))
		return
	}

	utils.SuccessResponse(c, payment)
}

// POST /payments/refund/:transaction_id
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	requester, ok := currentRequester(c)
	if !ok {
		return
	}

	amount, err := queryDecimal(c, "amount", i18n.KeyPaymentInvalidRefund)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	result, err := h.paymentService.Refund(c.Request.Context(), c.Param("transaction_id"), services.RefundRequest{
		Requester: requester,
		Amount:    amount,
		Reason:    c.Query("reason"),
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	message := i18n.T(lang, i18n.KeyPaymentPartiallyRefunded)
	if result.Payment.Status == models.PaymentStatusRefunded {
		message = i18n.T(lang, i18n.KeyPaymentRefunded)
	}

	utils.SuccessResponse(c, RefundResponse{
		Success:        true,
		RefundID:       result.Refund.RefundID,
		AmountRefunded: result.Refund.Amount(),
		Status:         result.Payment.Status,
		Message:        message,
	})
}

// GET /payments/history
func (h *PaymentHandler) GetPaymentHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params, err := utils.GetPaginationParams(c, 20, 100)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), userID, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	result := utils.CreatePaginationResult(payments, total, params)
	utils.PaginatedResponse(c, result)
}

// googlePayToken extracts the gateway token from Google Pay payment data. The
// data may be the raw token string or the PaymentData object returned by the
// Google Pay client.
func googlePayToken(raw json.RawMessage) (string, error) {
	var token string
	if err := json.Unmarshal(raw, &token); err == nil {
		return strings.TrimSpace(token), nil
	}

	var data struct {
		PaymentMethodData struct {
			TokenizationData struct {
				Token string `json:"token"`
			} `json:"tokenizationData"`
		} `json:"paymentMethodData"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", apperrors.Validation(i18n.KeyValidationInvalid, "payment_data is malformed")
	}

	token = strings.TrimSpace(data.PaymentMethodData.TokenizationData.Token)
	if token == "" {
		return "", apperrors.Validation(i18n.KeyValidationInvalid, "payment_data has no payment token")
	}
	return token, nil
}
