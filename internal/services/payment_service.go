// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/jingjai-backend/internal/apperrors"
	"github.com/javajoker/jingjai-backend/internal/config"
	"github.com/javajoker/jingjai-backend/internal/database"
	"github.com/javajoker/jingjai-backend/internal/i18n"
	"github.com/javajoker/jingjai-backend/internal/models"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

const PaymentMethodGooglePay = "google_pay"

var paymentSort = utils.SortSpec{
	Columns: map[string]string{
		"created_at": "created_at",
		"amount":     "amount_minor",
		"status":     "status",
	},
	DefaultSort:  "created_at",
	DefaultOrder: "desc",
	TieBreaker:   "id",
}

type PaymentService struct {
	db       *gorm.DB
	gateway  PaymentGateway
	notifier Notifier
	config   config.PaymentConfig

	background sync.WaitGroup
}

// Requester identifies the caller of an owner-scoped operation.
type Requester struct {
	UserID  uuid.UUID
	IsAdmin bool
}

func (r Requester) CanAccess(ownerID uuid.UUID) bool {
	return r.IsAdmin || r.UserID == ownerID
}

type CreatePaymentRequest struct {
	UserID        uuid.UUID       `validate:"required"`
	OrderID       string          `validate:"required,max=255"`
	Amount        decimal.Decimal `validate:"-"`
	Currency      string          `validate:"required,currency"`
	PaymentMethod string          `validate:"required,max=50"`
	PaymentToken  string          `validate:"required"`
	Description   string          `validate:"max=1000"`
}

type RefundRequest struct {
	Requester Requester
	// Amount nil refunds the remaining balance.
	Amount *decimal.Decimal
	Reason string
}

type RefundResult struct {
	Refund  *models.Refund
	Payment *models.Payment
}

func NewPaymentService(db *gorm.DB, gateway PaymentGateway, notifier Notifier, cfg config.PaymentConfig) *PaymentService {
	return &PaymentService{
		db:       db,
		gateway:  gateway,
		notifier: notifier,
		config:   cfg,
	}
}

// CreatePayment records a pending payment, charges it through the gateway and
// settles it as succeeded or failed. A decline returns the failed payment and
// a nil error; a gateway failure returns the failed payment and an upstream
// error.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*models.Payment, error) {
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = s.config.DefaultCurrency
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = PaymentMethodGooglePay
	}

	if err := utils.ValidateStruct(&req); err != nil {
		for _, fieldErr := range utils.GetValidationErrors(err) {
			if fieldErr.Field == "currency" {
				return nil, apperrors.Validation(i18n.KeyPaymentInvalidCurrency, fieldErr.Message)
			}
		}
		return nil, apperrors.Validation(i18n.KeyValidationInvalid, err.Error())
	}

	if !req.Amount.IsPositive() {
		return nil, apperrors.Validation(i18n.KeyPaymentInvalidAmount, "amount must be greater than zero")
	}
	amountMinor, err := utils.ToMinorUnits(req.Amount, req.Currency)
	if err != nil {
		return nil, apperrors.Validation(i18n.KeyPaymentInvalidAmount, err.Error())
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", req.UserID, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Validation(i18n.KeyPaymentUserNotFound, "user not found or inactive")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	payment := &models.Payment{
		UserID:        user.ID,
		TransactionID: utils.NewTransactionID(),
		OrderID:       req.OrderID,
		AmountMinor:   amountMinor,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		Status:        models.PaymentStatusPending,
		Description:   req.Description,
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Create(payment).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logrus.WithField("transaction_id", payment.TransactionID).Error("Transaction id collision")
			return nil, apperrors.Fatal("transaction id collision", err)
		}
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	logger := logrus.WithFields(logrus.Fields{
		"transaction_id": payment.TransactionID,
		"user_id":        payment.UserID,
		"amount":         payment.Amount().String(),
		"currency":       payment.Currency,
	})
	logger.Info("Payment pending")

	result, gatewayErr := s.authorize(ctx, AuthorizeRequest{
		IdempotencyKey: payment.TransactionID,
		AmountMinor:    payment.AmountMinor,
		Currency:       payment.Currency,
		PaymentToken:   req.PaymentToken,
		Description:    req.Description,
		Metadata: map[string]string{
			"transaction_id": payment.TransactionID,
			"order_id":       payment.OrderID,
			"user_id":        payment.UserID.String(),
		},
	})

	now := time.Now()
	payment.ProcessedAt = &now
	switch {
	case gatewayErr != nil:
		payment.Status = models.PaymentStatusFailed
		payment.FailureReason = gatewayFailureReason(gatewayErr)
	case result.Accepted:
		payment.Status = models.PaymentStatusSucceeded
		payment.ExternalID = result.ExternalID
	default:
		payment.Status = models.PaymentStatusFailed
		payment.FailureReason = result.DeclineReason
		payment.ExternalID = result.ExternalID
	}

	// The request may be gone by now; the outcome is still recorded.
	settleCtx := context.WithoutCancel(ctx)
	err = database.WithTransaction(settleCtx, s.db, func(tx *gorm.DB) error {
		res := tx.Model(payment).
			Where("status = ?", models.PaymentStatusPending).
			Select("status", "external_id", "failure_reason", "processed_at", "updated_at").
			Updates(payment)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("payment %s is no longer pending", payment.TransactionID)
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).Error("Failed to settle payment")
		return nil, apperrors.Fatal("failed to settle payment", err)
	}

	logger = logger.WithField("status", payment.Status)
	if gatewayErr != nil {
		logger.WithError(gatewayErr).Warn("Payment failed at gateway")
		return payment, apperrors.Upstream(i18n.KeyPaymentGatewayUnavailable, "payment gateway unavailable", gatewayErr).
			WithDetail("transaction_id", payment.TransactionID).
			WithDetail("status", payment.Status)
	}
	if payment.Status == models.PaymentStatusFailed {
		logger.WithField("reason", payment.FailureReason).Info("Payment declined")
		return payment, nil
	}

	logger.Info("Payment succeeded")
	s.notify(func(ctx context.Context) error {
		return s.notifier.PaymentReceipt(ctx, &user, payment)
	})
	return payment, nil
}

// authorize calls the gateway under one deadline, retrying a single time on a
// transient failure with the same idempotency key.
func (s *PaymentService) authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.config.RetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := s.gateway.Authorize(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !errors.Is(err, ErrGatewayUnavailable) || ctx.Err() != nil {
			break
		}
		logrus.WithError(err).WithField("transaction_id", req.IdempotencyKey).Warn("Retrying payment authorization")
	}
	return nil, lastErr
}

func gatewayFailureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "gateway timeout"
	}
	return err.Error()
}

// GetPayment returns the payment with its refunds.
func (s *PaymentService) GetPayment(ctx context.Context, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Preload("Refunds", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("transaction_id = ?", transactionID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(i18n.KeyPaymentNotFound, fmt.Sprintf("payment %s not found", transactionID))
		}
		return nil, fmt.Errorf("failed to fetch payment: %w", err)
	}
	return &payment, nil
}

// Refund issues a full or partial refund. The payment row is locked for the
// whole operation so concurrent refunds cannot exceed the paid amount.
func (s *PaymentService) Refund(ctx context.Context, transactionID string, req RefundRequest) (*RefundResult, error) {
	var (
		payment         models.Payment
		refund          *models.Refund
		gatewayRefundID string
	)

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		err := paymentForUpdate(tx, transactionID).First(&payment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound(i18n.KeyPaymentNotFound, fmt.Sprintf("payment %s not found", transactionID))
			}
			return fmt.Errorf("failed to fetch payment: %w", err)
		}

		if !req.Requester.CanAccess(payment.UserID) {
			return apperrors.Forbidden(i18n.KeyPaymentAccessDenied, "refund not permitted")
		}
		if !payment.Status.Refundable() {
			return apperrors.InvalidState(i18n.KeyPaymentNotRefundable,
				fmt.Sprintf("payment in status %s cannot be refunded", payment.Status))
		}

		var refundedMinor int64
		if err := tx.Model(&models.Refund{}).
			Where("payment_id = ?", payment.ID).
			Select("COALESCE(SUM(amount_minor), 0)").
			Scan(&refundedMinor).Error; err != nil {
			return fmt.Errorf("failed to sum refunds: %w", err)
		}
		remaining := payment.AmountMinor - refundedMinor

		amountMinor := remaining
		if req.Amount != nil {
			amountMinor, err = utils.ToMinorUnits(*req.Amount, payment.Currency)
			if err != nil {
				return apperrors.Validation(i18n.KeyPaymentInvalidRefund, err.Error())
			}
		}
		if amountMinor <= 0 {
			return apperrors.Validation(i18n.KeyPaymentInvalidRefund, "refund amount must be greater than zero")
		}
		if amountMinor > remaining {
			return apperrors.Validation(i18n.KeyPaymentRefundExceeds,
				fmt.Sprintf("refund of %s exceeds remaining balance %s",
					utils.FromMinorUnits(amountMinor, payment.Currency),
					utils.FromMinorUnits(remaining, payment.Currency)))
		}

		refund = &models.Refund{
			PaymentID:   payment.ID,
			RefundID:    utils.NewRefundID(),
			AmountMinor: amountMinor,
			Currency:    payment.Currency,
			Reason:      req.Reason,
			Status:      models.RefundStatusCompleted,
			RequestedBy: req.Requester.UserID,
		}

		if err := tx.Create(refund).Error; err != nil {
			return fmt.Errorf("failed to record refund: %w", err)
		}

		status := models.PaymentStatusPartiallyRefunded
		if refundedMinor+amountMinor == payment.AmountMinor {
			status = models.PaymentStatusRefunded
		}
		if err := tx.Model(&payment).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}
		payment.Status = status

		// The gateway goes last so that nothing local can fail after money
		// has moved, apart from the commit itself.
		if payment.ExternalID == "" {
			return nil
		}
		gatewayCtx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
		result, err := s.gateway.Refund(gatewayCtx, GatewayRefundRequest{
			IdempotencyKey: refund.RefundID,
			ExternalID:     payment.ExternalID,
			AmountMinor:    amountMinor,
			Reason:         req.Reason,
		})
		cancel()
		if err != nil {
			return apperrors.Upstream(i18n.KeyPaymentGatewayUnavailable, "gateway refund failed", err)
		}
		gatewayRefundID = result.ExternalID
		refund.ExternalID = result.ExternalID

		return tx.Model(refund).Update("external_id", result.ExternalID).Error
	})
	if err != nil {
		if gatewayRefundID != "" {
			logrus.WithError(err).WithFields(logrus.Fields{
				"transaction_id":      transactionID,
				"refund_id":           refund.RefundID,
				"gateway_refund_id":   gatewayRefundID,
				"amount_minor":        refund.AmountMinor,
				"payment_external_id": payment.ExternalID,
			}).Error("Gateway refund issued but not recorded, reconcile manually")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"transaction_id": payment.TransactionID,
		"refund_id":      refund.RefundID,
		"amount":         refund.Amount().String(),
		"status":         payment.Status,
	}).Info("Refund issued")

	s.notify(func(ctx context.Context) error {
		var owner models.User
		if err := s.db.WithContext(ctx).First(&owner, "id = ?", payment.UserID).Error; err != nil {
			return err
		}
		return s.notifier.RefundIssued(ctx, &owner, &payment, refund)
	})
	return &RefundResult{Refund: refund, Payment: &payment}, nil
}

// paymentForUpdate selects a payment by transaction id with a row lock held
// until the surrounding transaction ends.
func paymentForUpdate(tx *gorm.DB, transactionID string) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transaction_id = ?", transactionID)
}

// ListPayments returns the payment history of a user, newest first by default.
func (s *PaymentService) ListPayments(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.Payment, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	payments := make([]models.Payment, 0)
	page := utils.ApplyPagination(utils.ApplySort(query, params, paymentSort), params)
	if err := page.Preload("Refunds").Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}
	return payments, total, nil
}

type GooglePayConfig struct {
	APIVersion            int                      `json:"apiVersion"`
	APIVersionMinor       int                      `json:"apiVersionMinor"`
	Environment           string                   `json:"environment"`
	AllowedPaymentMethods []GooglePayPaymentMethod `json:"allowedPaymentMethods"`
	MerchantInfo          GooglePayMerchantInfo    `json:"merchantInfo"`
	TransactionInfo       GooglePayTransactionInfo `json:"transactionInfo"`
}

type GooglePayPaymentMethod struct {
	Type                      string                    `json:"type"`
	Parameters                GooglePayCardParameters   `json:"parameters"`
	TokenizationSpecification GooglePayTokenizationSpec `json:"tokenizationSpecification"`
}

type GooglePayCardParameters struct {
	AllowedAuthMethods  []string `json:"allowedAuthMethods"`
	AllowedCardNetworks []string `json:"allowedCardNetworks"`
}

type GooglePayTokenizationSpec struct {
	Type       string            `json:"type"`
	Parameters map[string]string `json:"parameters"`
}

type GooglePayMerchantInfo struct {
	MerchantID   string `json:"merchantId"`
	MerchantName string `json:"merchantName"`
}

type GooglePayTransactionInfo struct {
	TotalPriceStatus string `json:"totalPriceStatus"`
	TotalPriceLabel  string `json:"totalPriceLabel"`
	TotalPrice       string `json:"totalPrice"`
	CurrencyCode     string `json:"currencyCode"`
	CountryCode      string `json:"countryCode"`
}

// GooglePayConfig builds the client-side payment request for the given total.
func (s *PaymentService) GooglePayConfig(amount decimal.Decimal, currency string) (*GooglePayConfig, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.config.DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, apperrors.Validation(i18n.KeyPaymentInvalidCurrency, fmt.Sprintf("invalid currency %q", currency))
	}
	if !amount.IsPositive() {
		return nil, apperrors.Validation(i18n.KeyPaymentInvalidAmount, "amount must be greater than zero")
	}
	if _, err := utils.ToMinorUnits(amount, currency); err != nil {
		return nil, apperrors.Validation(i18n.KeyPaymentInvalidAmount, err.Error())
	}

	tokenization := map[string]string{"gateway": s.config.GooglePayGateway}
	if s.config.GooglePayGateway == "stripe" {
		tokenization["stripe:version"] = "2018-10-31"
		tokenization["stripe:publishableKey"] = s.config.StripePublishableKey
	} else {
		tokenization["gatewayMerchantId"] = s.config.GooglePayGatewayMerchantID
	}

	return &GooglePayConfig{
		APIVersion:      2,
		APIVersionMinor: 0,
		Environment:     s.config.GooglePayEnvironment,
		AllowedPaymentMethods: []GooglePayPaymentMethod{{
			Type: "CARD",
			Parameters: GooglePayCardParameters{
				AllowedAuthMethods:  []string{"PAN_ONLY", "CRYPTOGRAM_3DS"},
				AllowedCardNetworks: []string{"AMEX", "DISCOVER", "JCB", "MASTERCARD", "VISA"},
			},
			TokenizationSpecification: GooglePayTokenizationSpec{
				Type:       "PAYMENT_GATEWAY",
				Parameters: tokenization,
			},
		}},
		MerchantInfo: GooglePayMerchantInfo{
			MerchantID:   s.config.GooglePayMerchantID,
			MerchantName: s.config.GooglePayMerchantName,
		},
		TransactionInfo: GooglePayTransactionInfo{
			TotalPriceStatus: "FINAL",
			TotalPriceLabel:  "Total",
			TotalPrice:       amount.StringFixed(utils.CurrencyExponent(currency)),
			CurrencyCode:     currency,
			CountryCode:      "US",
		},
	}, nil
}

// notify runs fn in the background. Failures are logged and never affect the
// ledger.
func (s *PaymentService) notify(fn func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			logrus.WithError(err).Warn("Failed to send payment notification")
		}
	}()
}

// Wait blocks until background notifications have finished.
func (s *PaymentService) Wait() {
	s.background.Wait()
}
