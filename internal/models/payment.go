// internal/models/payment.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/jingjai-backend/internal/utils"
)

// Payment is a single charge attempt. Amounts are stored in minor units of
// Currency.
type Payment struct {
	BaseModel
	UserID        uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	TransactionID string        `json:"transaction_id" gorm:"uniqueIndex;size:64;not null"`
	OrderID       string        `json:"order_id" gorm:"size:255;not null;index"`
	AmountMinor   int64         `json:"-" gorm:"not null"`
	Currency      string        `json:"currency" gorm:"size:3;not null"`
	PaymentMethod string        `json:"payment_method" gorm:"size:50;not null"`
	Status        PaymentStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Description   string        `json:"description" gorm:"type:text"`
	ExternalID    string        `json:"-" gorm:"size:255;index"`
	FailureReason string        `json:"failure_reason,omitempty" gorm:"type:text"`
	Metadata      JSONB         `json:"-" gorm:"type:jsonb"`
	ProcessedAt   *time.Time    `json:"processed_at"`

	// Relationships
	User    *User    `json:"-" gorm:"foreignKey:UserID"`
	Refunds []Refund `json:"refunds,omitempty" gorm:"foreignKey:PaymentID"`
}

func (p *Payment) Amount() decimal.Decimal {
	return utils.FromMinorUnits(p.AmountMinor, p.Currency)
}

func (p Payment) MarshalJSON() ([]byte, error) {
	type payment Payment
	return json.Marshal(struct {
		payment
		Amount decimal.Decimal `json:"amount"`
	}{payment(p), p.Amount()})
}

// Refund is immutable once written.
type Refund struct {
	BaseModel
	PaymentID   uuid.UUID    `json:"payment_id" gorm:"type:uuid;not null;index"`
	RefundID    string       `json:"refund_id" gorm:"uniqueIndex;size:64;not null"`
	AmountMinor int64        `json:"-" gorm:"not null"`
	Currency    string       `json:"currency" gorm:"size:3;not null"`
	Reason      string       `json:"reason" gorm:"type:text"`
	Status      RefundStatus `json:"status" gorm:"type:varchar(20);not null"`
	ExternalID  string       `json:"-" gorm:"size:255"`
	RequestedBy uuid.UUID    `json:"requested_by" gorm:"type:uuid;not null"`
}

func (r *Refund) Amount() decimal.Decimal {
	return utils.FromMinorUnits(r.AmountMinor, r.Currency)
}

func (r Refund) MarshalJSON() ([]byte, error) {
	type refund Refund
	return json.Marshal(struct {
		refund
		Amount decimal.Decimal `json:"amount"`
	}{refund(r), r.Amount()})
}
