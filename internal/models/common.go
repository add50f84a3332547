// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for free-form documents
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeCustomer      UserType = "customer"
	UserTypeAuthenticator UserType = "authenticator"
	UserTypeAdmin         UserType = "admin"
)

type VerificationLevel string

const (
	VerificationLevelUnverified VerificationLevel = "Unverified"
	VerificationLevelVerified   VerificationLevel = "Verified"
	VerificationLevelPremium    VerificationLevel = "Premium"
)

type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLimited    StockStatus = "limited"
)

func (s StockStatus) Valid() bool {
	switch s {
	case StockStatusInStock, StockStatusOutOfStock, StockStatusLimited:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Refundable reports whether further refunds may be issued against a payment
// in this status.
func (s PaymentStatus) Refundable() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusPartiallyRefunded
}

type RefundStatus string

const (
	RefundStatusCompleted RefundStatus = "completed"
)

type AuthenticationStatus string

const (
	AuthenticationStatusPending   AuthenticationStatus = "PENDING"
	AuthenticationStatusCompleted AuthenticationStatus = "COMPLETED"
	AuthenticationStatusCancelled AuthenticationStatus = "CANCELLED"
)

type AuthenticationResult string

const (
	AuthenticationResultAuthentic    AuthenticationResult = "AUTHENTIC"
	AuthenticationResultFake         AuthenticationResult = "FAKE"
	AuthenticationResultInconclusive AuthenticationResult = "INCONCLUSIVE"
)

func (r AuthenticationResult) Valid() bool {
	switch r {
	case AuthenticationResultAuthentic, AuthenticationResultFake, AuthenticationResultInconclusive:
		return true
	}
	return false
}
