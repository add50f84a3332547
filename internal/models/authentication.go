// internal/models/authentication.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/javajoker/jingjai-backend/internal/utils"
)

// AuthenticationRecord is a user's request to have an item authenticated.
type AuthenticationRecord struct {
	BaseModel
	UserID               uuid.UUID                   `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID            *uuid.UUID                  `json:"product_id" gorm:"type:uuid;index"`
	BrandName            string                      `json:"brand_name" gorm:"size:255;not null"`
	ProductName          string                      `json:"product_name" gorm:"size:255;not null"`
	AuthenticationResult *AuthenticationResult       `json:"authentication_result" gorm:"type:varchar(20)"`
	ConfidenceScore      *float64                    `json:"confidence_score"`
	PhotosUploaded       datatypes.JSONSlice[string] `json:"photos_uploaded"`
	AuthenticatorNotes   string                      `json:"authenticator_notes" gorm:"type:text"`
	CostMinor            *int64                      `json:"-"`
	Currency             string                      `json:"currency" gorm:"size:3;not null;default:'USD'"`
	Status               AuthenticationStatus        `json:"status" gorm:"type:varchar(20);not null;index"`
	CompletedAt          *time.Time                  `json:"completed_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (AuthenticationRecord) TableName() string {
	return "authentications"
}

func (a *AuthenticationRecord) Cost() *decimal.Decimal {
	if a.CostMinor == nil {
		return nil
	}
	cost := utils.FromMinorUnits(*a.CostMinor, a.Currency)
	return &cost
}

func (a AuthenticationRecord) MarshalJSON() ([]byte, error) {
	type record AuthenticationRecord
	return json.Marshal(struct {
		record
		Cost *decimal.Decimal `json:"cost"`
	}{record(a), a.Cost()})
}
