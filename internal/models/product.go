// internal/models/product.go
package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/javajoker/jingjai-backend/internal/apperrors"
	"github.com/javajoker/jingjai-backend/internal/i18n"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

type Product struct {
	BaseModel
	BrandID      uuid.UUID                   `json:"brand_id" gorm:"type:uuid;not null;index"`
	CategoryID   *uuid.UUID                  `json:"category_id" gorm:"type:uuid;index"`
	Name         string                      `json:"name" gorm:"size:255;not null;index"`
	Model        string                      `json:"model" gorm:"size:255"`
	Description  string                      `json:"description" gorm:"type:text"`
	Price        string                      `json:"price" gorm:"size:50"`
	PriceNumeric decimal.NullDecimal         `json:"price_numeric" gorm:"type:decimal(12,2);index"`
	Currency     string                      `json:"currency" gorm:"size:3;not null;default:'USD'"`
	ImageURLs    datatypes.JSONSlice[string] `json:"image_urls"`
	ThumbnailURL string                      `json:"thumbnail_url" gorm:"size:1024"`
	SKU          *string                     `json:"sku" gorm:"uniqueIndex;size:100"`
	Color        string                      `json:"color" gorm:"size:100"`
	Material     string                      `json:"material" gorm:"size:255"`
	Dimensions   string                      `json:"dimensions" gorm:"size:255"`
	IsActive     bool                        `json:"is_active" gorm:"not null;index"`
	IsFeatured   bool                        `json:"is_featured" gorm:"not null"`
	StockStatus  StockStatus                 `json:"stock_status" gorm:"type:varchar(20);not null;default:'in_stock'"`

	// Relationships
	Brand    *Brand           `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
	Category *ProductCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// BeforeSave keeps the display price and the numeric price in agreement.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.Currency = strings.ToUpper(p.Currency)
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if p.StockStatus == "" {
		p.StockStatus = StockStatusInStock
	}
	if !p.StockStatus.Valid() {
		return apperrors.Validation(i18n.KeyProductInvalidStock,
			fmt.Sprintf("invalid stock status %q", p.StockStatus))
	}
	if p.SKU != nil && strings.TrimSpace(*p.SKU) == "" {
		p.SKU = nil
	}

	if strings.TrimSpace(p.Price) == "" {
		return nil
	}

	parsed, err := utils.ParseDisplayPrice(p.Price)
	if err != nil {
		if p.PriceNumeric.Valid {
			return apperrors.Validation(i18n.KeyProductPriceMismatch,
				fmt.Sprintf("display price %q is not numeric", p.Price))
		}
		return nil
	}

	if !p.PriceNumeric.Valid {
		p.PriceNumeric = decimal.NewNullDecimal(parsed)
		return nil
	}
	if !p.PriceNumeric.Decimal.Equal(parsed) {
		return apperrors.Validation(i18n.KeyProductPriceMismatch,
			fmt.Sprintf("display price %q does not match numeric price %s", p.Price, p.PriceNumeric.Decimal))
	}
	return nil
}
