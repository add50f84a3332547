// internal/models/brand.go
package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Brand struct {
	BaseModel
	Name        string `json:"name" gorm:"uniqueIndex;size:255;not null"`
	Logo        string `json:"logo" gorm:"size:50"`
	LogoURL     string `json:"logo_url" gorm:"size:1024"`
	Description string `json:"description" gorm:"type:text"`
	APIEndpoint string `json:"api_endpoint" gorm:"uniqueIndex;size:100;not null"`
	WebsiteURL  string `json:"website_url" gorm:"size:1024"`
	IsFeatured  bool   `json:"is_featured" gorm:"not null;index"`
	IsActive    bool   `json:"is_active" gorm:"not null;index"`

	// Relationships
	Categories []ProductCategory `json:"categories,omitempty" gorm:"foreignKey:BrandID"`
	Products   []Product         `json:"products,omitempty" gorm:"foreignKey:BrandID"`
}

type ProductCategory struct {
	BaseModel
	BrandID     uuid.UUID `json:"brand_id" gorm:"type:uuid;not null;uniqueIndex:idx_category_brand_name"`
	Name        string    `json:"name" gorm:"size:100;not null;uniqueIndex:idx_category_brand_name"`
	DisplayName string    `json:"display_name" gorm:"size:255;not null"`
	IsActive    bool      `json:"is_active" gorm:"not null"`

	Brand *Brand `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
}

func (c *ProductCategory) BeforeSave(tx *gorm.DB) error {
	c.Name = strings.ToLower(strings.TrimSpace(c.Name))
	return nil
}

func (b *Brand) BeforeSave(tx *gorm.DB) error {
	b.APIEndpoint = strings.ToLower(strings.TrimSpace(b.APIEndpoint))
	return nil
}
