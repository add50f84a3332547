// internal/database/seed.go
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/jingjai-backend/internal/models"
)

type seedCategory struct {
	Name        string
	DisplayName string
}

type seedProduct struct {
	Name     string
	Category string
	Price    string
}

var defaultCategories = []seedCategory{
	{Name: "handbags", DisplayName: "Hand Bags"},
	{Name: "backpacks", DisplayName: "Backpacks"},
	{Name: "crossbody", DisplayName: "Crossbody Bags"},
	{Name: "totes", DisplayName: "Tote Bags"},
}

var seedBrands = []models.Brand{
	{Name: "Louis Vuitton", Logo: "LV", APIEndpoint: "louis-vuitton", IsFeatured: true, IsActive: true, WebsiteURL: "https://louisvuitton.com"},
	{Name: "Gucci", Logo: "GG", APIEndpoint: "gucci", IsFeatured: true, IsActive: true, WebsiteURL: "https://gucci.com"},
	{Name: "Hermes", Logo: "H", APIEndpoint: "hermes", IsFeatured: true, IsActive: true, WebsiteURL: "https://hermes.com"},
	{Name: "Chanel", Logo: "CC", APIEndpoint: "chanel", IsFeatured: true, IsActive: true, WebsiteURL: "https://chanel.com"},
	{Name: "Alexander Wang", Logo: "AW", APIEndpoint: "alexander-wang", IsActive: true, WebsiteURL: "https://alexanderwang.com"},
}

var alexanderWangProducts = []seedProduct{
	{Name: "Attica", Category: "handbags", Price: "$1,050"},
	{Name: "Attica Fanny Pack", Category: "handbags", Price: "$650"},
	{Name: "Rocco", Category: "handbags", Price: "$995"},
	{Name: "Rockie", Category: "handbags", Price: "$875"},
	{Name: "Mini Marti Backpack", Price: "$1,195"},
	{Name: "Rhett Tote", Price: "$750"},
}

// SeedCatalog inserts the launch brands, their categories, and the Alexander
// Wang product line. Existing rows are left untouched.
func SeedCatalog(ctx context.Context, db *gorm.DB) error {
	logrus.Info("Seeding catalog data...")

	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		for _, template := range seedBrands {
			brand := template
			if err := firstOrCreateBrand(tx, &brand); err != nil {
				return err
			}

			if brand.APIEndpoint == "alexander-wang" {
				if err := seedBrandProducts(tx, &brand, alexanderWangProducts); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	logrus.Info("Catalog seeding completed")
	return nil
}

func firstOrCreateBrand(tx *gorm.DB, brand *models.Brand) error {
	var existing models.Brand
	err := tx.Where("api_endpoint = ?", brand.APIEndpoint).First(&existing).Error
	if err == nil {
		*brand = existing
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up brand %s: %w", brand.APIEndpoint, err)
	}

	if err := tx.Create(brand).Error; err != nil {
		return fmt.Errorf("failed to create brand %s: %w", brand.Name, err)
	}

	for _, c := range defaultCategories {
		category := models.ProductCategory{
			BrandID:     brand.ID,
			Name:        c.Name,
			DisplayName: c.DisplayName,
			IsActive:    true,
		}
		if err := tx.Create(&category).Error; err != nil {
			return fmt.Errorf("failed to create category %s for %s: %w", c.Name, brand.Name, err)
		}
	}
	return nil
}

func seedBrandProducts(tx *gorm.DB, brand *models.Brand, products []seedProduct) error {
	for _, p := range products {
		var count int64
		if err := tx.Model(&models.Product{}).
			Where("brand_id = ? AND name = ?", brand.ID, p.Name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		product := models.Product{
			BrandID:  brand.ID,
			Name:     p.Name,
			Model:    brand.Name,
			Price:    p.Price,
			Currency: "USD",
			IsActive: true,
		}

		if p.Category != "" {
			var category models.ProductCategory
			if err := tx.Where("brand_id = ? AND name = ?", brand.ID, p.Category).First(&category).Error; err == nil {
				product.CategoryID = &category.ID
			}
		}

		if err := tx.Create(&product).Error; err != nil {
			return fmt.Errorf("failed to create product %s: %w", p.Name, err)
		}
	}
	return nil
}

// SeedAdmin creates the administrator account when none exists with the
// given email.
func SeedAdmin(ctx context.Context, db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	return WithTransaction(ctx, db, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		admin := &models.User{
			Name:              "System Administrator",
			Email:             email,
			IsActive:          true,
			UserType:          models.UserTypeAdmin,
			VerificationLevel: models.VerificationLevelPremium,
		}
		if err := admin.SetPassword(password); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}
		if err := tx.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logrus.WithField("email", admin.Email).Info("Default admin user created")
		return nil
	})
}
