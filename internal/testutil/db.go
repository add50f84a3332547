// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/jingjai-backend/internal/database"
	"github.com/javajoker/jingjai-backend/internal/models"
)

// NewTestDB opens a private in-memory SQLite database with the full schema.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Name:     strings.Split(email, "@")[0],
		Email:    email,
		IsActive: true,
	}
	require.NoError(t, user.SetPassword("Secret123!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateBrand(t testing.TB, db *gorm.DB, name, slug string, featured bool) *models.Brand {
	t.Helper()

	brand := &models.Brand{
		Name:        name,
		Logo:        strings.ToUpper(name[:1]),
		APIEndpoint: slug,
		IsFeatured:  featured,
		IsActive:    true,
	}
	require.NoError(t, db.Create(brand).Error)
	return brand
}

func CreateCategory(t testing.TB, db *gorm.DB, brand *models.Brand, name string) *models.ProductCategory {
	t.Helper()

	category := &models.ProductCategory{
		BrandID:     brand.ID,
		Name:        name,
		DisplayName: strings.ToUpper(name[:1]) + name[1:],
		IsActive:    true,
	}
	require.NoError(t, db.Create(category).Error)
	return category
}

// ProductOption customises a fixture product.
type ProductOption func(*models.Product)

func WithPrice(price string) ProductOption {
	return func(p *models.Product) {
		p.PriceNumeric = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
}

func WithCategory(category *models.ProductCategory) ProductOption {
	return func(p *models.Product) {
		p.CategoryID = &category.ID
	}
}

func WithDescription(description string) ProductOption {
	return func(p *models.Product) {
		p.Description = description
	}
}

func Featured() ProductOption {
	return func(p *models.Product) {
		p.IsFeatured = true
	}
}

func Inactive() ProductOption {
	return func(p *models.Product) {
		p.IsActive = false
	}
}

func CreateProduct(t testing.TB, db *gorm.DB, brand *models.Brand, name string, opts ...ProductOption) *models.Product {
	t.Helper()

	product := &models.Product{
		BrandID:  brand.ID,
		Name:     name,
		Model:    brand.Name,
		Currency: "USD",
		IsActive: true,
	}
	for _, opt := range opts {
		opt(product)
	}
	require.NoError(t, db.Create(product).Error)
	return product
}
