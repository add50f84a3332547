// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/jingjai-backend/internal/apperrors"
	"github.com/javajoker/jingjai-backend/internal/config"
	"github.com/javajoker/jingjai-backend/internal/i18n"
	"github.com/javajoker/jingjai-backend/internal/models"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

var productSort = utils.SortSpec{
	Columns: map[string]string{
		"name":          "products.name",
		"price_numeric": "products.price_numeric",
		"created_at":    "products.created_at",
	},
	DefaultSort:  "name",
	DefaultOrder: "asc",
	TieBreaker:   "products.id",
}

type CatalogService struct {
	db  *gorm.DB
	cfg config.CatalogConfig
}

type BrandQuery struct {
	FeaturedOnly bool
	ActiveOnly   *bool
}

type ProductQuery struct {
	utils.PaginationParams
	BrandID      *uuid.UUID
	Category     string
	Search       string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	FeaturedOnly bool
}

type BrandList struct {
	Brands []models.Brand `json:"brands"`
	Total  int64          `json:"total"`
}

type ProductList struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Brand    *models.Brand    `json:"brand,omitempty"`
}

func NewCatalogService(db *gorm.DB, cfg config.CatalogConfig) *CatalogService {
	return &CatalogService{db: db, cfg: cfg}
}

func (s *CatalogService) ListBrands(ctx context.Context, q BrandQuery) (*BrandList, error) {
	query := s.db.WithContext(ctx).Model(&models.Brand{})

	if q.ActiveOnly == nil || *q.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if q.FeaturedOnly {
		query = query.Where("is_featured = ?", true)
	}

	var brands []models.Brand
	if err := query.Order("name ASC").Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch brands: %w", err)
	}

	return &BrandList{Brands: brands, Total: int64(len(brands))}, nil
}

func (s *CatalogService) ListFeaturedBrands(ctx context.Context) (*BrandList, error) {
	return s.ListBrands(ctx, BrandQuery{FeaturedOnly: true})
}

// GetBrand returns an active brand with its active categories and products.
func (s *CatalogService) GetBrand(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	var brand models.Brand
	err := s.db.WithContext(ctx).
		Preload("Categories", "is_active = ?", true).
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("name ASC").Order("id ASC")
		}).
		Where("id = ? AND is_active = ?", id, true).
		First(&brand).Error
	if err != nil {
		return nil, brandLookupError(err)
	}
	return &brand, nil
}

func (s *CatalogService) ListBrandCategories(ctx context.Context, brandID uuid.UUID) ([]models.ProductCategory, error) {
	if _, err := s.activeBrand(ctx, brandID); err != nil {
		return nil, err
	}

	var categories []models.ProductCategory
	if err := s.db.WithContext(ctx).
		Where("brand_id = ? AND is_active = ?", brandID, true).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) ListBrandProducts(ctx context.Context, brandID uuid.UUID, q ProductQuery) (*ProductList, error) {
	brand, err := s.activeBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}

	q.BrandID = &brandID
	result, err := s.SearchProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	result.Brand = brand
	return result, nil
}

// GetProduct returns an active product with its brand and category.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Preload("Brand").
		Preload("Category").
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(i18n.KeyProductNotFound, fmt.Sprintf("product %s not found", id))
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return &product, nil
}

// SearchProducts applies every filter in q to the active products. The total
// is counted before sorting and pagination.
func (s *CatalogService) SearchProducts(ctx context.Context, q ProductQuery) (*ProductList, error) {
	if err := s.normalize(&q); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("products.is_active = ?", true)

	if q.BrandID != nil {
		query = query.Where("products.brand_id = ?", *q.BrandID)
	}

	if q.Category != "" {
		query = query.
			Joins("JOIN product_categories ON product_categories.id = products.category_id AND product_categories.deleted_at IS NULL").
			Where("LOWER(product_categories.name) = LOWER(?)", q.Category)
	}

	if q.Search != "" {
		term := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		query = query.Where(
			`(LOWER(products.name) LIKE ? ESCAPE '\' OR LOWER(products.model) LIKE ? ESCAPE '\' OR LOWER(products.description) LIKE ? ESCAPE '\')`,
			term, term, term,
		)
	}

	if q.MinPrice != nil {
		query = query.Where("products.price_numeric IS NOT NULL AND products.price_numeric >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("products.price_numeric IS NOT NULL AND products.price_numeric <= ?", *q.MaxPrice)
	}

	if q.FeaturedOnly {
		query = query.Where("products.is_featured = ?", true)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	products := make([]models.Product, 0)
	if total > int64(q.Offset) {
		page := utils.ApplySort(query, q.PaginationParams, productSort)
		page = utils.ApplyPagination(page, q.PaginationParams)
		if err := page.Preload("Brand").Preload("Category").Find(&products).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch products: %w", err)
		}
	}

	return &ProductList{Products: products, Total: total}, nil
}

func (s *CatalogService) normalize(q *ProductQuery) error {
	if q.Limit < 0 {
		return apperrors.Validation(i18n.KeyCatalogInvalidLimit, "limit must be a positive integer")
	}
	if q.Limit == 0 {
		q.Limit = s.cfg.DefaultPageSize
	}
	if q.Limit > s.cfg.MaxPageSize {
		q.Limit = s.cfg.MaxPageSize
	}
	if q.Offset < 0 {
		return apperrors.Validation(i18n.KeyCatalogInvalidOffset, "offset must be a non-negative integer")
	}

	q.Order = strings.ToLower(q.Order)
	if !productSort.Allows(q.Sort) || (q.Order != "" && q.Order != "asc" && q.Order != "desc") {
		return apperrors.Validation(i18n.KeyCatalogInvalidSort,
			fmt.Sprintf("unsupported sort %q order %q", q.Sort, q.Order))
	}

	for _, bound := range []*decimal.Decimal{q.MinPrice, q.MaxPrice} {
		if bound == nil {
			continue
		}
		if err := utils.CheckAmountBounds(*bound); err != nil {
			return apperrors.Validation(i18n.KeyCatalogInvalidPrice, err.Error())
		}
	}
	if (q.MinPrice != nil && q.MinPrice.IsNegative()) || (q.MaxPrice != nil && q.MaxPrice.IsNegative()) {
		return apperrors.Validation(i18n.KeyCatalogInvalidPrice, "price bounds must not be negative")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return apperrors.Validation(i18n.KeyCatalogInvalidRange, "min_price must not exceed max_price")
	}

	q.Search = strings.TrimSpace(q.Search)
	q.Category = strings.TrimSpace(q.Category)
	return nil
}

func (s *CatalogService) activeBrand(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	var brand models.Brand
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&brand).Error; err != nil {
		return nil, brandLookupError(err)
	}
	return &brand, nil
}

func brandLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(i18n.KeyBrandNotFound, "brand not found")
	}
	return fmt.Errorf("failed to fetch brand: %w", err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
