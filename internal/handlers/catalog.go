// internal/handlers/catalog.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/jingjai-backend/internal/config"
	"github.com/javajoker/jingjai-backend/internal/i18n"
	"github.com/javajoker/jingjai-backend/internal/services"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
	cfg            config.CatalogConfig
}

func NewCatalogHandler(catalogService *services.CatalogService, cfg config.CatalogConfig) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		cfg:            cfg,
	}
}

// GET /brands
func (h *CatalogHandler) ListBrands(c *gin.Context) {
	featuredOnly, err := queryBool(c, "featured_only")
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	activeOnly, err := queryBool(c, "active_only")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	query := services.BrandQuery{ActiveOnly: activeOnly}
	if featuredOnly != nil {
		query.FeaturedOnly = *featuredOnly
	}

	brands, err := h.catalogService.ListBrands(c.Request.Context(), query)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, brands)
}

// GET /brands/featured
func (h *CatalogHandler) ListFeaturedBrands(c *gin.Context) {
	brands, err := h.catalogService.ListFeaturedBrands(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, brands)
}

// GET /brands/:id
func (h *CatalogHandler) GetBrand(c *gin.Context) {
	brandID, ok := pathID(c, "id", "brand")
	if !ok {
		return
	}

	brand, err := h.catalogService.GetBrand(c.Request.Context(), brandID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, brand)
}

// GET /brands/:id/categories
func (h *CatalogHandler) ListBrandCategories(c *gin.Context) {
	brandID, ok := pathID(c, "id", "brand")
	if !ok {
		return
	}

	categories, err := h.catalogService.ListBrandCategories(c.Request.Context(), brandID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"categories": categories,
		"total":      len(categories),
	})
}

// GET /brands/:id/products
func (h *CatalogHandler) ListBrandProducts(c *gin.Context) {
	brandID, ok := pathID(c, "id", "brand")
	if !ok {
		return
	}

	query, err := h.productQuery(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	products, err := h.catalogService.ListBrandProducts(c.Request.Context(), brandID, query)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, products)
}

// GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// GET /products/search
func (h *CatalogHandler) SearchProducts(c *gin.Context) {
	query, err := h.productQuery(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	query.Search = c.Query("q")

	if query.BrandID, err = queryUUID(c, "brand_id"); err != nil {
		utils.HandleError(c, err)
		return
	}
	if query.MinPrice, err = queryDecimal(c, "min_price", i18n.KeyCatalogInvalidPrice); err != nil {
		utils.HandleError(c, err)
		return
	}
	if query.MaxPrice, err = queryDecimal(c, "max_price", i18n.KeyCatalogInvalidPrice); err != nil {
		utils.HandleError(c, err)
		return
	}

	products, err := h.catalogService.SearchProducts(c.Request.Context(), query)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, products)
}

// productQuery reads the filters shared by the brand listing and search.
func (h *CatalogHandler) productQuery(c *gin.Context) (services.ProductQuery, error) {
	params, err := utils.GetPaginationParams(c, h.cfg.DefaultPageSize, h.cfg.MaxPageSize)
	if err != nil {
		return services.ProductQuery{}, err
	}

	featuredOnly, err := queryBool(c, "featured_only")
	if err != nil {
		return services.ProductQuery{}, err
	}

	query := services.ProductQuery{
		PaginationParams: params,
		Category:         c.Query("category"),
		Search:           c.Query("search"),
	}
	if featuredOnly != nil {
		query.FeaturedOnly = *featuredOnly
	}
	return query, nil
}
