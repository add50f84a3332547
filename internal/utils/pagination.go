// internal/utils/pagination.go
package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/jingjai-backend/internal/apperrors"
	"github.com/javajoker/jingjai-backend/internal/i18n"
)

type PaginationParams struct {
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Sort   string `json:"sort"`
	Order  string `json:"order"`
}

type PaginationResult struct {
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
	Total  int64       `json:"total"`
	Data   interface{} `json:"data"`
}

// GetPaginationParams reads limit, offset, sort and order from the query
// string. Limits above maxLimit are clamped; malformed or negative values are
// rejected.
func GetPaginationParams(c *gin.Context, defaultLimit, maxLimit int) (PaginationParams, error) {
	params := PaginationParams{
		Limit: defaultLimit,
		Sort:  c.Query("sort"),
		Order: strings.ToLower(c.Query("order")),
	}

	if raw, ok := c.GetQuery("limit"); ok {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return params, apperrors.Validation(i18n.KeyCatalogInvalidLimit, "limit must be a positive integer")
		}
		params.Limit = limit
	}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}

	if raw, ok := c.GetQuery("offset"); ok {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return params, apperrors.Validation(i18n.KeyCatalogInvalidOffset, "offset must be a non-negative integer")
		}
		params.Offset = offset
	}

	if params.Order != "" && params.Order != "asc" && params.Order != "desc" {
		return params, apperrors.Validation(i18n.KeyCatalogInvalidSort, "order must be asc or desc")
	}

	return params, nil
}

func ApplyPagination(db *gorm.DB, params PaginationParams) *gorm.DB {
	return db.Offset(params.Offset).Limit(params.Limit)
}

// SortSpec maps public sort keys onto column expressions.
type SortSpec struct {
	Columns      map[string]string
	DefaultSort  string
	DefaultOrder string
	TieBreaker   string
}

// Allows reports whether sort is empty or a known key.
func (s SortSpec) Allows(sort string) bool {
	if sort == "" {
		return true
	}
	_, ok := s.Columns[sort]
	return ok
}

// ApplySort orders by params.Sort when spec knows it, falling back to the
// default column. The tie breaker keeps pages stable.
func ApplySort(db *gorm.DB, params PaginationParams, spec SortSpec) *gorm.DB {
	column, ok := spec.Columns[params.Sort]
	if !ok {
		column = spec.Columns[spec.DefaultSort]
	}

	order := params.Order
	if order == "" {
		order = spec.DefaultOrder
	}

	db = db.Order(column + " " + order)
	if spec.TieBreaker != "" {
		db = db.Order(spec.TieBreaker + " " + order)
	}
	return db
}

func CreatePaginationResult(data interface{}, total int64, params PaginationParams) PaginationResult {
	return PaginationResult{
		Limit:  params.Limit,
		Offset: params.Offset,
		Total:  total,
		Data:   data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Total, 10))
	c.Header("X-Limit", strconv.Itoa(result.Limit))
	c.Header("X-Offset", strconv.Itoa(result.Offset))
}
