// internal/handlers/helpers.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/jingjai-backend/internal/apperrors"
	"github.com/javajoker/jingjai-backend/internal/i18n"
	"github.com/javajoker/jingjai-backend/internal/models"
	"github.com/javajoker/jingjai-backend/internal/services"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

// currentUserID reads the authenticated user. It writes a 401 and returns
// false when the request carries no usable identity.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthInvalidToken))
		return uuid.Nil, false
	}
	return userID, true
}

func currentRequester(c *gin.Context) (services.Requester, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return services.Requester{}, false
	}
	userType, _ := utils.GetUserTypeFromContext(c)
	return services.Requester{
		UserID:  userID,
		IsAdmin: userType == string(models.UserTypeAdmin),
	}, true
}

// pathID parses a uuid path parameter. A malformed id cannot name an existing
// resource, so it is reported as not found.
func pathID(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.NotFoundResponse(c, resource)
		return uuid.Nil, false
	}
	return id, true
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.Validation(i18n.KeyValidationInvalid, name+" must be a boolean")
	}
	return &value, nil
}

func queryDecimal(c *gin.Context, name, key string) (*decimal.Decimal, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	value, err := utils.ParseAmount(raw)
	if err != nil {
		return nil, apperrors.Validation(key, name+": "+err.Error())
	}
	return &value, nil
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.Validation(i18n.KeyCatalogInvalidID, name+" must be a valid id")
	}
	return &id, nil
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}
