// internal/handlers/authentication.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/jingjai-backend/internal/services"
	"github.com/javajoker/jingjai-backend/internal/utils"
)

// AuthenticationHandler serves authenticator actions on authentication
// requests.
type AuthenticationHandler struct {
	profileService *services.ProfileService
}

type CancelAuthenticationRequest struct {
	Notes string `json:"authenticator_notes" validate:"max=5000"`
}

func NewAuthenticationHandler(profileService *services.ProfileService) *AuthenticationHandler {
	return &AuthenticationHandler{
		profileService: profileService,
	}
}

// POST /authentications/:id/complete
func (h *AuthenticationHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "id", "authentication")
	if !ok {
		return
	}

	var req services.CompleteAuthenticationRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.profileService.CompleteAuthentication(c.Request.Context(), id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, record)
}

// POST /authentications/:id/cancel
func (h *AuthenticationHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id", "authentication")
	if !ok {
		return
	}

	var req CancelAuthenticationRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	record, err := h.profileService.CancelAuthentication(c.Request.Context(), id, req.Notes)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, record)
}
