// Package utils holds HTTP response helpers shared by the handlers. The
// error mapping is driven by the service error kind, so handlers never
// inspect error strings.
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wso2/financial-services-accelerator-sub020/internal/models"
	"github.com/wso2/financial-services-accelerator-sub020/internal/serviceerror"
)

// SendCreatedResponse sends a 201 Created response
func SendCreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendOKResponse sends a 200 OK response
func SendOKResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendNoContentResponse sends a 204 No Content response
func SendNoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// SendErrorResponse sends an error JSON response
func SendErrorResponse(c *gin.Context, statusCode int, errCode, message, details string) {
	c.JSON(statusCode, models.ErrorResponse{
		Code:    errCode,
		Message: message,
		Details: details,
	})
}

// SendBadRequestError sends a 400 Bad Request error
func SendBadRequestError(c *gin.Context, message, details string) {
	SendErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, message, details)
}

// SendServiceError maps a service error to its HTTP status by kind:
// validation 400, not found 404, conflict 409, everything else 500.
func SendServiceError(c *gin.Context, err error) {
	switch {
	case serviceerror.IsValidation(err):
		SendErrorResponse(c, http.StatusBadRequest, models.ErrCodeValidationError, "Validation failed", err.Error())
	case serviceerror.IsNotFound(err):
		SendErrorResponse(c, http.StatusNotFound, models.ErrCodeNotFound, "Resource not found", err.Error())
	case serviceerror.IsConflict(err):
		SendErrorResponse(c, http.StatusConflict, models.ErrCodeConflict, "State conflict", err.Error())
	default:
		SendErrorResponse(c, http.StatusInternalServerError, models.ErrCodeInternalError, "Internal server error", "")
	}
}

// GetOrgIDFromContext extracts organization ID from context
func GetOrgIDFromContext(c *gin.Context) string {
	orgID, exists := c.Get("orgID")
	if !exists {
		return "DEFAULT_ORG"
	}
	return orgID.(string)
}

// GetClientIDFromContext extracts client ID from context
func GetClientIDFromContext(c *gin.Context) string {
	clientID, exists := c.Get("clientID")
	if !exists {
		return ""
	}
	return clientID.(string)
}

// SetContextValue sets a value in the Gin context
func SetContextValue(c *gin.Context, key string, value interface{}) {
	c.Set(key, value)
}
