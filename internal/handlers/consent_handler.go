// Package handlers exposes the consent core over HTTP. Handlers only bind
// requests and map service errors to status codes; every rule lives in the
// service layer.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/wso2/financial-services-accelerator-sub020/internal/models"
	"github.com/wso2/financial-services-accelerator-sub020/internal/service"
	"github.com/wso2/financial-services-accelerator-sub020/internal/utils"
)

// ConsentHandler handles consent-related HTTP requests
type ConsentHandler struct {
	consentService *service.ConsentService
}

// NewConsentHandler creates a new consent handler instance
func NewConsentHandler(consentService *service.ConsentService) *ConsentHandler {
	return &ConsentHandler{consentService: consentService}
}

// CreateConsent handles POST /consents
func (h *ConsentHandler) CreateConsent(c *gin.Context) {
	var request models.ConsentCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	orgID := utils.GetOrgIDFromContext(c)
	clientID := utils.GetClientIDFromContext(c)

	consent, err := h.consentService.CreateConsent(c.Request.Context(), &request, clientID, orgID)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendCreatedResponse(c, consent)
}

// CreateExclusiveConsent handles POST /consents/exclusive
func (h *ConsentHandler) CreateExclusiveConsent(c *gin.Context) {
	var request models.ExclusiveConsentCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	orgID := utils.GetOrgIDFromContext(c)
	clientID := utils.GetClientIDFromContext(c)

	consent, err := h.consentService.CreateExclusiveConsent(c.Request.Context(), &request, clientID, orgID)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendCreatedResponse(c, consent)
}

// GetConsent handles GET /consents/{consentId}
func (h *ConsentHandler) GetConsent(c *gin.Context) {
	consentID := c.Param("consentId")
	orgID := utils.GetOrgIDFromContext(c)

	consent, err := h.consentService.GetDetailedConsent(c.Request.Context(), consentID, orgID)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, consent)
}

// SearchConsents handles GET /consents
func (h *ConsentHandler) SearchConsents(c *gin.Context) {
	var params models.ConsentSearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		utils.SendBadRequestError(c, "Invalid search parameters", err.Error())
		return
	}
	params.OrgID = utils.GetOrgIDFromContext(c)

	response, err := h.consentService.SearchConsents(c.Request.Context(), &params)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, response)
}

// AuthorizeConsent handles POST /consents/{consentId}/authorize
func (h *ConsentHandler) AuthorizeConsent(c *gin.Context) {
	var request models.ConsentAuthorizeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	consentID := c.Param("consentId")
	orgID := utils.GetOrgIDFromContext(c)

	consent, err := h.consentService.AuthorizeConsent(c.Request.Context(), consentID, &request, orgID)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, consent)
}

// BindAccounts handles POST /consents/{consentId}/accounts
func (h *ConsentHandler) BindAccounts(c *gin.Context) {
	var request models.BindAccountsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	consentID := c.Param("consentId")
	orgID := utils.GetOrgIDFromContext(c)

	mappings, err := h.consentService.BindUserAccounts(c.Request.Context(), consentID, &request, orgID)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendCreatedResponse(c, mappings)
}

// AmendConsent handles PUT /consents/{consentId}
func (h *ConsentHandler) AmendConsent(c *gin.Context) {
	var request models.ConsentAmendRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	consentID := c.Param("consentId")
	orgID := utils.GetOrgIDFromContext(c)

	consent, err := h.consentService.AmendConsent(c.Request.Context(), consentID, orgID, &request)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, consent)
}

// RevokeConsent handles POST /consents/{consentId}/revoke
func (h *ConsentHandler) RevokeConsent(c *gin.Context) {
	var request models.ConsentRevokeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			utils.SendBadRequestError(c, "Invalid request body", err.Error())
			return
		}
	}

	consentID := c.Param("consentId")
	orgID := utils.GetOrgIDFromContext(c)

	consent, err := h.consentService.RevokeConsent(c.Request.Context(), consentID, orgID, &request)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, consent)
}

// ExpireConsent handles POST /consents/{consentId}/expire
func (h *ConsentHandler) ExpireConsent(c *gin.Context) {
	consentID := c.Param("consentId")
	orgID := utils.GetOrgIDFromContext(c)

	consent, err := h.consentService.ExpireConsent(c.Request.Context(), consentID, orgID)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, consent)
}

// PutAttributes handles PUT /consents/{consentId}/attributes
func (h *ConsentHandler) PutAttributes(c *gin.Context) {
	var attributes map[string]string
	if err := c.ShouldBindJSON(&attributes); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	consentID := c.Param("consentId")
	orgID := utils.GetOrgIDFromContext(c)

	if err := h.consentService.PutConsentAttributes(c.Request.Context(), consentID, orgID, attributes); err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendNoContentResponse(c)
}

// GetAttributes handles GET /consents/{consentId}/attributes
func (h *ConsentHandler) GetAttributes(c *gin.Context) {
	consentID := c.Param("consentId")
	orgID := utils.GetOrgIDFromContext(c)

	attributes, err := h.consentService.GetConsentAttributes(c.Request.Context(), consentID, orgID)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, attributes)
}

// DeleteAttribute handles DELETE /consents/{consentId}/attributes/{key}
func (h *ConsentHandler) DeleteAttribute(c *gin.Context) {
	consentID := c.Param("consentId")
	key := c.Param("key")
	orgID := utils.GetOrgIDFromContext(c)

	if err := h.consentService.DeleteConsentAttribute(c.Request.Context(), consentID, orgID, key); err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendNoContentResponse(c)
}

// StoreHistory handles POST /consents/{consentId}/history
func (h *ConsentHandler) StoreHistory(c *gin.Context) {
	var request models.AmendmentHistoryRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}

	consentID := c.Param("consentId")
	orgID := utils.GetOrgIDFromContext(c)

	history, err := h.consentService.StoreAmendmentHistory(c.Request.Context(), consentID, orgID, &request)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendCreatedResponse(c, history)
}

// GetHistory handles GET /consents/{consentId}/history
func (h *ConsentHandler) GetHistory(c *gin.Context) {
	consentID := c.Param("consentId")
	orgID := utils.GetOrgIDFromContext(c)

	history, err := h.consentService.GetAmendmentHistory(c.Request.Context(), consentID, orgID)
	if err != nil {
		utils.SendServiceError(c, err)
		return
	}

	utils.SendOKResponse(c, history)
}
