package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wso2/financial-services-accelerator-sub020/internal/database"
	"github.com/wso2/financial-services-accelerator-sub020/internal/handlers"
	"github.com/wso2/financial-services-accelerator-sub020/internal/service"
	"github.com/wso2/financial-services-accelerator-sub020/internal/utils"
)

// SetupRouter configures all API routes
func SetupRouter(consentService *service.ConsentService, db *database.DB) *gin.Engine {
	router := gin.Default()

	// Tenant and client identity arrive as headers set by the gateway
	router.Use(func(c *gin.Context) {
		if orgID := c.GetHeader("org-id"); orgID != "" {
			utils.SetContextValue(c, "orgID", orgID)
		}
		if clientID := c.GetHeader("client-id"); clientID != "" {
			utils.SetContextValue(c, "clientID", clientID)
		}
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.HealthCheck(ctx); err != nil {
			c.JSON(503, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(200, gin.H{"status": "healthy"})
	})

	consentHandler := handlers.NewConsentHandler(consentService)

	v1 := router.Group("/api/v1")
	{
		consents := v1.Group("/consents")
		{
			consents.POST("", consentHandler.CreateConsent)
			consents.POST("/exclusive", consentHandler.CreateExclusiveConsent)
			consents.GET("", consentHandler.SearchConsents)
			consents.GET("/:consentId", consentHandler.GetConsent)
			consents.PUT("/:consentId", consentHandler.AmendConsent)
			consents.POST("/:consentId/authorize", consentHandler.AuthorizeConsent)
			consents.POST("/:consentId/accounts", consentHandler.BindAccounts)
			consents.POST("/:consentId/revoke", consentHandler.RevokeConsent)
			consents.POST("/:consentId/expire", consentHandler.ExpireConsent)
			consents.PUT("/:consentId/attributes", consentHandler.PutAttributes)
			consents.GET("/:consentId/attributes", consentHandler.GetAttributes)
			consents.DELETE("/:consentId/attributes/:key", consentHandler.DeleteAttribute)
			consents.POST("/:consentId/history", consentHandler.StoreHistory)
			consents.GET("/:consentId/history", consentHandler.GetHistory)
		}
	}

	return router
}
