package models

// Authorization types recognized by the engine
const (
	AuthTypeAuthorization = "authorization"
	AuthTypeCancellation  = "cancellation"
)

// AuthResource represents the FS_CONSENT_AUTH_RESOURCE table. A consent may
// carry several authorization resources, one per approving user and intent.
type AuthResource struct {
	AuthID      string  `db:"AUTH_ID" json:"authorizationId"`
	ConsentID   string  `db:"CONSENT_ID" json:"consentId"`
	AuthType    string  `db:"AUTH_TYPE" json:"authorizationType"`
	UserID      *string `db:"USER_ID" json:"userId,omitempty"`
	AuthStatus  string  `db:"AUTH_STATUS" json:"authorizationStatus"`
	UpdatedTime int64   `db:"UPDATED_TIME" json:"updatedTime"`
	OrgID       string  `db:"ORG_ID" json:"orgId"`
}

// AuthResourceCreateReq represents the request payload for creating an
// authorization resource
type AuthResourceCreateReq struct {
	AuthType   string  `json:"authorizationType" binding:"required"`
	UserID     *string `json:"userId,omitempty"`
	AuthStatus string  `json:"authorizationStatus,omitempty"`
}

// ConsentAuthorizeRequest carries the target statuses for an authorize call
type ConsentAuthorizeRequest struct {
	AuthID           string `json:"authorizationId" binding:"required"`
	NewConsentStatus string `json:"consentStatus" binding:"required"`
	NewAuthStatus    string `json:"authorizationStatus" binding:"required"`
	ActionBy         string `json:"actionBy,omitempty"`
}
