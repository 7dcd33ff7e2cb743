package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Consent represents the FS_CONSENT table
type Consent struct {
	ConsentID          string `db:"CONSENT_ID" json:"consentId"`
	Receipt            JSON   `db:"RECEIPT" json:"receipt"`
	CreatedTime        int64  `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime        int64  `db:"UPDATED_TIME" json:"updatedTime"`
	ClientID           string `db:"CLIENT_ID" json:"clientId"`
	ConsentType        string `db:"CONSENT_TYPE" json:"consentType"`
	CurrentStatus      string `db:"CURRENT_STATUS" json:"currentStatus"`
	ValidityPeriod     int64  `db:"VALIDITY_PERIOD" json:"validityPeriod,omitempty"`
	ExpiryTime         int64  `db:"EXPIRY_TIME" json:"expiryTime,omitempty"`
	RecurringIndicator *bool  `db:"RECURRING_INDICATOR" json:"recurringIndicator,omitempty"`
	OrgID              string `db:"ORG_ID" json:"orgId"`
}

// JSON type for handling JSON fields across database dialects
type JSON json.RawMessage

// Scan implements the sql.Scanner interface for JSON
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSON: %T", value)
	}

	// Validate that it's valid JSON by attempting to unmarshal and remarshal
	var temp interface{}
	if err := json.Unmarshal(bytes, &temp); err != nil {
		return fmt.Errorf("invalid JSON data: %w", err)
	}

	cleanBytes, err := json.Marshal(temp)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	*j = JSON(cleanBytes)
	return nil
}

// Value implements the driver.Valuer interface for JSON
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// MarshalJSON implements json.Marshaler
func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = JSON(data)
	return nil
}

// GetCreatedTime returns the created time as a time.Time
func (c *Consent) GetCreatedTime() time.Time {
	return time.Unix(0, c.CreatedTime*int64(time.Millisecond))
}

// GetUpdatedTime returns the updated time as a time.Time
func (c *Consent) GetUpdatedTime() time.Time {
	return time.Unix(0, c.UpdatedTime*int64(time.Millisecond))
}

// ConsentCreateRequest represents the request payload for creating a consent
type ConsentCreateRequest struct {
	Receipt        JSON                    `json:"receipt" binding:"required"`
	ConsentType    string                  `json:"consentType" binding:"required"`
	CurrentStatus  string                  `json:"currentStatus,omitempty"`
	ValidityPeriod int64                   `json:"validityPeriod,omitempty"`
	ExpiryTime     int64                   `json:"expiryTime,omitempty"`
	Attributes     map[string]string       `json:"attributes,omitempty"`
	AuthResources  []AuthResourceCreateReq `json:"authorizations,omitempty"`
}

// ExclusiveConsentCreateRequest creates a consent while superseding any
// existing consent of the same client/user that holds the applicable status.
type ExclusiveConsentCreateRequest struct {
	ConsentCreateRequest
	UserID           string `json:"userId" binding:"required"`
	ApplicableStatus string `json:"applicableStatus" binding:"required"`
	SupersededStatus string `json:"supersededStatus" binding:"required"`
}

// ConsentAmendRequest represents the request payload for amending a consent
type ConsentAmendRequest struct {
	Receipt    JSON                `json:"receipt,omitempty"`
	ExpiryTime int64               `json:"expiryTime,omitempty"`
	AuthID     string              `json:"authorizationId,omitempty"`
	Accounts   []AccountPermission `json:"accounts,omitempty"`
	Reason     string              `json:"reason,omitempty"`
	ActionBy   string              `json:"actionBy,omitempty"`
}

// ConsentRevokeRequest represents the request to revoke a consent
type ConsentRevokeRequest struct {
	RevokedStatus      string `json:"revokedStatus,omitempty"`
	Reason             string `json:"reason,omitempty"`
	ActionBy           string `json:"actionBy,omitempty"`
	DeactivateMappings *bool  `json:"deactivateMappings,omitempty"`
}

// AccountPermission binds an account identifier to a granted permission
type AccountPermission struct {
	AccountID  string `json:"accountId" binding:"required"`
	Permission string `json:"permission" binding:"required"`
}

// ConsentSearchParams represents search parameters for consent queries
type ConsentSearchParams struct {
	ConsentIDs      []string `form:"consentIds"`
	ClientIDs       []string `form:"clientIds"`
	ConsentTypes    []string `form:"consentTypes"`
	ConsentStatuses []string `form:"consentStatuses"`
	UserIDs         []string `form:"userIds"`
	FromTime        *int64   `form:"fromTime"`
	ToTime          *int64   `form:"toTime"`
	Limit           int      `form:"limit"`
	Offset          int      `form:"offset"`
	OrgID           string   `form:"-"` // Extracted from header
}

// ConsentSearchResponse represents the response for consent search
type ConsentSearchResponse struct {
	Data     []DetailedConsent     `json:"data"`
	Metadata ConsentSearchMetadata `json:"metadata"`
}

// ConsentSearchMetadata represents pagination metadata
type ConsentSearchMetadata struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
