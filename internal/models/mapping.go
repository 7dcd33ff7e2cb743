package models

// Mapping statuses. Deactivation never deletes a row: inactive mappings stay
// behind for the audit trail.
const (
	MappingStatusActive   = "active"
	MappingStatusInactive = "inactive"
)

// ConsentMapping represents the FS_CONSENT_MAPPING table, binding an
// authorized account and permission to an authorization resource.
type ConsentMapping struct {
	MappingID     string `db:"MAPPING_ID" json:"mappingId"`
	AuthID        string `db:"AUTH_ID" json:"authorizationId"`
	AccountID     string `db:"ACCOUNT_ID" json:"accountId"`
	Permission    string `db:"PERMISSION" json:"permission"`
	MappingStatus string `db:"MAPPING_STATUS" json:"mappingStatus"`
	OrgID         string `db:"ORG_ID" json:"orgId"`
}

// ConsentAttribute represents one row of the FS_CONSENT_ATTRIBUTE table
type ConsentAttribute struct {
	ConsentID string `db:"CONSENT_ID" json:"consentId"`
	AttKey    string `db:"ATT_KEY" json:"key"`
	AttValue  string `db:"ATT_VALUE" json:"value"`
	OrgID     string `db:"ORG_ID" json:"orgId"`
}

// BindAccountsRequest represents the payload for binding user accounts to an
// authorization resource
type BindAccountsRequest struct {
	AuthID   string              `json:"authorizationId" binding:"required"`
	Accounts []AccountPermission `json:"accounts" binding:"required"`
}
