package models

// AmendmentHistory represents one immutable row of the FS_CONSENT_HISTORY
// table: the serialized prior state of a consent that an amendment or
// revocation superseded. Rows are append-only and outlive the consent.
type AmendmentHistory struct {
	HistoryID   string `db:"HISTORY_ID" json:"historyId"`
	ConsentID   string `db:"CONSENT_ID" json:"consentId"`
	AmendedTime int64  `db:"AMENDED_TIME" json:"amendedTime"`
	Reason      string `db:"AMENDMENT_REASON" json:"amendmentReason"`
	Snapshot    JSON   `db:"PREVIOUS_STATE" json:"previousState"`
	OrgID       string `db:"ORG_ID" json:"orgId"`
}

// AmendmentHistoryRequest is the payload for recording an out-of-band
// amendment, e.g. one triggered by an external revocation event.
type AmendmentHistoryRequest struct {
	Reason      string `json:"amendmentReason" binding:"required"`
	Snapshot    JSON   `json:"previousState" binding:"required"`
	AmendedTime int64  `json:"amendedTime,omitempty"`
}
