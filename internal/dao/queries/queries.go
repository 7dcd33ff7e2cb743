package queries

// Query represents one logical database operation with an identifier and the
// SQL text per dialect. The MySQL text is the default; dialect-specific
// variants exist only where the syntax diverges. All texts use `?`
// placeholders and are rebound to the dialect's bindvar style by the
// Provider, so the argument order is identical across dialects.
type Query struct {
	// ID is the unique identifier for the query.
	ID string
	// MySQL is the default query text (MySQL/H2 syntax).
	MySQL string
	// Postgres is the PostgreSQL-specific variant.
	Postgres string
	// MSSQL is the Microsoft SQL Server-specific variant.
	MSSQL string
	// Oracle is the Oracle-specific variant.
	Oracle string
}

// Get returns the query text for the given dialect, falling back to the
// default MySQL text when no variant is defined.
func (q Query) Get(d Dialect) string {
	switch d {
	case Postgres:
		if q.Postgres != "" {
			return q.Postgres
		}
	case MSSQL:
		if q.MSSQL != "" {
			return q.MSSQL
		}
	case Oracle:
		if q.Oracle != "" {
			return q.Oracle
		}
	}
	return q.MySQL
}

const consentColumns = `CONSENT_ID, RECEIPT, CREATED_TIME, UPDATED_TIME, CLIENT_ID,
       CONSENT_TYPE, CURRENT_STATUS, VALIDITY_PERIOD, EXPIRY_TIME,
       RECURRING_INDICATOR, ORG_ID`

var queryInsertConsent = Query{
	ID: "CNS-INSERT",
	MySQL: `
		INSERT INTO FS_CONSENT (
			CONSENT_ID, RECEIPT, CREATED_TIME, UPDATED_TIME, CLIENT_ID,
			CONSENT_TYPE, CURRENT_STATUS, VALIDITY_PERIOD, EXPIRY_TIME,
			RECURRING_INDICATOR, ORG_ID
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
}

var querySelectConsent = Query{
	ID: "CNS-SELECT",
	MySQL: `
		SELECT ` + consentColumns + `
		FROM FS_CONSENT
		WHERE CONSENT_ID = ? AND ORG_ID = ?
	`,
}

// The locking clause is the one place the dialects disagree on row locks:
// MSSQL takes a table hint instead of FOR UPDATE.
var querySelectConsentForUpdate = Query{
	ID: "CNS-SELECT-LOCK",
	MySQL: `
		SELECT ` + consentColumns + `
		FROM FS_CONSENT
		WHERE CONSENT_ID = ? AND ORG_ID = ?
		FOR UPDATE
	`,
	MSSQL: `
		SELECT ` + consentColumns + `
		FROM FS_CONSENT WITH (UPDLOCK, ROWLOCK)
		WHERE CONSENT_ID = ? AND ORG_ID = ?
	`,
}

var queryUpdateConsentStatus = Query{
	ID: "CNS-UPDATE-STATUS",
	MySQL: `
		UPDATE FS_CONSENT
		SET CURRENT_STATUS = ?, UPDATED_TIME = ?
		WHERE CONSENT_ID = ? AND ORG_ID = ?
	`,
}

// Compare-and-set variant: a concurrent writer that already moved the status
// makes this affect zero rows, which the service surfaces as a conflict.
var queryUpdateConsentStatusIfCurrent = Query{
	ID: "CNS-UPDATE-STATUS-CAS",
	MySQL: `
		UPDATE FS_CONSENT
		SET CURRENT_STATUS = ?, UPDATED_TIME = ?
		WHERE CONSENT_ID = ? AND ORG_ID = ? AND CURRENT_STATUS = ?
	`,
}

var queryUpdateConsent = Query{
	ID: "CNS-UPDATE",
	MySQL: `
		UPDATE FS_CONSENT
		SET RECEIPT = ?, EXPIRY_TIME = ?, CURRENT_STATUS = ?, UPDATED_TIME = ?
		WHERE CONSENT_ID = ? AND ORG_ID = ?
	`,
}

var querySelectConsentIDsForSupersede = Query{
	ID: "CNS-SELECT-SUPERSEDE",
	MySQL: `
		SELECT c.CONSENT_ID
		FROM FS_CONSENT c
		INNER JOIN FS_CONSENT_AUTH_RESOURCE a
			ON a.CONSENT_ID = c.CONSENT_ID AND a.ORG_ID = c.ORG_ID
		WHERE c.CLIENT_ID = ? AND a.USER_ID = ? AND c.CURRENT_STATUS = ? AND c.ORG_ID = ?
		FOR UPDATE
	`,
	MSSQL: `
		SELECT c.CONSENT_ID
		FROM FS_CONSENT c WITH (UPDLOCK, ROWLOCK)
		INNER JOIN FS_CONSENT_AUTH_RESOURCE a
			ON a.CONSENT_ID = c.CONSENT_ID AND a.ORG_ID = c.ORG_ID
		WHERE c.CLIENT_ID = ? AND a.USER_ID = ? AND c.CURRENT_STATUS = ? AND c.ORG_ID = ?
	`,
}

var queryInsertAuthResource = Query{
	ID: "AUTH-INSERT",
	MySQL: `
		INSERT INTO FS_CONSENT_AUTH_RESOURCE (
			AUTH_ID, CONSENT_ID, AUTH_TYPE, USER_ID, AUTH_STATUS,
			UPDATED_TIME, ORG_ID
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
}

var querySelectAuthResource = Query{
	ID: "AUTH-SELECT",
	MySQL: `
		SELECT AUTH_ID, CONSENT_ID, AUTH_TYPE, USER_ID, AUTH_STATUS,
		       UPDATED_TIME, ORG_ID
		FROM FS_CONSENT_AUTH_RESOURCE
		WHERE AUTH_ID = ? AND ORG_ID = ?
	`,
}

var querySelectAuthResourcesByConsent = Query{
	ID: "AUTH-SELECT-BY-CONSENT",
	MySQL: `
		SELECT AUTH_ID, CONSENT_ID, AUTH_TYPE, USER_ID, AUTH_STATUS,
		       UPDATED_TIME, ORG_ID
		FROM FS_CONSENT_AUTH_RESOURCE
		WHERE CONSENT_ID = ? AND ORG_ID = ?
		ORDER BY UPDATED_TIME, AUTH_ID
	`,
}

var queryUpdateAuthResourceStatus = Query{
	ID: "AUTH-UPDATE-STATUS",
	MySQL: `
		UPDATE FS_CONSENT_AUTH_RESOURCE
		SET AUTH_STATUS = ?, UPDATED_TIME = ?
		WHERE AUTH_ID = ? AND ORG_ID = ?
	`,
}

var queryInsertMapping = Query{
	ID: "MAP-INSERT",
	MySQL: `
		INSERT INTO FS_CONSENT_MAPPING (
			MAPPING_ID, AUTH_ID, ACCOUNT_ID, PERMISSION, MAPPING_STATUS, ORG_ID
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
}

var querySelectMappingsByAuth = Query{
	ID: "MAP-SELECT-BY-AUTH",
	MySQL: `
		SELECT MAPPING_ID, AUTH_ID, ACCOUNT_ID, PERMISSION, MAPPING_STATUS, ORG_ID
		FROM FS_CONSENT_MAPPING
		WHERE AUTH_ID = ? AND ORG_ID = ?
		ORDER BY MAPPING_ID
	`,
}

var queryUpdateMappingStatus = Query{
	ID: "MAP-UPDATE-STATUS",
	MySQL: `
		UPDATE FS_CONSENT_MAPPING
		SET MAPPING_STATUS = ?
		WHERE MAPPING_ID = ? AND ORG_ID = ?
	`,
}

// Deactivates every active mapping hanging off a consent's authorization
// resources. Rows are flipped to the inactive status, never deleted.
var queryDeactivateMappingsForConsent = Query{
	ID: "MAP-DEACTIVATE-BY-CONSENT",
	MySQL: `
		UPDATE FS_CONSENT_MAPPING
		SET MAPPING_STATUS = ?
		WHERE ORG_ID = ? AND MAPPING_STATUS = ? AND AUTH_ID IN (
			SELECT AUTH_ID FROM FS_CONSENT_AUTH_RESOURCE
			WHERE CONSENT_ID = ? AND ORG_ID = ?
		)
	`,
}

var queryInsertAttribute = Query{
	ID: "ATT-INSERT",
	MySQL: `
		INSERT INTO FS_CONSENT_ATTRIBUTE (CONSENT_ID, ATT_KEY, ATT_VALUE, ORG_ID)
		VALUES (?, ?, ?, ?)
	`,
}

var querySelectAttributes = Query{
	ID: "ATT-SELECT",
	MySQL: `
		SELECT ATT_KEY, ATT_VALUE
		FROM FS_CONSENT_ATTRIBUTE
		WHERE CONSENT_ID = ? AND ORG_ID = ?
	`,
}

var querySelectAttributeByKey = Query{
	ID: "ATT-SELECT-KEY",
	MySQL: `
		SELECT ATT_VALUE
		FROM FS_CONSENT_ATTRIBUTE
		WHERE CONSENT_ID = ? AND ORG_ID = ? AND ATT_KEY = ?
	`,
}

// Upsert is where the dialects diverge the most: MySQL uses ON DUPLICATE
// KEY, PostgreSQL uses ON CONFLICT, MSSQL and Oracle use MERGE.
var queryUpsertAttribute = Query{
	ID: "ATT-UPSERT",
	MySQL: `
		INSERT INTO FS_CONSENT_ATTRIBUTE (CONSENT_ID, ATT_KEY, ATT_VALUE, ORG_ID)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE ATT_VALUE = VALUES(ATT_VALUE)
	`,
	Postgres: `
		INSERT INTO FS_CONSENT_ATTRIBUTE (CONSENT_ID, ATT_KEY, ATT_VALUE, ORG_ID)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (CONSENT_ID, ATT_KEY, ORG_ID) DO UPDATE SET ATT_VALUE = EXCLUDED.ATT_VALUE
	`,
	MSSQL: `
		MERGE FS_CONSENT_ATTRIBUTE AS t
		USING (SELECT ? AS CONSENT_ID, ? AS ATT_KEY, ? AS ATT_VALUE, ? AS ORG_ID) AS s
			ON t.CONSENT_ID = s.CONSENT_ID AND t.ATT_KEY = s.ATT_KEY AND t.ORG_ID = s.ORG_ID
		WHEN MATCHED THEN UPDATE SET ATT_VALUE = s.ATT_VALUE
		WHEN NOT MATCHED THEN INSERT (CONSENT_ID, ATT_KEY, ATT_VALUE, ORG_ID)
			VALUES (s.CONSENT_ID, s.ATT_KEY, s.ATT_VALUE, s.ORG_ID);
	`,
	Oracle: `
		MERGE INTO FS_CONSENT_ATTRIBUTE t
		USING (SELECT ? CONSENT_ID, ? ATT_KEY, ? ATT_VALUE, ? ORG_ID FROM dual) s
			ON (t.CONSENT_ID = s.CONSENT_ID AND t.ATT_KEY = s.ATT_KEY AND t.ORG_ID = s.ORG_ID)
		WHEN MATCHED THEN UPDATE SET t.ATT_VALUE = s.ATT_VALUE
		WHEN NOT MATCHED THEN INSERT (t.CONSENT_ID, t.ATT_KEY, t.ATT_VALUE, t.ORG_ID)
			VALUES (s.CONSENT_ID, s.ATT_KEY, s.ATT_VALUE, s.ORG_ID)
	`,
}

var queryDeleteAttribute = Query{
	ID:    "ATT-DELETE-KEY",
	MySQL: `DELETE FROM FS_CONSENT_ATTRIBUTE WHERE CONSENT_ID = ? AND ORG_ID = ? AND ATT_KEY = ?`,
}

// Amendment history is append-only: there is deliberately no update or
// delete statement for FS_CONSENT_HISTORY.
var queryInsertAmendmentHistory = Query{
	ID: "HIST-INSERT",
	MySQL: `
		INSERT INTO FS_CONSENT_HISTORY (
			HISTORY_ID, CONSENT_ID, AMENDED_TIME, AMENDMENT_REASON,
			PREVIOUS_STATE, ORG_ID
		) VALUES (?, ?, ?, ?, ?, ?)
	`,
}

var querySelectAmendmentHistory = Query{
	ID: "HIST-SELECT",
	MySQL: `
		SELECT HISTORY_ID, CONSENT_ID, AMENDED_TIME, AMENDMENT_REASON,
		       PREVIOUS_STATE, ORG_ID
		FROM FS_CONSENT_HISTORY
		WHERE CONSENT_ID = ? AND ORG_ID = ?
		ORDER BY AMENDED_TIME, HISTORY_ID
	`,
}

// Detailed view: one round trip joining consent, authorizations and
// mappings. The DAO groups the denormalized rows by id.
var querySelectDetailedConsent = Query{
	ID: "CNS-SELECT-DETAILED",
	MySQL: `
		SELECT c.CONSENT_ID, c.RECEIPT, c.CREATED_TIME, c.UPDATED_TIME, c.CLIENT_ID,
		       c.CONSENT_TYPE, c.CURRENT_STATUS, c.VALIDITY_PERIOD, c.EXPIRY_TIME,
		       c.RECURRING_INDICATOR, c.ORG_ID,
		       a.AUTH_ID, a.AUTH_TYPE, a.USER_ID, a.AUTH_STATUS,
		       a.UPDATED_TIME AS AUTH_UPDATED_TIME,
		       m.MAPPING_ID, m.ACCOUNT_ID, m.PERMISSION, m.MAPPING_STATUS
		FROM FS_CONSENT c
		LEFT JOIN FS_CONSENT_AUTH_RESOURCE a
			ON a.CONSENT_ID = c.CONSENT_ID AND a.ORG_ID = c.ORG_ID
		LEFT JOIN FS_CONSENT_MAPPING m
			ON m.AUTH_ID = a.AUTH_ID AND m.ORG_ID = a.ORG_ID
		WHERE c.CONSENT_ID = ? AND c.ORG_ID = ?
		ORDER BY a.AUTH_ID, m.MAPPING_ID
	`,
}
