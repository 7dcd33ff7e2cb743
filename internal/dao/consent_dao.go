package dao

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wso2/financial-services-accelerator-sub020/internal/dao/queries"
	"github.com/wso2/financial-services-accelerator-sub020/internal/database"
	"github.com/wso2/financial-services-accelerator-sub020/internal/models"
	"github.com/wso2/financial-services-accelerator-sub020/internal/serviceerror"
)

// ConsentDAO handles database operations for consents
type ConsentDAO struct {
	db *database.DB
	q  *queries.Provider
}

// NewConsentDAO creates a new ConsentDAO instance
func NewConsentDAO(db *database.DB, q *queries.Provider) *ConsentDAO {
	return &ConsentDAO{db: db, q: q}
}

// CreateWithTx inserts a new consent using a transaction
func (dao *ConsentDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, consent *models.Consent) error {
	_, err := tx.ExecContext(ctx, dao.q.InsertConsent(), consentInsertArgs(consent)...)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.CreateConsent", "consent", consent.ConsentID, err)
	}
	return nil
}

func consentInsertArgs(consent *models.Consent) []interface{} {
	return []interface{}{
		consent.ConsentID,
		consent.Receipt,
		consent.CreatedTime,
		consent.UpdatedTime,
		consent.ClientID,
		consent.ConsentType,
		consent.CurrentStatus,
		consent.ValidityPeriod,
		consent.ExpiryTime,
		consent.RecurringIndicator,
		consent.OrgID,
	}
}

// GetByID retrieves a consent by ID and organization ID
func (dao *ConsentDAO) GetByID(ctx context.Context, consentID, orgID string) (*models.Consent, error) {
	var consent models.Consent
	err := dao.db.GetContext(ctx, &consent, dao.q.SelectConsent(), consentID, orgID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, serviceerror.NotFound("consent", consentID)
		}
		return nil, serviceerror.PersistenceWithID("dao.GetConsent", "consent", consentID, err)
	}
	return &consent, nil
}

// GetByIDWithTx retrieves a consent by ID using a transaction
func (dao *ConsentDAO) GetByIDWithTx(ctx context.Context, tx *database.Transaction, consentID, orgID string) (*models.Consent, error) {
	var consent models.Consent
	err := tx.GetContext(ctx, &consent, dao.q.SelectConsent(), consentID, orgID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, serviceerror.NotFound("consent", consentID)
		}
		return nil, serviceerror.PersistenceWithID("dao.GetConsent", "consent", consentID, err)
	}
	return &consent, nil
}

// GetByIDForUpdateWithTx retrieves a consent and takes a row lock, so the
// caller's transition decision holds until commit.
func (dao *ConsentDAO) GetByIDForUpdateWithTx(ctx context.Context, tx *database.Transaction, consentID, orgID string) (*models.Consent, error) {
	var consent models.Consent
	err := tx.GetContext(ctx, &consent, dao.q.SelectConsentForUpdate(), consentID, orgID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, serviceerror.NotFound("consent", consentID)
		}
		return nil, serviceerror.PersistenceWithID("dao.GetConsentForUpdate", "consent", consentID, err)
	}
	return &consent, nil
}

// UpdateWithTx updates the receipt, expiry time and status of a consent
func (dao *ConsentDAO) UpdateWithTx(ctx context.Context, tx *database.Transaction, consent *models.Consent) error {
	result, err := tx.ExecContext(
		ctx,
		dao.q.UpdateConsent(),
		consent.Receipt,
		consent.ExpiryTime,
		consent.CurrentStatus,
		consent.UpdatedTime,
		consent.ConsentID,
		consent.OrgID,
	)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.UpdateConsent", "consent", consent.ConsentID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return serviceerror.PersistenceWithID("dao.UpdateConsent", "consent", consent.ConsentID, err)
	}
	if rowsAffected == 0 {
		return serviceerror.NotFound("consent", consent.ConsentID)
	}
	return nil
}

// UpdateStatus updates only the status of a consent
func (dao *ConsentDAO) UpdateStatus(ctx context.Context, consentID, orgID, status string, updatedTime int64) error {
	result, err := dao.db.ExecContext(ctx, dao.q.UpdateConsentStatus(), status, updatedTime, consentID, orgID)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.UpdateConsentStatus", "consent", consentID, err)
	}
	return requireRowAffected(result, "dao.UpdateConsentStatus", consentID)
}

// UpdateStatusWithTx updates only the status of a consent using a transaction
func (dao *ConsentDAO) UpdateStatusWithTx(ctx context.Context, tx *database.Transaction, consentID, orgID, status string, updatedTime int64) error {
	result, err := tx.ExecContext(ctx, dao.q.UpdateConsentStatus(), status, updatedTime, consentID, orgID)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.UpdateConsentStatus", "consent", consentID, err)
	}
	return requireRowAffected(result, "dao.UpdateConsentStatus", consentID)
}

// UpdateStatusIfCurrentWithTx moves a consent to a new status only when it
// still holds the expected current status. Returns the number of rows
// affected; zero means a concurrent writer won the race and the caller
// decides how to surface that.
func (dao *ConsentDAO) UpdateStatusIfCurrentWithTx(ctx context.Context, tx *database.Transaction, consentID, orgID, newStatus, currentStatus string, updatedTime int64) (int64, error) {
	result, err := tx.ExecContext(
		ctx,
		dao.q.UpdateConsentStatusIfCurrent(),
		newStatus,
		updatedTime,
		consentID,
		orgID,
		currentStatus,
	)
	if err != nil {
		return 0, serviceerror.PersistenceWithID("dao.UpdateConsentStatusIfCurrent", "consent", consentID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, serviceerror.PersistenceWithID("dao.UpdateConsentStatusIfCurrent", "consent", consentID, err)
	}
	return rowsAffected, nil
}

// FindIDsForSupersedeWithTx locks and returns the IDs of every consent of the
// client that the given user authorized and that currently holds the
// applicable status.
func (dao *ConsentDAO) FindIDsForSupersedeWithTx(ctx context.Context, tx *database.Transaction, clientID, userID, applicableStatus, orgID string) ([]string, error) {
	var ids []string
	err := tx.SelectContext(ctx, &ids, dao.q.SelectConsentIDsForSupersede(), clientID, userID, applicableStatus, orgID)
	if err != nil {
		return nil, serviceerror.Persistence("dao.FindConsentsForSupersede", err)
	}
	return ids, nil
}

// requireRowAffected maps a zero-row plain update to a not-found error
func requireRowAffected(result sql.Result, op, consentID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return serviceerror.PersistenceWithID(op, "consent", consentID, err)
	}
	if rowsAffected == 0 {
		return serviceerror.NotFound("consent", consentID)
	}
	return nil
}

// detailedConsentRow is the denormalized shape of one row of the detailed
// join. Authorization and mapping columns are nullable because of the LEFT
// JOINs.
type detailedConsentRow struct {
	models.Consent
	AuthID          sql.NullString `db:"AUTH_ID"`
	AuthType        sql.NullString `db:"AUTH_TYPE"`
	UserID          sql.NullString `db:"USER_ID"`
	AuthStatus      sql.NullString `db:"AUTH_STATUS"`
	AuthUpdatedTime sql.NullInt64  `db:"AUTH_UPDATED_TIME"`
	MappingID       sql.NullString `db:"MAPPING_ID"`
	AccountID       sql.NullString `db:"ACCOUNT_ID"`
	Permission      sql.NullString `db:"PERMISSION"`
	MappingStatus   sql.NullString `db:"MAPPING_STATUS"`
}

// GetDetailed retrieves a consent joined with its authorization resources and
// account mappings in a single round trip. Attributes are loaded separately
// by the caller.
func (dao *ConsentDAO) GetDetailed(ctx context.Context, consentID, orgID string) (*models.DetailedConsent, error) {
	var rows []detailedConsentRow
	err := dao.db.SelectContext(ctx, &rows, dao.q.SelectDetailedConsent(), consentID, orgID)
	if err != nil {
		return nil, serviceerror.PersistenceWithID("dao.GetDetailedConsent", "consent", consentID, err)
	}
	if len(rows) == 0 {
		return nil, serviceerror.NotFound("consent", consentID)
	}
	return groupDetailedRows(rows), nil
}

// GetDetailedWithTx is the transactional variant of GetDetailed, used to
// snapshot a consent's state before amending it.
func (dao *ConsentDAO) GetDetailedWithTx(ctx context.Context, tx *database.Transaction, consentID, orgID string) (*models.DetailedConsent, error) {
	var rows []detailedConsentRow
	err := tx.SelectContext(ctx, &rows, dao.q.SelectDetailedConsent(), consentID, orgID)
	if err != nil {
		return nil, serviceerror.PersistenceWithID("dao.GetDetailedConsent", "consent", consentID, err)
	}
	if len(rows) == 0 {
		return nil, serviceerror.NotFound("consent", consentID)
	}
	return groupDetailedRows(rows), nil
}

// groupDetailedRows folds the denormalized join rows into one DetailedConsent.
// Rows arrive ordered by AUTH_ID then MAPPING_ID.
func groupDetailedRows(rows []detailedConsentRow) *models.DetailedConsent {
	detailed := &models.DetailedConsent{
		Consent:       rows[0].Consent,
		AuthResources: []models.AuthResource{},
		Mappings:      []models.ConsentMapping{},
	}

	seenAuth := make(map[string]bool)
	seenMapping := make(map[string]bool)

	for _, row := range rows {
		if row.AuthID.Valid && !seenAuth[row.AuthID.String] {
			seenAuth[row.AuthID.String] = true
			auth := models.AuthResource{
				AuthID:      row.AuthID.String,
				ConsentID:   row.Consent.ConsentID,
				AuthType:    row.AuthType.String,
				AuthStatus:  row.AuthStatus.String,
				UpdatedTime: row.AuthUpdatedTime.Int64,
				OrgID:       row.Consent.OrgID,
			}
			if row.UserID.Valid {
				userID := row.UserID.String
				auth.UserID = &userID
			}
			detailed.AuthResources = append(detailed.AuthResources, auth)
		}

		if row.MappingID.Valid && !seenMapping[row.MappingID.String] {
			seenMapping[row.MappingID.String] = true
			detailed.Mappings = append(detailed.Mappings, models.ConsentMapping{
				MappingID:     row.MappingID.String,
				AuthID:        row.AuthID.String,
				AccountID:     row.AccountID.String,
				Permission:    row.Permission.String,
				MappingStatus: row.MappingStatus.String,
				OrgID:         row.Consent.OrgID,
			})
		}
	}

	return detailed
}

// Search searches for consents based on provided parameters. The query is
// assembled with `?` placeholders and rebound to the live dialect; the
// pagination clause and its argument order also come from the dialect.
func (dao *ConsentDAO) Search(ctx context.Context, params *models.ConsentSearchParams) ([]models.Consent, int, error) {
	var conditions []string
	var args []interface{}

	conditions = append(conditions, "c.ORG_ID = ?")
	args = append(args, params.OrgID)

	addInCondition := func(column string, values []string) {
		if len(values) == 0 {
			return
		}
		placeholders := strings.Repeat("?,", len(values)-1) + "?"
		conditions = append(conditions, fmt.Sprintf("%s IN (%s)", column, placeholders))
		for _, v := range values {
			args = append(args, v)
		}
	}

	addInCondition("c.CONSENT_ID", params.ConsentIDs)
	addInCondition("c.CLIENT_ID", params.ClientIDs)
	addInCondition("c.CONSENT_TYPE", params.ConsentTypes)
	addInCondition("c.CURRENT_STATUS", params.ConsentStatuses)

	// User filter requires the authorization resource join
	var joinClause string
	if len(params.UserIDs) > 0 {
		joinClause = " INNER JOIN FS_CONSENT_AUTH_RESOURCE ar ON c.CONSENT_ID = ar.CONSENT_ID AND c.ORG_ID = ar.ORG_ID"
		addInCondition("ar.USER_ID", params.UserIDs)
	}

	if params.FromTime != nil {
		conditions = append(conditions, "c.CREATED_TIME >= ?")
		args = append(args, *params.FromTime)
	}
	if params.ToTime != nil {
		conditions = append(conditions, "c.CREATED_TIME <= ?")
		args = append(args, *params.ToTime)
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT c.CONSENT_ID) FROM FS_CONSENT c%s WHERE %s", joinClause, whereClause)
	var total int
	if err := dao.db.GetContext(ctx, &total, dao.q.Rebind(countQuery), args...); err != nil {
		return nil, 0, serviceerror.Persistence("dao.SearchConsents", err)
	}

	pageClause, pageArgs := dao.q.Pagination(params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT DISTINCT c.CONSENT_ID, c.RECEIPT, c.CREATED_TIME, c.UPDATED_TIME, c.CLIENT_ID,
		       c.CONSENT_TYPE, c.CURRENT_STATUS, c.VALIDITY_PERIOD, c.EXPIRY_TIME,
		       c.RECURRING_INDICATOR, c.ORG_ID
		FROM FS_CONSENT c%s
		WHERE %s
		ORDER BY c.CREATED_TIME DESC, c.CONSENT_ID%s
	`, joinClause, whereClause, pageClause)
	args = append(args, pageArgs...)

	var consents []models.Consent
	if err := dao.db.SelectContext(ctx, &consents, dao.q.Rebind(query), args...); err != nil {
		return nil, 0, serviceerror.Persistence("dao.SearchConsents", err)
	}

	return consents, total, nil
}

// Exists checks if a consent exists
func (dao *ConsentDAO) Exists(ctx context.Context, consentID, orgID string) (bool, error) {
	query := dao.q.Rebind(`SELECT COUNT(1) FROM FS_CONSENT WHERE CONSENT_ID = ? AND ORG_ID = ?`)

	var count int
	if err := dao.db.GetContext(ctx, &count, query, consentID, orgID); err != nil {
		return false, serviceerror.PersistenceWithID("dao.ConsentExists", "consent", consentID, err)
	}
	return count > 0, nil
}
