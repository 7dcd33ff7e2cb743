package dao

import (
	"context"
	"database/sql"

	"github.com/wso2/financial-services-accelerator-sub020/internal/dao/queries"
	"github.com/wso2/financial-services-accelerator-sub020/internal/database"
	"github.com/wso2/financial-services-accelerator-sub020/internal/models"
	"github.com/wso2/financial-services-accelerator-sub020/internal/serviceerror"
)

// ConsentAttributeDAO handles database operations for consent attributes
type ConsentAttributeDAO struct {
	db *database.DB
	q  *queries.Provider
}

// NewConsentAttributeDAO creates a new ConsentAttributeDAO instance
func NewConsentAttributeDAO(db *database.DB, q *queries.Provider) *ConsentAttributeDAO {
	return &ConsentAttributeDAO{db: db, q: q}
}

// CreateWithTx inserts a new attribute row using a transaction. Used on
// consent creation, where no row can exist yet.
func (dao *ConsentAttributeDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, attr *models.ConsentAttribute) error {
	_, err := tx.ExecContext(ctx, dao.q.InsertAttribute(), attr.ConsentID, attr.AttKey, attr.AttValue, attr.OrgID)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.CreateAttribute", "consent", attr.ConsentID, err)
	}
	return nil
}

// Upsert inserts or replaces a single attribute value. The statement is
// dialect-specific: ON DUPLICATE KEY, ON CONFLICT or MERGE depending on the
// live database.
func (dao *ConsentAttributeDAO) Upsert(ctx context.Context, attr *models.ConsentAttribute) error {
	_, err := dao.db.ExecContext(ctx, dao.q.UpsertAttribute(), attr.ConsentID, attr.AttKey, attr.AttValue, attr.OrgID)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.UpsertAttribute", "consent", attr.ConsentID, err)
	}
	return nil
}

// UpsertWithTx is the transactional variant of Upsert
func (dao *ConsentAttributeDAO) UpsertWithTx(ctx context.Context, tx *database.Transaction, attr *models.ConsentAttribute) error {
	_, err := tx.ExecContext(ctx, dao.q.UpsertAttribute(), attr.ConsentID, attr.AttKey, attr.AttValue, attr.OrgID)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.UpsertAttribute", "consent", attr.ConsentID, err)
	}
	return nil
}

// GetAll retrieves all attributes of a consent as a key/value map
func (dao *ConsentAttributeDAO) GetAll(ctx context.Context, consentID, orgID string) (map[string]string, error) {
	var rows []struct {
		AttKey   string `db:"ATT_KEY"`
		AttValue string `db:"ATT_VALUE"`
	}
	err := dao.db.SelectContext(ctx, &rows, dao.q.SelectAttributes(), consentID, orgID)
	if err != nil {
		return nil, serviceerror.PersistenceWithID("dao.GetAttributes", "consent", consentID, err)
	}

	attributes := make(map[string]string, len(rows))
	for _, row := range rows {
		attributes[row.AttKey] = row.AttValue
	}
	return attributes, nil
}

// GetByKey retrieves a single attribute value
func (dao *ConsentAttributeDAO) GetByKey(ctx context.Context, consentID, orgID, key string) (string, error) {
	var value string
	err := dao.db.GetContext(ctx, &value, dao.q.SelectAttributeByKey(), consentID, orgID, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", serviceerror.NotFound("attribute", key)
		}
		return "", serviceerror.PersistenceWithID("dao.GetAttribute", "consent", consentID, err)
	}
	return value, nil
}

// DeleteByKey removes a single attribute of a consent
func (dao *ConsentAttributeDAO) DeleteByKey(ctx context.Context, consentID, orgID, key string) error {
	result, err := dao.db.ExecContext(ctx, dao.q.DeleteAttribute(), consentID, orgID, key)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.DeleteAttribute", "consent", consentID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return serviceerror.PersistenceWithID("dao.DeleteAttribute", "consent", consentID, err)
	}
	if rowsAffected == 0 {
		return serviceerror.NotFound("attribute", key)
	}
	return nil
}
