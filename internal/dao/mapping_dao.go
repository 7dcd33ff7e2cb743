package dao

import (
	"context"

	"github.com/wso2/financial-services-accelerator-sub020/internal/dao/queries"
	"github.com/wso2/financial-services-accelerator-sub020/internal/database"
	"github.com/wso2/financial-services-accelerator-sub020/internal/models"
	"github.com/wso2/financial-services-accelerator-sub020/internal/serviceerror"
)

// MappingDAO handles database operations for consent account mappings
type MappingDAO struct {
	db *database.DB
	q  *queries.Provider
}

// NewMappingDAO creates a new MappingDAO instance
func NewMappingDAO(db *database.DB, q *queries.Provider) *MappingDAO {
	return &MappingDAO{db: db, q: q}
}

// CreateWithTx inserts a new account mapping using a transaction
func (dao *MappingDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, mapping *models.ConsentMapping) error {
	_, err := tx.ExecContext(
		ctx,
		dao.q.InsertMapping(),
		mapping.MappingID,
		mapping.AuthID,
		mapping.AccountID,
		mapping.Permission,
		mapping.MappingStatus,
		mapping.OrgID,
	)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.CreateMapping", "mapping", mapping.MappingID, err)
	}
	return nil
}

// GetByAuthID retrieves all mappings of an authorization resource
func (dao *MappingDAO) GetByAuthID(ctx context.Context, authID, orgID string) ([]models.ConsentMapping, error) {
	var mappings []models.ConsentMapping
	err := dao.db.SelectContext(ctx, &mappings, dao.q.SelectMappingsByAuth(), authID, orgID)
	if err != nil {
		return nil, serviceerror.PersistenceWithID("dao.GetMappingsByAuth", "authorization", authID, err)
	}
	return mappings, nil
}

// GetByAuthIDWithTx retrieves all mappings of an authorization resource
// inside a transaction
func (dao *MappingDAO) GetByAuthIDWithTx(ctx context.Context, tx *database.Transaction, authID, orgID string) ([]models.ConsentMapping, error) {
	var mappings []models.ConsentMapping
	err := tx.SelectContext(ctx, &mappings, dao.q.SelectMappingsByAuth(), authID, orgID)
	if err != nil {
		return nil, serviceerror.PersistenceWithID("dao.GetMappingsByAuth", "authorization", authID, err)
	}
	return mappings, nil
}

// UpdateStatusWithTx updates the status of a single mapping
func (dao *MappingDAO) UpdateStatusWithTx(ctx context.Context, tx *database.Transaction, mappingID, orgID, status string) error {
	result, err := tx.ExecContext(ctx, dao.q.UpdateMappingStatus(), status, mappingID, orgID)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.UpdateMappingStatus", "mapping", mappingID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return serviceerror.PersistenceWithID("dao.UpdateMappingStatus", "mapping", mappingID, err)
	}
	if rowsAffected == 0 {
		return serviceerror.NotFound("mapping", mappingID)
	}
	return nil
}

// DeactivateForConsentWithTx flips every active mapping under the consent's
// authorization resources to the inactive status. Zero affected rows is not
// an error: a consent may have no active mappings.
func (dao *MappingDAO) DeactivateForConsentWithTx(ctx context.Context, tx *database.Transaction, consentID, orgID string) error {
	_, err := tx.ExecContext(
		ctx,
		dao.q.DeactivateMappingsForConsent(),
		models.MappingStatusInactive,
		orgID,
		models.MappingStatusActive,
		consentID,
		orgID,
	)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.DeactivateMappings", "consent", consentID, err)
	}
	return nil
}
