package dao

import (
	"context"
	"database/sql"

	"github.com/wso2/financial-services-accelerator-sub020/internal/dao/queries"
	"github.com/wso2/financial-services-accelerator-sub020/internal/database"
	"github.com/wso2/financial-services-accelerator-sub020/internal/models"
	"github.com/wso2/financial-services-accelerator-sub020/internal/serviceerror"
)

// AuthResourceDAO handles database operations for authorization resources
type AuthResourceDAO struct {
	db *database.DB
	q  *queries.Provider
}

// NewAuthResourceDAO creates a new AuthResourceDAO instance
func NewAuthResourceDAO(db *database.DB, q *queries.Provider) *AuthResourceDAO {
	return &AuthResourceDAO{db: db, q: q}
}

// CreateWithTx inserts a new authorization resource using a transaction
func (dao *AuthResourceDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, auth *models.AuthResource) error {
	_, err := tx.ExecContext(ctx, dao.q.InsertAuthResource(), authInsertArgs(auth)...)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.CreateAuthResource", "authorization", auth.AuthID, err)
	}
	return nil
}

func authInsertArgs(auth *models.AuthResource) []interface{} {
	return []interface{}{
		auth.AuthID,
		auth.ConsentID,
		auth.AuthType,
		auth.UserID,
		auth.AuthStatus,
		auth.UpdatedTime,
		auth.OrgID,
	}
}

// GetByID retrieves an authorization resource by ID
func (dao *AuthResourceDAO) GetByID(ctx context.Context, authID, orgID string) (*models.AuthResource, error) {
	var auth models.AuthResource
	err := dao.db.GetContext(ctx, &auth, dao.q.SelectAuthResource(), authID, orgID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, serviceerror.NotFound("authorization", authID)
		}
		return nil, serviceerror.PersistenceWithID("dao.GetAuthResource", "authorization", authID, err)
	}
	return &auth, nil
}

// GetByIDWithTx retrieves an authorization resource by ID using a transaction
func (dao *AuthResourceDAO) GetByIDWithTx(ctx context.Context, tx *database.Transaction, authID, orgID string) (*models.AuthResource, error) {
	var auth models.AuthResource
	err := tx.GetContext(ctx, &auth, dao.q.SelectAuthResource(), authID, orgID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, serviceerror.NotFound("authorization", authID)
		}
		return nil, serviceerror.PersistenceWithID("dao.GetAuthResource", "authorization", authID, err)
	}
	return &auth, nil
}

// GetByConsentID retrieves all authorization resources of a consent
func (dao *AuthResourceDAO) GetByConsentID(ctx context.Context, consentID, orgID string) ([]models.AuthResource, error) {
	var auths []models.AuthResource
	err := dao.db.SelectContext(ctx, &auths, dao.q.SelectAuthResourcesByConsent(), consentID, orgID)
	if err != nil {
		return nil, serviceerror.PersistenceWithID("dao.GetAuthResourcesByConsent", "consent", consentID, err)
	}
	return auths, nil
}

// UpdateStatusWithTx updates the status of an authorization resource
func (dao *AuthResourceDAO) UpdateStatusWithTx(ctx context.Context, tx *database.Transaction, authID, orgID, status string, updatedTime int64) error {
	result, err := tx.ExecContext(ctx, dao.q.UpdateAuthResourceStatus(), status, updatedTime, authID, orgID)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.UpdateAuthResourceStatus", "authorization", authID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return serviceerror.PersistenceWithID("dao.UpdateAuthResourceStatus", "authorization", authID, err)
	}
	if rowsAffected == 0 {
		return serviceerror.NotFound("authorization", authID)
	}
	return nil
}
