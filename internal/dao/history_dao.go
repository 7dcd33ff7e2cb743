package dao

import (
	"context"

	"github.com/wso2/financial-services-accelerator-sub020/internal/dao/queries"
	"github.com/wso2/financial-services-accelerator-sub020/internal/database"
	"github.com/wso2/financial-services-accelerator-sub020/internal/models"
	"github.com/wso2/financial-services-accelerator-sub020/internal/serviceerror"
)

// HistoryDAO handles database operations for the amendment history audit
// trail. The table is append-only: this DAO exposes no update or delete.
type HistoryDAO struct {
	db *database.DB
	q  *queries.Provider
}

// NewHistoryDAO creates a new HistoryDAO instance
func NewHistoryDAO(db *database.DB, q *queries.Provider) *HistoryDAO {
	return &HistoryDAO{db: db, q: q}
}

// CreateWithTx appends one history row inside the transaction that performs
// the state change it records, so the audit trail commits or rolls back with
// the change itself.
func (dao *HistoryDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, history *models.AmendmentHistory) error {
	_, err := tx.ExecContext(
		ctx,
		dao.q.InsertAmendmentHistory(),
		history.HistoryID,
		history.ConsentID,
		history.AmendedTime,
		history.Reason,
		history.Snapshot,
		history.OrgID,
	)
	if err != nil {
		return serviceerror.PersistenceWithID("dao.CreateAmendmentHistory", "consent", history.ConsentID, err)
	}
	return nil
}

// GetByConsentID retrieves the full amendment history of a consent, oldest
// first.
func (dao *HistoryDAO) GetByConsentID(ctx context.Context, consentID, orgID string) ([]models.AmendmentHistory, error) {
	var entries []models.AmendmentHistory
	err := dao.db.SelectContext(ctx, &entries, dao.q.SelectAmendmentHistory(), consentID, orgID)
	if err != nil {
		return nil, serviceerror.PersistenceWithID("dao.GetAmendmentHistory", "consent", consentID, err)
	}
	return entries, nil
}
