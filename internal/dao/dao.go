// Package dao implements the persistence layer over sqlx. Every DAO receives
// its SQL from a dialect-resolved query provider, so the same code path runs
// against MySQL, H2, PostgreSQL, MSSQL and Oracle schemas.
package dao

import (
	"github.com/wso2/financial-services-accelerator-sub020/internal/dao/queries"
	"github.com/wso2/financial-services-accelerator-sub020/internal/database"
)

// DAOSet bundles every DAO over one connection pool and one resolved dialect.
type DAOSet struct {
	Consent      *ConsentDAO
	AuthResource *AuthResourceDAO
	Mapping      *MappingDAO
	Attribute    *ConsentAttributeDAO
	History      *HistoryDAO

	provider *queries.Provider
}

// NewDAOSet resolves the SQL dialect from the driver identity exactly once
// and constructs the DAOs. An unrecognized driver returns the fatal
// unsupported-driver error; nothing is half-initialized.
func NewDAOSet(db *database.DB, driverID string) (*DAOSet, error) {
	dialect, err := queries.Resolve(driverID)
	if err != nil {
		return nil, err
	}

	provider := queries.NewProvider(dialect)

	return &DAOSet{
		Consent:      NewConsentDAO(db, provider),
		AuthResource: NewAuthResourceDAO(db, provider),
		Mapping:      NewMappingDAO(db, provider),
		Attribute:    NewConsentAttributeDAO(db, provider),
		History:      NewHistoryDAO(db, provider),
		provider:     provider,
	}, nil
}

// Dialect returns the dialect the DAO set was built for.
func (s *DAOSet) Dialect() queries.Dialect {
	return s.provider.Dialect()
}
