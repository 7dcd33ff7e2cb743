package queries

import (
	"github.com/jmoiron/sqlx"
)

// Provider hands out query text already rebound to one dialect. A Provider is
// constructed once per process, alongside the DAO set, and is safe for
// concurrent use.
type Provider struct {
	dialect  Dialect
	bindType int
}

// NewProvider creates a Provider for the given dialect.
func NewProvider(d Dialect) *Provider {
	return &Provider{
		dialect:  d,
		bindType: d.BindType(),
	}
}

// Dialect returns the dialect this provider was built for.
func (p *Provider) Dialect() Dialect {
	return p.dialect
}

// Rebind translates `?` placeholders in an ad-hoc query to the dialect's
// bindvar style. Used by the DAOs for dynamically assembled search queries.
func (p *Provider) Rebind(query string) string {
	return sqlx.Rebind(p.bindType, query)
}

func (p *Provider) text(q Query) string {
	return sqlx.Rebind(p.bindType, q.Get(p.dialect))
}

// Pagination returns the dialect's pagination clause and its arguments.
// MySQL and PostgreSQL take limit then offset; MSSQL and Oracle use the
// OFFSET/FETCH form, which takes offset first.
func (p *Provider) Pagination(limit, offset int) (string, []interface{}) {
	switch p.dialect {
	case MSSQL, Oracle:
		return " OFFSET ? ROWS FETCH NEXT ? ROWS ONLY", []interface{}{offset, limit}
	default:
		return " LIMIT ? OFFSET ?", []interface{}{limit, offset}
	}
}

func (p *Provider) InsertConsent() string { return p.text(queryInsertConsent) }
func (p *Provider) SelectConsent() string { return p.text(querySelectConsent) }
func (p *Provider) SelectConsentForUpdate() string {
	return p.text(querySelectConsentForUpdate)
}
func (p *Provider) UpdateConsentStatus() string { return p.text(queryUpdateConsentStatus) }
func (p *Provider) UpdateConsentStatusIfCurrent() string {
	return p.text(queryUpdateConsentStatusIfCurrent)
}
func (p *Provider) UpdateConsent() string { return p.text(queryUpdateConsent) }
func (p *Provider) SelectConsentIDsForSupersede() string {
	return p.text(querySelectConsentIDsForSupersede)
}
func (p *Provider) SelectDetailedConsent() string { return p.text(querySelectDetailedConsent) }

func (p *Provider) InsertAuthResource() string { return p.text(queryInsertAuthResource) }
func (p *Provider) SelectAuthResource() string { return p.text(querySelectAuthResource) }
func (p *Provider) SelectAuthResourcesByConsent() string {
	return p.text(querySelectAuthResourcesByConsent)
}
func (p *Provider) UpdateAuthResourceStatus() string {
	return p.text(queryUpdateAuthResourceStatus)
}

func (p *Provider) InsertMapping() string { return p.text(queryInsertMapping) }
func (p *Provider) SelectMappingsByAuth() string { return p.text(querySelectMappingsByAuth) }
func (p *Provider) UpdateMappingStatus() string { return p.text(queryUpdateMappingStatus) }
func (p *Provider) DeactivateMappingsForConsent() string {
	return p.text(queryDeactivateMappingsForConsent)
}

func (p *Provider) InsertAttribute() string { return p.text(queryInsertAttribute) }
func (p *Provider) SelectAttributes() string { return p.text(querySelectAttributes) }
func (p *Provider) SelectAttributeByKey() string { return p.text(querySelectAttributeByKey) }
func (p *Provider) UpsertAttribute() string { return p.text(queryUpsertAttribute) }
func (p *Provider) DeleteAttribute() string { return p.text(queryDeleteAttribute) }

func (p *Provider) InsertAmendmentHistory() string {
	return p.text(queryInsertAmendmentHistory)
}
func (p *Provider) SelectAmendmentHistory() string {
	return p.text(querySelectAmendmentHistory)
}
