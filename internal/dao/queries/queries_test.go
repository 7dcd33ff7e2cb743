package queries

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryGetFallsBackToMySQL(t *testing.T) {
	q := Query{ID: "TEST", MySQL: "SELECT 1"}

	for _, d := range []Dialect{MySQL, Postgres, MSSQL, Oracle} {
		assert.Equal(t, "SELECT 1", q.Get(d), "dialect %s", d)
	}
}

func TestQueryGetPrefersDialectVariant(t *testing.T) {
	q := Query{
		ID:       "TEST",
		MySQL:    "mysql text",
		Postgres: "postgres text",
		Oracle:   "oracle text",
	}

	assert.Equal(t, "mysql text", q.Get(MySQL))
	assert.Equal(t, "postgres text", q.Get(Postgres))
	assert.Equal(t, "mysql text", q.Get(MSSQL))
	assert.Equal(t, "oracle text", q.Get(Oracle))
}

func TestProviderRebind(t *testing.T) {
	raw := "SELECT * FROM FS_CONSENT WHERE CONSENT_ID = ? AND ORG_ID = ?"

	tests := []struct {
		dialect Dialect
		want    string
	}{
		{MySQL, "SELECT * FROM FS_CONSENT WHERE CONSENT_ID = ? AND ORG_ID = ?"},
		{Postgres, "SELECT * FROM FS_CONSENT WHERE CONSENT_ID = $1 AND ORG_ID = $2"},
		{MSSQL, "SELECT * FROM FS_CONSENT WHERE CONSENT_ID = @p1 AND ORG_ID = @p2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			assert.Equal(t, tt.want, NewProvider(tt.dialect).Rebind(raw))
		})
	}
}

func TestUpsertAttributeVariants(t *testing.T) {
	assert.Contains(t, NewProvider(MySQL).UpsertAttribute(), "ON DUPLICATE KEY UPDATE")
	assert.Contains(t, NewProvider(Postgres).UpsertAttribute(), "ON CONFLICT")
	assert.Contains(t, NewProvider(MSSQL).UpsertAttribute(), "MERGE")
	assert.Contains(t, NewProvider(Oracle).UpsertAttribute(), "FROM dual")
}

func TestSelectConsentForUpdateVariants(t *testing.T) {
	assert.Contains(t, NewProvider(MySQL).SelectConsentForUpdate(), "FOR UPDATE")
	assert.Contains(t, NewProvider(Postgres).SelectConsentForUpdate(), "FOR UPDATE")

	mssql := NewProvider(MSSQL).SelectConsentForUpdate()
	assert.Contains(t, mssql, "WITH (UPDLOCK, ROWLOCK)")
	assert.NotContains(t, mssql, "FOR UPDATE")
}

func TestPaginationArgOrder(t *testing.T) {
	clause, args := NewProvider(MySQL).Pagination(20, 40)
	assert.Equal(t, " LIMIT ? OFFSET ?", clause)
	assert.Equal(t, []interface{}{20, 40}, args)

	clause, args = NewProvider(MSSQL).Pagination(20, 40)
	assert.Equal(t, " OFFSET ? ROWS FETCH NEXT ? ROWS ONLY", clause)
	assert.Equal(t, []interface{}{40, 20}, args)

	clause, args = NewProvider(Oracle).Pagination(10, 0)
	assert.Contains(t, clause, "FETCH NEXT")
	assert.Equal(t, []interface{}{0, 10}, args)
}

func TestHistoryQueriesAreAppendOnly(t *testing.T) {
	p := NewProvider(MySQL)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(p.InsertAmendmentHistory()), "INSERT"))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(p.SelectAmendmentHistory()), "SELECT"))
}
