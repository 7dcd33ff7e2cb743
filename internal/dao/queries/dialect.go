// Package queries supplies parameterized SQL text per database dialect and
// resolves the dialect once, at startup, from the live driver identity.
package queries

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/wso2/financial-services-accelerator-sub020/internal/serviceerror"
)

// Dialect identifies a SQL dialect family.
type Dialect string

const (
	// MySQL also serves H2, which runs in MySQL compatibility mode.
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	MSSQL    Dialect = "mssql"
	Oracle   Dialect = "oracle"
)

// BindType returns the sqlx bindvar style for the dialect.
func (d Dialect) BindType() int {
	switch d {
	case Postgres:
		return sqlx.DOLLAR
	case MSSQL:
		return sqlx.AT
	case Oracle:
		return sqlx.NAMED
	default:
		return sqlx.QUESTION
	}
}

// driverMatch pairs a driver-identity substring with its dialect.
type driverMatch struct {
	substr  string
	dialect Dialect
}

// driverMatchers is the fixed ordered list used for dialect selection.
// Matching is a case-sensitive substring test and the first match wins, so
// both the Go driver registration names (mysql, postgres, sqlserver) and
// vendor identity strings (MySQL, Microsoft, PostgreSQL) resolve.
var driverMatchers = []driverMatch{
	{"MySQL", MySQL},
	{"mysql", MySQL},
	{"H2", MySQL},
	{"h2", MySQL},
	{"MSSQL", MSSQL},
	{"Microsoft", MSSQL},
	{"sqlserver", MSSQL},
	{"PostgreSQL", Postgres},
	{"postgres", Postgres},
	{"pgx", Postgres},
	{"Oracle", Oracle},
	{"oracle", Oracle},
	{"godror", Oracle},
	{"oci8", Oracle},
}

// Resolve maps a driver identity string to its dialect. It is called exactly
// once per process, during DAO construction; an unmatched identity is fatal.
func Resolve(driverID string) (Dialect, error) {
	for _, m := range driverMatchers {
		if strings.Contains(driverID, m.substr) {
			return m.dialect, nil
		}
	}
	return "", serviceerror.UnsupportedDriver(driverID)
}
