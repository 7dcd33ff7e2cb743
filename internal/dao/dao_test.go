package dao

import (
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/financial-services-accelerator-sub020/internal/dao/queries"
	"github.com/wso2/financial-services-accelerator-sub020/internal/database"
	"github.com/wso2/financial-services-accelerator-sub020/internal/serviceerror"
)

// newTestDB wires a sqlmock connection behind the database wrapper
func newTestDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return database.NewFromSQLDB(mockDB, "sqlmock", logger), mock
}

func testProvider() *queries.Provider {
	return queries.NewProvider(queries.MySQL)
}

func TestNewDAOSet(t *testing.T) {
	db, _ := newTestDB(t)

	daos, err := NewDAOSet(db, "mysql")
	require.NoError(t, err)
	assert.Equal(t, queries.MySQL, daos.Dialect())
	assert.NotNil(t, daos.Consent)
	assert.NotNil(t, daos.AuthResource)
	assert.NotNil(t, daos.Mapping)
	assert.NotNil(t, daos.Attribute)
	assert.NotNil(t, daos.History)
}

func TestNewDAOSetUnsupportedDriver(t *testing.T) {
	db, _ := newTestDB(t)

	daos, err := NewDAOSet(db, "sqlite3")
	assert.Nil(t, daos)
	assert.True(t, serviceerror.IsUnsupportedDriver(err))
}
