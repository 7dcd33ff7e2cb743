package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/financial-services-accelerator-sub020/internal/event"
	"github.com/wso2/financial-services-accelerator-sub020/internal/models"
	"github.com/wso2/financial-services-accelerator-sub020/internal/serviceerror"
	"github.com/wso2/financial-services-accelerator-sub020/pkg/utils"
)

var authRowColumns = []string{
	"AUTH_ID", "CONSENT_ID", "AUTH_TYPE", "USER_ID", "AUTH_STATUS", "UPDATED_TIME", "ORG_ID",
}

func consentRow(consentID, status string) *sqlmock.Rows {
	return consentRowExpiring(consentID, status, 0)
}

func consentRowExpiring(consentID, status string, expiry int64) *sqlmock.Rows {
	return sqlmock.NewRows(consentRowColumns).
		AddRow(consentID, []byte(`{}`), 1, 1, "client-app-1", "accounts", status,
			3600, expiry, nil, "org-001")
}

func detailedRow(consentID, status string) *sqlmock.Rows {
	return sqlmock.NewRows(detailedRowColumns).
		AddRow(consentID, []byte(`{}`), 1, 1, "client-app-1", "accounts", status,
			3600, 0, nil, "org-001",
			"AUTH-1", "authorization", "user-1", "authorized", 2,
			"MAPPING-1", "acc-1", "ReadAccountsBasic", "active")
}

func expectPostCommitReload(mock sqlmock.Sqlmock, consentID, status string) {
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectDetailedConsent())).
		WillReturnRows(detailedRow(consentID, status))
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectAttributes())).
		WillReturnRows(sqlmock.NewRows([]string{"ATT_KEY", "ATT_VALUE"}))
}

func TestAuthorizeConsent(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectAuthResource())).
		WithArgs("AUTH-1", "org-001").
		WillReturnRows(sqlmock.NewRows(authRowColumns).
			AddRow("AUTH-1", "CONSENT-0001", "authorization", "user-1", "created", 1, "org-001"))
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectConsentForUpdate())).
		WithArgs("CONSENT-0001", "org-001").
		WillReturnRows(consentRow("CONSENT-0001", "received"))
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectDetailedConsent())).
		WillReturnRows(detailedRow("CONSENT-0001", "received"))
	mock.ExpectExec(regexp.QuoteMeta(q().UpdateConsentStatusIfCurrent())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(q().UpdateAuthResourceStatus())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(q().InsertAmendmentHistory())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectPostCommitReload(mock, "CONSENT-0001", "authorized")

	request := &models.ConsentAuthorizeRequest{
		AuthID:           "AUTH-1",
		NewConsentStatus: "authorized",
		NewAuthStatus:    AuthStatusAuthorized,
	}

	detailed, err := svc.AuthorizeConsent(context.Background(), "CONSENT-0001", request, "org-001")
	require.NoError(t, err)
	assert.Equal(t, "authorized", detailed.CurrentStatus)

	events := notifier.captured()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeConsentAuthorized, events[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthorizeConsentIllegalAuthTransition(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectAuthResource())).
		WithArgs("AUTH-1", "org-001").
		WillReturnRows(sqlmock.NewRows(authRowColumns).
			AddRow("AUTH-1", "CONSENT-0001", "authorization", "user-1", "authorized", 1, "org-001"))
	mock.ExpectRollback()

	request := &models.ConsentAuthorizeRequest{
		AuthID:           "AUTH-1",
		NewConsentStatus: "authorized",
		NewAuthStatus:    AuthStatusAuthorized,
	}

	_, err := svc.AuthorizeConsent(context.Background(), "CONSENT-0001", request, "org-001")
	assert.True(t, serviceerror.IsConflict(err))
	assert.Empty(t, notifier.captured())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthorizeConsentLostRace(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectAuthResource())).
		WillReturnRows(sqlmock.NewRows(authRowColumns).
			AddRow("AUTH-1", "CONSENT-0001", "authorization", "user-1", "created", 1, "org-001"))
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectConsentForUpdate())).
		WillReturnRows(consentRow("CONSENT-0001", "received"))
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectDetailedConsent())).
		WillReturnRows(detailedRow("CONSENT-0001", "received"))
	mock.ExpectExec(regexp.QuoteMeta(q().UpdateConsentStatusIfCurrent())).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	request := &models.ConsentAuthorizeRequest{
		AuthID:           "AUTH-1",
		NewConsentStatus: "authorized",
		NewAuthStatus:    AuthStatusAuthorized,
	}

	_, err := svc.AuthorizeConsent(context.Background(), "CONSENT-0001", request, "org-001")
	assert.True(t, serviceerror.IsConflict(err))
	assert.Empty(t, notifier.captured())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthorizeConsentWrongConsent(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectAuthResource())).
		WithArgs("AUTH-1", "org-001").
		WillReturnRows(sqlmock.NewRows(authRowColumns).
			AddRow("AUTH-1", "CONSENT-0002", "authorization", "user-1", "created", 1, "org-001"))
	mock.ExpectRollback()

	request := &models.ConsentAuthorizeRequest{
		AuthID:           "AUTH-1",
		NewConsentStatus: "authorized",
		NewAuthStatus:    AuthStatusAuthorized,
	}

	_, err := svc.AuthorizeConsent(context.Background(), "CONSENT-0001", request, "org-001")
	assert.True(t, serviceerror.IsConflict(err))
	assert.Empty(t, notifier.captured())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBindUserAccounts(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectAuthResource())).
		WithArgs("AUTH-1", "org-001").
		WillReturnRows(sqlmock.NewRows(authRowColumns).
			AddRow("AUTH-1", "CONSENT-0001", "authorization", "user-1", "authorized", 1, "org-001"))
	mock.ExpectExec(regexp.QuoteMeta(q().InsertMapping())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(q().InsertMapping())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	request := &models.BindAccountsRequest{
		AuthID: "AUTH-1",
		Accounts: []models.AccountPermission{
			{AccountID: "acc-1", Permission: "ReadAccountsBasic"},
			{AccountID: "acc-2", Permission: "ReadBalances"},
		},
	}

	mappings, err := svc.BindUserAccounts(context.Background(), "CONSENT-0001", request, "org-001")
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, models.MappingStatusActive, mappings[0].MappingStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBindUserAccountsEmptyList(t *testing.T) {
	svc, _, _ := newTestService(t)

	request := &models.BindAccountsRequest{AuthID: "AUTH-1"}
	_, err := svc.BindUserAccounts(context.Background(), "CONSENT-0001", request, "org-001")
	assert.True(t, serviceerror.IsValidation(err))
}

func TestBindUserAccountsWrongConsent(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectAuthResource())).
		WithArgs("AUTH-1", "org-001").
		WillReturnRows(sqlmock.NewRows(authRowColumns).
			AddRow("AUTH-1", "CONSENT-0002", "authorization", "user-1", "authorized", 1, "org-001"))
	mock.ExpectRollback()

	request := &models.BindAccountsRequest{
		AuthID: "AUTH-1",
		Accounts: []models.AccountPermission{
			{AccountID: "acc-1", Permission: "ReadAccountsBasic"},
		},
	}

	_, err := svc.BindUserAccounts(context.Background(), "CONSENT-0001", request, "org-001")
	assert.True(t, serviceerror.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAmendConsentReplacesMappings(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectConsentForUpdate())).
		WillReturnRows(consentRow("CONSENT-0001", "authorized"))
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectDetailedConsent())).
		WillReturnRows(detailedRow("CONSENT-0001", "authorized"))
	mock.ExpectExec(regexp.QuoteMeta(q().InsertAmendmentHistory())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(q().UpdateConsent())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectAuthResource())).
		WillReturnRows(sqlmock.NewRows(authRowColumns).
			AddRow("AUTH-1", "CONSENT-0001", "authorization", "user-1", "authorized", 1, "org-001"))
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectMappingsByAuth())).
		WillReturnRows(sqlmock.NewRows([]string{"MAPPING_ID", "AUTH_ID", "ACCOUNT_ID", "PERMISSION", "MAPPING_STATUS", "ORG_ID"}).
			AddRow("MAPPING-1", "AUTH-1", "acc-1", "ReadAccountsBasic", "active", "org-001").
			AddRow("MAPPING-old", "AUTH-1", "acc-0", "ReadBalances", "inactive", "org-001"))
	// Only the active mapping is deactivated; the already-inactive one is kept.
	mock.ExpectExec(regexp.QuoteMeta(q().UpdateMappingStatus())).
		WithArgs("inactive", "MAPPING-1", "org-001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(q().InsertMapping())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectPostCommitReload(mock, "CONSENT-0001", "amended")

	request := &models.ConsentAmendRequest{
		Receipt: models.JSON(`{"permissions":["ReadAccountsDetail"]}`),
		AuthID:  "AUTH-1",
		Accounts: []models.AccountPermission{
			{AccountID: "acc-3", Permission: "ReadAccountsDetail"},
		},
	}

	detailed, err := svc.AmendConsent(context.Background(), "CONSENT-0001", "org-001", request)
	require.NoError(t, err)
	assert.Equal(t, "amended", detailed.CurrentStatus)

	events := notifier.captured()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeConsentAmended, events[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAmendConsentTerminalStatus(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectConsentForUpdate())).
		WillReturnRows(consentRow("CONSENT-0001", "revoked"))
	mock.ExpectRollback()

	request := &models.ConsentAmendRequest{Receipt: models.JSON(`{}`)}
	_, err := svc.AmendConsent(context.Background(), "CONSENT-0001", "org-001", request)
	assert.True(t, serviceerror.IsConflict(err))
	assert.Empty(t, notifier.captured())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAmendConsentNothingToChange(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AmendConsent(context.Background(), "CONSENT-0001", "org-001", &models.ConsentAmendRequest{})
	assert.True(t, serviceerror.IsValidation(err))
}

func TestRevokeConsent(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectConsentForUpdate())).
		WillReturnRows(consentRow("CONSENT-0001", "authorized"))
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectDetailedConsent())).
		WillReturnRows(detailedRow("CONSENT-0001", "authorized"))
	mock.ExpectExec(regexp.QuoteMeta(q().InsertAmendmentHistory())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(q().UpdateConsentStatusIfCurrent())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(q().DeactivateMappingsForConsent())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectPostCommitReload(mock, "CONSENT-0001", "revoked")

	detailed, err := svc.RevokeConsent(context.Background(), "CONSENT-0001", "org-001", nil)
	require.NoError(t, err)
	assert.Equal(t, "revoked", detailed.CurrentStatus)

	events := notifier.captured()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeConsentRevoked, events[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeConsentAlreadyRevoked(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectConsentForUpdate())).
		WillReturnRows(consentRow("CONSENT-0001", "revoked"))
	mock.ExpectRollback()

	_, err := svc.RevokeConsent(context.Background(), "CONSENT-0001", "org-001", nil)
	assert.True(t, serviceerror.IsConflict(err))
	assert.Empty(t, notifier.captured())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeConsentKeepMappings(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectConsentForUpdate())).
		WillReturnRows(consentRow("CONSENT-0001", "authorized"))
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectDetailedConsent())).
		WillReturnRows(detailedRow("CONSENT-0001", "authorized"))
	mock.ExpectExec(regexp.QuoteMeta(q().InsertAmendmentHistory())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(q().UpdateConsentStatusIfCurrent())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// No mapping deactivation expected.
	mock.ExpectCommit()
	expectPostCommitReload(mock, "CONSENT-0001", "revoked")

	keep := false
	_, err := svc.RevokeConsent(context.Background(), "CONSENT-0001", "org-001", &models.ConsentRevokeRequest{
		DeactivateMappings: &keep,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeConsentRollsBackOnHistoryFailure(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectConsentForUpdate())).
		WillReturnRows(consentRow("CONSENT-0001", "authorized"))
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectDetailedConsent())).
		WillReturnRows(detailedRow("CONSENT-0001", "authorized"))
	mock.ExpectExec(regexp.QuoteMeta(q().InsertAmendmentHistory())).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := svc.RevokeConsent(context.Background(), "CONSENT-0001", "org-001", nil)
	assert.True(t, serviceerror.IsPersistence(err))
	assert.Empty(t, notifier.captured())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireConsent(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectConsentForUpdate())).
		WillReturnRows(consentRowExpiring("CONSENT-0001", "amended", 1700000000000))
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectDetailedConsent())).
		WillReturnRows(detailedRow("CONSENT-0001", "amended"))
	mock.ExpectExec(regexp.QuoteMeta(q().InsertAmendmentHistory())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(q().UpdateConsentStatusIfCurrent())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(q().DeactivateMappingsForConsent())).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectPostCommitReload(mock, "CONSENT-0001", "expired")

	detailed, err := svc.ExpireConsent(context.Background(), "CONSENT-0001", "org-001")
	require.NoError(t, err)
	assert.Equal(t, "expired", detailed.CurrentStatus)

	events := notifier.captured()
	require.Len(t, events, 1)
	assert.Equal(t, event.TypeConsentExpired, events[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireConsentBeforeExpiryTime(t *testing.T) {
	svc, mock, notifier := newTestService(t)

	futureExpiry := utils.GetCurrentTimeMillis() + 3_600_000

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectConsentForUpdate())).
		WillReturnRows(consentRowExpiring("CONSENT-0001", "authorized", futureExpiry))
	mock.ExpectRollback()

	_, err := svc.ExpireConsent(context.Background(), "CONSENT-0001", "org-001")
	assert.True(t, serviceerror.IsConflict(err))
	assert.Empty(t, notifier.captured())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireConsentNoExpiryTime(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectConsentForUpdate())).
		WillReturnRows(consentRow("CONSENT-0001", "authorized"))
	mock.ExpectRollback()

	_, err := svc.ExpireConsent(context.Background(), "CONSENT-0001", "org-001")
	assert.True(t, serviceerror.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireConsentFromReceived(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(q().SelectConsentForUpdate())).
		WillReturnRows(consentRow("CONSENT-0001", "received"))
	mock.ExpectRollback()

	_, err := svc.ExpireConsent(context.Background(), "CONSENT-0001", "org-001")
	assert.True(t, serviceerror.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
