package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/wso2/financial-services-accelerator-sub020/internal/database"
	"github.com/wso2/financial-services-accelerator-sub020/internal/event"
	"github.com/wso2/financial-services-accelerator-sub020/internal/models"
	"github.com/wso2/financial-services-accelerator-sub020/internal/serviceerror"
	"github.com/wso2/financial-services-accelerator-sub020/pkg/utils"
)

// AuthorizeConsent moves an authorization resource out of the created state
// and the owning consent to its next status, in one transaction. The consent
// update is a compare-and-set: losing a concurrent race surfaces as a
// conflict, never as a silent overwrite.
func (s *ConsentService) AuthorizeConsent(ctx context.Context, consentID string, request *models.ConsentAuthorizeRequest, orgID string) (*models.DetailedConsent, error) {
	if request == nil {
		return nil, serviceerror.Validation("request body is required")
	}
	if err := utils.ValidateConsentID(consentID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateAuthID(request.AuthID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if request.NewAuthStatus != AuthStatusAuthorized && request.NewAuthStatus != AuthStatusRejected {
		return nil, serviceerror.Validationf("authorization status must be %q or %q", AuthStatusAuthorized, AuthStatusRejected)
	}
	if request.NewConsentStatus == "" {
		return nil, serviceerror.Validation("consent status is required")
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, serviceerror.Persistence("service.AuthorizeConsent", err)
	}
	defer tx.Rollback()

	auth, err := s.authDAO.GetByIDWithTx(ctx, tx, request.AuthID, orgID)
	if err != nil {
		return nil, err
	}
	if auth.ConsentID != consentID {
		return nil, serviceerror.Conflict("authorization", auth.AuthID,
			"authorization does not belong to consent "+consentID)
	}

	if !s.sm.CanAuthTransition(auth.AuthStatus, request.NewAuthStatus) {
		return nil, serviceerror.Conflict("authorization", auth.AuthID,
			"authorization cannot move from "+auth.AuthStatus+" to "+request.NewAuthStatus)
	}

	consent, err := s.consentDAO.GetByIDForUpdateWithTx(ctx, tx, consentID, orgID)
	if err != nil {
		return nil, err
	}

	if !s.sm.CanTransition(consent.CurrentStatus, request.NewConsentStatus) {
		return nil, serviceerror.Conflict("consent", consentID,
			"consent cannot move from "+consent.CurrentStatus+" to "+request.NewConsentStatus)
	}

	snapshot, err := s.consentDAO.GetDetailedWithTx(ctx, tx, consentID, orgID)
	if err != nil {
		return nil, err
	}

	now := utils.GetCurrentTimeMillis()

	rows, err := s.consentDAO.UpdateStatusIfCurrentWithTx(ctx, tx, consentID, orgID, request.NewConsentStatus, consent.CurrentStatus, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, serviceerror.Conflict("consent", consentID, "consent status changed concurrently")
	}

	if err := s.authDAO.UpdateStatusWithTx(ctx, tx, request.AuthID, orgID, request.NewAuthStatus, now); err != nil {
		return nil, err
	}

	if err := s.writeHistoryInTx(ctx, tx, snapshot, "consent authorization decision recorded", now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, serviceerror.Persistence("service.AuthorizeConsent", err)
	}

	if request.NewConsentStatus == s.statuses.AuthorizedStatus {
		s.notifier.ConsentEvent(ctx, event.Event{
			ConsentID: consentID,
			OrgID:     orgID,
			EventType: event.TypeConsentAuthorized,
			Timestamp: now,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"consent_id":  consentID,
		"auth_id":     request.AuthID,
		"auth_status": request.NewAuthStatus,
		"status":      request.NewConsentStatus,
	}).Info("Consent authorization processed")

	return s.GetDetailedConsent(ctx, consentID, orgID)
}

// BindUserAccounts attaches account/permission mappings to an authorization
// resource of the given consent. New mappings are created active; existing
// mappings are untouched.
func (s *ConsentService) BindUserAccounts(ctx context.Context, consentID string, request *models.BindAccountsRequest, orgID string) ([]models.ConsentMapping, error) {
	if request == nil {
		return nil, serviceerror.Validation("request body is required")
	}
	if err := utils.ValidateConsentID(consentID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateAuthID(request.AuthID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if len(request.Accounts) == 0 {
		return nil, serviceerror.Validation("at least one account is required")
	}
	for _, account := range request.Accounts {
		if account.AccountID == "" || account.Permission == "" {
			return nil, serviceerror.Validation("account ID and permission are required for every account")
		}
	}

	var created []models.ConsentMapping

	err := s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		auth, err := s.authDAO.GetByIDWithTx(ctx, tx, request.AuthID, orgID)
		if err != nil {
			return err
		}
		if auth.ConsentID != consentID {
			return serviceerror.Conflict("authorization", auth.AuthID,
				"authorization does not belong to consent "+consentID)
		}

		for _, account := range request.Accounts {
			mapping := &models.ConsentMapping{
				MappingID:     utils.GenerateMappingID(),
				AuthID:        auth.AuthID,
				AccountID:     account.AccountID,
				Permission:    account.Permission,
				MappingStatus: models.MappingStatusActive,
				OrgID:         orgID,
			}
			if err := s.mappingDAO.CreateWithTx(ctx, tx, mapping); err != nil {
				return err
			}
			created = append(created, *mapping)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"auth_id":       request.AuthID,
		"mapping_count": len(created),
	}).Info("User accounts bound to authorization")

	return created, nil
}

// AmendConsent updates the receipt, expiry time and account mappings of an
// active consent, moving it to the amended status. The pre-amendment state
// is snapshotted into the history table inside the same transaction.
func (s *ConsentService) AmendConsent(ctx context.Context, consentID, orgID string, request *models.ConsentAmendRequest) (*models.DetailedConsent, error) {
	if err := utils.ValidateConsentID(consentID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if request == nil {
		return nil, serviceerror.Validation("request body is required")
	}
	if len(request.Receipt) == 0 && request.ExpiryTime == 0 && len(request.Accounts) == 0 {
		return nil, serviceerror.Validation("amendment must change the receipt, expiry time or accounts")
	}
	if request.ExpiryTime != 0 && request.ExpiryTime <= utils.GetCurrentTimeMillis() {
		return nil, serviceerror.Validation("expiry time must be in the future")
	}
	if len(request.Accounts) > 0 && request.AuthID == "" {
		return nil, serviceerror.Validation("authorization ID is required when amending accounts")
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, serviceerror.Persistence("service.AmendConsent", err)
	}
	defer tx.Rollback()

	consent, err := s.consentDAO.GetByIDForUpdateWithTx(ctx, tx, consentID, orgID)
	if err != nil {
		return nil, err
	}

	if !s.sm.CanTransition(consent.CurrentStatus, s.statuses.AmendedStatus) {
		return nil, serviceerror.Conflict("consent", consentID,
			"consent in status "+consent.CurrentStatus+" cannot be amended")
	}

	snapshot, err := s.consentDAO.GetDetailedWithTx(ctx, tx, consentID, orgID)
	if err != nil {
		return nil, err
	}

	now := utils.GetCurrentTimeMillis()

	reason := request.Reason
	if reason == "" {
		reason = "consent amended"
	}
	if err := s.writeHistoryInTx(ctx, tx, snapshot, reason, now); err != nil {
		return nil, err
	}

	updated := *consent
	if len(request.Receipt) > 0 {
		updated.Receipt = request.Receipt
	}
	if request.ExpiryTime != 0 {
		updated.ExpiryTime = request.ExpiryTime
	}
	updated.CurrentStatus = s.statuses.AmendedStatus
	updated.UpdatedTime = now

	if err := s.consentDAO.UpdateWithTx(ctx, tx, &updated); err != nil {
		return nil, err
	}

	// Account amendment replaces the authorization's active mappings: the old
	// ones are deactivated and kept, the new ones inserted active.
	if len(request.Accounts) > 0 {
		if err := s.replaceMappingsInTx(ctx, tx, request.AuthID, orgID, request.Accounts); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, serviceerror.Persistence("service.AmendConsent", err)
	}

	s.notifier.ConsentEvent(ctx, event.Event{
		ConsentID: consentID,
		OrgID:     orgID,
		EventType: event.TypeConsentAmended,
		Timestamp: now,
	})

	s.logger.WithFields(logrus.Fields{
		"consent_id": consentID,
		"org_id":     orgID,
	}).Info("Consent amended")

	return s.GetDetailedConsent(ctx, consentID, orgID)
}

// replaceMappingsInTx deactivates the active mappings of the authorization
// and inserts the new set.
func (s *ConsentService) replaceMappingsInTx(ctx context.Context, tx *database.Transaction, authID, orgID string, accounts []models.AccountPermission) error {
	auth, err := s.authDAO.GetByIDWithTx(ctx, tx, authID, orgID)
	if err != nil {
		return err
	}

	existing, err := s.mappingDAO.GetByAuthIDWithTx(ctx, tx, auth.AuthID, orgID)
	if err != nil {
		return err
	}

	for _, mapping := range existing {
		if mapping.MappingStatus != models.MappingStatusActive {
			continue
		}
		if err := s.mappingDAO.UpdateStatusWithTx(ctx, tx, mapping.MappingID, orgID, models.MappingStatusInactive); err != nil {
			return err
		}
	}

	for _, account := range accounts {
		if account.AccountID == "" || account.Permission == "" {
			return serviceerror.Validation("account ID and permission are required for every account")
		}
		mapping := &models.ConsentMapping{
			MappingID:     utils.GenerateMappingID(),
			AuthID:        auth.AuthID,
			AccountID:     account.AccountID,
			Permission:    account.Permission,
			MappingStatus: models.MappingStatusActive,
			OrgID:         orgID,
		}
		if err := s.mappingDAO.CreateWithTx(ctx, tx, mapping); err != nil {
			return err
		}
	}

	return nil
}

// RevokeConsent moves a consent to the revoked status. Revoking a consent
// that is already revoked or otherwise terminal is a conflict, never a
// silent no-op: the caller learns that its view of the consent was stale.
func (s *ConsentService) RevokeConsent(ctx context.Context, consentID, orgID string, request *models.ConsentRevokeRequest) (*models.DetailedConsent, error) {
	if request == nil {
		request = &models.ConsentRevokeRequest{}
	}

	revokedStatus := request.RevokedStatus
	if revokedStatus == "" {
		revokedStatus = s.statuses.RevokedStatus
	}

	reason := request.Reason
	if reason == "" {
		reason = "consent revoked"
	}

	deactivateMappings := request.DeactivateMappings == nil || *request.DeactivateMappings

	detailed, err := s.terminateConsent(ctx, consentID, orgID, revokedStatus, reason, deactivateMappings, event.TypeConsentRevoked)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"consent_id": consentID,
		"org_id":     orgID,
	}).Info("Consent revoked")

	return detailed, nil
}

// ExpireConsent moves a consent to the expired status. Called by retrieval
// paths or schedulers once the expiry time has passed; a consent whose expiry
// time is still in the future (or unset) cannot be expired.
func (s *ConsentService) ExpireConsent(ctx context.Context, consentID, orgID string) (*models.DetailedConsent, error) {
	detailed, err := s.terminateConsent(ctx, consentID, orgID, s.statuses.ExpiredStatus, "consent expired", true, event.TypeConsentExpired)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"consent_id": consentID,
		"org_id":     orgID,
	}).Info("Consent expired")

	return detailed, nil
}

// terminateConsent is the shared revoke/expire path: lock, verify the
// transition, snapshot to history, compare-and-set the status, optionally
// deactivate mappings, then publish the event after commit. The expired
// status is time-driven, so moving there additionally requires the locked
// row's expiry time to have passed.
func (s *ConsentService) terminateConsent(ctx context.Context, consentID, orgID, targetStatus, reason string, deactivateMappings bool, eventType string) (*models.DetailedConsent, error) {
	if err := utils.ValidateConsentID(consentID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, serviceerror.Persistence("service.TerminateConsent", err)
	}
	defer tx.Rollback()

	consent, err := s.consentDAO.GetByIDForUpdateWithTx(ctx, tx, consentID, orgID)
	if err != nil {
		return nil, err
	}

	if !s.sm.CanTransition(consent.CurrentStatus, targetStatus) {
		return nil, serviceerror.Conflict("consent", consentID,
			"consent in status "+consent.CurrentStatus+" cannot move to "+targetStatus)
	}

	if targetStatus == s.statuses.ExpiredStatus && !utils.IsExpired(consent.ExpiryTime) {
		return nil, serviceerror.Conflict("consent", consentID,
			"consent expiry time has not passed")
	}

	snapshot, err := s.consentDAO.GetDetailedWithTx(ctx, tx, consentID, orgID)
	if err != nil {
		return nil, err
	}

	now := utils.GetCurrentTimeMillis()

	if err := s.writeHistoryInTx(ctx, tx, snapshot, reason, now); err != nil {
		return nil, err
	}

	rows, err := s.consentDAO.UpdateStatusIfCurrentWithTx(ctx, tx, consentID, orgID, targetStatus, consent.CurrentStatus, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, serviceerror.Conflict("consent", consentID, "consent status changed concurrently")
	}

	if deactivateMappings {
		if err := s.mappingDAO.DeactivateForConsentWithTx(ctx, tx, consentID, orgID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, serviceerror.Persistence("service.TerminateConsent", err)
	}

	s.notifier.ConsentEvent(ctx, event.Event{
		ConsentID: consentID,
		OrgID:     orgID,
		EventType: eventType,
		Timestamp: now,
	})

	return s.GetDetailedConsent(ctx, consentID, orgID)
}
