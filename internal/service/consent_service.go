package service

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/wso2/financial-services-accelerator-sub020/internal/config"
	"github.com/wso2/financial-services-accelerator-sub020/internal/dao"
	"github.com/wso2/financial-services-accelerator-sub020/internal/database"
	"github.com/wso2/financial-services-accelerator-sub020/internal/event"
	"github.com/wso2/financial-services-accelerator-sub020/internal/models"
	"github.com/wso2/financial-services-accelerator-sub020/internal/serviceerror"
	"github.com/wso2/financial-services-accelerator-sub020/pkg/utils"
)

// ConsentService implements the consent lifecycle over the DAO layer. Every
// state change runs inside a single transaction together with its history
// row; lifecycle events are published only after the transaction commits.
type ConsentService struct {
	consentDAO      *dao.ConsentDAO
	authDAO         *dao.AuthResourceDAO
	mappingDAO      *dao.MappingDAO
	attributeDAO    *dao.ConsentAttributeDAO
	historyDAO      *dao.HistoryDAO
	db              *database.DB
	sm              *StateMachine
	statuses        config.ConsentStatusMappings
	defaultValidity int64
	notifier        event.Notifier
	logger          *logrus.Logger
}

// NewConsentService creates a new consent service instance
func NewConsentService(
	daos *dao.DAOSet,
	db *database.DB,
	consentCfg *config.ConsentConfig,
	notifier event.Notifier,
	logger *logrus.Logger,
) *ConsentService {
	return &ConsentService{
		consentDAO:      daos.Consent,
		authDAO:         daos.AuthResource,
		mappingDAO:      daos.Mapping,
		attributeDAO:    daos.Attribute,
		historyDAO:      daos.History,
		db:              db,
		sm:              NewStateMachine(consentCfg.StatusMappings),
		statuses:        consentCfg.StatusMappings,
		defaultValidity: consentCfg.DefaultValidityPeriod,
		notifier:        notifier,
		logger:          logger,
	}
}

// CreateConsent creates a new consent together with its attributes and
// authorization resources. No history row is written: creation is not an
// amendment.
func (s *ConsentService) CreateConsent(ctx context.Context, request *models.ConsentCreateRequest, clientID, orgID string) (*models.DetailedConsent, error) {
	if err := s.validateCreateRequest(request, clientID, orgID); err != nil {
		return nil, err
	}

	consent := s.buildConsent(request, clientID, orgID)

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, serviceerror.Persistence("service.CreateConsent", err)
	}
	defer tx.Rollback()

	detailed, err := s.createConsentInTx(ctx, tx, consent, request)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, serviceerror.Persistence("service.CreateConsent", err)
	}

	s.logger.WithFields(logrus.Fields{
		"consent_id": consent.ConsentID,
		"client_id":  clientID,
		"org_id":     orgID,
		"status":     consent.CurrentStatus,
	}).Info("Consent created")

	return detailed, nil
}

// CreateExclusiveConsent creates a consent after superseding every existing
// consent of the same client and user that holds the applicable status. The
// supersede and the create happen in one transaction: either the new consent
// exists and the old ones are retired, or nothing changed.
func (s *ConsentService) CreateExclusiveConsent(ctx context.Context, request *models.ExclusiveConsentCreateRequest, clientID, orgID string) (*models.DetailedConsent, error) {
	if err := s.validateCreateRequest(&request.ConsentCreateRequest, clientID, orgID); err != nil {
		return nil, err
	}
	if request.UserID == "" {
		return nil, serviceerror.Validation("user ID is required for exclusive consent creation")
	}
	if request.ApplicableStatus == "" || request.SupersededStatus == "" {
		return nil, serviceerror.Validation("applicable status and superseded status are required")
	}

	consent := s.buildConsent(&request.ConsentCreateRequest, clientID, orgID)

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, serviceerror.Persistence("service.CreateExclusiveConsent", err)
	}
	defer tx.Rollback()

	// Phase one: lock and retire the consents being replaced.
	supersededIDs, err := s.supersedeInTx(ctx, tx, clientID, request.UserID, request.ApplicableStatus, request.SupersededStatus, orgID)
	if err != nil {
		return nil, err
	}

	// Phase two: create the replacement. The new consent always carries an
	// authorization resource for the acting user.
	createReq := request.ConsentCreateRequest
	if !hasAuthForUser(createReq.AuthResources, request.UserID) {
		userID := request.UserID
		createReq.AuthResources = append(createReq.AuthResources, models.AuthResourceCreateReq{
			AuthType: models.AuthTypeAuthorization,
			UserID:   &userID,
		})
	}

	detailed, err := s.createConsentInTx(ctx, tx, consent, &createReq)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, serviceerror.Persistence("service.CreateExclusiveConsent", err)
	}

	now := utils.GetCurrentTimeMillis()
	for _, id := range supersededIDs {
		s.notifier.ConsentEvent(ctx, event.Event{
			ConsentID: id,
			OrgID:     orgID,
			EventType: event.TypeConsentSuperseded,
			Timestamp: now,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"consent_id":       consent.ConsentID,
		"client_id":        clientID,
		"org_id":           orgID,
		"superseded_count": len(supersededIDs),
	}).Info("Exclusive consent created")

	return detailed, nil
}

func hasAuthForUser(auths []models.AuthResourceCreateReq, userID string) bool {
	for _, a := range auths {
		if a.UserID != nil && *a.UserID == userID {
			return true
		}
	}
	return false
}

// supersedeInTx locks the applicable consents of the client/user pair, moves
// each to the superseded status with a compare-and-set, records a history
// row per retired consent and deactivates its mappings. A consent whose
// status changed between the lock and the update is skipped: it no longer
// holds the applicable status.
func (s *ConsentService) supersedeInTx(ctx context.Context, tx *database.Transaction, clientID, userID, applicableStatus, supersededStatus, orgID string) ([]string, error) {
	ids, err := s.consentDAO.FindIDsForSupersedeWithTx(ctx, tx, clientID, userID, applicableStatus, orgID)
	if err != nil {
		return nil, err
	}

	now := utils.GetCurrentTimeMillis()
	var superseded []string

	for _, id := range ids {
		snapshot, err := s.consentDAO.GetDetailedWithTx(ctx, tx, id, orgID)
		if err != nil {
			return nil, err
		}

		rows, err := s.consentDAO.UpdateStatusIfCurrentWithTx(ctx, tx, id, orgID, supersededStatus, applicableStatus, now)
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			s.logger.WithField("consent_id", id).Debug("Consent no longer holds applicable status, skipping supersede")
			continue
		}

		if err := s.writeHistoryInTx(ctx, tx, snapshot, "consent superseded by exclusive creation", now); err != nil {
			return nil, err
		}
		if err := s.mappingDAO.DeactivateForConsentWithTx(ctx, tx, id, orgID); err != nil {
			return nil, err
		}
		superseded = append(superseded, id)
	}

	return superseded, nil
}

// createConsentInTx inserts the consent row, its attributes and its
// authorization resources, and returns the composed detailed view.
func (s *ConsentService) createConsentInTx(ctx context.Context, tx *database.Transaction, consent *models.Consent, request *models.ConsentCreateRequest) (*models.DetailedConsent, error) {
	if err := s.consentDAO.CreateWithTx(ctx, tx, consent); err != nil {
		return nil, err
	}

	for key, value := range request.Attributes {
		attr := &models.ConsentAttribute{
			ConsentID: consent.ConsentID,
			AttKey:    key,
			AttValue:  value,
			OrgID:     consent.OrgID,
		}
		if err := s.attributeDAO.CreateWithTx(ctx, tx, attr); err != nil {
			return nil, err
		}
	}

	detailed := &models.DetailedConsent{
		Consent:       *consent,
		Attributes:    request.Attributes,
		AuthResources: []models.AuthResource{},
		Mappings:      []models.ConsentMapping{},
	}

	for _, authReq := range request.AuthResources {
		authStatus := authReq.AuthStatus
		if authStatus == "" {
			authStatus = AuthStatusCreated
		}
		auth := &models.AuthResource{
			AuthID:      utils.GenerateAuthID(),
			ConsentID:   consent.ConsentID,
			AuthType:    authReq.AuthType,
			UserID:      authReq.UserID,
			AuthStatus:  authStatus,
			UpdatedTime: consent.CreatedTime,
			OrgID:       consent.OrgID,
		}
		if err := s.authDAO.CreateWithTx(ctx, tx, auth); err != nil {
			return nil, err
		}
		detailed.AuthResources = append(detailed.AuthResources, *auth)
	}

	return detailed, nil
}

// buildConsent assembles the consent row from the create request, applying
// the configured defaults.
func (s *ConsentService) buildConsent(request *models.ConsentCreateRequest, clientID, orgID string) *models.Consent {
	now := utils.GetCurrentTimeMillis()

	status := request.CurrentStatus
	if status == "" {
		status = s.statuses.ReceivedStatus
	}

	validity := request.ValidityPeriod
	if validity == 0 {
		validity = s.defaultValidity
	}

	expiry := request.ExpiryTime
	if expiry == 0 && validity > 0 {
		expiry = now + validity*1000
	}

	return &models.Consent{
		ConsentID:      utils.GenerateConsentID(),
		Receipt:        request.Receipt,
		CreatedTime:    now,
		UpdatedTime:    now,
		ClientID:       clientID,
		ConsentType:    request.ConsentType,
		CurrentStatus:  status,
		ValidityPeriod: validity,
		ExpiryTime:     expiry,
		OrgID:          orgID,
	}
}

func (s *ConsentService) validateCreateRequest(request *models.ConsentCreateRequest, clientID, orgID string) error {
	if request == nil {
		return serviceerror.Validation("request body is required")
	}
	if err := utils.ValidateClientID(clientID); err != nil {
		return serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateOrgID(orgID); err != nil {
		return serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateConsentType(request.ConsentType); err != nil {
		return serviceerror.Validation(err.Error())
	}
	if len(request.Receipt) == 0 {
		return serviceerror.Validation("receipt is required")
	}
	if request.ValidityPeriod < 0 {
		return serviceerror.Validation("validity period must be non-negative")
	}
	// Reject an already-expired consent before touching the database.
	if request.ExpiryTime != 0 && request.ExpiryTime <= utils.GetCurrentTimeMillis() {
		return serviceerror.Validation("expiry time must be in the future")
	}
	for _, authReq := range request.AuthResources {
		if authReq.AuthType == "" {
			return serviceerror.Validation("authorization type is required")
		}
	}
	return nil
}

// GetDetailedConsent retrieves a consent with its authorization resources,
// account mappings and attributes.
func (s *ConsentService) GetDetailedConsent(ctx context.Context, consentID, orgID string) (*models.DetailedConsent, error) {
	if err := utils.ValidateConsentID(consentID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}

	detailed, err := s.consentDAO.GetDetailed(ctx, consentID, orgID)
	if err != nil {
		return nil, err
	}

	attributes, err := s.attributeDAO.GetAll(ctx, consentID, orgID)
	if err != nil {
		return nil, err
	}
	detailed.Attributes = attributes

	return detailed, nil
}

// SearchConsents returns a page of detailed consents matching the filters,
// plus the total match count.
func (s *ConsentService) SearchConsents(ctx context.Context, params *models.ConsentSearchParams) (*models.ConsentSearchResponse, error) {
	if params == nil {
		return nil, serviceerror.Validation("search parameters are required")
	}
	if err := utils.ValidateOrgID(params.OrgID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if params.FromTime != nil && params.ToTime != nil && *params.FromTime > *params.ToTime {
		return nil, serviceerror.Validation("fromTime must not be after toTime")
	}

	params.Limit = utils.ValidateLimit(params.Limit)
	params.Offset = utils.ValidateOffset(params.Offset)

	consents, total, err := s.consentDAO.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	data := make([]models.DetailedConsent, 0, len(consents))
	for _, consent := range consents {
		detailed, err := s.consentDAO.GetDetailed(ctx, consent.ConsentID, consent.OrgID)
		if err != nil {
			return nil, err
		}
		attributes, err := s.attributeDAO.GetAll(ctx, consent.ConsentID, consent.OrgID)
		if err != nil {
			return nil, err
		}
		detailed.Attributes = attributes
		data = append(data, *detailed)
	}

	return &models.ConsentSearchResponse{
		Data: data,
		Metadata: models.ConsentSearchMetadata{
			Total:  total,
			Limit:  params.Limit,
			Offset: params.Offset,
		},
	}, nil
}

// StoreAmendmentHistory records an externally supplied amendment snapshot,
// e.g. from an out-of-band revocation event.
func (s *ConsentService) StoreAmendmentHistory(ctx context.Context, consentID, orgID string, request *models.AmendmentHistoryRequest) (*models.AmendmentHistory, error) {
	if err := utils.ValidateConsentID(consentID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if request == nil || request.Reason == "" {
		return nil, serviceerror.Validation("amendment reason is required")
	}
	if len(request.Snapshot) == 0 {
		return nil, serviceerror.Validation("previous state snapshot is required")
	}

	exists, err := s.consentDAO.Exists(ctx, consentID, orgID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, serviceerror.NotFound("consent", consentID)
	}

	amendedTime := request.AmendedTime
	if amendedTime == 0 {
		amendedTime = utils.GetCurrentTimeMillis()
	}

	history := &models.AmendmentHistory{
		HistoryID:   utils.GenerateHistoryID(),
		ConsentID:   consentID,
		AmendedTime: amendedTime,
		Reason:      request.Reason,
		Snapshot:    request.Snapshot,
		OrgID:       orgID,
	}

	err = s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		return s.historyDAO.CreateWithTx(ctx, tx, history)
	})
	if err != nil {
		return nil, err
	}

	return history, nil
}

// GetAmendmentHistory retrieves the amendment history of a consent, oldest
// entry first. History rows outlive the consent, so no existence check is
// made against the consent table.
func (s *ConsentService) GetAmendmentHistory(ctx context.Context, consentID, orgID string) ([]models.AmendmentHistory, error) {
	if err := utils.ValidateConsentID(consentID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	return s.historyDAO.GetByConsentID(ctx, consentID, orgID)
}

// PutConsentAttributes inserts or replaces attributes of an existing consent.
func (s *ConsentService) PutConsentAttributes(ctx context.Context, consentID, orgID string, attributes map[string]string) error {
	if err := utils.ValidateConsentID(consentID); err != nil {
		return serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateOrgID(orgID); err != nil {
		return serviceerror.Validation(err.Error())
	}
	if len(attributes) == 0 {
		return serviceerror.Validation("at least one attribute is required")
	}
	for key := range attributes {
		if key == "" {
			return serviceerror.Validation("attribute key cannot be empty")
		}
	}

	exists, err := s.consentDAO.Exists(ctx, consentID, orgID)
	if err != nil {
		return err
	}
	if !exists {
		return serviceerror.NotFound("consent", consentID)
	}

	return s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		for key, value := range attributes {
			attr := &models.ConsentAttribute{
				ConsentID: consentID,
				AttKey:    key,
				AttValue:  value,
				OrgID:     orgID,
			}
			if err := s.attributeDAO.UpsertWithTx(ctx, tx, attr); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetConsentAttributes retrieves all attributes of a consent.
func (s *ConsentService) GetConsentAttributes(ctx context.Context, consentID, orgID string) (map[string]string, error) {
	if err := utils.ValidateConsentID(consentID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateOrgID(orgID); err != nil {
		return nil, serviceerror.Validation(err.Error())
	}

	exists, err := s.consentDAO.Exists(ctx, consentID, orgID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, serviceerror.NotFound("consent", consentID)
	}

	return s.attributeDAO.GetAll(ctx, consentID, orgID)
}

// DeleteConsentAttribute removes a single attribute of a consent.
func (s *ConsentService) DeleteConsentAttribute(ctx context.Context, consentID, orgID, key string) error {
	if err := utils.ValidateConsentID(consentID); err != nil {
		return serviceerror.Validation(err.Error())
	}
	if err := utils.ValidateOrgID(orgID); err != nil {
		return serviceerror.Validation(err.Error())
	}
	if key == "" {
		return serviceerror.Validation("attribute key cannot be empty")
	}
	return s.attributeDAO.DeleteByKey(ctx, consentID, orgID, key)
}

// writeHistoryInTx serializes the pre-change state of a consent and appends
// it to the amendment history inside the caller's transaction.
func (s *ConsentService) writeHistoryInTx(ctx context.Context, tx *database.Transaction, snapshot *models.DetailedConsent, reason string, amendedTime int64) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return serviceerror.Persistence("service.WriteHistory", err)
	}

	history := &models.AmendmentHistory{
		HistoryID:   utils.GenerateHistoryID(),
		ConsentID:   snapshot.ConsentID,
		AmendedTime: amendedTime,
		Reason:      reason,
		Snapshot:    models.JSON(snapshotJSON),
		OrgID:       snapshot.OrgID,
	}

	return s.historyDAO.CreateWithTx(ctx, tx, history)
}
