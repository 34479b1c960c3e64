package certificatehandler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"spice-portal-backend/db"
	approvalrequesthandler "spice-portal-backend/lib/approval-request"
	approvalbuilder "spice-portal-backend/lib/approval-request/builder"
	certificatestore "spice-portal-backend/lib/certificate/store"
	lookupprovider "spice-portal-backend/lib/dicts/lookup"
	filestorage "spice-portal-backend/lib/file-storage"
	notificationstore "spice-portal-backend/lib/notification/store"
	profilestore "spice-portal-backend/lib/profile/store"
	resourcegateway "spice-portal-backend/lib/resource-gateway"
	initchecker "spice-portal-backend/lib/utils/init-checker"
	"spice-portal-backend/lib/utils/lock"
	"spice-portal-backend/models"
	approvalapimodels "spice-portal-backend/models/api/approval"
	certificateapimodels "spice-portal-backend/models/api/certificate"
	dbmodels "spice-portal-backend/models/db"
)

type Provider interface {
	// SubmitIssuance creates a certificateIssuance approval request, non admins may only name their own profile
	SubmitIssuance(ctx context.Context, userID string, isAdmin bool, data certificateapimodels.IssuanceData) (requestID string, err error)
	// CheckRecipientsOwner fails with models.ErrForbidden when a recipient profile belongs to another user
	CheckRecipientsOwner(userID string, recipientIDs []string) error
	Get(id string) (certificateapimodels.CertificateView, error)
	ListByProfile(profileID string) ([]certificateapimodels.CertificateView, error)
	Download(ctx context.Context, userID string, isAdmin bool, id string) (fileName string, body []byte, err error)
}

var Instance Provider

type lookupResolver interface {
	Name(dict models.LookupDict, id int) (name string, ok bool)
	Exists(dict models.LookupDict, ids ...int) error
}

type approvalCreator interface {
	Create(ctx context.Context, userID string, data approvalapimodels.CreateData) (id string, err error)
}

type renderSlots interface {
	Acquire(ctx context.Context) bool
	Release()
}

// Actions the certificate endpoints this process serves to the local resource gateway
func Actions() map[string]resourcegateway.Action {
	return map[string]resourcegateway.Action{
		models.CertificateIssuancePath: issueAction{handler: newImpl(lookupprovider.Instance, nil)},
	}
}

func NewHandler() {
	instance := newImpl(lookupprovider.Instance, approvalrequesthandler.Instance)
	initchecker.CheckInit(
		"storage", instance.storage,
		"lookups", instance.lookups,
		"approvals", instance.approvals,
	)
	Instance = instance
}

func newImpl(lookups lookupResolver, approvals approvalCreator) impl {
	return impl{
		certStore:     func(tx *gorm.DB) certificatestore.Provider { return certificatestore.NewInstance(dbOrTx(tx)) },
		profileStore:  func(tx *gorm.DB) profilestore.Provider { return profilestore.NewInstance(dbOrTx(tx)) },
		notifications: func(tx *gorm.DB) notificationstore.Provider { return notificationstore.NewInstance(dbOrTx(tx)) },
		storage:       filestorage.Instance,
		lookups:       lookups,
		approvals:     approvals,
		slots:         lock.Resource,
		now:           time.Now,
	}
}

func dbOrTx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db.DB
}

type impl struct {
	certStore     func(tx *gorm.DB) certificatestore.Provider
	profileStore  func(tx *gorm.DB) profilestore.Provider
	notifications func(tx *gorm.DB) notificationstore.Provider
	storage       filestorage.Provider
	lookups       lookupResolver
	approvals     approvalCreator
	slots         renderSlots
	now           func() time.Time
}

func (i impl) SubmitIssuance(ctx context.Context, userID string, isAdmin bool, data certificateapimodels.IssuanceData) (requestID string, err error) {
	certificateName, err := i.certificateName(data.CertificateType)
	if err != nil {
		return "", err
	}
	if isAdmin {
		_, err = i.recipients(nil, data.RecipientIDs)
	} else {
		err = i.CheckRecipientsOwner(userID, data.RecipientIDs)
	}
	if err != nil {
		return "", err
	}
	payload := map[string]any{
		approvalbuilder.CertificateTypeKey: data.CertificateType,
		approvalbuilder.RecipientIDsKey:    data.RecipientIDs,
	}
	label := fmt.Sprintf("%s issuance", certificateName)
	rec, err := approvalbuilder.Build(models.ApprovalTypeCertificateIssuance, models.CertificateIssuancePath, label, payload)
	if err != nil {
		return "", err
	}
	requestID, err = i.approvals.Create(ctx, userID, approvalapimodels.CreateData{
		Type:         rec.Type,
		RequestName:  rec.RequestName,
		RequestData:  rec.RequestData,
		RequestedURL: rec.RequestedURL,
	})
	if err != nil {
		return "", err
	}
	log.
		WithField("user_id", userID).
		WithField("approval_request_id", requestID).
		WithField("recipients", len(data.RecipientIDs)).
		Info("certificate issuance submitted for approval")
	return requestID, nil
}

func (i impl) CheckRecipientsOwner(userID string, recipientIDs []string) error {
	profiles, err := i.recipients(nil, recipientIDs)
	if err != nil {
		return err
	}
	for _, profile := range profiles {
		if profile.UserID != userID {
			return errors.Wrap(models.ErrForbidden, "certificates can only be requested for your own profile")
		}
	}
	return nil
}

func (i impl) certificateName(certificateType int) (string, error) {
	name, ok := i.lookups.Name(models.LookupCertificates, certificateType)
	if !ok {
		return "", models.NewValidationError("unknown certificate type %d", certificateType)
	}
	return name, nil
}

// recipients loads the role profiles, every id must exist
func (i impl) recipients(tx *gorm.DB, ids []string) ([]dbmodels.RoleProfile, error) {
	list, err := i.profileStore(tx).GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(list))
	for _, rec := range list {
		found[rec.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, models.NewValidationError("unknown recipient %s", id)
		}
	}
	return list, nil
}

func (i impl) Get(id string) (certificateapimodels.CertificateView, error) {
	rec, err := i.get(id)
	if err != nil {
		return certificateapimodels.CertificateView{}, err
	}
	return certificateapimodels.Convert(*rec), nil
}

func (i impl) get(id string) (*dbmodels.Certificate, error) {
	rec, err := i.certStore(nil).GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.Wrapf(models.ErrNotFound, "certificate %s", id)
	}
	return rec, nil
}

func (i impl) ListByProfile(profileID string) ([]certificateapimodels.CertificateView, error) {
	list, err := i.certStore(nil).ListByProfile(profileID)
	if err != nil {
		return nil, err
	}
	result := make([]certificateapimodels.CertificateView, 0, len(list))
	for _, rec := range list {
		result = append(result, certificateapimodels.Convert(rec))
	}
	return result, nil
}

func (i impl) Download(ctx context.Context, userID string, isAdmin bool, id string) (fileName string, body []byte, err error) {
	rec, err := i.get(id)
	if err != nil {
		return "", nil, err
	}
	if !isAdmin {
		profile, err := i.profileStore(nil).GetByID(rec.ProfileID)
		if err != nil {
			return "", nil, err
		}
		if profile == nil || profile.UserID != userID {
			return "", nil, errors.Wrap(models.ErrForbidden, "certificate belongs to another user")
		}
	}
	body, err = i.storage.GetFile(ctx, rec.FileKey)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s.pdf", rec.Number), body, nil
}

func (i impl) newNumber(issuedAt time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return fmt.Sprintf("SPC-%s-%s", issuedAt.Format("2006"), suffix)
}

func fileKey(number string) string {
	return fmt.Sprintf("certificates/%s.pdf", number)
}
