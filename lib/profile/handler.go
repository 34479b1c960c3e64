package profilehandler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"spice-portal-backend/db"
	approvalrequesthandler "spice-portal-backend/lib/approval-request"
	lookupprovider "spice-portal-backend/lib/dicts/lookup"
	fieldmapper "spice-portal-backend/lib/field-mapper"
	profilestore "spice-portal-backend/lib/profile/store"
	"spice-portal-backend/lib/reconciler"
	resourcegateway "spice-portal-backend/lib/resource-gateway"
	usersstore "spice-portal-backend/lib/users/store"
	initchecker "spice-portal-backend/lib/utils/init-checker"
	"spice-portal-backend/models"
	approvalapimodels "spice-portal-backend/models/api/approval"
	profileapimodels "spice-portal-backend/models/api/profile"
	dbmodels "spice-portal-backend/models/db"
)

type Provider interface {
	Get(kind models.ProfileKind, id string) (profileapimodels.ProfileView, error)
	GetByUser(userID string) (*profileapimodels.ProfileView, error)
	Create(ctx context.Context, userID string, kind models.ProfileKind, data profileapimodels.FormData) (id string, err error)
	// SubmitEdit applies edits of starting profiles directly, existing profiles get an approval request
	SubmitEdit(ctx context.Context, userID string, isAdmin bool, kind models.ProfileKind, id string, data profileapimodels.EditData) (profileapimodels.EditResult, error)
	SubmitDelete(ctx context.Context, userID string, isAdmin bool, kind models.ProfileKind, id string) (profileapimodels.EditResult, error)
	MarkExisting(kind models.ProfileKind, id string) error
	GetBasicInfo(userID string) (profileapimodels.BasicInfoView, error)
	SubmitBasicInfoEdit(ctx context.Context, callerID string, isAdmin bool, userID string, data profileapimodels.EditData) (profileapimodels.EditResult, error)
	SubmitBasicInfoDelete(ctx context.Context, callerID string, isAdmin bool, userID string) (profileapimodels.EditResult, error)
	// CheckTargetOwner fails with models.ErrForbidden unless the record at target belongs to userID
	CheckTargetOwner(userID, target string) error
}

var Instance Provider

type lookupChecker interface {
	Exists(dict models.LookupDict, ids ...int) error
}

type approvalCreator interface {
	Create(ctx context.Context, userID string, data approvalapimodels.CreateData) (id string, err error)
}

// Resources the records this process serves to the local resource gateway
func Resources() map[string]resourcegateway.Resource {
	return newImpl(lookupprovider.Instance, nil).resources()
}

func NewHandler() {
	instance := newImpl(lookupprovider.Instance, approvalrequesthandler.Instance)
	initchecker.CheckInit(
		"lookups", instance.lookups,
		"approvals", instance.approvals,
	)
	Instance = instance
}

func newImpl(lookups lookupChecker, approvals approvalCreator) impl {
	reconcilers := map[models.ProfileKind]reconciler.Reconciler[dbmodels.RoleProfile]{}
	for _, kind := range models.ProfileKinds {
		table, _ := fieldmapper.TableFor(string(kind))
		reconcilers[kind] = reconciler.New(table, kind.ToHuman(), Snapshot)
	}
	return impl{
		profileStore: func(tx *gorm.DB) profilestore.Provider { return profilestore.NewInstance(dbOrTx(tx)) },
		usersStore:   func(tx *gorm.DB) usersstore.Provider { return usersstore.NewInstance(dbOrTx(tx)) },
		lookups:      lookups,
		approvals:    approvals,
		inTx:         dbTransaction,
		reconcilers:  reconcilers,
		basicInfo:    reconciler.New(fieldmapper.BasicInfoTable, "Basic info", BasicInfoSnapshot),
	}
}

func dbTransaction(fn func(tx *gorm.DB) error) error {
	return db.DB.Transaction(fn)
}

func dbOrTx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db.DB
}

type impl struct {
	profileStore func(tx *gorm.DB) profilestore.Provider
	usersStore   func(tx *gorm.DB) usersstore.Provider
	lookups      lookupChecker
	approvals    approvalCreator
	inTx         func(fn func(tx *gorm.DB) error) error
	reconcilers  map[models.ProfileKind]reconciler.Reconciler[dbmodels.RoleProfile]
	basicInfo    reconciler.Reconciler[dbmodels.PortalUser]
}

func (i impl) resources() map[string]resourcegateway.Resource {
	result := map[string]resourcegateway.Resource{
		models.BasicInfoResource: basicInfoResource{handler: i},
	}
	for _, kind := range models.ProfileKinds {
		result[string(kind)] = profileResource{kind: kind, handler: i}
	}
	return result
}

func (i impl) getLogger(kind models.ProfileKind, id, userID string) *log.Entry {
	logger := log.
		WithField("profile_kind", kind).
		WithField("profile_id", id)
	if userID != "" {
		logger = logger.WithField("user_id", userID)
	}
	return logger
}

func (i impl) loadProfile(tx *gorm.DB, kind models.ProfileKind, id string) (*dbmodels.RoleProfile, error) {
	rec, err := i.profileStore(tx).GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Kind != kind {
		return nil, errors.Wrapf(models.ErrNotFound, "%s profile %s", kind, id)
	}
	return rec, nil
}

func (i impl) loadUser(tx *gorm.DB, id string) (*dbmodels.PortalUser, error) {
	rec, err := i.usersStore(tx).GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.Wrapf(models.ErrNotFound, "user %s", id)
	}
	return rec, nil
}

func (i impl) checkDependency(patch profileapimodels.ProfilePatch) error {
	if i.lookups == nil {
		return nil
	}
	checks := []struct {
		dict models.LookupDict
		id   *int
	}{
		{models.LookupProvince, patch.ProvinceID},
		{models.LookupNumberOfEmployees, patch.NumberOfEmployeeID},
		{models.LookupExperience, patch.BusinessExperienceID},
	}
	for _, check := range checks {
		if check.id == nil {
			continue
		}
		if err := i.lookups.Exists(check.dict, *check.id); err != nil {
			return err
		}
	}
	if err := i.lookups.Exists(models.LookupCertificates, patch.CertificateIDs...); err != nil {
		return err
	}
	productIDs := make([]int, 0, len(patch.Products))
	for _, line := range patch.Products {
		productIDs = append(productIDs, line.ProductID)
	}
	return i.lookups.Exists(models.LookupProducts, productIDs...)
}

func (i impl) checkOwner(rec dbmodels.RoleProfile, userID string, isAdmin bool) error {
	if isAdmin || rec.UserID == userID {
		return nil
	}
	return errors.Wrap(models.ErrForbidden, "profile belongs to another user")
}

func (i impl) CheckTargetOwner(userID, target string) error {
	parsed, err := resourcegateway.ParseTarget(target)
	if err != nil {
		return err
	}
	if parsed.Resource == models.BasicInfoResource {
		if parsed.ID != userID {
			return errors.Wrap(models.ErrForbidden, "basic info belongs to another user")
		}
		return nil
	}
	kind := models.ProfileKind(parsed.Resource)
	if !kind.IsValid() {
		return models.NewValidationError("unknown resource %q", parsed.Resource)
	}
	rec, err := i.loadProfile(nil, kind, parsed.ID)
	if err != nil {
		return err
	}
	return i.checkOwner(*rec, userID, false)
}

func (i impl) Get(kind models.ProfileKind, id string) (profileapimodels.ProfileView, error) {
	rec, err := i.loadProfile(nil, kind, id)
	if err != nil {
		return profileapimodels.ProfileView{}, err
	}
	return profileapimodels.ProfileConvert(*rec), nil
}

func (i impl) GetByUser(userID string) (*profileapimodels.ProfileView, error) {
	rec, err := i.profileStore(nil).GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	result := profileapimodels.ProfileConvert(*rec)
	return &result, nil
}

func (i impl) Create(ctx context.Context, userID string, kind models.ProfileKind, data profileapimodels.FormData) (id string, err error) {
	if !kind.IsValid() {
		return "", models.NewValidationError("unknown profile kind %q", kind)
	}
	logger := i.getLogger(kind, "", userID)
	existing, err := i.profileStore(nil).GetByUserID(userID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", models.NewValidationError("user already has a %s profile", existing.Kind.ToHuman())
	}
	table, _ := fieldmapper.TableFor(string(kind))
	patch, err := table.MapStrict(data.Form)
	if err != nil {
		return "", err
	}
	for key, value := range patch {
		if fieldmapper.IsBlank(value) {
			delete(patch, key)
		}
	}
	_, products, parsed, err := profileUpdates(patch)
	if err != nil {
		return "", err
	}
	if err = parsed.ValidateForCreate(); err != nil {
		return "", err
	}
	if err = i.checkDependency(parsed); err != nil {
		return "", err
	}
	rec := dbmodels.RoleProfile{
		UserID:               userID,
		Kind:                 kind,
		Status:               models.ProfileStatusStarting,
		BusinessName:         derefString(parsed.BusinessName),
		BusinessRegNo:        derefString(parsed.BusinessRegNo),
		Address:              derefString(parsed.Address),
		ProvinceID:           parsed.ProvinceID,
		NumberOfEmployeeID:   parsed.NumberOfEmployeeID,
		BusinessExperienceID: parsed.BusinessExperienceID,
		Description:          derefString(parsed.Description),
		Products:             products,
	}
	for _, certificateID := range parsed.CertificateIDs {
		rec.CertificateIDs = append(rec.CertificateIDs, int64(certificateID))
	}
	if parsed.RegistrationDate != nil {
		date, _ := time.Parse(time.RFC3339, *parsed.RegistrationDate)
		rec.RegistrationDate = &date
	}
	id, err = i.profileStore(nil).Create(rec)
	if err != nil {
		return "", err
	}
	logger.WithField("profile_id", id).Info("role profile created")
	return id, nil
}

func (i impl) SubmitEdit(ctx context.Context, userID string, isAdmin bool, kind models.ProfileKind, id string, data profileapimodels.EditData) (profileapimodels.EditResult, error) {
	rec, err := i.loadProfile(nil, kind, id)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	if err = i.checkOwner(*rec, userID, isAdmin); err != nil {
		return profileapimodels.EditResult{}, err
	}
	if _, ok := data.Current["kind"]; ok {
		return profileapimodels.EditResult{}, models.NewValidationError("profile kind can not be changed")
	}
	rc := i.reconcilers[kind]
	logger := i.getLogger(kind, id, userID)
	if !rec.RequiresApproval() {
		original := data.Original
		if original == nil {
			original = rc.Baseline(*rec)
		}
		patch, err := rc.Reconcile(original, data.Current)
		if err != nil {
			return profileapimodels.EditResult{}, err
		}
		resource := profileResource{kind: kind, handler: i}
		err = i.inTx(func(tx *gorm.DB) error {
			return resource.Patch(ctx, tx, id, patch)
		})
		if err != nil {
			return profileapimodels.EditResult{}, err
		}
		logger.Info("starting profile updated")
		return profileapimodels.EditResult{Applied: true}, nil
	}
	envelope, err := rc.Edit(id, *rec, data.Original, data.Current)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	requestID, err := i.approvals.Create(ctx, userID, envelope)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	logger.WithField("approval_request_id", requestID).Info("profile edit submitted for approval")
	return profileapimodels.EditResult{RequestID: requestID}, nil
}

func (i impl) SubmitDelete(ctx context.Context, userID string, isAdmin bool, kind models.ProfileKind, id string) (profileapimodels.EditResult, error) {
	rec, err := i.loadProfile(nil, kind, id)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	if err = i.checkOwner(*rec, userID, isAdmin); err != nil {
		return profileapimodels.EditResult{}, err
	}
	logger := i.getLogger(kind, id, userID)
	if !rec.RequiresApproval() {
		resource := profileResource{kind: kind, handler: i}
		err = i.inTx(func(tx *gorm.DB) error {
			return resource.Delete(ctx, tx, id)
		})
		if err != nil {
			return profileapimodels.EditResult{}, err
		}
		logger.Info("starting profile deleted")
		return profileapimodels.EditResult{Applied: true}, nil
	}
	envelope, err := i.reconcilers[kind].Delete(id)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	requestID, err := i.approvals.Create(ctx, userID, envelope)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	logger.WithField("approval_request_id", requestID).Info("profile delete submitted for approval")
	return profileapimodels.EditResult{RequestID: requestID}, nil
}

func (i impl) MarkExisting(kind models.ProfileKind, id string) error {
	rec, err := i.loadProfile(nil, kind, id)
	if err != nil {
		return err
	}
	if rec.Status == models.ProfileStatusExisting {
		return nil
	}
	err = i.profileStore(nil).Update(id, map[string]interface{}{"status": models.ProfileStatusExisting})
	if err != nil {
		return err
	}
	i.getLogger(kind, id, "").Info("profile marked as existing")
	return nil
}

func (i impl) GetBasicInfo(userID string) (profileapimodels.BasicInfoView, error) {
	rec, err := i.loadUser(nil, userID)
	if err != nil {
		return profileapimodels.BasicInfoView{}, err
	}
	return profileapimodels.BasicInfoConvert(*rec), nil
}

// basicInfoRequiresApproval basic info of users with an existing profile is reviewed
func (i impl) basicInfoRequiresApproval(userID string) (bool, error) {
	profile, err := i.profileStore(nil).GetByUserID(userID)
	if err != nil {
		return false, err
	}
	return profile != nil && profile.RequiresApproval(), nil
}

func (i impl) SubmitBasicInfoEdit(ctx context.Context, callerID string, isAdmin bool, userID string, data profileapimodels.EditData) (profileapimodels.EditResult, error) {
	if !isAdmin && callerID != userID {
		return profileapimodels.EditResult{}, errors.Wrap(models.ErrForbidden, "basic info belongs to another user")
	}
	rec, err := i.loadUser(nil, userID)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	needsApproval, err := i.basicInfoRequiresApproval(userID)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	logger := log.WithField("user_id", userID).WithField("caller_id", callerID)
	if !needsApproval {
		original := data.Original
		if original == nil {
			original = i.basicInfo.Baseline(*rec)
		}
		patch, err := i.basicInfo.Reconcile(original, data.Current)
		if err != nil {
			return profileapimodels.EditResult{}, err
		}
		resource := basicInfoResource{handler: i}
		err = i.inTx(func(tx *gorm.DB) error {
			return resource.Patch(ctx, tx, userID, patch)
		})
		if err != nil {
			return profileapimodels.EditResult{}, err
		}
		logger.Info("basic info updated")
		return profileapimodels.EditResult{Applied: true}, nil
	}
	envelope, err := i.basicInfo.Edit(userID, *rec, data.Original, data.Current)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	requestID, err := i.approvals.Create(ctx, callerID, envelope)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	logger.WithField("approval_request_id", requestID).Info("basic info edit submitted for approval")
	return profileapimodels.EditResult{RequestID: requestID}, nil
}

func (i impl) SubmitBasicInfoDelete(ctx context.Context, callerID string, isAdmin bool, userID string) (profileapimodels.EditResult, error) {
	if !isAdmin && callerID != userID {
		return profileapimodels.EditResult{}, errors.Wrap(models.ErrForbidden, "basic info belongs to another user")
	}
	if _, err := i.loadUser(nil, userID); err != nil {
		return profileapimodels.EditResult{}, err
	}
	needsApproval, err := i.basicInfoRequiresApproval(userID)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	logger := log.WithField("user_id", userID).WithField("caller_id", callerID)
	if !needsApproval {
		resource := basicInfoResource{handler: i}
		err = i.inTx(func(tx *gorm.DB) error {
			return resource.Delete(ctx, tx, userID)
		})
		if err != nil {
			return profileapimodels.EditResult{}, err
		}
		logger.Info("user deleted")
		return profileapimodels.EditResult{Applied: true}, nil
	}
	envelope, err := i.basicInfo.Delete(userID)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	requestID, err := i.approvals.Create(ctx, callerID, envelope)
	if err != nil {
		return profileapimodels.EditResult{}, err
	}
	logger.WithField("approval_request_id", requestID).Info("user delete submitted for approval")
	return profileapimodels.EditResult{RequestID: requestID}, nil
}
