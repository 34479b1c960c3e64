package certificatehandler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	approvalbuilder "spice-portal-backend/lib/approval-request/builder"
	certificatestore "spice-portal-backend/lib/certificate/store"
	notificationstore "spice-portal-backend/lib/notification/store"
	profilestore "spice-portal-backend/lib/profile/store"
	resourcegateway "spice-portal-backend/lib/resource-gateway"
	"spice-portal-backend/lib/utils/lock"
	"spice-portal-backend/models"
	approvalapimodels "spice-portal-backend/models/api/approval"
	certificateapimodels "spice-portal-backend/models/api/certificate"
	dbmodels "spice-portal-backend/models/db"
)

type fakeCertificates struct {
	items []dbmodels.Certificate
}

func (f *fakeCertificates) Create(rec dbmodels.Certificate) (string, error) {
	rec.ID = fmt.Sprintf("cert-%d", len(f.items)+1)
	f.items = append(f.items, rec)
	return rec.ID, nil
}

func (f *fakeCertificates) GetByID(id string) (*dbmodels.Certificate, error) {
	for _, rec := range f.items {
		if rec.ID == id {
			result := rec
			return &result, nil
		}
	}
	return nil, nil
}

func (f *fakeCertificates) ListByProfile(profileID string) ([]dbmodels.Certificate, error) {
	result := []dbmodels.Certificate{}
	for _, rec := range f.items {
		if rec.ProfileID == profileID {
			result = append(result, rec)
		}
	}
	return result, nil
}

// fakeProfiles only the readers are used
type fakeProfiles struct {
	profilestore.Provider
	items map[string]dbmodels.RoleProfile
}

func (f fakeProfiles) GetByID(id string) (*dbmodels.RoleProfile, error) {
	rec, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f fakeProfiles) GetByIDs(ids []string) ([]dbmodels.RoleProfile, error) {
	result := []dbmodels.RoleProfile{}
	for _, id := range ids {
		if rec, ok := f.items[id]; ok {
			result = append(result, rec)
		}
	}
	return result, nil
}

type fakeNotifications struct {
	notificationstore.Provider
	items []dbmodels.Notification
}

func (f *fakeNotifications) Create(rec dbmodels.Notification) (string, error) {
	f.items = append(f.items, rec)
	return fmt.Sprintf("n-%d", len(f.items)), nil
}

type fakeStorage struct {
	files     map[string][]byte
	uploadErr error
}

func (f *fakeStorage) UploadFile(ctx context.Context, key string, file []byte, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.files[key] = file
	return nil
}

func (f *fakeStorage) GetFile(ctx context.Context, key string) ([]byte, error) {
	body, ok := f.files[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return body, nil
}

func (f *fakeStorage) DeleteFile(ctx context.Context, key string) error {
	delete(f.files, key)
	return nil
}

type fakeLookups struct{}

func (fakeLookups) Name(dict models.LookupDict, id int) (string, bool) {
	if dict == models.LookupCertificates && id == 1 {
		return "Spice Exporter Certificate", true
	}
	return "", false
}

func (l fakeLookups) Exists(dict models.LookupDict, ids ...int) error {
	for _, id := range ids {
		if _, ok := l.Name(dict, id); !ok {
			return models.NewValidationError("unknown %s id %d", dict, id)
		}
	}
	return nil
}

type fakeApprovals struct {
	created []approvalapimodels.CreateData
}

func (f *fakeApprovals) Create(ctx context.Context, userID string, data approvalapimodels.CreateData) (string, error) {
	f.created = append(f.created, data)
	return "req-1", nil
}

type testEnv struct {
	impl
	certificates  *fakeCertificates
	notifications *fakeNotifications
	storage       *fakeStorage
	approvals     *fakeApprovals
}

const (
	profileA = "6f1c8a52-3f7e-4a41-9d1e-0c8b7f6a1e01"
	profileB = "6f1c8a52-3f7e-4a41-9d1e-0c8b7f6a1e02"
)

func newTestEnv() testEnv {
	env := testEnv{
		certificates:  &fakeCertificates{},
		notifications: &fakeNotifications{},
		storage:       &fakeStorage{files: map[string][]byte{}},
		approvals:     &fakeApprovals{},
	}
	profiles := fakeProfiles{items: map[string]dbmodels.RoleProfile{
		profileA: {
			BaseModel:     dbmodels.BaseModel{ID: profileA},
			UserID:        "user-1",
			Kind:          models.ProfileKindExporter,
			BusinessName:  "Ceylon Spices",
			BusinessRegNo: "PV-1001",
			User:          &dbmodels.PortalUser{FullName: "Nimal Perera"},
		},
		profileB: {
			BaseModel:     dbmodels.BaseModel{ID: profileB},
			UserID:        "user-2",
			Kind:          models.ProfileKindEntrepreneur,
			BusinessName:  "Matale Pepper",
			BusinessRegNo: "PV-2002",
		},
	}}
	env.impl = newImpl(fakeLookups{}, env.approvals)
	env.impl.certStore = func(tx *gorm.DB) certificatestore.Provider { return env.certificates }
	env.impl.profileStore = func(tx *gorm.DB) profilestore.Provider { return profiles }
	env.impl.notifications = func(tx *gorm.DB) notificationstore.Provider { return env.notifications }
	env.impl.storage = env.storage
	env.impl.slots = lock.NewResourceLock(1)
	env.impl.now = func() time.Time { return time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC) }
	return env
}

func TestSubmitIssuance(t *testing.T) {
	ctx := context.Background()
	t.Run("approval request is created", func(t *testing.T) {
		env := newTestEnv()
		id, err := env.SubmitIssuance(ctx, "admin-1", true, certificateapimodels.IssuanceData{
			CertificateType: 1,
			RecipientIDs:    []string{profileA, profileB, profileA},
		})
		require.NoError(t, err)
		require.Equal(t, "req-1", id)
		created := env.approvals.created[0]
		require.Equal(t, models.ApprovalTypeCertificateIssuance, created.Type)
		require.Equal(t, models.CertificateIssuancePath, created.RequestedURL)
		require.Equal(t, "Spice Exporter Certificate issuance", created.RequestName)
		require.Equal(t, []string{profileA, profileB}, created.RequestData[approvalbuilder.RecipientIDsKey])
		require.Empty(t, env.certificates.items)
	})
	t.Run("unknown certificate type", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.SubmitIssuance(ctx, "admin-1", true, certificateapimodels.IssuanceData{CertificateType: 7, RecipientIDs: []string{profileA}})
		require.ErrorIs(t, err, models.ErrValidation)
	})
	t.Run("unknown recipient", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.SubmitIssuance(ctx, "admin-1", true, certificateapimodels.IssuanceData{
			CertificateType: 1,
			RecipientIDs:    []string{"6f1c8a52-3f7e-4a41-9d1e-0c8b7f6a1e99"},
		})
		require.ErrorIs(t, err, models.ErrValidation)
		require.Empty(t, env.approvals.created)
	})
	t.Run("users request for their own profile only", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.SubmitIssuance(ctx, "user-1", false, certificateapimodels.IssuanceData{
			CertificateType: 1,
			RecipientIDs:    []string{profileA},
		})
		require.NoError(t, err)
		_, err = env.SubmitIssuance(ctx, "user-1", false, certificateapimodels.IssuanceData{
			CertificateType: 1,
			RecipientIDs:    []string{profileA, profileB},
		})
		require.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestIssue(t *testing.T) {
	ctx := context.Background()
	t.Run("one certificate per recipient through the local gateway", func(t *testing.T) {
		env := newTestEnv()
		gateway := resourcegateway.NewLocal(nil, map[string]resourcegateway.Action{
			models.CertificateIssuancePath: issueAction{handler: env.impl},
		})
		err := gateway.Invoke(ctx, models.CertificateIssuancePath, map[string]any{
			approvalbuilder.CertificateTypeKey:   float64(1),
			approvalbuilder.RecipientIDsKey:      []any{profileA, profileB},
			approvalbuilder.ApprovalRequestIDKey: "req-9",
		})
		require.NoError(t, err)
		require.Len(t, env.certificates.items, 2)
		require.Len(t, env.storage.files, 2)
		for _, rec := range env.certificates.items {
			require.True(t, strings.HasPrefix(rec.Number, "SPC-2026-"))
			require.Equal(t, "req-9", rec.ApprovalRequestID)
			require.Equal(t, 1, rec.CertificateTypeID)
			require.Equal(t, "%PDF", string(env.storage.files[rec.FileKey][:4]))
		}
		require.Len(t, env.notifications.items, 2)
		require.Equal(t, models.NotificationCertificate, env.notifications.items[0].Type)
		require.Equal(t, "req-9", *env.notifications.items[0].ApprovalRequestID)
	})
	t.Run("upload failure stops the issuance", func(t *testing.T) {
		env := newTestEnv()
		env.storage.uploadErr = fmt.Errorf("bucket unavailable")
		err := env.issue(ctx, nil, map[string]any{
			approvalbuilder.CertificateTypeKey: 1,
			approvalbuilder.RecipientIDsKey:    []string{profileA},
		})
		require.Error(t, err)
		require.Empty(t, env.certificates.items)
	})
	t.Run("malformed payload", func(t *testing.T) {
		env := newTestEnv()
		err := env.issue(ctx, nil, map[string]any{approvalbuilder.CertificateTypeKey: 1})
		require.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestDownload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	require.NoError(t, env.issue(ctx, nil, map[string]any{
		approvalbuilder.CertificateTypeKey: 1,
		approvalbuilder.RecipientIDsKey:    []string{profileA},
	}))
	rec := env.certificates.items[0]

	fileName, body, err := env.Download(ctx, "user-1", false, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.Number+".pdf", fileName)
	require.Equal(t, "%PDF", string(body[:4]))

	list, err := env.ListByProfile(profileA)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, _, err = env.Download(ctx, "user-2", false, rec.ID)
	require.ErrorIs(t, err, models.ErrForbidden)

	_, _, err = env.Download(ctx, "admin-1", true, "missing")
	require.ErrorIs(t, err, models.ErrNotFound)
}
