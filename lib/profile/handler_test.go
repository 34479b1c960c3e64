package profilehandler

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	profilestore "spice-portal-backend/lib/profile/store"
	resourcegateway "spice-portal-backend/lib/resource-gateway"
	usersstore "spice-portal-backend/lib/users/store"
	"spice-portal-backend/models"
	approvalapimodels "spice-portal-backend/models/api/approval"
	profileapimodels "spice-portal-backend/models/api/profile"
	dbmodels "spice-portal-backend/models/db"
)

type fakeProfiles struct {
	seq      int
	items    map[string]*dbmodels.RoleProfile
	updates  map[string]map[string]interface{}
	products map[string][]dbmodels.ProductLine
}

func (f *fakeProfiles) Create(rec dbmodels.RoleProfile) (string, error) {
	f.seq++
	rec.ID = fmt.Sprintf("profile-%d", f.seq)
	f.items[rec.ID] = &rec
	return rec.ID, nil
}

func (f *fakeProfiles) GetByID(id string) (*dbmodels.RoleProfile, error) {
	rec, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	result := *rec
	return &result, nil
}

func (f *fakeProfiles) GetByUserID(userID string) (*dbmodels.RoleProfile, error) {
	for _, rec := range f.items {
		if rec.UserID == userID {
			result := *rec
			return &result, nil
		}
	}
	return nil, nil
}

func (f *fakeProfiles) GetByIDs(ids []string) ([]dbmodels.RoleProfile, error) {
	result := []dbmodels.RoleProfile{}
	for _, id := range ids {
		if rec, ok := f.items[id]; ok {
			result = append(result, *rec)
		}
	}
	return result, nil
}

func (f *fakeProfiles) Update(id string, updMap map[string]interface{}) error {
	rec, ok := f.items[id]
	if !ok {
		return models.ErrNotFound
	}
	if f.updates[id] == nil {
		f.updates[id] = map[string]interface{}{}
	}
	for key, value := range updMap {
		f.updates[id][key] = value
	}
	if status, ok := updMap["status"]; ok {
		rec.Status = status.(models.ProfileStatus)
	}
	return nil
}

func (f *fakeProfiles) ReplaceProducts(id string, lines []dbmodels.ProductLine) error {
	f.products[id] = lines
	return nil
}

func (f *fakeProfiles) Delete(id string) error {
	if _, ok := f.items[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeUsers struct {
	items   map[string]*dbmodels.PortalUser
	updates map[string]map[string]interface{}
}

func (f *fakeUsers) Create(rec dbmodels.PortalUser) (string, error) {
	f.items[rec.ID] = &rec
	return rec.ID, nil
}

func (f *fakeUsers) GetByID(id string) (*dbmodels.PortalUser, error) {
	rec, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	result := *rec
	return &result, nil
}

func (f *fakeUsers) GetByEmail(email string) (*dbmodels.PortalUser, error) {
	for _, rec := range f.items {
		if rec.Email == email {
			result := *rec
			return &result, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) Update(id string, updMap map[string]interface{}) error {
	if _, ok := f.items[id]; !ok {
		return models.ErrNotFound
	}
	f.updates[id] = updMap
	return nil
}

func (f *fakeUsers) Delete(id string) error {
	delete(f.items, id)
	return nil
}

func (f *fakeUsers) ListByRole(role models.UserRole) ([]dbmodels.PortalUser, error) {
	return nil, nil
}

// fakeLookups knows ids up to 10 in every dictionary
type fakeLookups struct{}

func (fakeLookups) Exists(dict models.LookupDict, ids ...int) error {
	for _, id := range ids {
		if id > 10 {
			return models.NewValidationError("unknown %s id %d", dict, id)
		}
	}
	return nil
}

type fakeApprovals struct {
	created []approvalapimodels.CreateData
	userIDs []string
}

func (f *fakeApprovals) Create(ctx context.Context, userID string, data approvalapimodels.CreateData) (string, error) {
	f.created = append(f.created, data)
	f.userIDs = append(f.userIDs, userID)
	return fmt.Sprintf("req-%d", len(f.created)), nil
}

type testEnv struct {
	impl
	profiles  *fakeProfiles
	users     *fakeUsers
	approvals *fakeApprovals
}

func newTestEnv() testEnv {
	env := testEnv{
		profiles: &fakeProfiles{
			items:    map[string]*dbmodels.RoleProfile{},
			updates:  map[string]map[string]interface{}{},
			products: map[string][]dbmodels.ProductLine{},
		},
		users: &fakeUsers{
			items: map[string]*dbmodels.PortalUser{
				"user-1": {BaseModel: dbmodels.BaseModel{ID: "user-1"}, FullName: "Nimal Perera", Email: "nimal@example.lk"},
				"user-2": {BaseModel: dbmodels.BaseModel{ID: "user-2"}, FullName: "Kamala Silva", Email: "kamala@example.lk"},
			},
			updates: map[string]map[string]interface{}{},
		},
		approvals: &fakeApprovals{},
	}
	env.impl = newImpl(fakeLookups{}, env.approvals)
	env.impl.profileStore = func(tx *gorm.DB) profilestore.Provider { return env.profiles }
	env.impl.usersStore = func(tx *gorm.DB) usersstore.Provider { return env.users }
	env.impl.inTx = func(fn func(tx *gorm.DB) error) error { return fn(nil) }
	return env
}

func (e testEnv) addProfile(id, userID string, kind models.ProfileKind, status models.ProfileStatus) {
	e.profiles.items[id] = &dbmodels.RoleProfile{
		BaseModel:     dbmodels.BaseModel{ID: id},
		UserID:        userID,
		Kind:          kind,
		Status:        status,
		BusinessName:  "Ceylon Spices",
		BusinessRegNo: "PV-1001",
		Products: []dbmodels.ProductLine{
			{ProductID: 1, Value: decimal.NewFromInt(100), IsRaw: true},
		},
	}
}

func entrepreneurForm() map[string]any {
	return map[string]any{
		"businessName":               "Ceylon Spices",
		"businessRegistrationNumber": "PV-1001",
		"province":                   "3",
		"registrationDate":           "2021-05-04",
		"products": []any{
			map[string]any{"product": "2", "quantity": "150.5", "raw": true},
		},
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	t.Run("starting profile", func(t *testing.T) {
		env := newTestEnv()
		id, err := env.Create(ctx, "user-1", models.ProfileKindEntrepreneur, profileapimodels.FormData{Form: entrepreneurForm()})
		require.NoError(t, err)
		rec := env.profiles.items[id]
		require.Equal(t, models.ProfileStatusStarting, rec.Status)
		require.Equal(t, "PV-1001", rec.BusinessRegNo)
		require.Equal(t, 3, *rec.ProvinceID)
		require.Equal(t, "2021-05-04", rec.RegistrationDate.Format("2006-01-02"))
		require.Len(t, rec.Products, 1)
		require.Equal(t, 2, rec.Products[0].ProductID)
		require.True(t, rec.Products[0].Value.Equal(decimal.RequireFromString("150.5")))
		require.False(t, rec.RequiresApproval())
	})
	t.Run("required fields", func(t *testing.T) {
		env := newTestEnv()
		form := entrepreneurForm()
		form["businessName"] = " "
		_, err := env.Create(ctx, "user-1", models.ProfileKindEntrepreneur, profileapimodels.FormData{Form: form})
		require.ErrorIs(t, err, models.ErrValidation)
		require.Contains(t, err.Error(), "businessName is required")
	})
	t.Run("unknown lookup id", func(t *testing.T) {
		env := newTestEnv()
		form := entrepreneurForm()
		form["province"] = 42
		_, err := env.Create(ctx, "user-1", models.ProfileKindEntrepreneur, profileapimodels.FormData{Form: form})
		require.ErrorIs(t, err, models.ErrValidation)
	})
	t.Run("one profile per user", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("profile-9", "user-1", models.ProfileKindExporter, models.ProfileStatusStarting)
		_, err := env.Create(ctx, "user-1", models.ProfileKindEntrepreneur, profileapimodels.FormData{Form: entrepreneurForm()})
		require.ErrorIs(t, err, models.ErrValidation)
	})
	t.Run("unknown kind", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.Create(ctx, "user-1", "grower", profileapimodels.FormData{Form: entrepreneurForm()})
		require.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestSubmitEdit(t *testing.T) {
	ctx := context.Background()
	t.Run("starting profile is updated directly", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-1", "user-1", models.ProfileKindEntrepreneur, models.ProfileStatusStarting)
		result, err := env.SubmitEdit(ctx, "user-1", false, models.ProfileKindEntrepreneur, "p-1", profileapimodels.EditData{
			Current: map[string]any{"businessRegistrationNumber": "PV-2002", "businessName": "Ceylon Spices"},
		})
		require.NoError(t, err)
		require.True(t, result.Applied)
		require.Equal(t, map[string]interface{}{"business_reg_no": "PV-2002"}, env.profiles.updates["p-1"])
		require.Empty(t, env.approvals.created)
	})
	t.Run("existing profile gets an approval request", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-1", "user-1", models.ProfileKindEntrepreneur, models.ProfileStatusExisting)
		result, err := env.SubmitEdit(ctx, "user-1", false, models.ProfileKindEntrepreneur, "p-1", profileapimodels.EditData{
			Original: map[string]any{"businessRegistrationNumber": "PV-1001", "numberOfEmployees": "2"},
			Current:  map[string]any{"businessRegistrationNumber": "PV-2002", "numberOfEmployees": 2},
		})
		require.NoError(t, err)
		require.False(t, result.Applied)
		require.Equal(t, "req-1", result.RequestID)
		require.Len(t, env.approvals.created, 1)
		created := env.approvals.created[0]
		require.Equal(t, models.ApprovalTypeEditData, created.Type)
		require.Equal(t, "/api/entrepreneur/p-1", created.RequestedURL)
		require.Equal(t, "Entrepreneur data edit", created.RequestName)
		require.Equal(t, map[string]any{"businessRegNo": "PV-2002"}, created.RequestData)
		require.Empty(t, env.profiles.updates)
	})
	t.Run("nothing changed", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-1", "user-1", models.ProfileKindExporter, models.ProfileStatusExisting)
		_, err := env.SubmitEdit(ctx, "user-1", false, models.ProfileKindExporter, "p-1", profileapimodels.EditData{
			Current: map[string]any{"exporterName": "Ceylon Spices"},
		})
		require.ErrorIs(t, err, models.ErrEmptyDiff)
		require.Empty(t, env.approvals.created)
	})
	t.Run("other user", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-1", "user-1", models.ProfileKindEntrepreneur, models.ProfileStatusExisting)
		_, err := env.SubmitEdit(ctx, "user-2", false, models.ProfileKindEntrepreneur, "p-1", profileapimodels.EditData{
			Current: map[string]any{"businessName": "Other"},
		})
		require.ErrorIs(t, err, models.ErrForbidden)
	})
	t.Run("wrong kind", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-1", "user-1", models.ProfileKindEntrepreneur, models.ProfileStatusExisting)
		_, err := env.SubmitEdit(ctx, "user-1", false, models.ProfileKindExporter, "p-1", profileapimodels.EditData{
			Current: map[string]any{"exporterName": "Other"},
		})
		require.ErrorIs(t, err, models.ErrNotFound)
	})
	t.Run("kind can not be changed", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-1", "user-1", models.ProfileKindEntrepreneur, models.ProfileStatusStarting)
		_, err := env.SubmitEdit(ctx, "user-1", false, models.ProfileKindEntrepreneur, "p-1", profileapimodels.EditData{
			Current: map[string]any{"kind": "exporter"},
		})
		require.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestCheckTargetOwner(t *testing.T) {
	env := newTestEnv()
	env.addProfile("p-1", "user-1", models.ProfileKindEntrepreneur, models.ProfileStatusExisting)

	t.Run("own records", func(t *testing.T) {
		require.NoError(t, env.CheckTargetOwner("user-1", "/api/entrepreneur/p-1"))
		require.NoError(t, env.CheckTargetOwner("user-1", "/api/basic_info/user-1"))
	})
	t.Run("records of another user", func(t *testing.T) {
		require.ErrorIs(t, env.CheckTargetOwner("user-2", "/api/entrepreneur/p-1"), models.ErrForbidden)
		require.ErrorIs(t, env.CheckTargetOwner("user-2", "/api/basic_info/user-1"), models.ErrForbidden)
	})
	t.Run("unknown targets", func(t *testing.T) {
		require.ErrorIs(t, env.CheckTargetOwner("user-1", "/api/exporter/p-1"), models.ErrNotFound)
		require.ErrorIs(t, env.CheckTargetOwner("user-1", "/api/vacancy/p-1"), models.ErrValidation)
		require.ErrorIs(t, env.CheckTargetOwner("user-1", "entrepreneur/p-1"), models.ErrValidation)
	})
}

func TestSubmitDelete(t *testing.T) {
	ctx := context.Background()
	t.Run("starting profile", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-1", "user-1", models.ProfileKindIntermediaryTrader, models.ProfileStatusStarting)
		result, err := env.SubmitDelete(ctx, "user-1", false, models.ProfileKindIntermediaryTrader, "p-1")
		require.NoError(t, err)
		require.True(t, result.Applied)
		require.NotContains(t, env.profiles.items, "p-1")
	})
	t.Run("existing profile", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-1", "user-1", models.ProfileKindIntermediaryTrader, models.ProfileStatusExisting)
		result, err := env.SubmitDelete(ctx, "user-2", true, models.ProfileKindIntermediaryTrader, "p-1")
		require.NoError(t, err)
		require.Equal(t, "req-1", result.RequestID)
		require.Equal(t, models.ApprovalTypeDeleteData, env.approvals.created[0].Type)
		require.Equal(t, "Intermediary Trader delete", env.approvals.created[0].RequestName)
		require.Contains(t, env.profiles.items, "p-1")
	})
}

func TestResources(t *testing.T) {
	ctx := context.Background()
	t.Run("patch through the local gateway", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-2", "user-1", models.ProfileKindExporter, models.ProfileStatusExisting)
		gateway := resourcegateway.NewLocal(env.resources(), nil)
		err := gateway.Patch(ctx, "/api/exporter/p-2", map[string]any{
			"description": nil,
			"products": []map[string]any{
				{"productId": 3, "value": decimal.NewFromInt(20), "isRaw": false, "isProcessed": true, "details": "ground"},
			},
		})
		require.NoError(t, err)
		require.Equal(t, "", env.profiles.updates["p-2"]["description"])
		require.Len(t, env.profiles.products["p-2"], 1)
		require.Equal(t, 3, env.profiles.products["p-2"][0].ProductID)
	})
	t.Run("required field can not be cleared", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-2", "user-1", models.ProfileKindExporter, models.ProfileStatusExisting)
		gateway := resourcegateway.NewLocal(env.resources(), nil)
		err := gateway.Patch(ctx, "/api/exporter/p-2", map[string]any{"businessName": nil})
		require.ErrorIs(t, err, models.ErrValidation)
	})
	t.Run("unknown field", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-2", "user-1", models.ProfileKindExporter, models.ProfileStatusExisting)
		gateway := resourcegateway.NewLocal(env.resources(), nil)
		err := gateway.Patch(ctx, "/api/exporter/p-2", map[string]any{"favouriteSpice": "cinnamon"})
		require.ErrorIs(t, err, models.ErrValidation)
	})
	t.Run("get returns the snapshot", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-2", "user-1", models.ProfileKindExporter, models.ProfileStatusExisting)
		gateway := resourcegateway.NewLocal(env.resources(), nil)
		current, err := gateway.Get(ctx, "/api/exporter/p-2")
		require.NoError(t, err)
		require.Equal(t, "PV-1001", current["businessRegNo"])
		require.Nil(t, current["registrationDate"])
		_, err = gateway.Get(ctx, "/api/entrepreneur/p-2")
		require.ErrorIs(t, err, models.ErrNotFound)
	})
	t.Run("basic info delete removes the profile", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-2", "user-1", models.ProfileKindExporter, models.ProfileStatusExisting)
		gateway := resourcegateway.NewLocal(env.resources(), nil)
		require.NoError(t, gateway.Delete(ctx, "/api/basic_info/user-1"))
		require.NotContains(t, env.profiles.items, "p-2")
		require.NotContains(t, env.users.items, "user-1")
	})
}

func TestBasicInfo(t *testing.T) {
	ctx := context.Background()
	t.Run("applied directly without an existing profile", func(t *testing.T) {
		env := newTestEnv()
		result, err := env.SubmitBasicInfoEdit(ctx, "user-1", false, "user-1", profileapimodels.EditData{
			Current: map[string]any{"contactNumber": "0771234567"},
		})
		require.NoError(t, err)
		require.True(t, result.Applied)
		require.Equal(t, map[string]interface{}{"phone": "0771234567"}, env.users.updates["user-1"])
	})
	t.Run("reviewed with an existing profile", func(t *testing.T) {
		env := newTestEnv()
		env.addProfile("p-1", "user-1", models.ProfileKindEntrepreneur, models.ProfileStatusExisting)
		result, err := env.SubmitBasicInfoEdit(ctx, "user-1", false, "user-1", profileapimodels.EditData{
			Current: map[string]any{"fullName": "Nimal Perera", "province": "5"},
		})
		require.NoError(t, err)
		require.Equal(t, "req-1", result.RequestID)
		require.Equal(t, "/api/basic_info/user-1", env.approvals.created[0].RequestedURL)
		require.Equal(t, map[string]any{"provinceId": 5}, env.approvals.created[0].RequestData)
	})
	t.Run("e-mail taken by another user", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.SubmitBasicInfoEdit(ctx, "user-1", false, "user-1", profileapimodels.EditData{
			Current: map[string]any{"email": "kamala@example.lk"},
		})
		require.ErrorIs(t, err, models.ErrValidation)
	})
	t.Run("other user", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.SubmitBasicInfoEdit(ctx, "user-2", false, "user-1", profileapimodels.EditData{
			Current: map[string]any{"fullName": "Someone"},
		})
		require.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestMarkExisting(t *testing.T) {
	env := newTestEnv()
	env.addProfile("p-1", "user-1", models.ProfileKindEntrepreneur, models.ProfileStatusStarting)
	require.NoError(t, env.MarkExisting(models.ProfileKindEntrepreneur, "p-1"))
	require.Equal(t, models.ProfileStatusExisting, env.profiles.items["p-1"].Status)
	view, err := env.Get(models.ProfileKindEntrepreneur, "p-1")
	require.NoError(t, err)
	require.True(t, view.RequiresApproval)
}
