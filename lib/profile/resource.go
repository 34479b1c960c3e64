package profilehandler

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"spice-portal-backend/lib/utils/helpers"
	"spice-portal-backend/models"
	profileapimodels "spice-portal-backend/models/api/profile"
	dbmodels "spice-portal-backend/models/db"
)

// Snapshot stored profile keyed by API field names, the shape the field mapper produces
func Snapshot(rec dbmodels.RoleProfile) map[string]any {
	products := make([]map[string]any, 0, len(rec.Products))
	for _, line := range rec.Products {
		products = append(products, map[string]any{
			"productId":   line.ProductID,
			"value":       line.Value,
			"isRaw":       line.IsRaw,
			"isProcessed": line.IsProcessed,
			"details":     line.Details,
		})
	}
	certificateIDs := make([]int, 0, len(rec.CertificateIDs))
	for _, id := range rec.CertificateIDs {
		certificateIDs = append(certificateIDs, int(id))
	}
	var registrationDate any
	if rec.RegistrationDate != nil {
		registrationDate = rec.RegistrationDate.UTC().Format(time.RFC3339)
	}
	return map[string]any{
		"businessName":         rec.BusinessName,
		"businessRegNo":        rec.BusinessRegNo,
		"address":              rec.Address,
		"provinceId":           intOrNil(rec.ProvinceID),
		"numberOfEmployeeId":   intOrNil(rec.NumberOfEmployeeID),
		"businessExperienceId": intOrNil(rec.BusinessExperienceID),
		"certificateIds":       certificateIDs,
		"description":          rec.Description,
		"registrationDate":     registrationDate,
		"products":             products,
	}
}

func BasicInfoSnapshot(rec dbmodels.PortalUser) map[string]any {
	return map[string]any{
		"fullName":   rec.FullName,
		"email":      rec.Email,
		"phone":      rec.Phone,
		"nic":        rec.NIC,
		"address":    rec.Address,
		"provinceId": intOrNil(rec.ProvinceID),
	}
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

var requiredProfileFields = map[string]bool{
	"businessName":  true,
	"businessRegNo": true,
}

// profileUpdates converts a mapped patch into column updates, products is non-nil when the lines are replaced
func profileUpdates(patch map[string]any) (updMap map[string]interface{}, products []dbmodels.ProductLine, parsed profileapimodels.ProfilePatch, err error) {
	if _, ok := patch["kind"]; ok {
		return nil, nil, parsed, models.NewValidationError("profile kind can not be changed")
	}
	parsed, err = profileapimodels.ParseProfilePatch(patch)
	if err != nil {
		return nil, nil, parsed, err
	}
	updMap = map[string]interface{}{}
	for key, value := range patch {
		if requiredProfileFields[key] && (value == nil || value == "") {
			return nil, nil, parsed, models.NewValidationError("%s can not be cleared", key)
		}
		column := helpers.ToSnakeCase(key)
		switch key {
		case "businessName":
			updMap[column] = derefString(parsed.BusinessName)
		case "businessRegNo":
			updMap[column] = derefString(parsed.BusinessRegNo)
		case "address":
			updMap[column] = derefString(parsed.Address)
		case "description":
			updMap[column] = derefString(parsed.Description)
		case "provinceId":
			updMap[column] = parsed.ProvinceID
		case "numberOfEmployeeId":
			updMap[column] = parsed.NumberOfEmployeeID
		case "businessExperienceId":
			updMap[column] = parsed.BusinessExperienceID
		case "certificateIds":
			ids := pq.Int64Array{}
			for _, id := range parsed.CertificateIDs {
				ids = append(ids, int64(id))
			}
			updMap[column] = ids
		case "registrationDate":
			var date *time.Time
			if parsed.RegistrationDate != nil {
				t, _ := time.Parse(time.RFC3339, *parsed.RegistrationDate)
				date = &t
			}
			updMap[column] = date
		case "products":
			products = productLines(parsed.Products)
		}
	}
	return updMap, products, parsed, nil
}

func productLines(data []profileapimodels.ProductLineData) []dbmodels.ProductLine {
	lines := make([]dbmodels.ProductLine, 0, len(data))
	for _, line := range data {
		lines = append(lines, dbmodels.ProductLine{
			ProductID:   line.ProductID,
			Value:       line.Value,
			IsRaw:       line.IsRaw,
			IsProcessed: line.IsProcessed,
			Details:     line.Details,
		})
	}
	return lines
}

func basicInfoUpdates(patch map[string]any) (map[string]interface{}, profileapimodels.BasicInfoPatch, error) {
	parsed, err := profileapimodels.ParseBasicInfoPatch(patch)
	if err != nil {
		return nil, parsed, err
	}
	updMap := map[string]interface{}{}
	for key, value := range patch {
		column := helpers.ToSnakeCase(key)
		switch key {
		case "fullName", "email":
			if value == nil || value == "" {
				return nil, parsed, models.NewValidationError("%s can not be cleared", key)
			}
			if key == "fullName" {
				updMap[column] = derefString(parsed.FullName)
			} else {
				updMap[column] = derefString(parsed.Email)
			}
		case "phone":
			updMap[column] = derefString(parsed.Phone)
		case "nic":
			updMap[column] = derefString(parsed.NIC)
		case "address":
			updMap[column] = derefString(parsed.Address)
		case "provinceId":
			updMap[column] = parsed.ProvinceID
		}
	}
	return updMap, parsed, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// profileResource serves /api/{kind}/{id} to the resource gateway
type profileResource struct {
	kind    models.ProfileKind
	handler impl
}

func (r profileResource) Get(ctx context.Context, tx *gorm.DB, id string) (map[string]any, error) {
	rec, err := r.handler.loadProfile(tx, r.kind, id)
	if err != nil {
		return nil, err
	}
	return Snapshot(*rec), nil
}

func (r profileResource) Patch(ctx context.Context, tx *gorm.DB, id string, payload map[string]any) error {
	if _, err := r.handler.loadProfile(tx, r.kind, id); err != nil {
		return err
	}
	updMap, products, parsed, err := profileUpdates(payload)
	if err != nil {
		return err
	}
	if err = r.handler.checkDependency(parsed); err != nil {
		return err
	}
	store := r.handler.profileStore(tx)
	if err = store.Update(id, updMap); err != nil {
		return err
	}
	if products != nil {
		return store.ReplaceProducts(id, products)
	}
	return nil
}

func (r profileResource) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	if _, err := r.handler.loadProfile(tx, r.kind, id); err != nil {
		return err
	}
	return r.handler.profileStore(tx).Delete(id)
}

// basicInfoResource serves /api/basic_info/{userID} to the resource gateway
type basicInfoResource struct {
	handler impl
}

func (r basicInfoResource) Get(ctx context.Context, tx *gorm.DB, id string) (map[string]any, error) {
	rec, err := r.handler.loadUser(tx, id)
	if err != nil {
		return nil, err
	}
	return BasicInfoSnapshot(*rec), nil
}

func (r basicInfoResource) Patch(ctx context.Context, tx *gorm.DB, id string, payload map[string]any) error {
	if _, err := r.handler.loadUser(tx, id); err != nil {
		return err
	}
	updMap, parsed, err := basicInfoUpdates(payload)
	if err != nil {
		return err
	}
	store := r.handler.usersStore(tx)
	if parsed.Email != nil {
		other, err := store.GetByEmail(*parsed.Email)
		if err != nil {
			return err
		}
		if other != nil && other.ID != id {
			return models.NewValidationError("e-mail %s is already registered", *parsed.Email)
		}
	}
	if parsed.ProvinceID != nil && r.handler.lookups != nil {
		if err = r.handler.lookups.Exists(models.LookupProvince, *parsed.ProvinceID); err != nil {
			return err
		}
	}
	return store.Update(id, updMap)
}

// Delete removes the user together with the role profile
func (r basicInfoResource) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	if _, err := r.handler.loadUser(tx, id); err != nil {
		return err
	}
	profiles := r.handler.profileStore(tx)
	profile, err := profiles.GetByUserID(id)
	if err != nil {
		return err
	}
	if profile != nil {
		if err = profiles.Delete(profile.ID); err != nil {
			return errors.Wrap(err, "error deleting the role profile of the user")
		}
	}
	return r.handler.usersStore(tx).Delete(id)
}
