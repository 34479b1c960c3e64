package profileapimodels

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"spice-portal-backend/models"
	apimodels "spice-portal-backend/models/api"
	dbmodels "spice-portal-backend/models/db"
)

// FormData UI form state, keyed by UI field names
type FormData struct {
	Form map[string]any `json:"form" validate:"required"`
}

func (d FormData) Validate() error {
	return apimodels.ValidateStruct(d)
}

// EditData original is the form state the user started from, when omitted the stored record is the baseline
type EditData struct {
	Original map[string]any `json:"original"`
	Current  map[string]any `json:"current" validate:"required"`
}

func (d EditData) Validate() error {
	return apimodels.ValidateStruct(d)
}

type ProductLineData struct {
	ProductID   int             `json:"productId" validate:"gt=0"`
	Value       decimal.Decimal `json:"value"`
	IsRaw       bool            `json:"isRaw"`
	IsProcessed bool            `json:"isProcessed"`
	Details     string          `json:"details" validate:"max=1000"`
}

// ProfilePatch role profile fields by API name, nil means "not sent"
type ProfilePatch struct {
	BusinessName         *string           `json:"businessName" validate:"omitempty,max=255"`
	BusinessRegNo        *string           `json:"businessRegNo" validate:"omitempty,max=50"`
	Address              *string           `json:"address" validate:"omitempty,max=500"`
	ProvinceID           *int              `json:"provinceId" validate:"omitempty,gt=0"`
	NumberOfEmployeeID   *int              `json:"numberOfEmployeeId" validate:"omitempty,gt=0"`
	BusinessExperienceID *int              `json:"businessExperienceId" validate:"omitempty,gt=0"`
	CertificateIDs       []int             `json:"certificateIds" validate:"omitempty,dive,gt=0"`
	Description          *string           `json:"description" validate:"omitempty,max=2000"`
	RegistrationDate     *string           `json:"registrationDate"`
	Products             []ProductLineData `json:"products" validate:"omitempty,dive"`
}

// ParseProfilePatch decodes a mapped patch, unknown fields are rejected
func ParseProfilePatch(patch map[string]any) (ProfilePatch, error) {
	result := ProfilePatch{}
	if err := decodeStrict(patch, &result); err != nil {
		return ProfilePatch{}, err
	}
	if err := apimodels.ValidateStruct(result); err != nil {
		return ProfilePatch{}, err
	}
	if _, ok := patch["products"]; ok && len(result.Products) == 0 {
		return ProfilePatch{}, models.NewValidationError("at least one product line is required")
	}
	if result.RegistrationDate != nil {
		if _, err := time.Parse(time.RFC3339, *result.RegistrationDate); err != nil {
			return ProfilePatch{}, models.NewValidationError("registrationDate must be an ISO-8601 date")
		}
	}
	return result, nil
}

func (p ProfilePatch) ValidateForCreate() error {
	if p.BusinessName == nil || *p.BusinessName == "" {
		return models.NewValidationError("businessName is required")
	}
	if p.BusinessRegNo == nil || *p.BusinessRegNo == "" {
		return models.NewValidationError("businessRegNo is required")
	}
	if len(p.Products) == 0 {
		return models.NewValidationError("at least one product line is required")
	}
	return nil
}

type BasicInfoPatch struct {
	FullName   *string `json:"fullName" validate:"omitempty,min=2,max=255"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	NIC        *string `json:"nic" validate:"omitempty,max=12"`
	Address    *string `json:"address" validate:"omitempty,max=500"`
	ProvinceID *int    `json:"provinceId" validate:"omitempty,gt=0"`
}

func ParseBasicInfoPatch(patch map[string]any) (BasicInfoPatch, error) {
	result := BasicInfoPatch{}
	if err := decodeStrict(patch, &result); err != nil {
		return BasicInfoPatch{}, err
	}
	if err := apimodels.ValidateStruct(result); err != nil {
		return BasicInfoPatch{}, err
	}
	return result, nil
}

func decodeStrict(patch map[string]any, out any) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return models.NewValidationError("malformed payload: %s", err.Error())
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(out); err != nil {
		return models.NewValidationError("malformed payload: %s", err.Error())
	}
	return nil
}

type ProductLineView struct {
	ProductID   int             `json:"productId"`
	Value       decimal.Decimal `json:"value"`
	IsRaw       bool            `json:"isRaw"`
	IsProcessed bool            `json:"isProcessed"`
	Details     string          `json:"details"`
}

type ProfileView struct {
	ID                   string               `json:"id"`
	UserID               string               `json:"userId"`
	Kind                 models.ProfileKind   `json:"kind"`
	KindName             string               `json:"kindName"`
	Status               models.ProfileStatus `json:"status"`
	BusinessName         string               `json:"businessName"`
	BusinessRegNo        string               `json:"businessRegNo"`
	Address              string               `json:"address"`
	ProvinceID           *int                 `json:"provinceId"`
	NumberOfEmployeeID   *int                 `json:"numberOfEmployeeId"`
	BusinessExperienceID *int                 `json:"businessExperienceId"`
	CertificateIDs       []int64              `json:"certificateIds"`
	Description          string               `json:"description"`
	RegistrationDate     *time.Time           `json:"registrationDate"`
	Products             []ProductLineView    `json:"products"`
	RequiresApproval     bool                 `json:"requiresApproval"` // edits go through an approval request
	CreatedAt            time.Time            `json:"createdAt"`
}

func ProfileConvert(rec dbmodels.RoleProfile) ProfileView {
	products := make([]ProductLineView, 0, len(rec.Products))
	for _, line := range rec.Products {
		products = append(products, ProductLineView{
			ProductID:   line.ProductID,
			Value:       line.Value,
			IsRaw:       line.IsRaw,
			IsProcessed: line.IsProcessed,
			Details:     line.Details,
		})
	}
	certificateIDs := []int64(rec.CertificateIDs)
	if certificateIDs == nil {
		certificateIDs = []int64{}
	}
	return ProfileView{
		ID:                   rec.ID,
		UserID:               rec.UserID,
		Kind:                 rec.Kind,
		KindName:             rec.Kind.ToHuman(),
		Status:               rec.Status,
		BusinessName:         rec.BusinessName,
		BusinessRegNo:        rec.BusinessRegNo,
		Address:              rec.Address,
		ProvinceID:           rec.ProvinceID,
		NumberOfEmployeeID:   rec.NumberOfEmployeeID,
		BusinessExperienceID: rec.BusinessExperienceID,
		CertificateIDs:       certificateIDs,
		Description:          rec.Description,
		RegistrationDate:     rec.RegistrationDate,
		Products:             products,
		RequiresApproval:     rec.RequiresApproval(),
		CreatedAt:            rec.CreatedAt,
	}
}

type BasicInfoView struct {
	ID         string          `json:"id"`
	FullName   string          `json:"fullName"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone"`
	NIC        string          `json:"nic"`
	Address    string          `json:"address"`
	ProvinceID *int            `json:"provinceId"`
	Role       models.UserRole `json:"role"`
}

func BasicInfoConvert(rec dbmodels.PortalUser) BasicInfoView {
	return BasicInfoView{
		ID:         rec.ID,
		FullName:   rec.FullName,
		Email:      rec.Email,
		Phone:      rec.Phone,
		NIC:        rec.NIC,
		Address:    rec.Address,
		ProvinceID: rec.ProvinceID,
		Role:       rec.Role,
	}
}

// EditResult either the id of the created approval request or Applied for direct edits
type EditResult struct {
	RequestID string `json:"requestId,omitempty"`
	Applied   bool   `json:"applied"`
}
