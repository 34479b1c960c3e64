package approvalapimodels

import (
	"time"

	"spice-portal-backend/models"
	apimodels "spice-portal-backend/models/api"
	dbmodels "spice-portal-backend/models/db"
)

type CreateData struct {
	Type         models.ApprovalType `json:"type" validate:"required"`       // editData/deleteData/certificateIssuance
	RequestName  string              `json:"requestName" validate:"max=255"` // human label
	RequestData  map[string]any      `json:"requestData"`                    // mapped patch
	RequestedURL string              `json:"requestedUrl" validate:"required"`
}

func (d CreateData) Validate() error {
	if err := apimodels.ValidateStruct(d); err != nil {
		return err
	}
	if !d.Type.IsValid() {
		return models.NewValidationError("unknown request type %q", d.Type)
	}
	return nil
}

type DecisionData struct {
	Status  models.ApprovalStatus `json:"status" validate:"required,oneof=approved denied"`
	Remarks string                `json:"remarks"`
}

func (d DecisionData) Validate() error {
	return apimodels.ValidateStruct(d)
}

type ListFilter struct {
	apimodels.Pagination
	Status      models.ApprovalStatus `json:"status"`       // filter by status
	Type        models.ApprovalType   `json:"type"`         // filter by request type
	Search      string                `json:"search"`       // request name contains
	RequestedBy string                `json:"requested_by"` // forced to the caller for non admins
}

func (f ListFilter) Validate() error {
	if f.Status != "" && !f.Status.IsValid() {
		return models.NewValidationError("unknown status %q", f.Status)
	}
	if f.Type != "" && !f.Type.IsValid() {
		return models.NewValidationError("unknown request type %q", f.Type)
	}
	return nil
}

type ApprovalView struct {
	ID           string                `json:"id"`
	Type         models.ApprovalType   `json:"type"`
	TypeName     string                `json:"typeName"`
	RequestName  string                `json:"requestName"`
	RequestedURL string                `json:"requestedUrl"`
	RequestData  map[string]any        `json:"requestData"`
	Status       models.ApprovalStatus `json:"status"`
	Remarks      string                `json:"remarks,omitempty"`
	RequestedBy  string                `json:"requestedBy"`
	DecidedBy    *string               `json:"decidedBy,omitempty"`
	DecidedAt    *time.Time            `json:"decidedAt,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
}

func Convert(rec dbmodels.ApprovalRequest) ApprovalView {
	data := map[string]any(rec.RequestData)
	if data == nil {
		data = map[string]any{}
	}
	return ApprovalView{
		ID:           rec.ID,
		Type:         rec.Type,
		TypeName:     rec.Type.ToHuman(),
		RequestName:  rec.RequestName,
		RequestedURL: rec.RequestedURL,
		RequestData:  data,
		Status:       rec.Status,
		Remarks:      rec.Remarks,
		RequestedBy:  rec.RequestedBy,
		DecidedBy:    rec.DecidedBy,
		DecidedAt:    rec.DecidedAt,
		CreatedAt:    rec.CreatedAt,
	}
}

type HistoryView struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Action    models.ApprovalAction  `json:"action"`
	Remarks   string                 `json:"remarks,omitempty"`
	Changes   dbmodels.EntityChanges `json:"changes"`
	CreatedAt time.Time              `json:"createdAt"`
}

func HistoryConvert(rec dbmodels.ApprovalHistory) HistoryView {
	return HistoryView{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Action:    rec.Action,
		Remarks:   rec.Remarks,
		Changes:   rec.Changes,
		CreatedAt: rec.CreatedAt,
	}
}

type ReviewRow struct {
	Field          string `json:"field"`
	Label          string `json:"label"`
	CurrentValue   string `json:"currentValue"`
	RequestedValue string `json:"requestedValue"`
}

type ReviewView struct {
	Request          ApprovalView `json:"request"`
	CurrentAvailable bool         `json:"currentAvailable"` // false when the target could not be fetched
	Rows             []ReviewRow  `json:"rows"`
}

type DecisionResult struct {
	ID      string                `json:"id"`
	Status  models.ApprovalStatus `json:"status"`  // status after the decision
	Message string                `json:"message"` // outcome shown to the reviewer
}
