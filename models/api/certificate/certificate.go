package certificateapimodels

import (
	"time"

	apimodels "spice-portal-backend/models/api"
	dbmodels "spice-portal-backend/models/db"
)

type IssuanceData struct {
	CertificateType int      `json:"certificateType" validate:"required,gt=0"`         // certificates lookup id
	RecipientIDs    []string `json:"recipientIds" validate:"required,min=1,dive,uuid"` // role profile ids
}

func (d IssuanceData) Validate() error {
	return apimodels.ValidateStruct(d)
}

type CertificateView struct {
	ID                string    `json:"id"`
	Number            string    `json:"number"`
	CertificateTypeID int       `json:"certificateTypeId"`
	ProfileID         string    `json:"profileId"`
	IssuedAt          time.Time `json:"issuedAt"`
}

func Convert(rec dbmodels.Certificate) CertificateView {
	return CertificateView{
		ID:                rec.ID,
		Number:            rec.Number,
		CertificateTypeID: rec.CertificateTypeID,
		ProfileID:         rec.ProfileID,
		IssuedAt:          rec.IssuedAt,
	}
}
