package dictapimodels

import dbmodels "spice-portal-backend/models/db"

type LookupView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func LookupConvert(rec dbmodels.LookupItem) LookupView {
	return LookupView{
		ID:   rec.Code,
		Name: rec.Name,
	}
}
