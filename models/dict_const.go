package models

type LookupDict string

const (
	LookupProducts          LookupDict = "products"
	LookupCertificates      LookupDict = "certificates"
	LookupExperience        LookupDict = "experience"
	LookupNumberOfEmployees LookupDict = "number_of_employees"
	LookupProvince          LookupDict = "province"
)

var LookupDicts = []LookupDict{LookupProducts, LookupCertificates, LookupExperience, LookupNumberOfEmployees, LookupProvince}

func (d LookupDict) IsValid() bool {
	switch d {
	case LookupProducts, LookupCertificates, LookupExperience, LookupNumberOfEmployees, LookupProvince:
		return true
	}
	return false
}
