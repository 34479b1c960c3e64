package fieldmapper

var BasicInfoTable = NewTable("basic_info",
	Field{UIName: "fullName", APIName: "fullName", Label: "Full name", Coercion: ToString},
	Field{UIName: "email", APIName: "email", Label: "E-mail", Coercion: ToString},
	Field{UIName: "contactNumber", APIName: "phone", Label: "Contact number", Coercion: ToString},
	Field{UIName: "nicNumber", APIName: "nic", Label: "NIC number", Coercion: ToString},
	Field{UIName: "address", APIName: "address", Label: "Address", Coercion: ToString},
	Field{UIName: "province", APIName: "provinceId", Label: "Province", Coercion: ToInt},
)

var EntrepreneurTable = NewTable("entrepreneur", roleProfileFields("Business name", "Business registration number")...)

var ExporterTable = NewTable("exporter",
	append([]Field{
		{UIName: "exporterName", APIName: "businessName", Label: "Exporter name", Coercion: ToString},
		{UIName: "exportRegistrationNumber", APIName: "businessRegNo", Label: "Export registration number", Coercion: ToString},
	}, commonProfileFields()...)...,
)

var IntermediaryTraderTable = NewTable("intermediary_trader",
	append([]Field{
		{UIName: "traderName", APIName: "businessName", Label: "Trader name", Coercion: ToString},
		{UIName: "traderLicenseNumber", APIName: "businessRegNo", Label: "Trader license number", Coercion: ToString},
	}, commonProfileFields()...)...,
)

func roleProfileFields(nameLabel, regNoLabel string) []Field {
	return append([]Field{
		{UIName: "businessName", APIName: "businessName", Label: nameLabel, Coercion: ToString},
		{UIName: "businessRegistrationNumber", APIName: "businessRegNo", Label: regNoLabel, Coercion: ToString},
	}, commonProfileFields()...)
}

func commonProfileFields() []Field {
	return []Field{
		{UIName: "businessAddress", APIName: "address", Label: "Business address", Coercion: ToString},
		{UIName: "province", APIName: "provinceId", Label: "Province", Coercion: ToInt},
		{UIName: "numberOfEmployees", APIName: "numberOfEmployeeId", Label: "Number of employees", Coercion: ToInt},
		{UIName: "yearsTrading", APIName: "businessExperienceId", Label: "Business experience", Coercion: ToInt},
		{UIName: "certifications", APIName: "certificateIds", Label: "Certifications", Coercion: ToIntArray},
		{UIName: "description", APIName: "description", Label: "Description", Coercion: ToString},
		{UIName: "registrationDate", APIName: "registrationDate", Label: "Registration date", Coercion: ToISODate},
		{UIName: "products", APIName: "products", Label: "Products", Coercion: ToProductLines},
	}
}

var tablesByResource = map[string]Table{
	BasicInfoTable.Name():          BasicInfoTable,
	EntrepreneurTable.Name():       EntrepreneurTable,
	ExporterTable.Name():           ExporterTable,
	IntermediaryTraderTable.Name(): IntermediaryTraderTable,
}

// TableFor the field table of a gateway resource name
func TableFor(resource string) (Table, bool) {
	table, ok := tablesByResource[resource]
	return table, ok
}
