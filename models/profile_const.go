package models

type ProfileKind string

const (
	ProfileKindEntrepreneur       ProfileKind = "entrepreneur"
	ProfileKindExporter           ProfileKind = "exporter"
	ProfileKindIntermediaryTrader ProfileKind = "intermediary_trader"
)

var ProfileKinds = []ProfileKind{ProfileKindEntrepreneur, ProfileKindExporter, ProfileKindIntermediaryTrader}

func (k ProfileKind) IsValid() bool {
	switch k {
	case ProfileKindEntrepreneur, ProfileKindExporter, ProfileKindIntermediaryTrader:
		return true
	}
	return false
}

var profileKindHumanName = map[ProfileKind]string{
	ProfileKindEntrepreneur:       "Entrepreneur",
	ProfileKindExporter:           "Exporter",
	ProfileKindIntermediaryTrader: "Intermediary Trader",
}

func (k ProfileKind) ToHuman() string {
	if human, exist := profileKindHumanName[k]; exist {
		return human
	}
	return string(k)
}

type ProfileStatus string

const (
	ProfileStatusStarting ProfileStatus = "starting"
	ProfileStatusExisting ProfileStatus = "existing"
)

// BasicInfoResource resource name of the portal user record
const BasicInfoResource = "basic_info"
