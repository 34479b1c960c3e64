package models

type ApprovalType string

const (
	ApprovalTypeEditData            ApprovalType = "editData"
	ApprovalTypeDeleteData          ApprovalType = "deleteData"
	ApprovalTypeCertificateIssuance ApprovalType = "certificateIssuance"
)

func (t ApprovalType) IsValid() bool {
	switch t {
	case ApprovalTypeEditData, ApprovalTypeDeleteData, ApprovalTypeCertificateIssuance:
		return true
	}
	return false
}

var approvalTypeHumanName = map[ApprovalType]string{
	ApprovalTypeEditData:            "Data edit",
	ApprovalTypeDeleteData:          "Data delete",
	ApprovalTypeCertificateIssuance: "Certificate issuance",
}

func (t ApprovalType) ToHuman() string {
	if human, exist := approvalTypeHumanName[t]; exist {
		return human
	}
	return string(t)
}

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusDenied   ApprovalStatus = "denied"
)

func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusDenied:
		return true
	}
	return false
}

// IsTerminal approved and denied requests never change again
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusDenied
}

func (s ApprovalStatus) AllowChangeTo(target ApprovalStatus) bool {
	return s == ApprovalStatusPending && target.IsTerminal()
}

type ApprovalAction string

const (
	ApprovalActionCreated     ApprovalAction = "created"
	ApprovalActionApproved    ApprovalAction = "approved"
	ApprovalActionDenied      ApprovalAction = "denied"
	ApprovalActionApplyFailed ApprovalAction = "apply_failed"
)

type SagaStage string

const (
	SagaStageApplying  SagaStage = "applying"
	SagaStageApplied   SagaStage = "applied"
	SagaStageFinalized SagaStage = "finalized"
	SagaStageFailed    SagaStage = "failed"
)

// CertificateIssuancePath target of every certificateIssuance request
const CertificateIssuancePath = "/api/certificate/issue"
