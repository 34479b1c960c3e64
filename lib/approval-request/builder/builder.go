package approvalbuilder

import (
	"strings"

	"github.com/pkg/errors"
	fieldmapper "spice-portal-backend/lib/field-mapper"
	resourcegateway "spice-portal-backend/lib/resource-gateway"
	"spice-portal-backend/models"
	dbmodels "spice-portal-backend/models/db"
)

const (
	CertificateTypeKey = "certificateType"
	RecipientIDsKey    = "recipientIds"
)

// ApprovalRequestIDKey is added to the issuance payload when the approval is applied
const ApprovalRequestIDKey = "approvalRequestId"

// Build validates and wraps a change into a pending approval request
func Build(kind models.ApprovalType, target, label string, payload map[string]any) (dbmodels.ApprovalRequest, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return dbmodels.ApprovalRequest{}, models.NewValidationError("request name is required")
	}
	target = strings.TrimSpace(target)

	var data map[string]any
	switch kind {
	case models.ApprovalTypeEditData:
		if err := checkRecordTarget(target); err != nil {
			return dbmodels.ApprovalRequest{}, err
		}
		if len(payload) == 0 {
			return dbmodels.ApprovalRequest{}, models.ErrEmptyDiff
		}
		data = copyMap(payload)
	case models.ApprovalTypeDeleteData:
		if err := checkRecordTarget(target); err != nil {
			return dbmodels.ApprovalRequest{}, err
		}
		data = map[string]any{}
	case models.ApprovalTypeCertificateIssuance:
		if target != models.CertificateIssuancePath {
			return dbmodels.ApprovalRequest{}, models.NewValidationError("certificate issuance must target %s", models.CertificateIssuancePath)
		}
		var err error
		if data, err = issuancePayload(payload); err != nil {
			return dbmodels.ApprovalRequest{}, err
		}
	default:
		return dbmodels.ApprovalRequest{}, models.NewValidationError("unknown request type %q", kind)
	}

	return dbmodels.ApprovalRequest{
		Type:         kind,
		RequestName:  label,
		RequestedURL: target,
		RequestData:  data,
		Status:       models.ApprovalStatusPending,
	}, nil
}

func checkRecordTarget(target string) error {
	if target == models.CertificateIssuancePath {
		return models.NewValidationError("%s is not a record", target)
	}
	_, err := resourcegateway.ParseTarget(target)
	return err
}

func issuancePayload(payload map[string]any) (map[string]any, error) {
	certificateType, err := fieldmapper.ToIntValue(payload[CertificateTypeKey])
	if err != nil || certificateType <= 0 {
		return nil, models.NewValidationError("certificateType is required")
	}
	recipients, err := recipientIDs(payload[RecipientIDsKey])
	if err != nil {
		return nil, err
	}
	return map[string]any{
		CertificateTypeKey: certificateType,
		RecipientIDsKey:    recipients,
	}, nil
}

func recipientIDs(value any) ([]string, error) {
	var result []string
	switch v := value.(type) {
	case []string:
		result = append(result, v...)
	case []any:
		for _, item := range v {
			id, ok := item.(string)
			if !ok {
				return nil, models.NewValidationError("recipientIds must be a list of ids")
			}
			result = append(result, id)
		}
	case nil:
	default:
		return nil, models.NewValidationError("recipientIds must be a list of ids")
	}
	seen := map[string]bool{}
	unique := make([]string, 0, len(result))
	for _, id := range result {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, models.NewValidationError("at least one recipient is required")
	}
	return unique, nil
}

// IssuanceParams reads back a built certificateIssuance payload, including one restored from jsonb
func IssuanceParams(payload map[string]any) (certificateType int, recipients []string, err error) {
	data, err := issuancePayload(payload)
	if err != nil {
		return 0, nil, errors.Wrap(err, "invalid certificate issuance payload")
	}
	return data[CertificateTypeKey].(int), data[RecipientIDsKey].([]string), nil
}

func copyMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for key, value := range m {
		result[key] = value
	}
	return result
}
