package approvalpresenter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	log "github.com/sirupsen/logrus"
	approvalrequesthandler "spice-portal-backend/lib/approval-request"
	approvalbuilder "spice-portal-backend/lib/approval-request/builder"
	fieldmapper "spice-portal-backend/lib/field-mapper"
	resourcegateway "spice-portal-backend/lib/resource-gateway"
	initchecker "spice-portal-backend/lib/utils/init-checker"
	"spice-portal-backend/models"
	approvalapimodels "spice-portal-backend/models/api/approval"
)

// NotAvailable placeholder of a value that is missing or could not be fetched
const NotAvailable = "N/A"

type Provider interface {
	Review(ctx context.Context, id string) (approvalapimodels.ReviewView, error)
}

// LookupResolver turns lookup ids into display names
type LookupResolver interface {
	Name(dict models.LookupDict, id int) (name string, ok bool)
}

var Instance Provider

func NewHandler(gateway resourcegateway.Provider, lookups LookupResolver) {
	instance := impl{
		approvals: approvalrequesthandler.Instance,
		gateway:   gateway,
		lookups:   lookups,
	}
	initchecker.CheckInit(
		"approvals", instance.approvals,
		"gateway", gateway,
	)
	Instance = instance
}

type approvalGetter interface {
	Get(id string) (approvalapimodels.ApprovalView, error)
}

type impl struct {
	approvals approvalGetter
	gateway   resourcegateway.Provider
	lookups   LookupResolver
}

var lookupFields = map[string]models.LookupDict{
	"provinceId":           models.LookupProvince,
	"numberOfEmployeeId":   models.LookupNumberOfEmployees,
	"businessExperienceId": models.LookupExperience,
	"certificateIds":       models.LookupCertificates,
	"certificateType":      models.LookupCertificates,
	"productId":            models.LookupProducts,
}

func (i impl) Review(ctx context.Context, id string) (approvalapimodels.ReviewView, error) {
	request, err := i.approvals.Get(id)
	if err != nil {
		return approvalapimodels.ReviewView{}, err
	}
	view := approvalapimodels.ReviewView{Request: request}

	var table fieldmapper.Table
	if target, err := resourcegateway.ParseTarget(request.RequestedURL); err == nil {
		table, _ = fieldmapper.TableFor(target.Resource)
	}

	var current map[string]any
	if request.Type != models.ApprovalTypeCertificateIssuance {
		current, err = i.gateway.Get(ctx, request.RequestedURL)
		if err != nil {
			log.
				WithField("approval_request_id", id).
				WithField("target", request.RequestedURL).
				WithError(err).
				Warn("current resource not available for review")
			current = nil
		}
		view.CurrentAvailable = current != nil
	}

	fields := sortedKeys(request.RequestData)
	if request.Type == models.ApprovalTypeDeleteData {
		fields = sortedKeys(current)
	}
	view.Rows = make([]approvalapimodels.ReviewRow, 0, len(fields))
	for _, field := range fields {
		row := approvalapimodels.ReviewRow{
			Field:          field,
			Label:          label(table, field),
			CurrentValue:   NotAvailable,
			RequestedValue: NotAvailable,
		}
		if value, ok := current[field]; ok {
			row.CurrentValue = i.display(field, value)
		}
		if value, ok := request.RequestData[field]; ok {
			row.RequestedValue = i.display(field, value)
		}
		view.Rows = append(view.Rows, row)
	}
	return view, nil
}

func label(table fieldmapper.Table, field string) string {
	if l := table.Label(field); l != "" {
		return l
	}
	switch field {
	case approvalbuilder.CertificateTypeKey:
		return "Certificate type"
	case approvalbuilder.RecipientIDsKey:
		return "Recipients"
	}
	return humanize(field)
}

// humanize "businessRegNo" -> "Business reg no"
func humanize(field string) string {
	var sb strings.Builder
	for idx, r := range field {
		switch {
		case r == '_':
			sb.WriteRune(' ')
		case unicode.IsUpper(r) && idx > 0:
			sb.WriteRune(' ')
			sb.WriteRune(unicode.ToLower(r))
		case idx == 0:
			sb.WriteRune(unicode.ToUpper(r))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func (i impl) display(field string, value any) string {
	if fieldmapper.IsBlank(value) {
		return NotAvailable
	}
	if dict, ok := lookupFields[field]; ok {
		return i.displayLookup(dict, value)
	}
	switch v := value.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.Format("2006-01-02")
		}
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case []any:
		if len(v) == 0 {
			return NotAvailable
		}
		if _, isLine := v[0].(map[string]any); isLine {
			return i.displayProducts(v)
		}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, i.display("", item))
		}
		return strings.Join(parts, ", ")
	case []map[string]any:
		list := make([]any, 0, len(v))
		for _, item := range v {
			list = append(list, item)
		}
		return i.displayProducts(list)
	case []string:
		return strings.Join(v, ", ")
	case []int:
		list := make([]any, 0, len(v))
		for _, item := range v {
			list = append(list, item)
		}
		return i.display(field, list)
	}
	if d, err := fieldmapper.ToDecimalValue(value); err == nil {
		return d.String()
	}
	return fmt.Sprint(value)
}

func (i impl) displayLookup(dict models.LookupDict, value any) string {
	var ids []any
	switch v := value.(type) {
	case []any:
		ids = v
	case []int:
		for _, id := range v {
			ids = append(ids, id)
		}
	default:
		ids = []any{value}
	}
	names := make([]string, 0, len(ids))
	for _, item := range ids {
		id, err := fieldmapper.ToIntValue(item)
		if err != nil {
			names = append(names, fmt.Sprint(item))
			continue
		}
		names = append(names, i.lookupName(dict, id))
	}
	if len(names) == 0 {
		return NotAvailable
	}
	return strings.Join(names, ", ")
}

func (i impl) lookupName(dict models.LookupDict, id int) string {
	if i.lookups != nil {
		if name, ok := i.lookups.Name(dict, id); ok {
			return name
		}
	}
	return fmt.Sprintf("#%d", id)
}

// displayProducts "Cinnamon: 120.5 (raw)" per line
func (i impl) displayProducts(lines []any) string {
	parts := make([]string, 0, len(lines))
	for _, item := range lines {
		line, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := NotAvailable
		if id, err := fieldmapper.ToIntValue(line["productId"]); err == nil {
			name = i.lookupName(models.LookupProducts, id)
		}
		value := NotAvailable
		if d, err := fieldmapper.ToDecimalValue(line["value"]); err == nil {
			value = d.String()
		}
		var flags []string
		if raw, _ := line["isRaw"].(bool); raw {
			flags = append(flags, "raw")
		}
		if processed, _ := line["isProcessed"].(bool); processed {
			flags = append(flags, "processed")
		}
		text := fmt.Sprintf("%s: %s", name, value)
		if len(flags) > 0 {
			text += fmt.Sprintf(" (%s)", strings.Join(flags, ", "))
		}
		parts = append(parts, text)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
