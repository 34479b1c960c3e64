package reconciler

import (
	"fmt"

	approvalbuilder "spice-portal-backend/lib/approval-request/builder"
	fieldmapper "spice-portal-backend/lib/field-mapper"
	resourcegateway "spice-portal-backend/lib/resource-gateway"
	snapshotdiff "spice-portal-backend/lib/snapshot-diff"
	"spice-portal-backend/models"
	approvalapimodels "spice-portal-backend/models/api/approval"
)

// Reconciler turns an edited form of an entity into the minimal API patch and its approval envelope
type Reconciler[T any] struct {
	table    fieldmapper.Table
	label    string
	snapshot func(rec T) map[string]any
	opts     []snapshotdiff.Option
}

// New snapshot returns the stored entity keyed by API field names
func New[T any](table fieldmapper.Table, label string, snapshot func(rec T) map[string]any) Reconciler[T] {
	return Reconciler[T]{
		table:    table,
		label:    label,
		snapshot: snapshot,
		opts: []snapshotdiff.Option{
			snapshotdiff.WithSetKey("products", "productId"),
			snapshotdiff.WithDateFields("registrationDate"),
		},
	}
}

func (r Reconciler[T]) Resource() string {
	return r.table.Name()
}

func (r Reconciler[T]) Target(id string) string {
	return resourcegateway.ResourcePath(r.table.Name(), id)
}

// Baseline the UI form of the stored entity
func (r Reconciler[T]) Baseline(rec T) map[string]any {
	return r.table.ToUI(r.snapshot(rec))
}

// Reconcile diffs the forms in API shape and strictly maps the changed fields, ErrEmptyDiff when nothing changed.
// Both sides go through the lenient mapping first so aliases and omitted defaults do not count as edits.
func (r Reconciler[T]) Reconcile(original, current map[string]any) (map[string]any, error) {
	changed := snapshotdiff.Diff(r.table.Map(original), r.table.Map(current), r.opts...)
	if len(changed) == 0 {
		return nil, models.ErrEmptyDiff
	}
	patch, err := r.table.MapStrict(changed)
	if err != nil {
		return nil, err
	}
	return patch, nil
}

// Edit builds the editData envelope for record id, the stored entity is the baseline when original is nil
func (r Reconciler[T]) Edit(id string, rec T, original, current map[string]any) (approvalapimodels.CreateData, error) {
	if original == nil {
		original = r.Baseline(rec)
	}
	patch, err := r.Reconcile(original, current)
	if err != nil {
		return approvalapimodels.CreateData{}, err
	}
	return r.envelope(models.ApprovalTypeEditData, id, fmt.Sprintf("%s data edit", r.label), patch)
}

// Delete builds the deleteData envelope for record id
func (r Reconciler[T]) Delete(id string) (approvalapimodels.CreateData, error) {
	return r.envelope(models.ApprovalTypeDeleteData, id, fmt.Sprintf("%s delete", r.label), nil)
}

func (r Reconciler[T]) envelope(kind models.ApprovalType, id, label string, patch map[string]any) (approvalapimodels.CreateData, error) {
	rec, err := approvalbuilder.Build(kind, r.Target(id), label, patch)
	if err != nil {
		return approvalapimodels.CreateData{}, err
	}
	return approvalapimodels.CreateData{
		Type:         rec.Type,
		RequestName:  rec.RequestName,
		RequestData:  rec.RequestData,
		RequestedURL: rec.RequestedURL,
	}, nil
}
