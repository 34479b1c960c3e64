package fieldmapper

import (
	"sort"

	"spice-portal-backend/models"
)

type Field struct {
	UIName   string
	APIName  string
	Label    string
	Coercion Coercion
}

// Table static UI name -> API name mapping of one entity
type Table struct {
	name  string
	byUI  map[string]Field
	byAPI map[string]Field
	order []string
}

func NewTable(name string, fields ...Field) Table {
	t := Table{
		name:  name,
		byUI:  make(map[string]Field, len(fields)),
		byAPI: make(map[string]Field, len(fields)),
		order: make([]string, 0, len(fields)),
	}
	for _, field := range fields {
		if field.APIName == "" {
			field.APIName = field.UIName
		}
		t.byUI[field.UIName] = field
		t.byAPI[field.APIName] = field
		t.order = append(t.order, field.APIName)
	}
	return t
}

func (t Table) Name() string {
	return t.name
}

// Lookup finds a field by its UI or API name
func (t Table) Lookup(name string) (Field, bool) {
	if field, ok := t.byUI[name]; ok {
		return field, true
	}
	field, ok := t.byAPI[name]
	return field, ok
}

// APINames mapped field names in declaration order
func (t Table) APINames() []string {
	return append([]string(nil), t.order...)
}

// Label human label of an API or UI field name
func (t Table) Label(name string) string {
	if field, ok := t.Lookup(name); ok && field.Label != "" {
		return field.Label
	}
	return ""
}

// Map lenient mapping used while the form is being edited: values that cannot be coerced are kept as they are
func (t Table) Map(ui map[string]any) map[string]any {
	result := make(map[string]any, len(ui))
	for key, value := range ui {
		field, ok := t.Lookup(key)
		if !ok {
			result[key] = value
			continue
		}
		coerced, err := Coerce(field.Coercion, value)
		if err != nil {
			coerced = value
		}
		result[field.APIName] = coerced
	}
	return result
}

// MapStrict fails with a models.ValidationError on the first value that cannot be coerced
func (t Table) MapStrict(ui map[string]any) (map[string]any, error) {
	result := make(map[string]any, len(ui))
	for _, key := range sortedKeys(ui) {
		value := ui[key]
		field, ok := t.Lookup(key)
		if !ok {
			result[key] = value
			continue
		}
		coerced, err := Coerce(field.Coercion, value)
		if err != nil {
			return nil, models.NewValidationError("%s: %s", key, err.Error())
		}
		result[field.APIName] = coerced
	}
	return result, nil
}

// ToUI renames API keys back to UI keys, values are untouched
func (t Table) ToUI(api map[string]any) map[string]any {
	result := make(map[string]any, len(api))
	for key, value := range api {
		if field, ok := t.byAPI[key]; ok {
			result[field.UIName] = value
			continue
		}
		result[key] = value
	}
	return result
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
