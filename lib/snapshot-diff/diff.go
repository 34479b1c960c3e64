package snapshotdiff

import (
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type options struct {
	setKeys    map[string]string
	dateFields map[string]bool
}

type Option func(*options)

// WithSetKey compares a list of objects as a set keyed by key, any difference reports the whole list
func WithSetKey(field, key string) Option {
	return func(o *options) {
		o.setKeys[field] = key
	}
}

// WithDateFields compares the fields by calendar date only
func WithDateFields(fields ...string) Option {
	return func(o *options) {
		for _, field := range fields {
			o.dateFields[field] = true
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		setKeys:    map[string]string{},
		dateFields: map[string]bool{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Diff returns the keys of current whose value differs from original, with the current value.
// Keys missing from current are not reported.
func Diff(original, current map[string]any, opts ...Option) map[string]any {
	o := newOptions(opts)
	result := map[string]any{}
	for key, value := range current {
		if !o.fieldEqual(key, original[key], value) {
			result[key] = value
		}
	}
	return result
}

// Equal reports whether two values are the same after canonicalization
func Equal(a, b any, opts ...Option) bool {
	o := newOptions(opts)
	return o.equal(a, b)
}

func (o options) fieldEqual(field string, a, b any) bool {
	if o.dateFields[field] {
		da, okA := toDate(a)
		db, okB := toDate(b)
		if okA && okB {
			return da == db
		}
	}
	if key, ok := o.setKeys[field]; ok {
		if equal, handled := o.keyedSetEqual(key, a, b); handled {
			return equal
		}
	}
	return o.equal(a, b)
}

func (o options) equal(a, b any) bool {
	if isEmpty(a) || isEmpty(b) {
		return isEmpty(a) && isEmpty(b)
	}
	listA, isListA := asList(a)
	listB, isListB := asList(b)
	if isListA || isListB {
		return isListA && isListB && multisetEqual(listA, listB)
	}
	mapA, isMapA := asMap(a)
	mapB, isMapB := asMap(b)
	if isMapA || isMapB {
		return isMapA && isMapB && o.mapEqual(mapA, mapB)
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := toTime(b); ok {
			return ta.Equal(tb)
		}
	}
	if tb, ok := b.(time.Time); ok {
		if ta, ok := toTime(a); ok {
			return ta.Equal(tb)
		}
	}
	if ba, ok := a.(bool); ok {
		bb, ok := toBool(b)
		return ok && ba == bb
	}
	if bb, ok := b.(bool); ok {
		ba, ok := toBool(a)
		return ok && ba == bb
	}
	sa, isStrA := a.(string)
	sb, isStrB := b.(string)
	if isStrA && isStrB {
		return normalizeString(sa) == normalizeString(sb)
	}
	da, okA := toDecimal(a)
	db, okB := toDecimal(b)
	if okA && okB {
		return da.Equal(db)
	}
	if isStrA || isStrB {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func (o options) mapEqual(a, b map[string]any) bool {
	for key, value := range a {
		if !o.equal(value, b[key]) {
			return false
		}
	}
	for key, value := range b {
		if _, ok := a[key]; !ok && !isEmpty(value) {
			return false
		}
	}
	return true
}

// keyedSetEqual handled is false when the values are not lists of objects carrying a unique key
func (o options) keyedSetEqual(key string, a, b any) (equal bool, handled bool) {
	if isEmpty(a) || isEmpty(b) {
		return false, false
	}
	byKeyA, okA := indexByKey(key, a)
	byKeyB, okB := indexByKey(key, b)
	if !okA || !okB {
		return false, false
	}
	if len(byKeyA) != len(byKeyB) {
		return false, true
	}
	for k, itemA := range byKeyA {
		itemB, ok := byKeyB[k]
		if !ok || canonicalKey(itemA) != canonicalKey(itemB) {
			return false, true
		}
	}
	return true, true
}

func indexByKey(key string, value any) (map[string]any, bool) {
	list, ok := asList(value)
	if !ok {
		return nil, false
	}
	result := make(map[string]any, len(list))
	for _, item := range list {
		m, ok := asMap(item)
		if !ok {
			return nil, false
		}
		id, ok := m[key]
		if !ok {
			return nil, false
		}
		k := canonicalKey(id)
		if _, dup := result[k]; dup {
			// repeated keys are compared as a plain multiset
			return nil, false
		}
		result[k] = m
	}
	return result, true
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case *time.Time:
		return v == nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Ptr:
		return rv.IsNil()
	}
	return false
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	case float32:
		return decimal.NewFromFloat32(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromUint64(rv.Uint()), true
	}
	if s, ok := value.(interface{ String() string }); ok {
		d, err := decimal.NewFromString(s.String())
		return d, err == nil
	}
	return decimal.Zero, false
}

func toBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func toDate(value any) (string, bool) {
	if isEmpty(value) {
		return "", true
	}
	t, ok := toTime(value)
	if !ok {
		return "", false
	}
	return t.Format("2006-01-02"), true
}
