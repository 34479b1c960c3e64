package snapshotdiff

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

func normalizeString(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func multisetEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	keysA := canonicalKeys(a)
	keysB := canonicalKeys(b)
	for i := range keysA {
		if keysA[i] != keysB[i] {
			return false
		}
	}
	return true
}

func canonicalKeys(list []any) []string {
	keys := make([]string, 0, len(list))
	for _, item := range list {
		keys = append(keys, canonicalKey(item))
	}
	sort.Strings(keys)
	return keys
}

// canonicalKey order-insensitive textual form of a value, equal values give equal keys
func canonicalKey(value any) string {
	if isEmpty(value) {
		return "null"
	}
	if list, ok := asList(value); ok {
		return "[" + strings.Join(canonicalKeys(list), ",") + "]"
	}
	if m, ok := asMap(value); ok {
		keys := make([]string, 0, len(m))
		for key, item := range m {
			if isEmpty(item) {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, key+"="+canonicalKey(m[key]))
		}
		return "{" + strings.Join(parts, ",") + "}"
	}
	switch v := value.(type) {
	case bool:
		return fmt.Sprintf("b:%t", v)
	case time.Time:
		return "t:" + v.UTC().Format(time.RFC3339Nano)
	}
	if d, ok := toDecimal(value); ok {
		return "n:" + d.String()
	}
	if s, ok := value.(string); ok {
		if b, ok := toBool(s); ok {
			return fmt.Sprintf("b:%t", b)
		}
		return "s:" + normalizeString(s)
	}
	return fmt.Sprintf("v:%#v", value)
}

func asList(value any) ([]any, bool) {
	if list, ok := value.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	result := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		result[i] = rv.Index(i).Interface()
	}
	return result, true
}

func asMap(value any) (map[string]any, bool) {
	if m, ok := value.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	result := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		result[iter.Key().String()] = iter.Value().Interface()
	}
	return result, true
}
