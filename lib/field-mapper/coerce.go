package fieldmapper

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Coercion int

const (
	AsIs Coercion = iota
	ToString
	ToInt
	ToFloat
	ToDecimal
	ToIntArray
	ToISODate
	ToBool
	ToProductLines
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02.01.2006",
}

// Coerce converts a UI value into the API shape. nil and blank strings become nil.
func Coerce(c Coercion, value any) (any, error) {
	if IsBlank(value) {
		return nil, nil
	}
	switch c {
	case AsIs:
		return value, nil
	case ToString:
		return toString(value)
	case ToInt:
		return ToIntValue(value)
	case ToFloat:
		return toFloat(value)
	case ToDecimal:
		return ToDecimalValue(value)
	case ToIntArray:
		return toIntArray(value)
	case ToISODate:
		return toISODate(value)
	case ToBool:
		return toBool(value)
	case ToProductLines:
		return toProductLines(value)
	}
	return nil, errors.Errorf("unknown coercion %d", c)
}

// IsBlank nil or a whitespace-only string
func IsBlank(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func toString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return fmt.Sprint(v), nil
	}
	return "", errors.Errorf("%v is not a text value", value)
}

func ToIntValue(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8, int16, int32, int64:
		return int(reflect.ValueOf(v).Int()), nil
	case uint, uint8, uint16, uint32, uint64:
		return int(reflect.ValueOf(v).Uint()), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		return ToIntValue(string(v))
	case decimal.Decimal:
		if !v.IsInteger() {
			return 0, errors.Errorf("%s is not a whole number", v.String())
		}
		return int(v.IntPart()), nil
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, errors.Errorf("%q is not a number", v)
		}
		return floatToInt(f)
	case map[string]any:
		// select option {value, label}
		for _, key := range []string{"value", "id", "code"} {
			if option, ok := v[key]; ok {
				return ToIntValue(option)
			}
		}
	}
	return 0, errors.Errorf("%v is not a number", value)
}

func floatToInt(f float64) (int, error) {
	if f != float64(int(f)) {
		return 0, errors.Errorf("%v is not a whole number", f)
	}
	return int(f), nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := ToIntValue(v)
		return float64(n), err
	case json.Number:
		return v.Float64()
	case decimal.Decimal:
		return v.InexactFloat64(), nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 64)
		if err != nil {
			return 0, errors.Errorf("%q is not a number", v)
		}
		return f, nil
	}
	return 0, errors.Errorf("%v is not a number", value)
}

func ToDecimalValue(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := ToIntValue(v)
		return decimal.NewFromInt(int64(n)), err
	case json.Number:
		return decimal.NewFromString(string(v))
	case string:
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(v), ",", ""))
		if err != nil {
			return decimal.Zero, errors.Errorf("%q is not a number", v)
		}
		return d, nil
	}
	return decimal.Zero, errors.Errorf("%v is not a number", value)
}

func toIntArray(value any) ([]int, error) {
	items, isList := asList(value)
	if !isList {
		if s, ok := value.(string); ok && strings.Contains(s, ",") {
			for _, part := range strings.Split(s, ",") {
				if strings.TrimSpace(part) != "" {
					items = append(items, part)
				}
			}
		} else {
			items = []any{value}
		}
	}
	seen := map[int]bool{}
	result := make([]int, 0, len(items))
	for _, item := range items {
		if IsBlank(item) {
			continue
		}
		n, err := ToIntValue(item)
		if err != nil {
			return nil, err
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	sort.Ints(result)
	return result, nil
}

func toISODate(value any) (string, error) {
	var parsed time.Time
	switch v := value.(type) {
	case time.Time:
		parsed = v
	case *time.Time:
		if v == nil {
			return "", errors.New("empty date")
		}
		parsed = *v
	case string:
		s := strings.TrimSpace(v)
		found := false
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				parsed = t
				found = true
				break
			}
		}
		if !found {
			return "", errors.Errorf("%q is not a date", v)
		}
	default:
		return "", errors.Errorf("%v is not a date", value)
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339), nil
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		n, err := toFloat(v)
		if err == nil && (n == 0 || n == 1) {
			return n == 1, nil
		}
	}
	return false, errors.Errorf("%v is not a yes/no value", value)
}

var (
	productIDKeys   = []string{"productId", "product", "productID"}
	productValKeys  = []string{"value", "quantity", "amount"}
	productRawKeys  = []string{"isRaw", "raw"}
	productProcKeys = []string{"isProcessed", "processed"}
	productInfoKeys = []string{"details", "description", "remarks"}
)

func toProductLines(value any) ([]map[string]any, error) {
	items, ok := asList(value)
	if !ok {
		return nil, errors.Errorf("%v is not a list of product lines", value)
	}
	result := make([]map[string]any, 0, len(items))
	for idx, item := range items {
		line, ok := asMap(item)
		if !ok {
			return nil, errors.Errorf("product line %d is not an object", idx+1)
		}
		productID := 0
		if raw := pick(line, productIDKeys); !IsBlank(raw) {
			n, err := ToIntValue(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "product line %d", idx+1)
			}
			productID = n
		}
		amount := decimal.Zero
		if raw := pick(line, productValKeys); !IsBlank(raw) {
			d, err := ToDecimalValue(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "product line %d", idx+1)
			}
			amount = d
		}
		isRaw, err := optionalBool(pick(line, productRawKeys))
		if err != nil {
			return nil, errors.Wrapf(err, "product line %d", idx+1)
		}
		isProcessed, err := optionalBool(pick(line, productProcKeys))
		if err != nil {
			return nil, errors.Wrapf(err, "product line %d", idx+1)
		}
		details := ""
		if raw := pick(line, productInfoKeys); !IsBlank(raw) {
			if details, err = toString(raw); err != nil {
				return nil, errors.Wrapf(err, "product line %d", idx+1)
			}
		}
		result = append(result, map[string]any{
			"productId":   productID,
			"value":       amount,
			"isRaw":       isRaw,
			"isProcessed": isProcessed,
			"details":     details,
		})
	}
	sort.SliceStable(result, func(a, b int) bool {
		return result[a]["productId"].(int) < result[b]["productId"].(int)
	})
	return result, nil
}

func optionalBool(value any) (bool, error) {
	if IsBlank(value) {
		return false, nil
	}
	return toBool(value)
}

func pick(m map[string]any, keys []string) any {
	for _, key := range keys {
		if value, ok := m[key]; ok {
			return value
		}
	}
	return nil
}

func asList(value any) ([]any, bool) {
	if list, ok := value.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
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
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	result := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		result[iter.Key().String()] = iter.Value().Interface()
	}
	return result, true
}
