package helpers

import (
	"context"
	"strings"
	"unicode"
)

func IsContextDone(ctx context.Context) bool {
	if ctx == nil {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// ToSnakeCase column name of an api field, "businessRegNo" -> "business_reg_no", "productID" -> "product_id"
func ToSnakeCase(str string) string {
	runes := []rune(str)
	var b strings.Builder
	b.Grow(len(str) + 4)
	for idx, r := range runes {
		if unicode.IsUpper(r) && idx > 0 {
			prev := runes[idx-1]
			acronymEnd := unicode.IsUpper(prev) && idx+1 < len(runes) && unicode.IsLower(runes[idx+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || acronymEnd {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
