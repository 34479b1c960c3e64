package snapshotdiff

import (
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func productOptions() []Option {
	return []Option{WithSetKey("products", "productId"), WithDateFields("registrationDate")}
}

func TestDiff(t *testing.T) {
	t.Run("identical snapshots give empty diff", func(t *testing.T) {
		snapshot := map[string]any{
			"businessName":   "Spice Co",
			"certifications": []any{1, 2},
			"products":       []any{map[string]any{"productId": 1, "value": 10}},
		}
		require.Empty(t, Diff(snapshot, snapshot, productOptions()...))
	})

	t.Run("only changed scalar is reported", func(t *testing.T) {
		original := map[string]any{"numberOfEmployees": "2", "businessName": "Spice Co"}
		current := map[string]any{"numberOfEmployees": "3", "businessName": "Spice Co"}
		require.Equal(t, map[string]any{"numberOfEmployees": "3"}, Diff(original, current))
	})

	t.Run("numbers compare across representations", func(t *testing.T) {
		original := map[string]any{"province": 2, "yearsTrading": 1.0, "amount": decimal.RequireFromString("10.50")}
		current := map[string]any{"province": "2", "yearsTrading": 1, "amount": "10.5"}
		require.Empty(t, Diff(original, current))
	})

	t.Run("strings are trimmed and NFC normalized", func(t *testing.T) {
		original := map[string]any{"businessName": "Caf\u00e9 Spices"}
		current := map[string]any{"businessName": " Cafe\u0301 Spices  "}
		require.Empty(t, Diff(original, current))
	})

	t.Run("reordered scalar array is not a change", func(t *testing.T) {
		original := map[string]any{"certifications": []any{3, 1, 2}}
		current := map[string]any{"certifications": []int{1, 2, 3}}
		require.Empty(t, Diff(original, current))
	})

	t.Run("duplicates matter for multisets", func(t *testing.T) {
		original := map[string]any{"tags": []any{"a", "b"}}
		current := map[string]any{"tags": []any{"a", "a"}}
		require.Contains(t, Diff(original, current), "tags")
	})

	t.Run("added product line reports the whole collection", func(t *testing.T) {
		original := map[string]any{"products": []any{map[string]any{"productId": 1, "value": 10}}}
		currentProducts := []any{
			map[string]any{"productId": 1, "value": 10},
			map[string]any{"productId": 2, "value": 5},
		}
		current := map[string]any{"products": currentProducts}
		require.Equal(t, map[string]any{"products": currentProducts}, Diff(original, current, productOptions()...))
	})

	t.Run("reordered product lines are not a change", func(t *testing.T) {
		original := map[string]any{"products": []any{
			map[string]any{"productId": 1, "value": 10},
			map[string]any{"productId": 2, "value": "5"},
		}}
		current := map[string]any{"products": []map[string]any{
			{"productId": "2", "value": 5},
			{"productId": 1, "value": decimal.NewFromInt(10)},
		}}
		require.Empty(t, Diff(original, current, productOptions()...))
	})

	t.Run("changed product value is reported", func(t *testing.T) {
		original := map[string]any{"products": []any{map[string]any{"productId": 1, "value": 10}}}
		current := map[string]any{"products": []any{map[string]any{"productId": 1, "value": 11}}}
		require.Contains(t, Diff(original, current, productOptions()...), "products")
	})

	t.Run("repeated product ids still report edits", func(t *testing.T) {
		duplicated := map[string]any{"products": []any{
			map[string]any{"productId": 1, "value": 10},
			map[string]any{"productId": 1, "value": 10},
		}}
		single := map[string]any{"products": []any{map[string]any{"productId": 1, "value": 10}}}
		require.Contains(t, Diff(duplicated, single, productOptions()...), "products")

		twoValues := map[string]any{"products": []any{
			map[string]any{"productId": 1, "value": 10},
			map[string]any{"productId": 1, "value": 20},
		}}
		lastValue := map[string]any{"products": []any{map[string]any{"productId": 1, "value": 20}}}
		require.Contains(t, Diff(twoValues, lastValue, productOptions()...), "products")
		require.Empty(t, Diff(twoValues, twoValues, productOptions()...))
	})

	t.Run("dates compare by calendar day", func(t *testing.T) {
		original := map[string]any{"registrationDate": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
		current := map[string]any{"registrationDate": "2024-03-01"}
		require.Empty(t, Diff(original, current, productOptions()...))

		current = map[string]any{"registrationDate": "2024-03-02"}
		require.Contains(t, Diff(original, current, productOptions()...), "registrationDate")
	})

	t.Run("cleared value is reported", func(t *testing.T) {
		original := map[string]any{"description": "old text"}
		current := map[string]any{"description": ""}
		require.Equal(t, map[string]any{"description": ""}, Diff(original, current))
	})

	t.Run("keys missing from current are ignored", func(t *testing.T) {
		original := map[string]any{"description": "old text", "province": 1}
		current := map[string]any{"province": 1}
		require.Empty(t, Diff(original, current))
	})

	t.Run("new key with value is reported", func(t *testing.T) {
		current := map[string]any{"address": "Matale"}
		require.Equal(t, current, Diff(map[string]any{}, current))
	})

	t.Run("nested objects compare structurally", func(t *testing.T) {
		original := map[string]any{"contact": map[string]any{"phone": "077", "fax": nil}}
		current := map[string]any{"contact": map[string]any{"phone": "077"}}
		require.Empty(t, Diff(original, current))
	})
}

func TestDiffProperties(t *testing.T) {
	original := map[string]any{
		"businessName":      "Spice Co",
		"numberOfEmployees": 2,
		"certifications":    []any{1, 2},
		"products":          []any{map[string]any{"productId": 1, "value": 10}},
	}
	current := map[string]any{
		"businessName":      "Spice Company",
		"numberOfEmployees": "2",
		"certifications":    []any{2, 1, 5},
		"products":          []any{map[string]any{"productId": 1, "value": "10"}},
	}
	diff := Diff(original, current, productOptions()...)

	t.Run("minimality", func(t *testing.T) {
		for key := range diff {
			require.False(t, Equal(original[key], current[key]), key)
		}
		require.Equal(t, []string{"businessName", "certifications"}, sortedKeys(diff))
	})

	t.Run("correctness", func(t *testing.T) {
		merged := map[string]any{}
		for key, value := range original {
			merged[key] = value
		}
		for key, value := range diff {
			merged[key] = value
		}
		require.Empty(t, Diff(merged, current, productOptions()...))
	})
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
