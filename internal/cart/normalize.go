package cart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ItemPaths lists where a cart payload may keep its item array, in lookup
// order. An empty path means the payload itself.
var ItemPaths = [][]string{
	{},
	{"products"},
	{"cart"},
	{"cart", "products"},
	{"cart", "items"},
	{"items"},
	{"data"},
	{"data", "products"},
}

var quantityFields = []string{"quantity", "qty", "count", "amount"}

// MaxCount caps any single quantity and any count so that hostile payloads
// cannot overflow int.
const MaxCount = math.MaxInt32

// DecodePayload decodes a raw cart response. Malformed input yields nil,
// which normalizes to no items.
func DecodePayload(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	return payload
}

// NormalizeItems returns the first array found along ItemPaths.
func NormalizeItems(payload any) []any {
	for _, path := range ItemPaths {
		if items, ok := lookup(payload, path).([]any); ok {
			return items
		}
	}
	return nil
}

// CalculateCount sums the resolved quantity of every item.
func CalculateCount(items []any) int {
	total := 0
	for _, item := range items {
		total = addCapped(total, resolveQuantity(item))
	}
	return total
}

func lookup(payload any, path []string) any {
	current := payload
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = obj[key]
	}
	return current
}

// resolveQuantity takes the first non-null quantity field, defaulting to 1.
// Non-finite values count as 1; anything else is floored at zero.
func resolveQuantity(item any) int {
	var raw any = 1.0
	if obj, ok := item.(map[string]any); ok {
		for _, field := range quantityFields {
			if v, present := obj[field]; present && v != nil {
				raw = v
				break
			}
		}
	}
	n := toNumber(raw)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 1
	}
	return clampCount(n)
}

// clampCount floors a finite n into 0..MaxCount.
func clampCount(n float64) int {
	return int(math.Min(MaxCount, math.Max(0, math.Floor(n))))
}

// addCapped adds two counts in 0..MaxCount, saturating at MaxCount.
func addCapped(a, b int) int {
	return min(a+b, MaxCount)
}

func toNumber(v any) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case int:
		return float64(value)
	case json.Number:
		n, err := value.Float64()
		if err != nil {
			return math.NaN()
		}
		return n
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return 0
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	case bool:
		if value {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}

// parseStoredCount reads the leading integer of a persisted count. Only
// positive values are usable.
func parseStoredCount(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil || n <= 0 {
		return 0, false
	}
	return min(n, MaxCount), true
}
