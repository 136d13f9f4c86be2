package cart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeItemsCandidatePaths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
		want    int
	}{
		{name: "bare array", payload: `[{"quantity":1},{"quantity":1}]`, want: 2},
		{name: "products", payload: `{"products":[{"quantity":1}]}`, want: 1},
		{name: "cart array", payload: `{"cart":[{},{},{}]}`, want: 3},
		{name: "cart products", payload: `{"cart":{"products":[{}]}}`, want: 1},
		{name: "cart items", payload: `{"cart":{"items":[{},{}]}}`, want: 2},
		{name: "items", payload: `{"items":[{}]}`, want: 1},
		{name: "data array", payload: `{"data":[{},{}]}`, want: 2},
		{name: "data products", payload: `{"data":{"products":[{}]}}`, want: 1},
		{name: "no array", payload: `{"total":3}`, want: 0},
		{name: "malformed", payload: `{"cart":`, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items := NormalizeItems(DecodePayload([]byte(tc.payload)))
			require.Len(t, items, tc.want)
		})
	}
}

func TestNormalizeItemsFirstArrayWins(t *testing.T) {
	t.Parallel()

	payload := DecodePayload([]byte(`{"products":[{}],"items":[{},{},{}]}`))
	require.Len(t, NormalizeItems(payload), 1)
}

func TestCalculateCountNestedCart(t *testing.T) {
	t.Parallel()

	payload := DecodePayload([]byte(`{"cart":{"items":[{"quantity":2},{"qty":3}]}}`))
	require.Equal(t, 5, CalculateCount(NormalizeItems(payload)))
}

func TestResolveQuantity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		item any
		want int
	}{
		{name: "quantity", item: map[string]any{"quantity": 4.0}, want: 4},
		{name: "qty", item: map[string]any{"qty": 2.0}, want: 2},
		{name: "count", item: map[string]any{"count": 3.0}, want: 3},
		{name: "amount", item: map[string]any{"amount": 5.0}, want: 5},
		{name: "null falls through", item: map[string]any{"quantity": nil, "qty": 6.0}, want: 6},
		{name: "missing defaults to one", item: map[string]any{}, want: 1},
		{name: "numeric string", item: map[string]any{"quantity": "7"}, want: 7},
		{name: "garbage string", item: map[string]any{"quantity": "lots"}, want: 1},
		{name: "negative floors to zero", item: map[string]any{"quantity": -3.0}, want: 0},
		{name: "fraction floors", item: map[string]any{"quantity": 2.9}, want: 2},
		{name: "zero stays zero", item: map[string]any{"quantity": 0.0}, want: 0},
		{name: "non object", item: "p1", want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, resolveQuantity(tc.item))
		})
	}
}

func TestCalculateCountSaturates(t *testing.T) {
	t.Parallel()

	items := NormalizeItems(DecodePayload([]byte(`[{"quantity":2147483000},{"quantity":2147483000},{"qty":1e25}]`)))
	require.Equal(t, MaxCount, CalculateCount(items))
	require.Equal(t, MaxCount, resolveQuantity(map[string]any{"quantity": 1e20}))
	require.Equal(t, 3, CalculateCount(NormalizeItems(DecodePayload([]byte(`[{"quantity":1},{"quantity":2}]`)))))
}

func TestParseStoredCount(t *testing.T) {
	t.Parallel()

	n, ok := parseStoredCount("12")
	require.True(t, ok)
	require.Equal(t, 12, n)

	n, ok = parseStoredCount("4abc")
	require.True(t, ok)
	require.Equal(t, 4, n)

	for _, raw := range []string{"", "0", "-2", "abc"} {
		_, ok := parseStoredCount(raw)
		require.Falsef(t, ok, "expected %q to be unusable", raw)
	}
}

func TestLinesFromItems(t *testing.T) {
	t.Parallel()

	payload := DecodePayload([]byte(`{"products":[
		{"productId":"p1","quantity":2,"pricePerQuantity":10},
		{"product":{"_id":"p2","title":"Phone","price":{"current":99.5}},"qty":1},
		{"_id":"p3","title":"Laptop","price":250,"quantity":1},
		{"quantity":3}
	]}`))
	lines := linesFromItems(NormalizeItems(payload))
	require.Len(t, lines, 3)

	require.Equal(t, "p1", lines[0].ProductID)
	require.Equal(t, 2, lines[0].Quantity)
	require.Nil(t, lines[0].Product)
	require.InDelta(t, 10.0, lines[0].UnitPrice(), 1e-9)

	require.Equal(t, "p2", lines[1].ProductID)
	require.NotNil(t, lines[1].Product)
	require.Equal(t, "Phone", lines[1].Title())
	require.InDelta(t, 99.5, lines[1].UnitPrice(), 1e-9)

	require.Equal(t, "p3", lines[2].ProductID)
	require.InDelta(t, 250.0, lines[2].UnitPrice(), 1e-9)
}
