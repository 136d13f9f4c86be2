package cart

import (
	"encoding/json"
	"strings"

	"github.com/angelmondragon/storefront-core/pkg/types"
)

// Line is one product entry of the cart. Product is the detail snapshot when
// known; Price is the line-level price the server reported.
type Line struct {
	ProductID string         `json:"productId"`
	Quantity  int            `json:"quantity"`
	Product   *types.Product `json:"product,omitempty"`
	Price     *types.Price   `json:"price,omitempty"`
}

// UnitPrice resolves product.price.current, product.price, line.price.current,
// line.price, then 0.
func (l Line) UnitPrice() float64 {
	if l.Product != nil {
		if v, ok := l.Product.Price.Resolve(); ok {
			return v
		}
	}
	if v, ok := l.Price.Resolve(); ok {
		return v
	}
	return 0
}

// Title falls back to the product id when no snapshot is attached.
func (l Line) Title() string {
	if l.Product != nil && l.Product.Title != "" {
		return l.Product.Title
	}
	return l.ProductID
}

// Snapshot is an immutable copy of the cart state.
type Snapshot struct {
	Lines []Line `json:"lines"`
	Count int    `json:"count"`
}

func copyLines(lines []Line) []Line {
	if len(lines) == 0 {
		return []Line{}
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

func sumQuantities(lines []Line) int {
	total := 0
	for _, line := range lines {
		total = addCapped(total, line.Quantity)
	}
	return total
}

// linesFromItems converts normalized payload items into lines. Items without a
// recognizable product id are skipped.
func linesFromItems(items []any) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		line := Line{Quantity: resolveQuantity(obj)}
		if nested, ok := obj["product"].(map[string]any); ok {
			line.Product = decodeProduct(nested)
		} else if _, hasTitle := obj["title"]; hasTitle {
			line.Product = decodeProduct(obj)
		}
		line.ProductID = firstString(obj, "productId", "_id", "id")
		if line.ProductID == "" && line.Product != nil {
			line.ProductID = line.Product.ID
		}
		if line.ProductID == "" {
			continue
		}
		line.Price = decodePrice(obj)
		lines = append(lines, line)
	}
	return lines
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func decodeProduct(obj map[string]any) *types.Product {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil
	}
	var product types.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil
	}
	return &product
}

func decodePrice(obj map[string]any) *types.Price {
	if v, ok := obj["price"]; ok && v != nil {
		raw, err := json.Marshal(v)
		if err == nil {
			var price types.Price
			if err := json.Unmarshal(raw, &price); err == nil {
				if _, ok := price.Resolve(); ok {
					return &price
				}
			}
		}
	}
	if v, ok := obj["pricePerQuantity"].(float64); ok {
		return types.FlatPrice(v)
	}
	return nil
}

// mergeSnapshots keeps known product details for lines the server returned
// without them.
func mergeSnapshots(next, previous []Line) []Line {
	known := make(map[string]*types.Product, len(previous))
	for _, line := range previous {
		if line.Product != nil {
			known[line.ProductID] = line.Product
		}
	}
	for i := range next {
		if next[i].Product == nil {
			next[i].Product = known[next[i].ProductID]
		}
	}
	return next
}
