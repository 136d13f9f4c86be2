package catalog

import (
	"math"
	"sort"
	"strings"

	"github.com/angelmondragon/storefront-core/pkg/types"
)

const (
	BestProductsLimit  = 9
	SuggestionsLimit   = 5
	minSuggestionInput = 2
)

// BestProducts ranks five-star products first, then by rating, then by the
// higher price, and returns the first n.
func BestProducts(products []types.Product, n int) []types.Product {
	if n <= 0 || len(products) == 0 {
		return []types.Product{}
	}
	ranked := make([]types.Product, len(products))
	copy(ranked, products)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if fa, fb := isFiveStar(a), isFiveStar(b); fa != fb {
			return fa
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.UnitPrice() > b.UnitPrice()
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func isFiveStar(p types.Product) bool {
	return math.Round(p.Rating) == 5
}

// Suggestions returns up to n products matching term for the search box.
// Terms shorter than two characters yield nothing.
func Suggestions(products []types.Product, term string, n int) []types.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	out := []types.Product{}
	if len([]rune(term)) < minSuggestionInput || n <= 0 {
		return out
	}
	for _, p := range products {
		if matchesTerm(p, term) {
			out = append(out, p)
			if len(out) == n {
				break
			}
		}
	}
	return out
}
