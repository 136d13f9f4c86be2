package catalog

import (
	"math"
	"sort"
	"strings"

	"github.com/angelmondragon/storefront-core/pkg/enums"
	"github.com/angelmondragon/storefront-core/pkg/types"
)

// IPhoneBrand is a pseudo brand: it matches product titles, not the brand field.
const IPhoneBrand = "iPhone"

// FilterConfig is the shopper's catalog selection. Brand and CategoryID pick
// the endpoint; the other fields are client-side filters.
type FilterConfig struct {
	Brand          string              `json:"brand,omitempty"`
	CategoryID     string              `json:"categoryId,omitempty"`
	Search         string              `json:"search,omitempty"`
	MinPrice       *float64            `json:"minPrice,omitempty"`
	MaxPrice       *float64            `json:"maxPrice,omitempty"`
	OnlyDiscounted bool                `json:"onlyDiscounted,omitempty"`
	MinRating      float64             `json:"minRating,omitempty"`
	OnlyInStock    bool                `json:"onlyInStock,omitempty"`
	Sort           enums.SortDirection `json:"sort,omitempty"`
}

// HasActiveFilters reports whether the listing must be filtered locally.
func HasActiveFilters(cfg FilterConfig) bool {
	return strings.TrimSpace(cfg.Search) != "" ||
		cfg.MinPrice != nil ||
		cfg.MaxPrice != nil ||
		cfg.OnlyDiscounted ||
		cfg.MinRating > 0 ||
		cfg.OnlyInStock
}

// Filter narrows products by brand, search, price range, discount, rating and
// stock, in that order, then sorts by price when asked. The input is not
// modified.
func Filter(products []types.Product, cfg FilterConfig) []types.Product {
	out := make([]types.Product, 0, len(products))
	for _, p := range products {
		if matches(p, cfg) {
			out = append(out, p)
		}
	}
	switch cfg.Sort {
	case enums.SortAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].UnitPrice() < out[j].UnitPrice() })
	case enums.SortDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].UnitPrice() > out[j].UnitPrice() })
	}
	return out
}

func matches(p types.Product, cfg FilterConfig) bool {
	if !matchesBrand(p, cfg.Brand) {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(cfg.Search)); term != "" && !matchesTerm(p, term) {
		return false
	}
	if cfg.MinPrice != nil || cfg.MaxPrice != nil {
		lo, hi := 0.0, math.Inf(1)
		if cfg.MinPrice != nil {
			lo = *cfg.MinPrice
		}
		if cfg.MaxPrice != nil {
			hi = *cfg.MaxPrice
		}
		price := p.UnitPrice()
		if price < lo || price > hi {
			return false
		}
	}
	if cfg.OnlyDiscounted && !p.Discounted() {
		return false
	}
	if cfg.MinRating > 0 && p.Rating < cfg.MinRating {
		return false
	}
	if cfg.OnlyInStock && p.Stock <= 0 {
		return false
	}
	return true
}

func matchesBrand(p types.Product, brand string) bool {
	switch brand {
	case "":
		return true
	case IPhoneBrand:
		return strings.Contains(strings.ToLower(p.Title), "iphone")
	default:
		return p.Brand == brand
	}
}

// matchesTerm expects a lowercased term.
func matchesTerm(p types.Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Brand), term)
}
