package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Product is the shop API's catalog item. Only the fields the storefront reads
// are decoded.
type Product struct {
	ID          string          `json:"_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	Rating      float64         `json:"rating"`
	Stock       int             `json:"stock"`
	Price       *Price          `json:"price,omitempty"`
	Images      []string        `json:"images,omitempty"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
	Category    ProductCategory `json:"category"`
}

type ProductCategory struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

// UnitPrice resolves price.current, then a flat price, then 0.
func (p Product) UnitPrice() float64 {
	if v, ok := p.Price.Resolve(); ok {
		return v
	}
	return 0
}

// Discounted reports whether beforeDiscount is strictly above the current price.
func (p Product) Discounted() bool {
	if p.Price == nil || p.Price.BeforeDiscount == nil || p.Price.Current == nil {
		return false
	}
	return *p.Price.BeforeDiscount > *p.Price.Current
}

// PrimaryImage returns the first image or the thumbnail.
func (p Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return p.Thumbnail
}

// Price accepts both a flat number and an object {current, beforeDiscount}.
type Price struct {
	Current        *float64 `json:"current,omitempty"`
	BeforeDiscount *float64 `json:"beforeDiscount,omitempty"`
	Currency       string   `json:"currency,omitempty"`
	Flat           *float64 `json:"-"`
}

// NewPrice builds an object-shaped price.
func NewPrice(current float64) *Price {
	return &Price{Current: &current}
}

// FlatPrice builds a number-shaped price.
func FlatPrice(value float64) *Price {
	return &Price{Flat: &value}
}

// Resolve returns current, falling back to the flat value.
func (p *Price) Resolve() (float64, bool) {
	if p == nil {
		return 0, false
	}
	if p.Current != nil && isFinite(*p.Current) {
		return *p.Current, true
	}
	if p.Flat != nil && isFinite(*p.Flat) {
		return *p.Flat, true
	}
	return 0, false
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '{':
		type alias Price
		var decoded alias
		if err := json.Unmarshal(data, &decoded); err != nil {
			return fmt.Errorf("decoding price object: %w", err)
		}
		*p = Price(decoded)
		return nil
	case '"':
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// non-numeric price strings resolve to nothing
			return nil
		}
		p.Flat = &v
		return nil
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decoding price number: %w", err)
		}
		p.Flat = &v
		return nil
	}
}

func (p Price) MarshalJSON() ([]byte, error) {
	if p.Current == nil && p.BeforeDiscount == nil && p.Flat != nil {
		return json.Marshal(*p.Flat)
	}
	type alias Price
	return json.Marshal(alias(p))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
