package pagination

import (
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is used when no page size is requested.
	DefaultPageSize = 9
	// AllPageSize is what the "ALL" option resolves to.
	AllPageSize = 38
	// AllOption is the page size token that selects AllPageSize.
	AllOption = "ALL"
)

// AllowedPageSizes are the numeric sizes a shopper may pick besides ALL.
var AllowedPageSizes = []int{6, 9, 18, 36}

// Sizes resolves page size tokens against configured defaults.
type Sizes struct {
	Default int
	All     int
}

// DefaultSizes mirrors the package constants.
var DefaultSizes = Sizes{Default: DefaultPageSize, All: AllPageSize}

// ParsePageSize resolves a page size token with DefaultSizes.
func ParsePageSize(raw string) int {
	return DefaultSizes.Parse(raw)
}

// Parse resolves "ALL" to s.All and any allowed number to itself. Anything
// else falls back to s.Default.
func (s Sizes) Parse(raw string) int {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, AllOption) {
		return s.all()
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return s.fallback()
	}
	for _, allowed := range AllowedPageSizes {
		if n == allowed {
			return n
		}
	}
	if n == s.all() {
		return n
	}
	return s.fallback()
}

func (s Sizes) all() int {
	if s.All <= 0 {
		return AllPageSize
	}
	return s.All
}

func (s Sizes) fallback() int {
	if s.Default <= 0 {
		return DefaultPageSize
	}
	return s.Default
}

// PageCount returns ceil(total/limit), or 0 when either side is not positive.
func PageCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// PageList enumerates 1..PageCount(total, limit).
func PageList(total, limit int) []int {
	count := PageCount(total, limit)
	pages := make([]int, count)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// ClampPage returns page when it is within 1..count and 1 otherwise.
func ClampPage(page, count int) int {
	if page < 1 || page > count {
		return 1
	}
	return page
}

// Slice returns the items of the 1-based page.
func Slice[T any](items []T, page, size int) []T {
	if size <= 0 || page < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}
